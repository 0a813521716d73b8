package membership

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wk-j/dev-team-sub001/internal/store"
)

type countingSource struct {
	teams map[string][]string
	calls int
	err   error
}

func (s *countingSource) TeamsOf(_ context.Context, userID string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.teams[userID], nil
}

func TestSQLDirectory_CachesLookups(t *testing.T) {
	src := &countingSource{teams: map[string][]string{"alice": {"core", "infra"}}}
	d := NewSQLDirectory(src, 8, time.Minute, zerolog.Nop())
	ctx := context.Background()

	ok, err := d.IsMember(ctx, "alice", "infra")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.IsMember(ctx, "alice", "sales")
	require.NoError(t, err)
	assert.False(t, ok)

	team, err := d.TeamOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "core", team)

	assert.Equal(t, 1, src.calls)
}

func TestSQLDirectory_NoTeam(t *testing.T) {
	d := NewSQLDirectory(&countingSource{}, 8, time.Minute, zerolog.Nop())

	team, err := d.TeamOf(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, team)
}

func TestSQLDirectory_ErrorsAreNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("disk gone")}
	d := NewSQLDirectory(src, 8, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, err := d.IsMember(ctx, "alice", "core")
	require.Error(t, err)

	src.err = nil
	src.teams = map[string][]string{"alice": {"core"}}
	ok, err := d.IsMember(ctx, "alice", "core")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, src.calls)
}

const seedYAML = `
teams:
  - id: core
    name: Core Platform
    members:
      - id: alice
        name: Alice
        email: alice@example.com
        role: lead
      - id: bob
        name: Bob
  - id: infra
    members:
      - id: carol
`

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Teams, 2)
	assert.Equal(t, "Core Platform", seed.Teams[0].Name)
	assert.Equal(t, "lead", seed.Teams[0].Members[0].Role)
	assert.Len(t, seed.Teams[1].Members, 1)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing team id", "teams:\n  - name: x\n"},
		{"duplicate team", "teams:\n  - id: a\n  - id: a\n"},
		{"missing member id", "teams:\n  - id: a\n    members:\n      - name: x\n"},
		{"not yaml", "teams: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestApplySeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	st, err := store.New(filepath.Join(dir, "energy.db"), zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	seed, err := LoadSeed(path)
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	report, err := ApplySeed(ctx, st, seed, now)
	require.NoError(t, err)
	assert.Equal(t, SeedReport{Teams: 2, Members: 3}, report)

	// Applying twice is harmless.
	_, err = ApplySeed(ctx, st, seed, now.Add(time.Hour))
	require.NoError(t, err)

	d := NewSQLDirectory(st, 8, time.Minute, zerolog.Nop())
	ok, err := d.IsMember(ctx, "bob", "core")
	require.NoError(t, err)
	assert.True(t, ok)

	team, err := d.TeamOf(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "infra", team)

	require.NoError(t, st.View(ctx, func(tx *store.Tx) error {
		u, err := tx.GetUser(ctx, "carol")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "carol", u.Name)
		return nil
	}))
}

func TestLoadSeed_MissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
