package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	"github.com/wk-j/dev-team-sub001/internal/membership"
	"github.com/wk-j/dev-team-sub001/internal/metrics"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

var t0 = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	*Engine
	st    *store.Store
	clock *clock
	ctx   context.Context
}

// newFixture seeds team "core" (alice, bob, carol) and team "other"
// (mallory).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "energy.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	seed := &membership.Seed{Teams: []membership.SeedTeam{
		{ID: "core", Name: "Core", Members: []membership.SeedMember{{ID: "alice"}, {ID: "bob"}, {ID: "carol"}}},
		{ID: "other", Name: "Other", Members: []membership.SeedMember{{ID: "mallory"}}},
	}}
	_, err = membership.ApplySeed(ctx, st, seed, t0)
	require.NoError(t, err)

	c := &clock{t: t0}
	dir := membership.NewSQLDirectory(st, 64, 0, zerolog.Nop())
	e := New(st, dir, metrics.New(), zerolog.Nop(), WithClock(c.now), WithPingTTL(24*time.Hour))
	return &fixture{Engine: e, st: st, clock: c, ctx: ctx}
}

func (f *fixture) stream(t *testing.T, actor, name string) *domain.Stream {
	t.Helper()
	s, err := f.CreateStream(f.ctx, actor, name, "")
	require.NoError(t, err)
	return s
}

func (f *fixture) item(t *testing.T, actor, streamID, title string) *domain.WorkItem {
	t.Helper()
	w, err := f.CreateWorkItem(f.ctx, actor, CreateWorkItemInput{StreamID: streamID, Title: title})
	require.NoError(t, err)
	return w
}

// owned creates an item and assigns it to owner.
func (f *fixture) owned(t *testing.T, owner, streamID, title string) *domain.WorkItem {
	t.Helper()
	w := f.item(t, owner, streamID, title)
	w, err := f.AssignWorkItem(f.ctx, owner, w.ID, owner, "")
	require.NoError(t, err)
	return w
}

func (f *fixture) inbox(t *testing.T, user string) []*domain.Ping {
	t.Helper()
	pings, err := f.ListPings(f.ctx, user, Inbox, "", 0)
	require.NoError(t, err)
	return pings
}

func (f *fixture) storedItem(t *testing.T, id string) *domain.WorkItem {
	t.Helper()
	var w *domain.WorkItem
	require.NoError(t, f.st.View(f.ctx, func(tx *store.Tx) error {
		var err error
		w, err = tx.GetWorkItem(f.ctx, id)
		return err
	}))
	require.NotNil(t, w)
	return w
}

func (f *fixture) contributors(t *testing.T, id string) []domain.Contributor {
	t.Helper()
	var cs []domain.Contributor
	require.NoError(t, f.st.View(f.ctx, func(tx *store.Tx) error {
		var err error
		cs, err = tx.ListContributors(f.ctx, id)
		return err
	}))
	return cs
}

func (f *fixture) connection(t *testing.T, a, b string) *domain.Connection {
	t.Helper()
	var c *domain.Connection
	require.NoError(t, f.st.View(f.ctx, func(tx *store.Tx) error {
		var err error
		c, err = tx.FindConnection(f.ctx, a, b)
		return err
	}))
	return c
}
