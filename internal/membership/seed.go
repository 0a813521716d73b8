package membership

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

// Seed is the team roster file:
//
//	teams:
//	  - id: core
//	    name: Core Platform
//	    members:
//	      - id: alice
//	        name: Alice
//	        email: alice@example.com
//	        role: lead
type Seed struct {
	Teams []SeedTeam `yaml:"teams"`
}

// SeedTeam is one team and its members.
type SeedTeam struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Members []SeedMember `yaml:"members"`
}

// SeedMember is a user entry within a team.
type SeedMember struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// LoadSeed reads and validates a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates seed YAML.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate rejects entries without IDs and duplicate team IDs.
func (s *Seed) Validate() error {
	seen := make(map[string]bool, len(s.Teams))
	for i, t := range s.Teams {
		if t.ID == "" {
			return fmt.Errorf("team %d: missing id", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("team %s: duplicate id", t.ID)
		}
		seen[t.ID] = true
		for j, m := range t.Members {
			if m.ID == "" {
				return fmt.Errorf("team %s member %d: missing id", t.ID, j)
			}
		}
	}
	return nil
}

// SeedReport counts what ApplySeed wrote.
type SeedReport struct {
	Teams   int
	Members int
}

// ApplySeed upserts every team, user and membership of seed in one
// transaction. Existing users keep their attention state.
func ApplySeed(ctx context.Context, st *store.Store, seed *Seed, now time.Time) (SeedReport, error) {
	var report SeedReport
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		report = SeedReport{}
		for _, t := range seed.Teams {
			name := t.Name
			if name == "" {
				name = t.ID
			}
			if err := tx.UpsertTeam(ctx, domain.Team{ID: t.ID, Name: name, CreatedAt: now}); err != nil {
				return err
			}
			report.Teams++
			for _, m := range t.Members {
				name := m.Name
				if name == "" {
					name = m.ID
				}
				u := domain.User{ID: m.ID, Name: name, Email: m.Email, CreatedAt: now, UpdatedAt: now}
				if err := tx.UpsertUser(ctx, u); err != nil {
					return err
				}
				if err := tx.AddMember(ctx, t.ID, m.ID, m.Role, now); err != nil {
					return err
				}
				report.Members++
			}
		}
		return nil
	})
	return report, err
}
