// Package membership answers team-membership questions for the engine and
// loads the team roster from a seed file.
package membership

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/wk-j/dev-team-sub001/internal/lru"
)

// Directory answers "is user X a member of team Y" and "what team does
// user X belong to". An empty team ID with a nil error means the user
// belongs to no team.
type Directory interface {
	IsMember(ctx context.Context, userID, teamID string) (bool, error)
	TeamOf(ctx context.Context, userID string) (string, error)
}

// TeamSource lists the teams of a user, oldest membership first.
type TeamSource interface {
	TeamsOf(ctx context.Context, userID string) ([]string, error)
}

// SQLDirectory answers from the team_members table and keeps each user's
// team list in a TTL-bounded LRU.
type SQLDirectory struct {
	source TeamSource
	cache  *lru.Cache[string, []string]
	logger zerolog.Logger
}

// NewSQLDirectory creates a directory over source caching up to size users
// for ttl each.
func NewSQLDirectory(source TeamSource, size int, ttl time.Duration, logger zerolog.Logger) *SQLDirectory {
	if size < 1 {
		size = 1
	}
	return &SQLDirectory{
		source: source,
		cache:  lru.New[string, []string](size, ttl),
		logger: logger.With().Str("component", "membership").Logger(),
	}
}

// IsMember reports whether userID belongs to teamID.
func (d *SQLDirectory) IsMember(ctx context.Context, userID, teamID string) (bool, error) {
	teams, err := d.teams(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(teams, teamID), nil
}

// TeamOf returns the user's primary team: the one joined first.
func (d *SQLDirectory) TeamOf(ctx context.Context, userID string) (string, error) {
	teams, err := d.teams(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(teams) == 0 {
		return "", nil
	}
	return teams[0], nil
}

func (d *SQLDirectory) teams(ctx context.Context, userID string) ([]string, error) {
	if teams, ok := d.cache.Get(userID); ok {
		return teams, nil
	}
	teams, err := d.source.TeamsOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("looking up teams of %s: %w", userID, err)
	}
	d.cache.Put(userID, teams)
	d.logger.Debug().Str("user_id", userID).Int("teams", len(teams)).Msg("membership cached")
	return teams, nil
}
