package engine

import (
	"context"
	"time"

	"github.com/wk-j/dev-team-sub001/internal/domain"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

// recordInteraction strengthens the connection between a and b, creating it
// on their first handoff.
func (e *Engine) recordInteraction(ctx context.Context, tx *store.Tx, teamID, a, b string, now time.Time) (*domain.Connection, error) {
	c, err := tx.FindConnection(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if c == nil {
		fresh := domain.NewConnection(e.newID(), teamID, a, b, now)
		if err := tx.InsertConnection(ctx, &fresh); err != nil {
			return nil, err
		}
		return &fresh, nil
	}
	c.RecordInteraction(now)
	if err := tx.UpdateConnection(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListConnections returns the actor's resonance connections, strongest first.
func (e *Engine) ListConnections(ctx context.Context, actorID string) ([]domain.Connection, error) {
	var out []domain.Connection
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		out, err = tx.ListConnections(ctx, actorID)
		return err
	})
	return out, err
}
