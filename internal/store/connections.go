package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wk-j/dev-team-sub001/internal/domain"
)

const connectionColumns = `id, team_id, user_a_id, user_b_id, shared_work_items, resonance_score, last_interaction_at, created_at`

// FindConnection returns the connection between a and b in either order,
// or nil if they have none.
func (t *Tx) FindConnection(ctx context.Context, a, b string) (*domain.Connection, error) {
	c, err := scanConnection(t.q.QueryRowContext(ctx, `
	SELECT `+connectionColumns+` FROM resonance_connections
	WHERE (user_a_id = ? AND user_b_id = ?) OR (user_a_id = ? AND user_b_id = ?)
	`, a, b, b, a))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find connection: %w", err)
	}
	return c, nil
}

// InsertConnection stores a new connection.
func (t *Tx) InsertConnection(ctx context.Context, c *domain.Connection) error {
	_, err := t.q.ExecContext(ctx, `
	INSERT INTO resonance_connections (`+connectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.TeamID, c.UserAID, c.UserBID, c.SharedWorkItems, c.ResonanceScore,
		ms(c.LastInteractionAt), ms(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert connection: %w", err)
	}
	return nil
}

// UpdateConnection writes the counters of c.
func (t *Tx) UpdateConnection(ctx context.Context, c *domain.Connection) error {
	res, err := t.q.ExecContext(ctx, `
	UPDATE resonance_connections SET shared_work_items = ?, resonance_score = ?, last_interaction_at = ?
	WHERE id = ?
	`, c.SharedWorkItems, c.ResonanceScore, ms(c.LastInteractionAt), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}
	return mustAffect(res, "connection", c.ID)
}

// ListConnections returns every connection a user is part of, strongest first.
func (t *Tx) ListConnections(ctx context.Context, userID string) ([]domain.Connection, error) {
	rows, err := t.q.QueryContext(ctx, `
	SELECT `+connectionColumns+` FROM resonance_connections
	WHERE user_a_id = ? OR user_b_id = ?
	ORDER BY resonance_score DESC, last_interaction_at DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	out := []domain.Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanConnection(r rowScanner) (*domain.Connection, error) {
	c := &domain.Connection{}
	var last, created int64
	if err := r.Scan(&c.ID, &c.TeamID, &c.UserAID, &c.UserBID, &c.SharedWorkItems, &c.ResonanceScore, &last, &created); err != nil {
		return nil, err
	}
	c.LastInteractionAt = fromMs(last)
	c.CreatedAt = fromMs(created)
	return c, nil
}
