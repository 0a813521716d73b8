package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wk-j/dev-team-sub001/internal/energy"
)

// EnergyAggregates gathers the inputs of the energy score for a user as of now.
func (t *Tx) EnergyAggregates(ctx context.Context, userID string, now time.Time) (energy.Aggregates, error) {
	var a energy.Aggregates

	err := t.q.QueryRowContext(ctx, `
	SELECT COUNT(DISTINCT wi.id)
	FROM work_item_contributors c
	JOIN work_items wi ON wi.id = c.work_item_id
	WHERE c.user_id = ? AND wi.state IN ('kindling', 'blazing')
	`, userID).Scan(&a.ActiveItems)
	if err != nil {
		return a, fmt.Errorf("failed to count active items: %w", err)
	}

	err = t.q.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM work_items
	WHERE primary_owner_id = ? AND state = 'crystallized' AND crystallized_at >= ?
	`, userID, ms(now.Add(-energy.CrystalWindow))).Scan(&a.RecentCrystals)
	if err != nil {
		return a, fmt.Errorf("failed to count recent crystals: %w", err)
	}

	err = t.q.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM stream_divers WHERE user_id = ? AND surfaced_at IS NULL
	`, userID).Scan(&a.OpenDives)
	if err != nil {
		return a, fmt.Errorf("failed to count open dives: %w", err)
	}

	var last sql.NullInt64
	err = t.q.QueryRowContext(ctx, `
	SELECT MAX(last_contributed_at) FROM work_item_contributors WHERE user_id = ?
	`, userID).Scan(&last)
	if err != nil {
		return a, fmt.Errorf("failed to get last contribution: %w", err)
	}
	a.LastContributedAt = timePtr(last)

	return a, nil
}
