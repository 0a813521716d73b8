package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wk-j/dev-team-sub001/internal/domain"
)

const workItemColumns = `id, stream_id, title, description, depth, tags, state, energy_level, primary_owner_id, position, facets, brilliance, version, created_by, created_at, kindled_at, crystallized_at, updated_at`

// InsertWorkItem stores a new work item.
func (t *Tx) InsertWorkItem(ctx context.Context, w *domain.WorkItem) error {
	tags, err := json.Marshal(nonNilTags(w.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	_, err = t.q.ExecContext(ctx, `
	INSERT INTO work_items (id, stream_id, title, description, depth, tags, state, energy_level,
		primary_owner_id, position, facets, brilliance, version, created_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.ID, w.StreamID, w.Title, w.Description, string(w.Depth), string(tags), string(w.State), w.EnergyLevel,
		nullString(w.PrimaryOwnerID), w.Position, w.Facets, w.Brilliance, w.Version,
		w.CreatedBy, ms(w.CreatedAt), ms(w.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert work item: %w", err)
	}
	return nil
}

// GetWorkItem returns the work item with id, or nil if there is none.
func (t *Tx) GetWorkItem(ctx context.Context, id string) (*domain.WorkItem, error) {
	w, err := scanWorkItem(t.q.QueryRowContext(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}
	return w, nil
}

// ListWorkItems returns the items of a stream in position order.
func (t *Tx) ListWorkItems(ctx context.Context, streamID string) ([]*domain.WorkItem, error) {
	rows, err := t.q.QueryContext(ctx, `
	SELECT `+workItemColumns+` FROM work_items WHERE stream_id = ? ORDER BY position, created_at, id
	`, streamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	var items []*domain.WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// UpdateWorkItem writes the mutable fields of w if the stored version still
// equals w.Version, and bumps the version. ErrStale means another writer got
// there first.
func (t *Tx) UpdateWorkItem(ctx context.Context, w *domain.WorkItem) error {
	res, err := t.q.ExecContext(ctx, `
	UPDATE work_items SET
		state = ?, energy_level = ?, primary_owner_id = ?, facets = ?, brilliance = ?,
		kindled_at = ?, crystallized_at = ?, updated_at = ?, version = version + 1
	WHERE id = ? AND version = ?
	`, string(w.State), w.EnergyLevel, nullString(w.PrimaryOwnerID), w.Facets, w.Brilliance,
		nullMs(w.KindledAt), nullMs(w.CrystallizedAt), ms(w.UpdatedAt), w.ID, w.Version)
	if err != nil {
		return fmt.Errorf("failed to update work item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrStale
	}
	w.Version++
	return nil
}

// LastPosition returns the highest position in a stream, or nil when the
// stream is empty.
func (t *Tx) LastPosition(ctx context.Context, streamID string) (*float64, error) {
	var pos sql.NullFloat64
	err := t.q.QueryRowContext(ctx, `SELECT MAX(position) FROM work_items WHERE stream_id = ?`, streamID).Scan(&pos)
	if err != nil {
		return nil, fmt.Errorf("failed to get last position: %w", err)
	}
	if !pos.Valid {
		return nil, nil
	}
	return &pos.Float64, nil
}

// PositionAfter returns the position of the first item after pos in a
// stream, or nil when pos is the last.
func (t *Tx) PositionAfter(ctx context.Context, streamID string, pos float64) (*float64, error) {
	var next sql.NullFloat64
	err := t.q.QueryRowContext(ctx, `
	SELECT MIN(position) FROM work_items WHERE stream_id = ? AND position > ?
	`, streamID, pos).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to get next position: %w", err)
	}
	if !next.Valid {
		return nil, nil
	}
	return &next.Float64, nil
}

func scanWorkItem(r rowScanner) (*domain.WorkItem, error) {
	w := &domain.WorkItem{}
	var depth, tags, state string
	var owner sql.NullString
	var createdAt, updatedAt int64
	var kindledAt, crystallizedAt sql.NullInt64
	if err := r.Scan(
		&w.ID, &w.StreamID, &w.Title, &w.Description, &depth, &tags, &state, &w.EnergyLevel,
		&owner, &w.Position, &w.Facets, &w.Brilliance, &w.Version,
		&w.CreatedBy, &createdAt, &kindledAt, &crystallizedAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	w.Depth = domain.Depth(depth)
	w.State = domain.ItemState(state)
	w.PrimaryOwnerID = owner.String
	if err := json.Unmarshal([]byte(tags), &w.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of work item %s: %w", w.ID, err)
	}
	w.Tags = nonNilTags(w.Tags)
	w.CreatedAt = fromMs(createdAt)
	w.UpdatedAt = fromMs(updatedAt)
	w.KindledAt = timePtr(kindledAt)
	w.CrystallizedAt = timePtr(crystallizedAt)
	return w, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// ListContributors returns the contributors of an item, primary first.
func (t *Tx) ListContributors(ctx context.Context, itemID string) ([]domain.Contributor, error) {
	rows, err := t.q.QueryContext(ctx, `
	SELECT work_item_id, user_id, energy_contributed, is_primary, last_contributed_at, created_at
	FROM work_item_contributors WHERE work_item_id = ?
	ORDER BY is_primary DESC, created_at, user_id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors: %w", err)
	}
	defer rows.Close()

	var out []domain.Contributor
	for rows.Next() {
		var c domain.Contributor
		var primary int
		var last, created int64
		if err := rows.Scan(&c.WorkItemID, &c.UserID, &c.EnergyContributed, &primary, &last, &created); err != nil {
			return nil, fmt.Errorf("failed to scan contributor: %w", err)
		}
		c.IsPrimary = primary == 1
		c.LastContributedAt = fromMs(last)
		c.CreatedAt = fromMs(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetPrimaryContributor makes userID the only primary contributor of an
// item. The previous primary keeps its row with the flag cleared; a new row
// is inserted for userID if it has none.
func (t *Tx) SetPrimaryContributor(ctx context.Context, itemID, userID string, now time.Time) error {
	if _, err := t.q.ExecContext(ctx, `
	UPDATE work_item_contributors SET is_primary = 0 WHERE work_item_id = ? AND is_primary = 1 AND user_id != ?
	`, itemID, userID); err != nil {
		return fmt.Errorf("failed to clear primary contributor: %w", err)
	}
	if _, err := t.q.ExecContext(ctx, `
	INSERT INTO work_item_contributors (work_item_id, user_id, energy_contributed, is_primary, last_contributed_at, created_at)
	VALUES (?, ?, 0, 1, ?, ?)
	ON CONFLICT(work_item_id, user_id) DO UPDATE SET is_primary = 1
	`, itemID, userID, ms(now), ms(now)); err != nil {
		return fmt.Errorf("failed to set primary contributor: %w", err)
	}
	return nil
}

// AddContribution adds energy from userID to an item's contributor row,
// creating a non-primary row if needed.
func (t *Tx) AddContribution(ctx context.Context, itemID, userID string, amount int, now time.Time) error {
	_, err := t.q.ExecContext(ctx, `
	INSERT INTO work_item_contributors (work_item_id, user_id, energy_contributed, is_primary, last_contributed_at, created_at)
	VALUES (?, ?, ?, 0, ?, ?)
	ON CONFLICT(work_item_id, user_id) DO UPDATE SET
		energy_contributed = energy_contributed + excluded.energy_contributed,
		last_contributed_at = excluded.last_contributed_at
	`, itemID, userID, amount, ms(now), ms(now))
	if err != nil {
		return fmt.Errorf("failed to add contribution: %w", err)
	}
	return nil
}

// RespacePositions renumbers the items of a stream to PositionStep, 2 ×
// PositionStep, ... keeping their list order. It bumps each item's version
// and returns how many items were moved.
func (t *Tx) RespacePositions(ctx context.Context, streamID string) (int, error) {
	rows, err := t.q.QueryContext(ctx, `
	SELECT id FROM work_items WHERE stream_id = ? ORDER BY position, created_at, id
	`, streamID)
	if err != nil {
		return 0, fmt.Errorf("failed to list positions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan position: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to list positions: %w", err)
	}

	for i, id := range ids {
		_, err := t.q.ExecContext(ctx, `
		UPDATE work_items SET position = ?, version = version + 1 WHERE id = ?
		`, float64(i+1)*domain.PositionStep, id)
		if err != nil {
			return 0, fmt.Errorf("failed to respace work item: %w", err)
		}
	}
	return len(ids), nil
}
