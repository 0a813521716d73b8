package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wk-j/dev-team-sub001/internal/domain"
)

const streamColumns = `id, team_id, name, description, state, item_count, created_by, created_at, updated_at, evaporated_at`

// InsertStream stores a new stream.
func (t *Tx) InsertStream(ctx context.Context, st *domain.Stream) error {
	_, err := t.q.ExecContext(ctx, `
	INSERT INTO streams (id, team_id, name, description, state, item_count, created_by, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, st.ID, st.TeamID, st.Name, st.Description, string(st.State), st.ItemCount,
		st.CreatedBy, ms(st.CreatedAt), ms(st.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert stream: %w", err)
	}
	return nil
}

// GetStream returns the stream with id, or nil if there is none.
func (t *Tx) GetStream(ctx context.Context, id string) (*domain.Stream, error) {
	st, err := scanStream(t.q.QueryRowContext(ctx, `SELECT `+streamColumns+` FROM streams WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	return st, nil
}

// ListStreams returns a team's streams, newest first. Evaporated streams are
// left out unless includeEvaporated is set.
func (t *Tx) ListStreams(ctx context.Context, teamID string, includeEvaporated bool) ([]*domain.Stream, error) {
	query := `SELECT ` + streamColumns + ` FROM streams WHERE team_id = ?`
	if !includeEvaporated {
		query += ` AND state != 'evaporated'`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := t.q.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	defer rows.Close()

	var streams []*domain.Stream
	for rows.Next() {
		st, err := scanStream(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stream: %w", err)
		}
		streams = append(streams, st)
	}
	return streams, rows.Err()
}

// SetStreamState moves a stream to state. Evaporation stamps evaporated_at.
func (t *Tx) SetStreamState(ctx context.Context, id string, state domain.StreamState, now time.Time) error {
	var evaporatedAt sql.NullInt64
	if state == domain.StreamEvaporated {
		evaporatedAt = sql.NullInt64{Int64: ms(now), Valid: true}
	}
	res, err := t.q.ExecContext(ctx, `
	UPDATE streams SET state = ?, updated_at = ?, evaporated_at = COALESCE(?, evaporated_at) WHERE id = ?
	`, string(state), ms(now), evaporatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to set stream state: %w", err)
	}
	return mustAffect(res, "stream", id)
}

// IncrementItemCount bumps the cached item count of a stream.
func (t *Tx) IncrementItemCount(ctx context.Context, id string, now time.Time) error {
	res, err := t.q.ExecContext(ctx, `
	UPDATE streams SET item_count = item_count + 1, updated_at = ? WHERE id = ?
	`, ms(now), id)
	if err != nil {
		return fmt.Errorf("failed to increment item count: %w", err)
	}
	return mustAffect(res, "stream", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStream(r rowScanner) (*domain.Stream, error) {
	st := &domain.Stream{}
	var state string
	var createdAt, updatedAt int64
	var evaporatedAt sql.NullInt64
	if err := r.Scan(
		&st.ID, &st.TeamID, &st.Name, &st.Description, &state, &st.ItemCount,
		&st.CreatedBy, &createdAt, &updatedAt, &evaporatedAt,
	); err != nil {
		return nil, err
	}
	st.State = domain.StreamState(state)
	st.CreatedAt = fromMs(createdAt)
	st.UpdatedAt = fromMs(updatedAt)
	st.EvaporatedAt = timePtr(evaporatedAt)
	return st, nil
}
