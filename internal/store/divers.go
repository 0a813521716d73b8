package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wk-j/dev-team-sub001/internal/domain"
)

const diverColumns = `id, stream_id, user_id, dived_at, surfaced_at`

// SurfaceAllDives closes every open dive of a user, on any stream, and
// returns how many were closed.
func (t *Tx) SurfaceAllDives(ctx context.Context, userID string, now time.Time) (int64, error) {
	res, err := t.q.ExecContext(ctx, `
	UPDATE stream_divers SET surfaced_at = ? WHERE user_id = ? AND surfaced_at IS NULL
	`, ms(now), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to surface dives: %w", err)
	}
	return res.RowsAffected()
}

// SurfaceStreamDives closes every open dive on a stream.
func (t *Tx) SurfaceStreamDives(ctx context.Context, streamID string, now time.Time) (int64, error) {
	res, err := t.q.ExecContext(ctx, `
	UPDATE stream_divers SET surfaced_at = ? WHERE stream_id = ? AND surfaced_at IS NULL
	`, ms(now), streamID)
	if err != nil {
		return 0, fmt.Errorf("failed to surface stream dives: %w", err)
	}
	return res.RowsAffected()
}

// OpenDive opens the (stream, user) session, reusing the existing row if the
// user has dived into this stream before. The caller must have surfaced the
// user's other dives first.
func (t *Tx) OpenDive(ctx context.Context, streamID, userID string, now time.Time) (*domain.DiveSession, error) {
	_, err := t.q.ExecContext(ctx, `
	INSERT INTO stream_divers (id, stream_id, user_id, dived_at, surfaced_at) VALUES (?, ?, ?, ?, NULL)
	ON CONFLICT(stream_id, user_id) DO UPDATE SET dived_at = excluded.dived_at, surfaced_at = NULL
	`, uuid.New().String(), streamID, userID, ms(now))
	if err != nil {
		return nil, fmt.Errorf("failed to open dive: %w", err)
	}
	d, err := t.GetDive(ctx, streamID, userID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("dive for %s on %s vanished after insert", userID, streamID)
	}
	return d, nil
}

// GetDive returns the session row for (stream, user), open or not, or nil.
func (t *Tx) GetDive(ctx context.Context, streamID, userID string) (*domain.DiveSession, error) {
	d, err := scanDive(t.q.QueryRowContext(ctx, `
	SELECT `+diverColumns+` FROM stream_divers WHERE stream_id = ? AND user_id = ?
	`, streamID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dive: %w", err)
	}
	return d, nil
}

// CloseDive surfaces one session.
func (t *Tx) CloseDive(ctx context.Context, id string, now time.Time) error {
	res, err := t.q.ExecContext(ctx, `
	UPDATE stream_divers SET surfaced_at = ? WHERE id = ? AND surfaced_at IS NULL
	`, ms(now), id)
	if err != nil {
		return fmt.Errorf("failed to close dive: %w", err)
	}
	return mustAffect(res, "open dive", id)
}

// OpenDivers returns the currently open sessions on a stream, earliest first.
func (t *Tx) OpenDivers(ctx context.Context, streamID string) ([]domain.DiveSession, error) {
	return t.listDives(ctx, `
	SELECT `+diverColumns+` FROM stream_divers WHERE stream_id = ? AND surfaced_at IS NULL ORDER BY dived_at, user_id
	`, streamID)
}

// OpenDivesOf returns the open sessions of a user.
func (t *Tx) OpenDivesOf(ctx context.Context, userID string) ([]domain.DiveSession, error) {
	return t.listDives(ctx, `
	SELECT `+diverColumns+` FROM stream_divers WHERE user_id = ? AND surfaced_at IS NULL
	`, userID)
}

func (t *Tx) listDives(ctx context.Context, query string, args ...any) ([]domain.DiveSession, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dives: %w", err)
	}
	defer rows.Close()

	out := []domain.DiveSession{}
	for rows.Next() {
		d, err := scanDive(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dive: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanDive(r rowScanner) (*domain.DiveSession, error) {
	d := &domain.DiveSession{}
	var divedAt int64
	var surfacedAt sql.NullInt64
	if err := r.Scan(&d.ID, &d.StreamID, &d.UserID, &divedAt, &surfacedAt); err != nil {
		return nil, err
	}
	d.DivedAt = fromMs(divedAt)
	d.SurfacedAt = timePtr(surfacedAt)
	return d, nil
}
