package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wk-j/dev-team-sub001/internal/domain"
)

const pingColumns = `id, from_user_id, to_user_id, type, status, message, work_item_id, stream_id, sent_at, delivered_at, read_at, expires_at`

// PingFilter selects pings for ListPings.
type PingFilter struct {
	ToUserID       string
	FromUserID     string
	Status         domain.PingStatus
	IncludeExpired bool
	Now            time.Time
	Limit          int
}

// InsertPing stores a new ping.
func (t *Tx) InsertPing(ctx context.Context, p *domain.Ping) error {
	_, err := t.q.ExecContext(ctx, `
	INSERT INTO resonance_pings (`+pingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.FromUserID, p.ToUserID, string(p.Type), string(p.Status), p.Message,
		nullString(p.WorkItemID), nullString(p.StreamID),
		ms(p.SentAt), nullMs(p.DeliveredAt), nullMs(p.ReadAt), ms(p.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to insert ping: %w", err)
	}
	return nil
}

// GetPing returns the ping with id, or nil if there is none.
func (t *Tx) GetPing(ctx context.Context, id string) (*domain.Ping, error) {
	p, err := scanPing(t.q.QueryRowContext(ctx, `SELECT `+pingColumns+` FROM resonance_pings WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ping: %w", err)
	}
	return p, nil
}

// UpdatePingStatus writes the status and delivery timestamps of p.
func (t *Tx) UpdatePingStatus(ctx context.Context, p *domain.Ping) error {
	res, err := t.q.ExecContext(ctx, `
	UPDATE resonance_pings SET status = ?, delivered_at = ?, read_at = ? WHERE id = ?
	`, string(p.Status), nullMs(p.DeliveredAt), nullMs(p.ReadAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update ping: %w", err)
	}
	return mustAffect(res, "ping", p.ID)
}

// ReleaseGentlePings delivers, in one statement, every gentle ping still
// held at sent for a recipient. It returns how many were released.
func (t *Tx) ReleaseGentlePings(ctx context.Context, toUserID string, now time.Time) (int64, error) {
	res, err := t.q.ExecContext(ctx, `
	UPDATE resonance_pings SET status = 'delivered', delivered_at = ?
	WHERE to_user_id = ? AND status = 'sent' AND type = 'gentle'
	`, ms(now), toUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to release queued pings: %w", err)
	}
	return res.RowsAffected()
}

// ListPings returns pings matching f, newest first.
func (t *Tx) ListPings(ctx context.Context, f PingFilter) ([]*domain.Ping, error) {
	query := `SELECT ` + pingColumns + ` FROM resonance_pings WHERE 1=1`
	var args []any

	if f.ToUserID != "" {
		query += ` AND to_user_id = ?`
		args = append(args, f.ToUserID)
	}
	if f.FromUserID != "" {
		query += ` AND from_user_id = ?`
		args = append(args, f.FromUserID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if !f.IncludeExpired {
		query += ` AND expires_at > ?`
		args = append(args, ms(f.Now))
	}
	query += ` ORDER BY sent_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pings: %w", err)
	}
	defer rows.Close()

	var pings []*domain.Ping
	for rows.Next() {
		p, err := scanPing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ping: %w", err)
		}
		pings = append(pings, p)
	}
	return pings, rows.Err()
}

func scanPing(r rowScanner) (*domain.Ping, error) {
	p := &domain.Ping{}
	var typ, status string
	var itemID, streamID sql.NullString
	var sentAt, expiresAt int64
	var deliveredAt, readAt sql.NullInt64
	if err := r.Scan(
		&p.ID, &p.FromUserID, &p.ToUserID, &typ, &status, &p.Message, &itemID, &streamID,
		&sentAt, &deliveredAt, &readAt, &expiresAt,
	); err != nil {
		return nil, err
	}
	p.Type = domain.PingType(typ)
	p.Status = domain.PingStatus(status)
	p.WorkItemID = itemID.String
	p.StreamID = streamID.String
	p.SentAt = fromMs(sentAt)
	p.DeliveredAt = timePtr(deliveredAt)
	p.ReadAt = timePtr(readAt)
	p.ExpiresAt = fromMs(expiresAt)
	return p, nil
}
