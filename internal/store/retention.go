package store

import (
	"context"
	"fmt"
	"time"
)

// RetentionPolicy says how long settled pings are kept.
type RetentionPolicy struct {
	// ReadPingsAfter drops pings read longer ago than this.
	ReadPingsAfter time.Duration
	// ExpiredPingsAfter drops pings whose expiry passed longer ago than this.
	ExpiredPingsAfter time.Duration
}

// DefaultRetention keeps read pings for 30 days and expired ones for 7.
func DefaultRetention() RetentionPolicy {
	return RetentionPolicy{
		ReadPingsAfter:    30 * 24 * time.Hour,
		ExpiredPingsAfter: 7 * 24 * time.Hour,
	}
}

// RetentionReport counts what a retention run removed.
type RetentionReport struct {
	ReadPings    int64
	ExpiredPings int64
}

// RunRetention deletes settled pings according to p. Work items, dives and
// connections are history and are never removed.
func (s *Store) RunRetention(ctx context.Context, now time.Time, p RetentionPolicy) (RetentionReport, error) {
	var report RetentionReport
	err := s.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.q.ExecContext(ctx, `
		DELETE FROM resonance_pings WHERE status = 'read' AND read_at < ?
		`, ms(now.Add(-p.ReadPingsAfter)))
		if err != nil {
			return fmt.Errorf("failed to delete read pings: %w", err)
		}
		if report.ReadPings, err = res.RowsAffected(); err != nil {
			return err
		}

		res, err = tx.q.ExecContext(ctx, `
		DELETE FROM resonance_pings WHERE expires_at < ?
		`, ms(now.Add(-p.ExpiredPingsAfter)))
		if err != nil {
			return fmt.Errorf("failed to delete expired pings: %w", err)
		}
		report.ExpiredPings, err = res.RowsAffected()
		return err
	})
	return report, err
}

// DBSizeBytes returns the database size in bytes.
func (s *Store) DBSizeBytes() (int64, error) {
	var pageCount int64
	var pageSize int64

	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to get page size: %w", err)
	}

	return pageCount * pageSize, nil
}
