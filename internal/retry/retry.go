// Package retry re-runs a whole store transaction when SQLite reports the
// database busy or locked.
//
// With WAL and immediate write transactions the usual fault is SQLITE_BUSY
// from a writer in another process holding the lock past busy_timeout, or
// SQLITE_LOCKED from a shared-cache conflict. SQLite has already rolled the
// transaction back by then, so the only safe retry is to run the caller's
// closure again from the start. The store marks those faults with
// apperrors.ErrUnavailable; every other error, including semantic
// rejections, ends the loop at once.
package retry

import (
	"context"
	"math/rand"
	"time"

	apperrors "github.com/wk-j/dev-team-sub001/internal/errors"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int // total runs, including the first; below 1 means 1
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultConfig suits a local SQLite file. busy_timeout already waits inside
// the driver, so the backoff here stays short and the attempts few.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   20 * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
		Jitter:      true,
	}
}

// Backoff returns the wait before run attempt+1, without jitter: BaseDelay
// doubled per attempt, capped at MaxDelay.
func (c Config) Backoff(attempt int) time.Duration {
	d := c.BaseDelay
	for i := 0; i < attempt && d < c.MaxDelay; i++ {
		d *= 2
	}
	return min(d, c.MaxDelay)
}

// Do runs fn until it succeeds, fails with an error that is not
// apperrors.IsRetryable, or MaxAttempts runs are used up. The last error is
// returned. A cancelled ctx stops the wait between runs.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	attempts := max(cfg.MaxAttempts, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil || !apperrors.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		delay := cfg.Backoff(attempt)
		if cfg.Jitter {
			delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
