// Package retention periodically removes settled pings from the store.
package retention

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wk-j/dev-team-sub001/internal/store"
)

// Config holds configuration for the sweeper.
type Config struct {
	Interval time.Duration // 0 disables the loop
	Policy   store.RetentionPolicy
}

// DefaultConfig sweeps hourly with the store's default policy.
func DefaultConfig() Config {
	return Config{
		Interval: time.Hour,
		Policy:   store.DefaultRetention(),
	}
}

// Purger deletes settled pings.
type Purger interface {
	RunRetention(ctx context.Context, now time.Time, p store.RetentionPolicy) (store.RetentionReport, error)
}

// Recorder counts removed pings.
type Recorder interface {
	AddPurgedPings(reason string, n int64)
}

// Sweeper runs the retention policy on a ticker.
type Sweeper struct {
	cfg     Config
	purger  Purger
	metrics Recorder
	now     func() time.Time
	logger  zerolog.Logger
}

// NewSweeper creates a new Sweeper. metrics may be nil.
func NewSweeper(cfg Config, purger Purger, metrics Recorder, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		cfg:     cfg,
		purger:  purger,
		metrics: metrics,
		now:     time.Now,
		logger:  logger.With().Str("component", "retention").Logger(),
	}
}

// SweepOnce applies the policy as of now.
func (s *Sweeper) SweepOnce(ctx context.Context) (store.RetentionReport, error) {
	report, err := s.purger.RunRetention(ctx, s.now(), s.cfg.Policy)
	if err != nil {
		s.logger.Error().Err(err).Msg("retention sweep failed")
		return report, err
	}
	if s.metrics != nil {
		s.metrics.AddPurgedPings("read", report.ReadPings)
		s.metrics.AddPurgedPings("expired", report.ExpiredPings)
	}
	if report.ReadPings+report.ExpiredPings > 0 {
		s.logger.Info().
			Int64("read_pings", report.ReadPings).
			Int64("expired_pings", report.ExpiredPings).
			Msg("retention sweep removed pings")
	} else {
		s.logger.Debug().Msg("retention sweep found nothing")
	}
	return report, nil
}

// Run sweeps every Interval until ctx is done. A failed sweep is logged and
// retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		s.logger.Info().Msg("retention sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.cfg.Interval).Msg("retention sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retention sweeper stopped")
			return
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}
