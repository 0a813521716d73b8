package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wk-j/dev-team-sub001/internal/api"
	"github.com/wk-j/dev-team-sub001/internal/config"
	"github.com/wk-j/dev-team-sub001/internal/engine"
	"github.com/wk-j/dev-team-sub001/internal/health"
	"github.com/wk-j/dev-team-sub001/internal/membership"
	"github.com/wk-j/dev-team-sub001/internal/metrics"
	"github.com/wk-j/dev-team-sub001/internal/retention"
	"github.com/wk-j/dev-team-sub001/internal/retry"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("auth_mode", cfg.AuthMode).
		Str("db_path", cfg.DBPath).
		Bool("tls", cfg.TLSEnabled()).
		Msg("starting energy engine")

	if cfg.AuthMode == config.AuthHeader && !cfg.IsDevelopment() {
		logger.Warn().Msg("AUTH_MODE=header trusts X-User-ID as is; use it behind an authenticating proxy only")
	}

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	rcfg := retry.DefaultConfig()
	rcfg.MaxAttempts = cfg.StoreMaxAttempts
	st, err := store.New(cfg.DBPath, logger, store.WithRetry(rcfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	if cfg.SeedFile != "" {
		seed, err := membership.LoadSeed(cfg.SeedFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("failed to load seed")
		}
		report, err := membership.ApplySeed(ctx, st, seed, time.Now())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to apply seed")
		}
		logger.Info().
			Int("teams", report.Teams).
			Int("members", report.Members).
			Msg("membership seed applied")
	}

	m := metrics.New()

	checker := health.NewChecker(logger)
	checker.Register("store", health.PingCheck(st))

	dir := membership.NewSQLDirectory(st, cfg.MembershipCacheSize, cfg.MembershipCacheTTL, logger)
	eng := engine.New(st, dir, m, logger, engine.WithPingTTL(cfg.PingTTL))

	srv := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		Auth: api.AuthConfig{
			Mode:   cfg.AuthMode,
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
		},
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
		CORSOrigins:     cfg.CORSOrigins,
		TLSCert:         cfg.TLSCert,
		TLSKey:          cfg.TLSKey,
	}, eng, checker, m, logger)

	sweeper := retention.NewSweeper(retention.Config{
		Interval: cfg.RetentionInterval,
		Policy: store.RetentionPolicy{
			ReadPingsAfter:    cfg.RetentionReadAfter,
			ExpiredPingsAfter: cfg.RetentionExpiredAfter,
		},
	}, st, m, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("API server error")
		}
	}()

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	// Cancel context to signal all goroutines
	cancel()

	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("energy engine stopped")
}
