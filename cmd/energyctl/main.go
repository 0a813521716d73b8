package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wk-j/dev-team-sub001/internal/config"
	"github.com/wk-j/dev-team-sub001/internal/engine"
	"github.com/wk-j/dev-team-sub001/internal/membership"
	"github.com/wk-j/dev-team-sub001/internal/metrics"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

var (
	dbFlag      string
	verboseFlag bool
	rootCmd     = &cobra.Command{
		Use:          "energyctl",
		Short:        "Operator tooling for the energy engine database",
		SilenceUsage: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", defaultDBPath(), "SQLite database path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log store activity to stderr")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultDBPath() string {
	if cfg, err := config.Load(); err == nil {
		return cfg.DBPath
	}
	return "energy.db"
}

func logger() zerolog.Logger {
	if !verboseFlag {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// openStore opens the database, applying migrations.
func openStore() (*store.Store, error) {
	return store.New(dbFlag, logger())
}

// openEngine wires an engine over st the way energyd does.
func openEngine(st *store.Store) *engine.Engine {
	log := logger()
	dir := membership.NewSQLDirectory(st, 64, 0, log)
	return engine.New(st, dir, metrics.New(), log)
}
