package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wk-j/dev-team-sub001/internal/api"
	"github.com/wk-j/dev-team-sub001/internal/config"
	"github.com/wk-j/dev-team-sub001/internal/membership"
	"github.com/wk-j/dev-team-sub001/internal/store"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	// migrate
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			_, _ = fmt.Fprintf(os.Stdout, "schema version %s\n", st.SchemaVersion())
			return nil
		},
	})

	// seed
	var seedFile string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert teams and members from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := membership.LoadSeed(seedFile)
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			report, err := membership.ApplySeed(cmd.Context(), st, seed, time.Now())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "seeded %d teams, %d members\n", report.Teams, report.Members)
			return nil
		},
	}
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Seed file (required)")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)

	// energy
	var energyUser string
	energyCmd := &cobra.Command{
		Use:   "energy",
		Short: "Explain a user's current energy score",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			report, err := openEngine(st).EnergyOf(cmd.Context(), energyUser)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, report)
		},
	}
	energyCmd.Flags().StringVarP(&energyUser, "user", "u", "", "User ID (required)")
	_ = energyCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(energyCmd)

	// orbit
	var orbitUser, orbitState string
	orbitCmd := &cobra.Command{
		Use:   "orbit",
		Short: "Set a user's orbital state, releasing held pings as needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			res, err := openEngine(st).SetOrbitalState(cmd.Context(), orbitUser, orbitState)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, res)
		},
	}
	orbitCmd.Flags().StringVarP(&orbitUser, "user", "u", "", "User ID (required)")
	orbitCmd.Flags().StringVarP(&orbitState, "state", "s", "", "open, focused, deep_work, away or supernova (required)")
	_ = orbitCmd.MarkFlagRequired("user")
	_ = orbitCmd.MarkFlagRequired("state")
	rootCmd.AddCommand(orbitCmd)

	// purge
	policy := store.DefaultRetention()
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete read and long-expired pings",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			report, err := st.RunRetention(cmd.Context(), time.Now(), policy)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "removed %d read, %d expired pings\n", report.ReadPings, report.ExpiredPings)
			return nil
		},
	}
	purgeCmd.Flags().DurationVar(&policy.ReadPingsAfter, "read-after", policy.ReadPingsAfter, "Keep read pings this long")
	purgeCmd.Flags().DurationVar(&policy.ExpiredPingsAfter, "expired-after", policy.ExpiredPingsAfter, "Keep expired pings this long")
	rootCmd.AddCommand(purgeCmd)

	// stats
	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			size, err := st.DBSizeBytes()
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, map[string]any{
				"path":           dbFlag,
				"schema_version": st.SchemaVersion(),
				"size_bytes":     size,
			})
		},
	})

	// token
	var tokenUser string
	var tokenTTL time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token from JWT_SECRET for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			token, err := api.IssueToken(cfg.JWTSecret, cfg.JWTIssuer, tokenUser, tokenTTL, time.Now())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, token)
			return nil
		},
	}
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "User ID (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
