package main

import (
	"fmt"
	"os"

	"github.com/Rrens/clinic-assistant/internal/config"
	"github.com/Rrens/clinic-assistant/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var source string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the PostgreSQL conversation schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		},
	}
	root.PersistentFlags().StringVar(&source, "source", "file://migrations", "migration source URL")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, ok, err := postgresDSN(cmd)
			if err != nil || !ok {
				return err
			}
			return postgres.RunMigrations(dsn, source)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, ok, err := postgresDSN(cmd)
			if err != nil || !ok {
				return err
			}
			return postgres.RollbackMigrations(dsn, source)
		},
	})

	return root
}

// postgresDSN loads configuration and reports whether the configured
// driver is managed by migrations at all.
func postgresDSN(cmd *cobra.Command) (string, bool, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", false, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Storage.Driver != "postgres" {
		fmt.Fprintf(cmd.OutOrStdout(), "storage driver %q creates its schema on startup; nothing to migrate\n", cfg.Storage.Driver)
		return "", false, nil
	}

	log.Info().
		Str("host", cfg.Storage.Postgres.Host).
		Int("port", cfg.Storage.Postgres.Port).
		Msg("Connecting to database")

	return cfg.Storage.Postgres.DSN(), true, nil
}
