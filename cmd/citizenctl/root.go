package main

import (
	"fmt"
	"log/slog"

	"github.com/YusovID/citizen-connect/internal/config"
	"github.com/YusovID/citizen-connect/internal/repository/postgres"
	"github.com/YusovID/citizen-connect/pkg/logger/slogpretty"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "citizenctl",
		Short:         "Command line tools for citizen-connect",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSummaryCmd(), newSessionsCmd())

	return root
}

// withDB loads the config named by CONFIG_PATH, opens the database and
// hands both to fn. The connection is closed when fn returns.
func withDB(fn func(cmd *cobra.Command, cfg *config.Config, db *sqlx.DB, log *slog.Logger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log := slogpretty.SetupLogger(cfg.Env)

		pg, err := postgres.NewDB(cfg.Postgres, log)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer pg.DB().Close()

		return fn(cmd, cfg, pg.DB(), log.With(slog.String("command", cmd.CommandPath())))
	}
}
