package main

import (
	"fmt"
	"log/slog"

	"github.com/YusovID/citizen-connect/internal/config"
	"github.com/YusovID/citizen-connect/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored edit sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete edit session entries older than session.max_age",
		RunE: withDB(func(cmd *cobra.Command, cfg *config.Config, db *sqlx.DB, log *slog.Logger) error {
			repo := postgres.NewSessionRepository(db, log, cfg.Session.MaxAge)

			n, err := repo.DeleteExpired(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired entries\n", n)

			return nil
		}),
	})

	return cmd
}
