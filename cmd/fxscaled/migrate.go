package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/udisondev/fxscale/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	var down, status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dsn := a.cfg.Database.DSN()

			switch {
			case status:
			case down:
				if err := db.RollbackMigration(ctx, dsn); err != nil {
					return err
				}
				slog.Info("migration rolled back")
			default:
				if err := db.RunMigrations(ctx, dsn); err != nil {
					return err
				}
				slog.Info("migrations applied")
			}

			v, err := db.MigrationVersion(ctx, dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", v)
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	cmd.Flags().BoolVar(&status, "status", false, "only print the schema version")
	cmd.MarkFlagsMutuallyExclusive("down", "status")
	return cmd
}
