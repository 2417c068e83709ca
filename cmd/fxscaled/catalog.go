package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/udisondev/fxscale/internal/db"
	"github.com/udisondev/fxscale/internal/significance"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage effect types stored in the database",
	}

	var prune bool
	push := &cobra.Command{
		Use:   "push",
		Short: "Store the catalog's effect types in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(a.catalogPath, significance.NewRegistry())
			if err != nil {
				return err
			}
			return a.withDB(cmd.Context(), func(ctx context.Context, database *db.DB) error {
				if err := database.EffectTypes().SaveAll(ctx, catalog.EffectTypes, prune); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %d effect types\n", len(catalog.EffectTypes))
				return nil
			})
		},
	}
	push.Flags().BoolVar(&prune, "prune", false, "delete stored effect types missing from the catalog")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored effect types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(ctx context.Context, database *db.DB) error {
				types, err := database.EffectTypes().LoadAll(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tFREQUENCY\tREACTION\tSIGNIFICANCE\tROWS")
				for _, et := range types {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
						et.Name, et.UpdateFrequency, et.OverflowReaction, orDash(et.Significance), len(et.SystemSettings))
				}
				return tw.Flush()
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stored effect type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(ctx context.Context, database *db.DB) error {
				ok, err := database.EffectTypes().Delete(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("effect type %q not found", args[0])
				}
				return nil
			})
		},
	}

	cmd.AddCommand(push, list, remove)
	return cmd
}

// withDB opens the configured database for the duration of fn.
func (a *app) withDB(ctx context.Context, fn func(ctx context.Context, database *db.DB) error) error {
	database, err := db.New(ctx, a.cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	return fn(ctx, database)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

