package main

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/udisondev/fxscale/internal/db"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		since      time.Duration
		effectType string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print persisted cull statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd.Context(), func(ctx context.Context, database *db.DB) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				defer tw.Flush()

				if effectType != "" {
					rows, err := database.Stats().LoadRecent(ctx, effectType, limit)
					if err != nil {
						return err
					}
					fmt.Fprintln(tw, "RECORDED\tFRAME\tTRACKED\tEVALUATED\tCULLED\tRESUMED\tACTIVE\tRANKED\tBUDGET")
					for _, r := range rows {
						fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%t\t%.2f\n",
							r.RecordedAt.Format(time.TimeOnly), r.Frame, r.Tracked, r.Evaluated,
							r.Culled, r.Resumed, r.Active, r.Ranked, r.BudgetUse)
					}
					return nil
				}

				totals, err := database.Stats().Totals(ctx, time.Now().Add(-since))
				if err != nil {
					return err
				}
				names := slices.Sorted(maps.Keys(totals))
				fmt.Fprintln(tw, "EFFECT TYPE\tCULLED\tRESUMED")
				for _, name := range names {
					t := totals[name]
					fmt.Fprintf(tw, "%s\t%d\t%d\n", name, t.Culled, t.Resumed)
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&since, "since", time.Hour, "totals window")
	cmd.Flags().StringVar(&effectType, "effect-type", "", "print recent rows of one effect type instead of totals")
	cmd.Flags().IntVar(&limit, "limit", 20, "rows to print with --effect-type")
	return cmd
}
