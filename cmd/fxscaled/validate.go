package main

import (
	"fmt"
	"io"
	"maps"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/udisondev/fxscale/internal/config"
	"github.com/udisondev/fxscale/internal/model"
	"github.com/udisondev/fxscale/internal/platform"
	"github.com/udisondev/fxscale/internal/significance"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		quality  string
		profile  string
		switches []string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effect catalog and print the settings active on a platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(a.catalogPath, significance.NewRegistry())
			if err != nil {
				return err
			}

			pctx := platformContext(a.cfg.Platform)
			if quality != "" {
				if err := pctx.Quality.UnmarshalText([]byte(quality)); err != nil {
					return err
				}
			}
			if profile != "" {
				pctx.DeviceProfile = profile
			}
			if len(switches) > 0 {
				pctx.Switches = maps.Clone(pctx.Switches)
				if pctx.Switches == nil {
					pctx.Switches = make(map[string]bool, len(switches))
				}
				for _, s := range switches {
					pctx.Switches[s] = true
				}
			}

			printActiveSettings(cmd.OutOrStdout(), catalog, platform.NewEvaluator(pctx))
			return nil
		},
	}

	cmd.Flags().StringVar(&quality, "quality", "", "quality level to resolve for (default from config)")
	cmd.Flags().StringVar(&profile, "profile", "", "device profile to resolve for (default from config)")
	cmd.Flags().StringSliceVar(&switches, "switch", nil, "switch to turn on, repeatable")
	return cmd
}

func printActiveSettings(out io.Writer, catalog config.Catalog, eval *platform.Evaluator) {
	pctx := eval.Context()
	fmt.Fprintf(out, "catalog ok: %d effect types, %d systems\n", len(catalog.EffectTypes), len(catalog.Systems))
	fmt.Fprintf(out, "platform: quality=%s profile=%s\n\n", pctx.Quality, pctx.DeviceProfile)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EFFECT TYPE\tFREQUENCY\tREACTION\tROW\tDISTANCE\tMAX\tMAX/SYSTEM\tNO RENDER\tBUDGET\tSPAWN SCALE")
	for _, et := range catalog.EffectTypePointers() {
		s := eval.ActiveSettings(et)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			et.Name,
			et.UpdateFrequency,
			et.OverflowReaction,
			activeRow(eval, et),
			formatThreshold(s.Distance),
			formatCount(s.MaxInstances),
			formatCount(s.MaxSystemInstances),
			formatThreshold(s.TimeWithoutRender),
			formatThreshold(s.GlobalBudgetUsage),
			strconv.FormatFloat(float64(eval.ActiveEmitterSettings(et).SpawnScale()), 'g', 3, 32),
		)
	}
	tw.Flush()
}

// activeRow names the settings row that wins, or "inert" when none matches.
func activeRow(eval *platform.Evaluator, et *model.EffectType) string {
	for i, row := range et.SystemSettings {
		if eval.IsActive(row.Platforms) {
			return strconv.Itoa(i)
		}
	}
	return "inert"
}

func formatThreshold(t model.Threshold) string {
	if !t.Enabled {
		return "-"
	}
	return strconv.FormatFloat(float64(t.Value), 'g', -1, 32)
}

func formatCount(t model.CountThreshold) string {
	if !t.Enabled {
		return "-"
	}
	return strconv.Itoa(t.Max)
}
