package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/udisondev/fxscale/internal/config"
	"github.com/udisondev/fxscale/internal/scalability"
)

// app carries state shared by the subcommands.
type app struct {
	configPath  string
	catalogPath string
	logLevel    string

	cfg   config.Server
	level slog.LevelVar // swapped on server config reload
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fxscaled",
		Short:         "Effects scalability manager",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "server config file (env FXSCALE_CONFIG)")
	root.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "effect catalog file, .yaml or .toml (env FXSCALE_CATALOG)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "overrides log_level from the config")

	root.AddCommand(
		newRunCmd(a),
		newValidateCmd(a),
		newMigrateCmd(a),
		newCatalogCmd(a),
		newStatsCmd(a),
	)
	return root
}

// load resolves config paths, loads server config and configures slog.
func (a *app) load() error {
	if a.configPath == "" {
		a.configPath = DefaultConfigPath
		if p := os.Getenv("FXSCALE_CONFIG"); p != "" {
			a.configPath = p
		}
	}

	cfg, err := config.LoadServer(a.configPath)
	if err != nil {
		return fmt.Errorf("loading server config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	if a.catalogPath == "" {
		a.catalogPath = cfg.CatalogPath
		if p := os.Getenv("FXSCALE_CATALOG"); p != "" {
			a.catalogPath = p
		}
	}
	a.cfg = cfg

	if err := a.setLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: &a.level,
	})))

	slog.Debug("configs loaded", "config", a.configPath, "catalog", a.catalogPath)
	return nil
}

func (a *app) setLogLevel(s string) error {
	level, err := config.ParseLogLevel(s)
	if err != nil {
		return err
	}
	a.level.Set(level)

	// per-tick summaries are formatted only in debug
	scalability.EnableDebugLogging(level == slog.LevelDebug)
	return nil
}
