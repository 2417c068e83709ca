package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/fxscale/internal/budget"
	"github.com/udisondev/fxscale/internal/config"
	"github.com/udisondev/fxscale/internal/db"
	"github.com/udisondev/fxscale/internal/platform"
	"github.com/udisondev/fxscale/internal/scalability"
	"github.com/udisondev/fxscale/internal/significance"
	"github.com/udisondev/fxscale/internal/sim"
)

type runOptions struct {
	duration time.Duration
	noDB     bool
	noWatch  bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scalability world over a simulated effect population",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), opts)
		},
	}

	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "stop after this long (0 = until signalled)")
	cmd.Flags().BoolVar(&opts.noDB, "no-db", false, "do not persist statistics")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not reload configs on change")
	return cmd
}

func (a *app) run(ctx context.Context, opts runOptions) error {
	cfg := a.cfg

	slog.Info("fxscaled starting",
		"tick_interval", cfg.TickInterval,
		"frame_budget", cfg.FrameBudget,
		"max_updates_per_tick", cfg.MaxUpdatesPerTick)

	handlers := significance.NewRegistry()
	catalog, err := loadCatalog(a.catalogPath, handlers)
	if err != nil {
		return err
	}

	iv, err := scalability.ParseInitialVisibility(cfg.InitialVisibility)
	if err != nil {
		return fmt.Errorf("initial visibility: %w", err)
	}

	eval := platform.NewEvaluator(platformContext(cfg.Platform))
	tracker := budget.NewTracker(cfg.FrameBudget, cfg.BudgetWindow)
	stats := &statsBuffer{}

	world := scalability.NewWorld(scalability.WorldConfig{
		Settings: eval,
		Budget:   tracker,
		Handlers: handlers,
		Options: scalability.Options{
			MaxUpdatesPerTick: cfg.MaxUpdatesPerTick,
			InitialVisibility: iv,
		},
		Observer: stats.observe,
	})
	if err := world.ApplyCatalog(catalog.EffectTypePointers()); err != nil {
		return err
	}
	slog.Info("effect catalog loaded",
		"path", a.catalogPath,
		"effect_types", len(catalog.EffectTypes),
		"systems", len(catalog.Systems))

	var database *db.DB
	if !opts.noDB && cfg.StatsFlushInterval > 0 {
		dsn := cfg.Database.DSN()
		if err := db.RunMigrations(ctx, dsn); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		database, err = db.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.EffectTypes().SaveAll(ctx, catalog.EffectTypes, false); err != nil {
			return fmt.Errorf("publishing effect types: %w", err)
		}
		slog.Info("database connected", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)
	}

	pop := sim.NewPopulation(world, catalog, eval, tracker, cfg.Simulation)

	// the population belongs to the tick goroutine, reloads are handed over
	reloads := make(chan config.Catalog, 1)
	hook := func(dt float32) {
		select {
		case c := <-reloads:
			pop.SetCatalog(c)
		default:
		}
		pop.Step(dt)
		pop.EndFrame()
	}

	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := world.Start(gctx, cfg.TickInterval, hook); err != nil && !isShutdown(err) {
			return fmt.Errorf("scalability world: %w", err)
		}
		return nil
	})

	if cfg.StatsFlushInterval > 0 {
		var sink statsSink
		if database != nil {
			sink = database.Stats()
		}
		g.Go(func() error {
			if err := runStatsFlusher(gctx, stats, sink, cfg.StatsFlushInterval, cfg.StatsRetention); err != nil && !isShutdown(err) {
				return fmt.Errorf("stats flusher: %w", err)
			}
			return nil
		})
	}

	if !opts.noWatch {
		reloadCatalog := func(data []byte) error {
			c, err := config.ParseCatalog(data, config.Format(a.catalogPath))
			if err != nil {
				return err
			}
			if err := c.Validate(handlers); err != nil {
				return err
			}
			if err := world.ApplyCatalog(c.EffectTypePointers()); err != nil {
				return err
			}

			// replace a reload the tick goroutine has not picked up yet
			select {
			case <-reloads:
			default:
			}
			reloads <- c

			if database != nil {
				if err := database.EffectTypes().SaveAll(gctx, c.EffectTypes, true); err != nil {
					slog.Error("failed to publish reloaded effect types", "error", err)
				}
			}
			return nil
		}

		reloadServer := func([]byte) error {
			next, err := config.LoadServer(a.configPath)
			if err != nil {
				return err
			}
			if err := a.setLogLevel(next.LogLevel); err != nil {
				return err
			}
			eval.SetContext(platformContext(next.Platform))
			return nil
		}

		watchers := []*config.Watcher{config.NewWatcher(a.catalogPath, reloadCatalog)}
		if _, err := os.Stat(a.configPath); err == nil {
			watchers = append(watchers, config.NewWatcher(a.configPath, reloadServer))
		}
		for _, w := range watchers {
			g.Go(func() error {
				if err := w.Run(gctx); err != nil && !isShutdown(err) {
					return fmt.Errorf("config watcher: %w", err)
				}
				return nil
			})
		}
	}

	err = g.Wait()

	// tick goroutine is gone, the population can be released here
	pop.Clear()
	world.Reset()

	if err != nil {
		return err
	}
	slog.Info("fxscaled stopped")
	return nil
}

// loadCatalog reads and validates the effect catalog.
func loadCatalog(path string, handlers *significance.Registry) (config.Catalog, error) {
	catalog, err := config.LoadCatalog(path)
	if err != nil {
		return config.Catalog{}, fmt.Errorf("loading catalog: %w", err)
	}
	if err := catalog.Validate(handlers); err != nil {
		return config.Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

func platformContext(p config.PlatformConfig) platform.Context {
	return platform.Context{
		Quality:       p.Quality,
		DeviceProfile: p.DeviceProfile,
		Switches:      p.Switches,
	}
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
