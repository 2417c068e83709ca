package scalability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/fxscale/internal/model"
	"github.com/udisondev/fxscale/internal/significance"
)

// ErrUnknownEffectType is returned for instances whose effect type has no manager.
var ErrUnknownEffectType = errors.New("unknown effect type")

// WorldConfig wires the collaborators shared by every manager of a world.
type WorldConfig struct {
	Settings SettingsSource
	Budget   BudgetSource
	Handlers *significance.Registry // nil = built-in handlers only
	Options  Options

	// Observer receives the stats of every manager after each tick. Optional.
	Observer func(stats []UpdateStats)
}

// World owns one scalability manager per effect type and drives them.
// Methods are safe for concurrent use; instance callbacks run with the world
// locked and must not call back into the World (Manager methods are fine).
type World struct {
	mu       sync.Mutex
	managers map[string]*Manager
	order    []string // effect type names in registration order

	cfg   WorldConfig
	stats []UpdateStats
}

// NewWorld creates an empty world.
func NewWorld(cfg WorldConfig) *World {
	if cfg.Handlers == nil {
		cfg.Handlers = significance.NewRegistry()
	}
	return &World{
		managers: make(map[string]*Manager),
		cfg:      cfg,
	}
}

// AddEffectType creates the manager for et.
// An unknown significance handler degrades to registration-order ranking.
func (w *World) AddEffectType(et *model.EffectType) (*Manager, error) {
	if et == nil || et.Name == "" {
		return nil, fmt.Errorf("add effect type: empty name")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.managers[et.Name]; ok {
		return nil, fmt.Errorf("add effect type %q: already exists", et.Name)
	}

	m := NewManager(et, w.cfg.Settings, w.cfg.Budget, w.handlerFor(et), w.cfg.Options)
	w.managers[et.Name] = m
	w.order = append(w.order, et.Name)

	slog.Debug("effect type added",
		"effect_type", et.Name,
		"update_frequency", et.UpdateFrequency,
		"overflow_reaction", et.OverflowReaction,
		"significance", et.Significance)
	return m, nil
}

// ApplyCatalog adds new effect types and swaps the configuration of known ones.
// Types missing from the catalog keep their manager so live instances stay tracked.
func (w *World) ApplyCatalog(types []*model.EffectType) error {
	var added, updated int
	for _, et := range types {
		if et == nil {
			continue
		}

		w.mu.Lock()
		m, ok := w.managers[et.Name]
		if ok {
			m.SetEffectType(et, w.handlerFor(et))
		}
		w.mu.Unlock()

		if ok {
			updated++
			continue
		}
		if _, err := w.AddEffectType(et); err != nil {
			return fmt.Errorf("apply catalog: %w", err)
		}
		added++
	}

	slog.Info("effect catalog applied", "added", added, "updated", updated)
	return nil
}

func (w *World) handlerFor(et *model.EffectType) significance.Handler {
	h, err := w.cfg.Handlers.Lookup(et.Significance)
	if err != nil {
		slog.Warn("significance handler unavailable, using registration order",
			"effect_type", et.Name,
			"handler", et.Significance,
			"error", err)
		return nil
	}
	return h
}

// Manager returns the manager of an effect type.
func (w *World) Manager(name string) (*Manager, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.managers[name]
	return m, ok
}

// EffectTypes returns effect type names in the order they were added.
func (w *World) EffectTypes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.order)
}

// RegisterOrPreCull registers inst with the manager of its effect type.
//
// Instances of SpawnOnly effect types get their verdict here: preCulled is
// true and the instance is not registered when it should not be spawned.
// Instances that opted out of scalability are not tracked and get the zero Handle.
func (w *World) RegisterOrPreCull(inst model.EffectInstance) (h Handle, preCulled bool, err error) {
	if inst == nil {
		return Handle{}, false, fmt.Errorf("register: nil instance")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	m, ok := w.managers[inst.EffectTypeName()]
	if !ok {
		return Handle{}, false, fmt.Errorf("register %q: %w", inst.EffectTypeName(), ErrUnknownEffectType)
	}
	if !inst.AllowScalability() {
		return Handle{}, false, nil
	}

	if m.effectType.UpdateFrequency == model.UpdateSpawnOnly && m.PreCull(inst) {
		if IsDebugEnabled() {
			slog.Debug("effect pre-culled",
				"effect_type", m.effectType.Name,
				"system", inst.SystemKey())
		}
		return Handle{}, true, nil
	}

	return m.Register(inst), false, nil
}

// Unregister stops tracking inst. Zero handles (opted-out instances) are ignored.
func (w *World) Unregister(inst model.EffectInstance, h Handle) bool {
	if inst == nil || !h.Valid() {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	m, ok := w.managers[inst.EffectTypeName()]
	if !ok {
		return false
	}
	return m.Unregister(h)
}

// Tick runs a full Update on every manager.
func (w *World) Tick(deltaSeconds float32) []UpdateStats {
	return w.update(deltaSeconds, false)
}

// PostSpawn runs a newOnly Update on every manager so instances spawned this
// tick get a verdict before they are first rendered.
func (w *World) PostSpawn(deltaSeconds float32) []UpdateStats {
	return w.update(deltaSeconds, true)
}

func (w *World) update(deltaSeconds float32, newOnly bool) []UpdateStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats = w.stats[:0]
	for _, name := range w.order {
		w.stats = append(w.stats, w.managers[name].Update(deltaSeconds, newOnly))
	}
	return slices.Clone(w.stats)
}

// Reset drops every tracked instance of every manager without callbacks.
func (w *World) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range w.managers {
		m.Reset()
	}
}

// Start ticks the world every interval until ctx is cancelled.
// Each tick runs Tick, then hook (spawning and simulation), then PostSpawn.
// The observer gets the full-pass stats followed by the newOnly stats.
// hook may be nil.
func (w *World) Start(ctx context.Context, interval time.Duration, hook func(deltaSeconds float32)) error {
	if interval <= 0 {
		return fmt.Errorf("start world: invalid tick interval %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("scalability world started", "interval", interval, "effect_types", len(w.EffectTypes()))

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("scalability world stopping")
			return ctx.Err()

		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now

			stats := w.Tick(dt)
			if hook != nil {
				hook(dt)
			}
			stats = append(stats, w.PostSpawn(0)...)

			if w.cfg.Observer != nil {
				w.cfg.Observer(stats)
			}
		}
	}
}
