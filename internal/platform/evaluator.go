package platform

import (
	"log/slog"
	"maps"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gobwas/glob"

	"github.com/udisondev/fxscale/internal/model"
)

// Context describes the hardware/quality context platform rules are evaluated against.
type Context struct {
	Quality       model.QualityLevel
	DeviceProfile string
	Switches      map[string]bool // console-variable style toggles
}

// Evaluator evaluates platform sets against the current Context.
// The context can be replaced at any time (config reload); every replacement
// bumps Version so dependants know their resolved settings are stale.
// Safe for concurrent use.
type Evaluator struct {
	mu      sync.RWMutex
	ctx     Context
	version atomic.Uint64

	globMu sync.Mutex
	globs  map[string]glob.Glob // compiled device profile patterns
}

// NewEvaluator creates evaluator for the given context.
func NewEvaluator(ctx Context) *Evaluator {
	e := &Evaluator{
		globs: make(map[string]glob.Glob),
	}
	e.ctx = cloneContext(ctx)
	e.version.Store(1)
	return e
}

// Context returns a copy of the current context.
func (e *Evaluator) Context() Context {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneContext(e.ctx)
}

// SetContext replaces the evaluation context and invalidates resolved settings.
func (e *Evaluator) SetContext(ctx Context) {
	e.mu.Lock()
	e.ctx = cloneContext(ctx)
	e.mu.Unlock()

	v := e.version.Add(1)
	slog.Info("platform context changed",
		"quality", ctx.Quality,
		"profile", ctx.DeviceProfile,
		"version", v)
}

// Version returns a counter that changes whenever the context changes.
func (e *Evaluator) Version() uint64 {
	return e.version.Load()
}

// IsActive returns true if every criterion of set holds in the current context.
func (e *Evaluator) IsActive(set model.PlatformSet) bool {
	if set.IsEmpty() {
		return true
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(set.QualityLevels) > 0 {
		found := false
		for _, q := range set.QualityLevels {
			if q == e.ctx.Quality {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(set.DeviceProfiles) > 0 && !e.matchAny(set.DeviceProfiles, e.ctx.DeviceProfile) {
		return false
	}

	if len(set.ExcludeProfiles) > 0 && e.matchAny(set.ExcludeProfiles, e.ctx.DeviceProfile) {
		return false
	}

	for _, sw := range set.RequireSwitches {
		if !e.ctx.Switches[sw] {
			return false
		}
	}

	return true
}

// matchAny reports whether profile matches any of the glob patterns.
// Invalid patterns never match.
func (e *Evaluator) matchAny(patterns []string, profile string) bool {
	for _, p := range patterns {
		g := e.compile(p)
		if g != nil && g.Match(profile) {
			return true
		}
	}
	return false
}

func (e *Evaluator) compile(pattern string) glob.Glob {
	e.globMu.Lock()
	defer e.globMu.Unlock()

	if g, ok := e.globs[pattern]; ok {
		return g
	}

	g, err := glob.Compile(strings.TrimSpace(pattern))
	if err != nil {
		slog.Warn("invalid device profile pattern", "pattern", pattern, "error", err)
		g = nil
	}
	e.globs[pattern] = g
	return g
}

func cloneContext(ctx Context) Context {
	out := ctx
	if ctx.Switches != nil {
		out.Switches = maps.Clone(ctx.Switches)
	}
	return out
}
