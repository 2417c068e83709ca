package scalability

import "sync/atomic"

// debugLoggingEnabled is read on every Manager.Update, Unregister and
// World.Register. A single atomic load keeps the disabled path free of slog
// attribute construction.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging switches the per-tick scalability lines on or off:
// the Update summary (tracked, evaluated, pending and culled counts), the
// pre-cull notice for spawn-only types and the stale handle warning on
// Unregister. fxscaled toggles it together with its slog level, so a hot
// reload of log_level takes effect on the next tick.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled reports whether the per-tick lines are emitted.
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
