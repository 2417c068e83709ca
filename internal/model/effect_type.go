package model

import (
	"fmt"
	"strings"
	"time"
)

// UpdateFrequency controls how often tracked instances of an effect type are re-evaluated.
type UpdateFrequency int32

const (
	// UpdateSpawnOnly - verdict is taken once at spawn by the owner, never by the tick
	UpdateSpawnOnly UpdateFrequency = iota
	// UpdateLow - full pass every second
	UpdateLow
	// UpdateMedium - full pass every 500ms
	UpdateMedium
	// UpdateHigh - full pass every 250ms
	UpdateHigh
	// UpdateContinuous - full pass on every Update call
	UpdateContinuous
)

// String returns human-readable frequency name
func (f UpdateFrequency) String() string {
	switch f {
	case UpdateSpawnOnly:
		return "SPAWN_ONLY"
	case UpdateLow:
		return "LOW"
	case UpdateMedium:
		return "MEDIUM"
	case UpdateHigh:
		return "HIGH"
	case UpdateContinuous:
		return "CONTINUOUS"
	default:
		return "UNKNOWN"
	}
}

// Interval returns time between full re-evaluation passes.
// Continuous returns 0, SpawnOnly returns -1 (never).
func (f UpdateFrequency) Interval() time.Duration {
	switch f {
	case UpdateLow:
		return time.Second
	case UpdateMedium:
		return 500 * time.Millisecond
	case UpdateHigh:
		return 250 * time.Millisecond
	case UpdateContinuous:
		return 0
	default:
		return -1
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f UpdateFrequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (used by yaml, toml and jsonb decoding).
func (f *UpdateFrequency) UnmarshalText(text []byte) error {
	switch normalizeEnum(string(text)) {
	case "SPAWN_ONLY", "SPAWNONLY":
		*f = UpdateSpawnOnly
	case "LOW":
		*f = UpdateLow
	case "MEDIUM":
		*f = UpdateMedium
	case "HIGH":
		*f = UpdateHigh
	case "CONTINUOUS":
		*f = UpdateContinuous
	default:
		return fmt.Errorf("unknown update frequency %q", text)
	}
	return nil
}

// OverflowReaction describes what happens to an instance when it is culled
// and whether the cull can be undone by a later pass.
type OverflowReaction int32

const (
	// ReactionDeactivate stops simulation, live particles finish naturally
	ReactionDeactivate OverflowReaction = iota
	// ReactionDeactivateImmediate stops simulation and clears everything visible
	ReactionDeactivateImmediate
	// ReactionDeactivateResume is Deactivate, reactivated once thresholds pass again
	ReactionDeactivateResume
	// ReactionDeactivateImmediateResume is DeactivateImmediate, reactivated once thresholds pass again
	ReactionDeactivateImmediateResume
)

// String returns human-readable reaction name
func (r OverflowReaction) String() string {
	switch r {
	case ReactionDeactivate:
		return "DEACTIVATE"
	case ReactionDeactivateImmediate:
		return "DEACTIVATE_IMMEDIATE"
	case ReactionDeactivateResume:
		return "DEACTIVATE_RESUME"
	case ReactionDeactivateImmediateResume:
		return "DEACTIVATE_IMMEDIATE_RESUME"
	default:
		return "UNKNOWN"
	}
}

// Resumable reports whether a culled instance stays eligible for reactivation.
func (r OverflowReaction) Resumable() bool {
	return r == ReactionDeactivateResume || r == ReactionDeactivateImmediateResume
}

// Immediate reports whether visible elements must be cleared on cull.
func (r OverflowReaction) Immediate() bool {
	return r == ReactionDeactivateImmediate || r == ReactionDeactivateImmediateResume
}

// MarshalText implements encoding.TextMarshaler.
func (r OverflowReaction) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *OverflowReaction) UnmarshalText(text []byte) error {
	switch normalizeEnum(string(text)) {
	case "DEACTIVATE":
		*r = ReactionDeactivate
	case "DEACTIVATE_IMMEDIATE":
		*r = ReactionDeactivateImmediate
	case "DEACTIVATE_RESUME":
		*r = ReactionDeactivateResume
	case "DEACTIVATE_IMMEDIATE_RESUME":
		*r = ReactionDeactivateImmediateResume
	default:
		return fmt.Errorf("unknown overflow reaction %q", text)
	}
	return nil
}

// EffectType is the scalability configuration shared by every instance of one
// category of effect assets. Treated as immutable once handed to a manager.
type EffectType struct {
	Name             string           `yaml:"name" toml:"name" json:"name"`
	UpdateFrequency  UpdateFrequency  `yaml:"update_frequency" toml:"update_frequency" json:"update_frequency"`
	OverflowReaction OverflowReaction `yaml:"overflow_reaction" toml:"overflow_reaction" json:"overflow_reaction"`

	// Significance names a handler in the significance registry.
	// Empty means no ranking: first registered, first kept.
	Significance string `yaml:"significance" toml:"significance" json:"significance"`

	// Ordered candidate rows, first row whose platform set is active wins.
	SystemSettings  []ScalabilitySettings        `yaml:"system_settings" toml:"system_settings" json:"system_settings"`
	EmitterSettings []EmitterScalabilitySettings `yaml:"emitter_settings" toml:"emitter_settings" json:"emitter_settings"`
}

func normalizeEnum(s string) string {
	s = strings.TrimSpace(strings.ToUpper(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
