package model

import "fmt"

// QualityLevel is the effects quality bucket of the running platform.
type QualityLevel int32

const (
	QualityLow QualityLevel = iota
	QualityMedium
	QualityHigh
	QualityEpic
	QualityCinematic
)

// String returns human-readable quality name
func (q QualityLevel) String() string {
	switch q {
	case QualityLow:
		return "LOW"
	case QualityMedium:
		return "MEDIUM"
	case QualityHigh:
		return "HIGH"
	case QualityEpic:
		return "EPIC"
	case QualityCinematic:
		return "CINEMATIC"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (q QualityLevel) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *QualityLevel) UnmarshalText(text []byte) error {
	switch normalizeEnum(string(text)) {
	case "LOW":
		*q = QualityLow
	case "MEDIUM":
		*q = QualityMedium
	case "HIGH":
		*q = QualityHigh
	case "EPIC":
		*q = QualityEpic
	case "CINEMATIC":
		*q = QualityCinematic
	default:
		return fmt.Errorf("unknown quality level %q", text)
	}
	return nil
}

// PlatformSet is the declarative rule attached to a settings row.
// Every non-empty criterion must hold for the row to be active; an empty set is active everywhere.
type PlatformSet struct {
	QualityLevels   []QualityLevel `yaml:"quality_levels,omitempty" toml:"quality_levels,omitempty" json:"quality_levels,omitempty"`
	DeviceProfiles  []string       `yaml:"device_profiles,omitempty" toml:"device_profiles,omitempty" json:"device_profiles,omitempty"`   // glob patterns, any match
	ExcludeProfiles []string       `yaml:"exclude_profiles,omitempty" toml:"exclude_profiles,omitempty" json:"exclude_profiles,omitempty"` // glob patterns, any match disables
	RequireSwitches []string       `yaml:"require_switches,omitempty" toml:"require_switches,omitempty" json:"require_switches,omitempty"` // all must be on
}

// IsEmpty returns true if the set carries no criteria at all.
func (p PlatformSet) IsEmpty() bool {
	return len(p.QualityLevels) == 0 && len(p.DeviceProfiles) == 0 &&
		len(p.ExcludeProfiles) == 0 && len(p.RequireSwitches) == 0
}

// Threshold is an (enabled, value) pair for a continuous axis.
// A disabled threshold always passes.
type Threshold struct {
	Enabled bool    `yaml:"enabled" toml:"enabled" json:"enabled"`
	Value   float32 `yaml:"value" toml:"value" json:"value"`
}

// Exceeded reports whether v fails this threshold.
func (t Threshold) Exceeded(v float32) bool {
	return t.Enabled && v > t.Value
}

// CountThreshold is an (enabled, max) pair for instance-count budgets.
type CountThreshold struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`
	Max     int  `yaml:"max" toml:"max" json:"max"`
}

// Full reports whether count already occupies the whole budget.
func (t CountThreshold) Full(count int) bool {
	return t.Enabled && count >= t.Max
}

// Fits reports whether count instances fit in the budget.
func (t CountThreshold) Fits(count int) bool {
	return !t.Enabled || count <= t.Max
}

// ScalabilitySettings is one row of per-platform scalability thresholds.
type ScalabilitySettings struct {
	Platforms PlatformSet `yaml:"platforms" toml:"platforms" json:"platforms"`

	Distance           Threshold      `yaml:"distance" toml:"distance" json:"distance"`                                  // world units to nearest viewer
	MaxInstances       CountThreshold `yaml:"max_instances" toml:"max_instances" json:"max_instances"`                   // whole effect type
	MaxSystemInstances CountThreshold `yaml:"max_system_instances" toml:"max_system_instances" json:"max_system_instances"` // per system (kind)
	TimeWithoutRender  Threshold      `yaml:"time_without_render" toml:"time_without_render" json:"time_without_render"`    // seconds
	GlobalBudgetUsage  Threshold      `yaml:"global_budget_usage" toml:"global_budget_usage" json:"global_budget_usage"`    // fraction of frame budget
}

// InertSettings returns the all-disabled row used when no platform rule matches.
func InertSettings() ScalabilitySettings {
	return ScalabilitySettings{}
}

// HasCountBudget returns true if any instance-count threshold is enabled.
func (s ScalabilitySettings) HasCountBudget() bool {
	return s.MaxInstances.Enabled || s.MaxSystemInstances.Enabled
}

// EmitterScalabilitySettings is one row of per-platform emitter settings.
type EmitterScalabilitySettings struct {
	Platforms       PlatformSet `yaml:"platforms" toml:"platforms" json:"platforms"`
	ScaleSpawnCount bool        `yaml:"scale_spawn_count" toml:"scale_spawn_count" json:"scale_spawn_count"`
	SpawnCountScale float32     `yaml:"spawn_count_scale" toml:"spawn_count_scale" json:"spawn_count_scale"`
}

// InertEmitterSettings returns the emitter row used when no platform rule matches.
func InertEmitterSettings() EmitterScalabilitySettings {
	return EmitterScalabilitySettings{SpawnCountScale: 1}
}

// SpawnScale returns the multiplier to apply to spawn counts.
func (s EmitterScalabilitySettings) SpawnScale() float32 {
	if !s.ScaleSpawnCount || s.SpawnCountScale < 0 {
		return 1
	}
	return s.SpawnCountScale
}

// EmitterOverride replaces parts of the effect type's emitter row for one emitter
// when its own platform set is active.
type EmitterOverride struct {
	Platforms               PlatformSet `yaml:"platforms" toml:"platforms" json:"platforms"`
	OverrideSpawnCountScale bool        `yaml:"override_spawn_count_scale" toml:"override_spawn_count_scale" json:"override_spawn_count_scale"`
	ScaleSpawnCount         bool        `yaml:"scale_spawn_count" toml:"scale_spawn_count" json:"scale_spawn_count"`
	SpawnCountScale         float32     `yaml:"spawn_count_scale" toml:"spawn_count_scale" json:"spawn_count_scale"`
}
