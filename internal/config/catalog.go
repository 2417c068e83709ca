package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/fxscale/internal/model"
	"github.com/udisondev/fxscale/internal/significance"
)

// Catalog is the effect configuration: effect types with their per-platform
// settings rows, and the effect systems spawned for them.
type Catalog struct {
	EffectTypes []model.EffectType `yaml:"effect_types" toml:"effect_types"`
	Systems     []SystemConfig     `yaml:"systems" toml:"systems"`
}

// SystemConfig describes one effect asset (kind). Instances of the same system
// share a per-system instance cap.
type SystemConfig struct {
	Name       string  `yaml:"name" toml:"name"`
	EffectType string  `yaml:"effect_type" toml:"effect_type"`
	Weight     float32 `yaml:"weight" toml:"weight"` // relative spawn probability

	// Emitters of the system, each with its own spawn rate and overrides.
	Emitters []EmitterConfig `yaml:"emitters" toml:"emitters"`
}

// EmitterConfig is one particle emitter of a system.
type EmitterConfig struct {
	Name      string                  `yaml:"name" toml:"name"`
	SpawnRate float32                 `yaml:"spawn_rate" toml:"spawn_rate"` // particles per second at scale 1
	Lifetime  float32                 `yaml:"lifetime" toml:"lifetime"`     // particle lifetime, seconds
	Overrides []model.EmitterOverride `yaml:"overrides" toml:"overrides"`
}

// LoadCatalog loads catalog from a YAML (.yaml, .yml) or TOML (.toml) file.
// Unlike server config a missing catalog is an error: there is nothing to manage.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	cat, err := ParseCatalog(data, Format(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// Format returns "toml" for .toml files and "yaml" for everything else.
func Format(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// ParseCatalog decodes catalog data in the given format ("yaml" or "toml").
// Unknown fields are rejected so typos in threshold names do not silently disable culling.
func ParseCatalog(data []byte, format string) (Catalog, error) {
	var cat Catalog

	switch format {
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cat); err != nil {
			return Catalog{}, fmt.Errorf("parsing toml: %w", err)
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
			return Catalog{}, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		return Catalog{}, fmt.Errorf("unknown catalog format %q", format)
	}

	return cat, nil
}

// Validate reports every catalog problem at once. handlers may be nil, then
// significance handler names are not checked.
func (c Catalog) Validate(handlers *significance.Registry) error {
	var errs []error
	types := make(map[string]bool, len(c.EffectTypes))

	for i := range c.EffectTypes {
		et := &c.EffectTypes[i]
		if et.Name == "" {
			errs = append(errs, fmt.Errorf("effect_types[%d]: empty name", i))
			continue
		}
		if types[et.Name] {
			errs = append(errs, fmt.Errorf("effect type %q: duplicate name", et.Name))
		}
		types[et.Name] = true

		if handlers != nil && !handlers.Has(et.Significance) {
			errs = append(errs, fmt.Errorf("effect type %q: unknown significance handler %q", et.Name, et.Significance))
		}
		for k, row := range et.SystemSettings {
			if err := validateSettings(row); err != nil {
				errs = append(errs, fmt.Errorf("effect type %q: system_settings[%d]: %w", et.Name, k, err))
			}
		}
		for k, row := range et.EmitterSettings {
			if row.SpawnCountScale < 0 {
				errs = append(errs, fmt.Errorf("effect type %q: emitter_settings[%d]: negative spawn_count_scale", et.Name, k))
			}
		}
	}

	systems := make(map[string]bool, len(c.Systems))
	for i, sys := range c.Systems {
		switch {
		case sys.Name == "":
			errs = append(errs, fmt.Errorf("systems[%d]: empty name", i))
			continue
		case systems[sys.Name]:
			errs = append(errs, fmt.Errorf("system %q: duplicate name", sys.Name))
		case !types[sys.EffectType]:
			errs = append(errs, fmt.Errorf("system %q: unknown effect type %q", sys.Name, sys.EffectType))
		}
		systems[sys.Name] = true

		if sys.Weight < 0 {
			errs = append(errs, fmt.Errorf("system %q: negative weight", sys.Name))
		}
		for _, em := range sys.Emitters {
			if em.SpawnRate < 0 || em.Lifetime < 0 {
				errs = append(errs, fmt.Errorf("system %q: emitter %q: negative spawn_rate or lifetime", sys.Name, em.Name))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func validateSettings(s model.ScalabilitySettings) error {
	var errs []error
	if s.Distance.Enabled && s.Distance.Value < 0 {
		errs = append(errs, errors.New("negative distance"))
	}
	if s.TimeWithoutRender.Enabled && s.TimeWithoutRender.Value < 0 {
		errs = append(errs, errors.New("negative time_without_render"))
	}
	if s.GlobalBudgetUsage.Enabled && s.GlobalBudgetUsage.Value < 0 {
		errs = append(errs, errors.New("negative global_budget_usage"))
	}
	if s.MaxInstances.Enabled && s.MaxInstances.Max < 0 {
		errs = append(errs, errors.New("negative max_instances"))
	}
	if s.MaxSystemInstances.Enabled && s.MaxSystemInstances.Max < 0 {
		errs = append(errs, errors.New("negative max_system_instances"))
	}
	return errors.Join(errs...)
}

// EffectTypePointers returns pointers to the catalog's effect types, the form
// the scalability world keeps.
func (c Catalog) EffectTypePointers() []*model.EffectType {
	out := make([]*model.EffectType, len(c.EffectTypes))
	for i := range c.EffectTypes {
		out[i] = &c.EffectTypes[i]
	}
	return out
}

// System returns system config by name.
func (c Catalog) System(name string) (SystemConfig, bool) {
	for _, s := range c.Systems {
		if s.Name == name {
			return s, true
		}
	}
	return SystemConfig{}, false
}
