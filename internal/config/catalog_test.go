package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/fxscale/internal/model"
	"github.com/udisondev/fxscale/internal/significance"
)

const yamlCatalog = `
effect_types:
  - name: ambient
    update_frequency: low
    overflow_reaction: deactivate_resume
    significance: distance
    system_settings:
      - platforms:
          quality_levels: [low, medium]
        distance: {enabled: true, value: 1500}
        max_instances: {enabled: true, max: 16}
      - distance: {enabled: true, value: 4000}
        max_system_instances: {enabled: true, max: 8}
    emitter_settings:
      - platforms:
          device_profiles: ["Android*"]
        scale_spawn_count: true
        spawn_count_scale: 0.5
systems:
  - name: campfire
    effect_type: ambient
    weight: 2
    emitters:
      - name: flames
        spawn_rate: 40
        lifetime: 1.5
        overrides:
          - platforms:
              quality_levels: [low]
            override_spawn_count_scale: true
            scale_spawn_count: true
            spawn_count_scale: 0.25
`

const tomlCatalog = `
[[effect_types]]
name = "impact"
update_frequency = "spawn_only"
overflow_reaction = "deactivate_immediate"
significance = "age"

[[effect_types.system_settings]]
distance = { enabled = true, value = 2500.0 }
max_instances = { enabled = true, max = 32 }

[effect_types.system_settings.platforms]
quality_levels = ["epic", "cinematic"]

[[systems]]
name = "bullet_hit"
effect_type = "impact"
weight = 1.0

[[systems.emitters]]
name = "sparks"
spawn_rate = 120.0
lifetime = 0.4
`

func TestParseCatalog_YAML(t *testing.T) {
	cat, err := ParseCatalog([]byte(yamlCatalog), "yaml")
	require.NoError(t, err)
	require.NoError(t, cat.Validate(significance.NewRegistry()))

	require.Len(t, cat.EffectTypes, 1)
	et := cat.EffectTypes[0]
	assert.Equal(t, "ambient", et.Name)
	assert.Equal(t, model.UpdateLow, et.UpdateFrequency)
	assert.Equal(t, model.ReactionDeactivateResume, et.OverflowReaction)
	require.Len(t, et.SystemSettings, 2)
	assert.Equal(t, []model.QualityLevel{model.QualityLow, model.QualityMedium}, et.SystemSettings[0].Platforms.QualityLevels)
	assert.Equal(t, model.Threshold{Enabled: true, Value: 1500}, et.SystemSettings[0].Distance)
	assert.Equal(t, model.CountThreshold{Enabled: true, Max: 16}, et.SystemSettings[0].MaxInstances)
	assert.True(t, et.SystemSettings[1].Platforms.IsEmpty())
	assert.Equal(t, 8, et.SystemSettings[1].MaxSystemInstances.Max)
	require.Len(t, et.EmitterSettings, 1)
	assert.Equal(t, float32(0.5), et.EmitterSettings[0].SpawnCountScale)

	sys, ok := cat.System("campfire")
	require.True(t, ok)
	require.Len(t, sys.Emitters, 1)
	assert.Equal(t, float32(40), sys.Emitters[0].SpawnRate)
	require.Len(t, sys.Emitters[0].Overrides, 1)
	assert.True(t, sys.Emitters[0].Overrides[0].OverrideSpawnCountScale)

	_, ok = cat.System("nope")
	assert.False(t, ok)
}

func TestParseCatalog_TOML(t *testing.T) {
	cat, err := ParseCatalog([]byte(tomlCatalog), "toml")
	require.NoError(t, err)
	require.NoError(t, cat.Validate(significance.NewRegistry()))

	require.Len(t, cat.EffectTypes, 1)
	et := cat.EffectTypes[0]
	assert.Equal(t, model.UpdateSpawnOnly, et.UpdateFrequency)
	assert.Equal(t, model.ReactionDeactivateImmediate, et.OverflowReaction)
	assert.Equal(t, "age", et.Significance)
	require.Len(t, et.SystemSettings, 1)
	assert.Equal(t, []model.QualityLevel{model.QualityEpic, model.QualityCinematic}, et.SystemSettings[0].Platforms.QualityLevels)
	assert.Equal(t, float32(2500), et.SystemSettings[0].Distance.Value)
	assert.Equal(t, 32, et.SystemSettings[0].MaxInstances.Max)

	require.Len(t, cat.Systems, 1)
	assert.Equal(t, float32(120), cat.Systems[0].Emitters[0].SpawnRate)
}

func TestParseCatalog_RejectsUnknownFields(t *testing.T) {
	_, err := ParseCatalog([]byte("effect_types:\n  - name: x\n    distanse: 10\n"), "yaml")
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("[[effect_types]]\nname = \"x\"\ndistanse = 10\n"), "toml")
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("{}"), "json")
	assert.Error(t, err)
}

func TestParseCatalog_BadEnum(t *testing.T) {
	_, err := ParseCatalog([]byte("effect_types:\n  - name: x\n    update_frequency: sometimes\n"), "yaml")
	assert.Error(t, err)
}

func TestParseCatalog_Empty(t *testing.T) {
	cat, err := ParseCatalog(nil, "yaml")
	require.NoError(t, err)
	assert.Empty(t, cat.EffectTypes)
}

func TestLoadCatalog_ByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "effects.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlCatalog), 0o644))
	cat, err := LoadCatalog(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "ambient", cat.EffectTypes[0].Name)

	tomlPath := filepath.Join(dir, "effects.TOML")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlCatalog), 0o644))
	cat, err = LoadCatalog(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "impact", cat.EffectTypes[0].Name)

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "missing catalog is an error")
}

func TestCatalog_Validate(t *testing.T) {
	cat := Catalog{
		EffectTypes: []model.EffectType{
			{Name: "fire", Significance: "distance"},
			{Name: "fire"},
			{Name: ""},
			{
				Name:         "smoke",
				Significance: "loudness",
				SystemSettings: []model.ScalabilitySettings{
					{Distance: model.Threshold{Enabled: true, Value: -1}},
					{MaxInstances: model.CountThreshold{Enabled: true, Max: -3}},
				},
				EmitterSettings: []model.EmitterScalabilitySettings{{SpawnCountScale: -1}},
			},
		},
		Systems: []SystemConfig{
			{Name: "campfire", EffectType: "fire"},
			{Name: "campfire", EffectType: "fire"},
			{Name: "chimney", EffectType: "steam", Weight: -1},
		},
	}

	err := cat.Validate(significance.NewRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	msg := err.Error()
	for _, want := range []string{
		`effect type "fire": duplicate name`,
		"effect_types[2]: empty name",
		`unknown significance handler "loudness"`,
		"negative distance",
		"negative max_instances",
		"negative spawn_count_scale",
		`system "campfire": duplicate name`,
		`unknown effect type "steam"`,
		`system "chimney": negative weight`,
	} {
		assert.Contains(t, msg, want)
	}

	// handler names are not checked without a registry
	ok := Catalog{EffectTypes: []model.EffectType{{Name: "fire", Significance: "loudness"}}}
	assert.NoError(t, ok.Validate(nil))
}

func TestCatalog_EffectTypePointers(t *testing.T) {
	cat := Catalog{EffectTypes: []model.EffectType{{Name: "a"}, {Name: "b"}}}
	ptrs := cat.EffectTypePointers()
	require.Len(t, ptrs, 2)
	assert.Same(t, &cat.EffectTypes[1], ptrs[1])
}
