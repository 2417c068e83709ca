package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/fxscale/internal/model"
)

func testEffectType() *model.EffectType {
	return &model.EffectType{
		Name: "Ambient",
		SystemSettings: []model.ScalabilitySettings{
			{
				Platforms: model.PlatformSet{QualityLevels: []model.QualityLevel{model.QualityLow}},
				Distance:  model.Threshold{Enabled: true, Value: 1000},
			},
			{
				Platforms: model.PlatformSet{QualityLevels: []model.QualityLevel{model.QualityLow, model.QualityMedium}},
				Distance:  model.Threshold{Enabled: true, Value: 2000},
			},
		},
		EmitterSettings: []model.EmitterScalabilitySettings{
			{
				Platforms:       model.PlatformSet{QualityLevels: []model.QualityLevel{model.QualityLow}},
				ScaleSpawnCount: true,
				SpawnCountScale: 0.25,
			},
		},
	}
}

func TestActiveSettings_FirstMatchWins(t *testing.T) {
	ev := NewEvaluator(Context{Quality: model.QualityLow})

	got := ev.ActiveSettings(testEffectType())

	assert.Equal(t, float32(1000), got.Distance.Value)
}

func TestActiveSettings_SecondRow(t *testing.T) {
	ev := NewEvaluator(Context{Quality: model.QualityMedium})

	got := ev.ActiveSettings(testEffectType())

	assert.Equal(t, float32(2000), got.Distance.Value)
}

func TestActiveSettings_NoMatchIsInert(t *testing.T) {
	ev := NewEvaluator(Context{Quality: model.QualityEpic})

	got := ev.ActiveSettings(testEffectType())

	assert.Equal(t, model.InertSettings(), got)
	assert.False(t, got.Distance.Enabled)
	assert.False(t, got.HasCountBudget())
}

func TestActiveSettings_NotCachedAcrossContextChange(t *testing.T) {
	et := testEffectType()
	ev := NewEvaluator(Context{Quality: model.QualityLow})
	assert.Equal(t, float32(1000), ev.ActiveSettings(et).Distance.Value)

	ev.SetContext(Context{Quality: model.QualityMedium})
	assert.Equal(t, float32(2000), ev.ActiveSettings(et).Distance.Value)
}

func TestActiveSettings_NilEffectType(t *testing.T) {
	ev := NewEvaluator(Context{})
	assert.Equal(t, model.InertSettings(), ev.ActiveSettings(nil))
	assert.Equal(t, model.InertEmitterSettings(), ev.ActiveEmitterSettings(nil))
}

func TestResolveEmitterSettings(t *testing.T) {
	et := testEffectType()

	t.Run("effect type row", func(t *testing.T) {
		ev := NewEvaluator(Context{Quality: model.QualityLow})
		got := ev.ResolveEmitterSettings(et, nil)
		assert.Equal(t, float32(0.25), got.SpawnScale())
	})

	t.Run("inert row when nothing matches", func(t *testing.T) {
		ev := NewEvaluator(Context{Quality: model.QualityHigh})
		got := ev.ResolveEmitterSettings(et, nil)
		assert.Equal(t, float32(1), got.SpawnScale())
	})

	t.Run("active override replaces scale", func(t *testing.T) {
		ev := NewEvaluator(Context{Quality: model.QualityLow, DeviceProfile: "Switch"})
		overrides := []model.EmitterOverride{
			{
				Platforms:               model.PlatformSet{DeviceProfiles: []string{"Switch*"}},
				OverrideSpawnCountScale: true,
				ScaleSpawnCount:         true,
				SpawnCountScale:         0.5,
			},
			{
				Platforms:               model.PlatformSet{DeviceProfiles: []string{"PS*"}},
				OverrideSpawnCountScale: true,
				ScaleSpawnCount:         true,
				SpawnCountScale:         0.1,
			},
		}
		got := ev.ResolveEmitterSettings(et, overrides)
		assert.Equal(t, float32(0.5), got.SpawnScale())
	})

	t.Run("override without flag ignored", func(t *testing.T) {
		ev := NewEvaluator(Context{Quality: model.QualityLow})
		overrides := []model.EmitterOverride{{ScaleSpawnCount: true, SpawnCountScale: 3}}
		got := ev.ResolveEmitterSettings(et, overrides)
		assert.Equal(t, float32(0.25), got.SpawnScale())
	})
}
