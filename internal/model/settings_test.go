package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityLevel_Text(t *testing.T) {
	for _, q := range []QualityLevel{QualityLow, QualityMedium, QualityHigh, QualityEpic, QualityCinematic} {
		text, err := q.MarshalText()
		require.NoError(t, err)

		var got QualityLevel
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, q, got)
	}

	var q QualityLevel
	require.NoError(t, q.UnmarshalText([]byte("epic")))
	assert.Equal(t, QualityEpic, q)
	assert.Error(t, q.UnmarshalText([]byte("ultra")))
}

func TestThreshold_Exceeded(t *testing.T) {
	tests := []struct {
		name string
		th   Threshold
		v    float32
		want bool
	}{
		{"disabled always passes", Threshold{Enabled: false, Value: 10}, 1000, false},
		{"below", Threshold{Enabled: true, Value: 10}, 5, false},
		{"equal passes", Threshold{Enabled: true, Value: 10}, 10, false},
		{"above", Threshold{Enabled: true, Value: 10}, 10.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.th.Exceeded(tt.v))
		})
	}
}

func TestCountThreshold(t *testing.T) {
	disabled := CountThreshold{Max: 2}
	assert.False(t, disabled.Full(100))
	assert.True(t, disabled.Fits(100))

	c := CountThreshold{Enabled: true, Max: 2}
	assert.False(t, c.Full(1))
	assert.True(t, c.Full(2))
	assert.True(t, c.Fits(2))
	assert.False(t, c.Fits(3))

	zero := CountThreshold{Enabled: true}
	assert.True(t, zero.Full(0), "max 0 keeps nothing")
}

func TestScalabilitySettings_HasCountBudget(t *testing.T) {
	assert.False(t, InertSettings().HasCountBudget())
	assert.True(t, ScalabilitySettings{MaxInstances: CountThreshold{Enabled: true}}.HasCountBudget())
	assert.True(t, ScalabilitySettings{MaxSystemInstances: CountThreshold{Enabled: true, Max: 3}}.HasCountBudget())
}

func TestEmitterScalabilitySettings_SpawnScale(t *testing.T) {
	assert.InDelta(t, 1, InertEmitterSettings().SpawnScale(), 1e-6)
	assert.InDelta(t, 1, EmitterScalabilitySettings{SpawnCountScale: 0.5}.SpawnScale(), 1e-6, "scaling disabled")
	assert.InDelta(t, 0.5, EmitterScalabilitySettings{ScaleSpawnCount: true, SpawnCountScale: 0.5}.SpawnScale(), 1e-6)
	assert.InDelta(t, 0, EmitterScalabilitySettings{ScaleSpawnCount: true}.SpawnScale(), 1e-6)
	assert.InDelta(t, 1, EmitterScalabilitySettings{ScaleSpawnCount: true, SpawnCountScale: -2}.SpawnScale(), 1e-6)
}

func TestPlatformSet_IsEmpty(t *testing.T) {
	assert.True(t, PlatformSet{}.IsEmpty())
	assert.False(t, PlatformSet{RequireSwitches: []string{"fx.low"}}.IsEmpty())
	assert.False(t, PlatformSet{ExcludeProfiles: []string{"Switch*"}}.IsEmpty())
}
