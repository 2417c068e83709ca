package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/fxscale/internal/model"
)

func sampleEffectTypes() []model.EffectType {
	return []model.EffectType{
		{
			Name:             "ambient",
			UpdateFrequency:  model.UpdateLow,
			OverflowReaction: model.ReactionDeactivateResume,
			Significance:     "distance",
			SystemSettings: []model.ScalabilitySettings{
				{
					Platforms: model.PlatformSet{
						QualityLevels:  []model.QualityLevel{model.QualityLow},
						DeviceProfiles: []string{"Android*"},
					},
					Distance:     model.Threshold{Enabled: true, Value: 1500},
					MaxInstances: model.CountThreshold{Enabled: true, Max: 16},
				},
				{
					Distance:          model.Threshold{Enabled: true, Value: 4000},
					TimeWithoutRender: model.Threshold{Enabled: true, Value: 2.5},
				},
			},
			EmitterSettings: []model.EmitterScalabilitySettings{
				{ScaleSpawnCount: true, SpawnCountScale: 0.5},
			},
		},
		{
			Name:             "impact",
			UpdateFrequency:  model.UpdateSpawnOnly,
			OverflowReaction: model.ReactionDeactivateImmediate,
		},
	}
}

func TestEffectTypeRepository_SaveLoad(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEffectTypeRepository(pool)
	ctx := context.Background()

	want := sampleEffectTypes()
	require.NoError(t, repo.SaveAll(ctx, want, false))

	got, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, want[0], got[0])
	assert.Equal(t, "impact", got[1].Name)
	assert.Equal(t, model.UpdateSpawnOnly, got[1].UpdateFrequency)
	assert.Equal(t, model.ReactionDeactivateImmediate, got[1].OverflowReaction)
	assert.Empty(t, got[1].SystemSettings)
}

func TestEffectTypeRepository_Upsert(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEffectTypeRepository(pool)
	ctx := context.Background()

	types := sampleEffectTypes()
	require.NoError(t, repo.SaveAll(ctx, types, false))

	types[0].UpdateFrequency = model.UpdateContinuous
	types[0].SystemSettings = types[0].SystemSettings[:1]
	require.NoError(t, repo.SaveAll(ctx, types[:1], false))

	et, ok, err := repo.Get(ctx, "ambient")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.UpdateContinuous, et.UpdateFrequency)
	assert.Len(t, et.SystemSettings, 1)

	_, ok, err = repo.Get(ctx, "impact")
	require.NoError(t, err)
	assert.True(t, ok, "not pruned")
}

func TestEffectTypeRepository_Prune(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEffectTypeRepository(pool)
	ctx := context.Background()

	types := sampleEffectTypes()
	require.NoError(t, repo.SaveAll(ctx, types, false))
	require.NoError(t, repo.SaveAll(ctx, types[1:], true))

	got, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "impact", got[0].Name)
}

func TestEffectTypeRepository_GetMissingAndDelete(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewEffectTypeRepository(pool)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SaveAll(ctx, sampleEffectTypes(), false))

	deleted, err := repo.Delete(ctx, "ambient")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "ambient")
	require.NoError(t, err)
	assert.False(t, deleted)
}
