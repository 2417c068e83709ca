package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRepository_SaveBatchLoadRecent(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewStatsRepository(pool)
	ctx := context.Background()

	n, err := repo.SaveBatch(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	base := time.Now().UTC().Truncate(time.Millisecond)
	var rows []StatsRow
	for i := range 5 {
		at := base.Add(time.Duration(i) * time.Second)
		rows = append(rows,
			StatsRow{RecordedAt: at, EffectType: "ambient", Frame: int64(i + 1), Tracked: 10, Culled: int32(i), Resumed: 1, Active: int32(10 - i)},
			StatsRow{RecordedAt: at, EffectType: "impact", Frame: int64(i + 1), Tracked: 3, Active: 3},
		)
	}

	n, err = repo.SaveBatch(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	recent, err := repo.LoadRecent(ctx, "ambient", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(5), recent[0].Frame, "newest first")
	assert.Equal(t, int32(4), recent[0].Culled)
	assert.True(t, recent[0].RecordedAt.Equal(base.Add(4*time.Second)))

	totals, err := repo.Totals(ctx, base.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, CullTotals{Culled: 2 + 3 + 4, Resumed: 3}, totals["ambient"])
	assert.Equal(t, CullTotals{}, totals["impact"])

	deleted, err := repo.DeleteBefore(ctx, base.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
}
