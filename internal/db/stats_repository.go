package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRow is one persisted manager Update summary.
type StatsRow struct {
	RecordedAt time.Time
	EffectType string
	Frame      int64
	Tracked    int32
	Evaluated  int32
	Culled     int32
	Resumed    int32
	Active     int32
	Ranked     bool
	BudgetUse  float32
}

// StatsRepository stores per-tick cull statistics.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

var statsColumns = []string{
	"recorded_at", "effect_type", "frame", "tracked", "evaluated",
	"culled", "resumed", "active", "ranked", "budget_use",
}

// SaveBatch bulk-inserts rows with COPY. Returns number of rows written.
func (r *StatsRepository) SaveBatch(ctx context.Context, rows []StatsRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"cull_stats"},
		statsColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			row := rows[i]
			return []any{
				row.RecordedAt, row.EffectType, row.Frame, row.Tracked, row.Evaluated,
				row.Culled, row.Resumed, row.Active, row.Ranked, row.BudgetUse,
			}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("copy cull_stats: %w", err)
	}
	return n, nil
}

// LoadRecent returns up to limit newest rows of an effect type, newest first.
func (r *StatsRepository) LoadRecent(ctx context.Context, effectType string, limit int) ([]StatsRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT recorded_at, effect_type, frame, tracked, evaluated, culled, resumed, active, ranked, budget_use
		 FROM cull_stats
		 WHERE effect_type = $1
		 ORDER BY recorded_at DESC, frame DESC
		 LIMIT $2`, effectType, limit)
	if err != nil {
		return nil, fmt.Errorf("query cull_stats: %w", err)
	}
	defer rows.Close()

	var result []StatsRow
	for rows.Next() {
		var row StatsRow
		if err := rows.Scan(&row.RecordedAt, &row.EffectType, &row.Frame, &row.Tracked, &row.Evaluated,
			&row.Culled, &row.Resumed, &row.Active, &row.Ranked, &row.BudgetUse); err != nil {
			return nil, fmt.Errorf("scan cull_stats: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// CullTotals is the sum of transitions of one effect type.
type CullTotals struct {
	Culled  int64
	Resumed int64
}

// Totals returns summed culls and resumes per effect type since the given time.
func (r *StatsRepository) Totals(ctx context.Context, since time.Time) (map[string]CullTotals, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT effect_type, COALESCE(SUM(culled), 0), COALESCE(SUM(resumed), 0)
		 FROM cull_stats
		 WHERE recorded_at >= $1
		 GROUP BY effect_type`, since)
	if err != nil {
		return nil, fmt.Errorf("query cull_stats totals: %w", err)
	}
	defer rows.Close()

	result := make(map[string]CullTotals)
	for rows.Next() {
		var (
			name            string
			culled, resumed int64
		)
		if err := rows.Scan(&name, &culled, &resumed); err != nil {
			return nil, fmt.Errorf("scan cull_stats totals: %w", err)
		}
		result[name] = CullTotals{Culled: culled, Resumed: resumed}
	}
	return result, rows.Err()
}

// DeleteBefore removes rows older than the given time. Returns rows deleted.
func (r *StatsRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cull_stats WHERE recorded_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete cull_stats: %w", err)
	}
	return tag.RowsAffected(), nil
}
