package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/fxscale/internal/model"
)

// EffectTypeRepository stores the effect type catalog.
// Settings rows are kept as JSONB, enums as their text names.
type EffectTypeRepository struct {
	pool *pgxpool.Pool
}

// NewEffectTypeRepository creates a new EffectTypeRepository.
func NewEffectTypeRepository(pool *pgxpool.Pool) *EffectTypeRepository {
	return &EffectTypeRepository{pool: pool}
}

// LoadAll loads every effect type ordered by name.
func (r *EffectTypeRepository) LoadAll(ctx context.Context) ([]model.EffectType, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, update_frequency, overflow_reaction, significance, system_settings, emitter_settings
		 FROM effect_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query effect_types: %w", err)
	}
	defer rows.Close()

	var result []model.EffectType
	for rows.Next() {
		et, err := scanEffectType(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, et)
	}
	return result, rows.Err()
}

// Get loads one effect type. Returns false if it does not exist.
func (r *EffectTypeRepository) Get(ctx context.Context, name string) (model.EffectType, bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT name, update_frequency, overflow_reaction, significance, system_settings, emitter_settings
		 FROM effect_types WHERE name = $1`, name)

	et, err := scanEffectType(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.EffectType{}, false, nil
		}
		return model.EffectType{}, false, err
	}
	return et, true, nil
}

func scanEffectType(row pgx.Row) (model.EffectType, error) {
	var (
		et                  model.EffectType
		frequency, reaction string
	)
	if err := row.Scan(&et.Name, &frequency, &reaction, &et.Significance, &et.SystemSettings, &et.EmitterSettings); err != nil {
		return model.EffectType{}, fmt.Errorf("scan effect_types: %w", err)
	}
	if err := et.UpdateFrequency.UnmarshalText([]byte(frequency)); err != nil {
		return model.EffectType{}, fmt.Errorf("effect type %q: %w", et.Name, err)
	}
	if err := et.OverflowReaction.UnmarshalText([]byte(reaction)); err != nil {
		return model.EffectType{}, fmt.Errorf("effect type %q: %w", et.Name, err)
	}
	return et, nil
}

// SaveAll upserts the given effect types in a single transaction.
// With prune set, effect types not in the list are deleted.
func (r *EffectTypeRepository) SaveAll(ctx context.Context, types []model.EffectType, prune bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for effect types: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "table", "effect_types", "error", err)
		}
	}()

	names := make([]string, 0, len(types))
	for i := range types {
		if err := r.saveTx(ctx, tx, &types[i]); err != nil {
			return err
		}
		names = append(names, types[i].Name)
	}

	if prune {
		if _, err := tx.Exec(ctx, `DELETE FROM effect_types WHERE NOT (name = ANY($1))`, names); err != nil {
			return fmt.Errorf("prune effect_types: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit effect types: %w", err)
	}

	slog.Info("effect types saved", "count", len(types), "prune", prune)
	return nil
}

func (r *EffectTypeRepository) saveTx(ctx context.Context, tx pgx.Tx, et *model.EffectType) error {
	systemSettings := et.SystemSettings
	if systemSettings == nil {
		systemSettings = []model.ScalabilitySettings{}
	}
	emitterSettings := et.EmitterSettings
	if emitterSettings == nil {
		emitterSettings = []model.EmitterScalabilitySettings{}
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO effect_types (name, update_frequency, overflow_reaction, significance, system_settings, emitter_settings, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (name) DO UPDATE SET
		   update_frequency  = EXCLUDED.update_frequency,
		   overflow_reaction = EXCLUDED.overflow_reaction,
		   significance      = EXCLUDED.significance,
		   system_settings   = EXCLUDED.system_settings,
		   emitter_settings  = EXCLUDED.emitter_settings,
		   updated_at        = now()`,
		et.Name, et.UpdateFrequency.String(), et.OverflowReaction.String(), et.Significance,
		systemSettings, emitterSettings)
	if err != nil {
		return fmt.Errorf("upsert effect type %q: %w", et.Name, err)
	}
	return nil
}

// Delete removes an effect type. Returns false if it did not exist.
func (r *EffectTypeRepository) Delete(ctx context.Context, name string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM effect_types WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("delete effect type %q: %w", name, err)
	}
	return tag.RowsAffected() > 0, nil
}
