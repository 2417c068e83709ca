package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/udisondev/fxscale/internal/db/migrations"
)

// RunMigrations applies every pending migration on the given DSN.
func RunMigrations(ctx context.Context, dsn string) error {
	return withMigrator(dsn, func(sqlDB *sql.DB) error {
		if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		return nil
	})
}

// RollbackMigration rolls back the most recent migration.
func RollbackMigration(ctx context.Context, dsn string) error {
	return withMigrator(dsn, func(sqlDB *sql.DB) error {
		if err := goose.DownContext(ctx, sqlDB, "."); err != nil {
			return fmt.Errorf("rolling back migration: %w", err)
		}
		return nil
	})
}

// MigrationVersion returns the current schema version (0 for an empty database).
func MigrationVersion(ctx context.Context, dsn string) (int64, error) {
	var version int64
	err := withMigrator(dsn, func(sqlDB *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, sqlDB)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// MigratePool applies migrations through the connection config of an open pool.
func MigratePool(ctx context.Context, pool *pgxpool.Pool) error {
	// goose needs database/sql, register the pool's config with the pgx driver
	return RunMigrations(ctx, stdlib.RegisterConnConfig(pool.Config().ConnConfig))
}

func withMigrator(dsn string, fn func(*sql.DB) error) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return fn(sqlDB)
}
