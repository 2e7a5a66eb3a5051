package db

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// DatabaseConnection wraps the pgx pool with query construction and
// schema migration. Callers hand it a live pool; see
// application.OpenDBPoolWithRetry.
type DatabaseConnection struct {
	*pgxpool.Pool
}

// NewDatabaseConnection wraps an open connection pool.
func NewDatabaseConnection(pool *pgxpool.Pool) *DatabaseConnection {
	return &DatabaseConnection{pool}
}

// Close releases the underlying pool.
func (db *DatabaseConnection) Close() {
	db.Pool.Close()
}

// Queries returns a query runner backed by the pool.
func (db *DatabaseConnection) Queries(ctx context.Context) *Queries {
	return New(db)
}

// NewWithTX begins a transaction and returns a query runner bound to it.
// The caller owns the commit or rollback.
func (db *DatabaseConnection) NewWithTX(ctx context.Context) (*Queries, pgx.Tx, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return New(tx), tx, nil
}

//go:embed sql/migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "sql/migrations"

// Migrate brings the schema to the target version. GOOSE_UP_TO and
// GOOSE_DOWN_TO select a specific version; the default is latest.
func (db *DatabaseConnection) Migrate(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	// goose drives database/sql, not pgx directly.
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	current, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return err
	}
	slog.Info("Current schema version", "version", current)

	if down, ok := os.LookupEnv("GOOSE_DOWN_TO"); ok {
		target, err := strconv.ParseInt(down, 10, 64)
		if err != nil {
			return fmt.Errorf("parse GOOSE_DOWN_TO: %w", err)
		}
		return goose.DownToContext(ctx, sqlDB, migrationsDir, target)
	}

	target := int64(goose.MaxVersion)
	if up, ok := os.LookupEnv("GOOSE_UP_TO"); ok {
		if target, err = strconv.ParseInt(up, 10, 64); err != nil {
			return fmt.Errorf("parse GOOSE_UP_TO: %w", err)
		}
	}
	return goose.UpToContext(ctx, sqlDB, migrationsDir, target)
}
