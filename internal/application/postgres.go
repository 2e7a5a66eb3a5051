package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"thirdcoast.systems/clipforge/internal/config"
)

const (
	dbOpenBackoffBase = time.Second
	dbOpenBackoffMax  = 30 * time.Second
	dbPingTimeout     = time.Second
)

// OpenDBPoolWithRetry opens a pgx connection pool and waits for the
// database to answer a ping, retrying with exponential backoff. The
// database often comes up after the services that depend on it.
func OpenDBPoolWithRetry(ctx context.Context, conf config.Config) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(conf.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}

	slog.Info("Connecting to database", "host", cfg.ConnConfig.Host)

	backoff := dbOpenBackoffBase
	var lastErr error
	for attempt := 1; attempt <= conf.DatabaseRetries; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				slog.Info("Connected to database", "host", cfg.ConnConfig.Host)
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		slog.Warn("Database not ready, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, dbOpenBackoffMax)
	}

	return nil, fmt.Errorf("connect to database after %d attempts: %w", conf.DatabaseRetries, lastErr)
}
