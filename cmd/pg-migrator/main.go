package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"thirdcoast.systems/clipforge/internal/application"
	"thirdcoast.systems/clipforge/internal/config"
	"thirdcoast.systems/clipforge/internal/db"
	"thirdcoast.systems/clipforge/internal/logging"
)

// The migrator runs before the other services come up; if the database
// is not reachable within this window something else is wrong.
const startupTimeout = 2 * time.Minute

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(conf.LogLevel)

	slog.Info("Starting schema migrator")

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to open database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dbc := db.NewDatabaseConnection(pool)
	defer dbc.Close()

	if err := dbc.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("Migrations completed")
}
