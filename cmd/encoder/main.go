package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"

	"thirdcoast.systems/clipforge/internal/application"
	"thirdcoast.systems/clipforge/internal/config"
	"thirdcoast.systems/clipforge/internal/db"
	"thirdcoast.systems/clipforge/internal/logging"
	"thirdcoast.systems/clipforge/internal/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(conf.LogLevel)

	slog.Info("Starting encoder service")

	if err := os.MkdirAll(conf.WorkRoot, 0o755); err != nil {
		slog.Error("failed to create work root", "path", conf.WorkRoot, "error", err)
		os.Exit(1)
	}

	// One encoder per work root; a second instance would race the first
	// for scratch directories and stuck-job recovery.
	lock := flock.New(filepath.Join(conf.WorkRoot, "encoder.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		slog.Error("failed to acquire encoder lock", "lock", lock.Path(), "error", err)
		os.Exit(1)
	}
	if !locked {
		slog.Error("another encoder instance is already running", "lock", lock.Path())
		os.Exit(1)
	}
	defer func() { _ = lock.Unlock() }()

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to open database pool", "error", err)
		os.Exit(1)
	}

	dbc := db.NewDatabaseConnection(pool)
	defer dbc.Close()

	runner := render.NewRunner(dbc, *conf)
	if err := runner.Run(ctx); err != nil {
		slog.Error("render runner failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Encoder service stopped")
}
