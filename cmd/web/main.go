package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"thirdcoast.systems/clipforge/cmd/web/internal/web"
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

	slog.Info("Starting web service")

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to open database pool", "error", err)
		os.Exit(1)
	}

	dbc := db.NewDatabaseConnection(pool)
	defer dbc.Close()

	if conf.EmbeddedWorkers {
		runner := render.NewRunner(dbc, *conf)
		go func() {
			if err := runner.Run(ctx); err != nil {
				slog.Error("embedded render workers failed", "error", err)
			}
		}()
	}

	e := web.NewWebserver(dbc, *conf)

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	// Drain in-flight requests on SIGTERM; Start returns ErrServerClosed
	// once Shutdown finishes.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Warn("server shutdown incomplete", "error", err)
		}
	}()

	slog.Info("Listening", "addr", addr)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
