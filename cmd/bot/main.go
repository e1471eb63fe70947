package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"guild-jukebox/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	InitLogger(cfg.LogLevel, cfg.LogFormat)

	app, err := NewApp(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.Shutdown(ctx); err != nil {
			slog.Error("Application shutdown error", "error", err)
		}
	}()

	if err := app.Run(); err != nil {
		slog.Error("Failed to start application", "error", err)
		return
	}

	sig := WaitForShutdown()
	slog.Info("Shutdown signal received", "signal", sig.String())
}
