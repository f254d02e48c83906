package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/osse101/chunkward/internal/bootstrap"
	"github.com/osse101/chunkward/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	closer, err := bootstrap.SetupLogger(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer closer.Close()

	warnings, err := config.ValidateEnvWithWarnings()
	for _, w := range warnings {
		slog.Warn("Configuration warning", "warning", w)
	}
	if err != nil {
		slog.Error("Environment validation failed", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		return 1
	}

	if err := app.Run(ctx); err != nil {
		slog.Error("Exited with error", "error", err)
		return 1
	}
	return 0
}
