package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"checkout/internal/app"
	"checkout/internal/config"
	"checkout/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewAdapter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Infow("checkout service starting", "env", cfg.Env, "version", cfg.App.Version)

	if err := app.Run(ctx, cfg, log); err != nil {
		log.Errorw("checkout service failed", "error", err)
		return
	}

	log.Infow("checkout service exited normally")
}
