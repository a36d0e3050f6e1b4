package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/markdave123-py/docsync/internal/app"
	"github.com/markdave123-py/docsync/internal/config"
	"github.com/markdave123-py/docsync/internal/logger"
)

func main() {
	// Handle SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	log := logger.Setup(cfg.LogLevel, cfg.LogJSON)
	ctx = logger.ContextWithLogger(ctx, log)

	if err := cfg.Validate(); err != nil {
		// the server still starts; every run reports the same error until fixed
		log.Warn("configuration incomplete", "err", err)
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer application.Close()

	log.Info("docsync is running; DB connected and bootstrapped")
	if err := application.Run(ctx); err != nil {
		log.Error("shutting down after failure", "err", err)
		application.Close()
		os.Exit(1)
	}
	log.Info("shutting down...")
}
