// cmd/server/main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/andresuchdata/platform-analytics/internal/app"
	"github.com/andresuchdata/platform-analytics/internal/config"
	"github.com/andresuchdata/platform-analytics/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	if err := run(cfg); err != nil {
		logger.Log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	// Warm the cache so the first request does not pay for a full run. A
	// failure here is reported through the API state instead of exiting.
	if _, err := application.Analytics.Refresh(context.Background()); err != nil {
		logger.Log.Warn().Err(err).Msg("initial analytics run failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Serve(ctx)
}
