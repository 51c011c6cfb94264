package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tubestats/tubestats/internal/api"
	"github.com/tubestats/tubestats/internal/app"
	"github.com/tubestats/tubestats/internal/config"
	"github.com/tubestats/tubestats/internal/logger"
)

func main() {
	// Load configuration (.env, optional YAML file, environment)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logg := logger.Init(cfg.LogLevel, cfg.LogFormat, "tubestats-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyzer, cleanup, err := app.NewAnalyzer(ctx, cfg, logg)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to initialize analyzer")
	}
	defer cleanup()

	server := api.NewServer(analyzer, api.Options{
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logg,
	})
	if err := server.Start(ctx, ":"+cfg.Port); err != nil {
		logg.Error().Err(err).Msg("server stopped")
		cleanup()
		os.Exit(1)
	}
}
