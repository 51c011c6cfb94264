// Package app wires the configured platform client, cache and analyzer for the
// server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tubestats/tubestats/internal/cache"
	"github.com/tubestats/tubestats/internal/config"
	"github.com/tubestats/tubestats/internal/retry"
	"github.com/tubestats/tubestats/internal/service"
	"github.com/tubestats/tubestats/internal/youtube"
)

// NewAnalyzer creates an analyzer with all dependencies. The returned cleanup closes
// the cache and must be called once the analyzer is no longer used.
func NewAnalyzer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*service.Analyzer, func(), error) {
	client, err := youtube.NewClient(ctx, youtube.Options{
		APIKey:   cfg.YouTubeAPIKey,
		Endpoint: cfg.YouTubeEndpoint,
		RPS:      cfg.APIRPS,
		Burst:    cfg.APIBurst,
		Logger:   log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize YouTube client: %w", err)
	}

	store := OpenCache(ctx, cfg, log)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.RetryMax

	analyzer := service.New(youtube.NewFetcher(client, log), store, retryCfg, log)
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close cache")
		}
	}
	return analyzer, cleanup, nil
}

// OpenCache opens the configured cache backend. A backend that cannot be reached is
// replaced by the in-memory cache so analyses keep working.
func OpenCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) cache.Store {
	store, err := cache.Open(ctx, cache.Options{
		Backend:  cfg.CacheBackend,
		TTL:      cfg.CacheTTL,
		RedisURL: cfg.RedisURL,
		DBPath:   cfg.DBPath,
		Logger:   log,
	})
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.CacheBackend).Msg("cache unavailable, falling back to memory")
		return cache.NewMemory(cfg.CacheTTL)
	}
	log.Info().Str("backend", cfg.CacheBackend).Dur("ttl", cfg.CacheTTL).Msg("cache ready")
	return store
}
