// Package cache keeps fetched channel snapshots between analyses so a report can be
// re-filtered without hitting the platform again.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tubestats/tubestats/internal/models"
)

// Store is a snapshot cache keyed by canonical channel ID. Get returns (nil, nil) on a
// miss.
type Store interface {
	Get(ctx context.Context, channelID string) (*models.Snapshot, error)
	Put(ctx context.Context, channelID string, snap *models.Snapshot) error
	Invalidate(ctx context.Context, channelID string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory      = "memory"
	BackendRedis       = "redis"
	BackendSQLiteCloud = "sqlitecloud"
)

// Options configures Open.
type Options struct {
	Backend  string
	TTL      time.Duration
	RedisURL string
	DBPath   string
	Logger   zerolog.Logger
}

// Open creates the store for opts.Backend. An empty backend means memory.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(opts.TTL), nil
	case BackendRedis:
		return NewRedis(ctx, opts.RedisURL, opts.TTL, opts.Logger)
	case BackendSQLiteCloud:
		return NewSQLiteCloud(opts.DBPath, opts.TTL, opts.Logger)
	}
	return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
}

func encode(snap *models.Snapshot) ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

func decode(data []byte) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func expired(fetchedAt time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(fetchedAt) >= ttl
}
