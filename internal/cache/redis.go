package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tubestats/tubestats/internal/models"
)

const keyPrefix = "tubestats:snapshot:"

// Redis stores snapshots as JSON strings. Expiry is left to Redis.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewRedis connects to redisURL and pings it.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration, log zerolog.Logger) (*Redis, error) {
	if redisURL == "" {
		return nil, errors.New("redis: no URL configured")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: connection failed: %w", err)
	}

	log.Info().Str("addr", opts.Addr).Msg("redis: connected, caching enabled")
	return NewRedisFromClient(rdb, ttl, log), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, log: log}
}

func (r *Redis) Get(ctx context.Context, channelID string) (*models.Snapshot, error) {
	data, err := r.rdb.Get(ctx, snapshotKey(channelID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (r *Redis) Put(ctx context.Context, channelID string, snap *models.Snapshot) error {
	b, err := encode(snap)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, snapshotKey(channelID), b, r.ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, channelID string) error {
	return r.rdb.Del(ctx, snapshotKey(channelID)).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func snapshotKey(channelID string) string {
	return keyPrefix + channelID
}
