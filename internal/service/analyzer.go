// Package service ties fetching, caching and the analysis pipeline together for the
// HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tubestats/tubestats/internal/analysis"
	"github.com/tubestats/tubestats/internal/cache"
	"github.com/tubestats/tubestats/internal/models"
	"github.com/tubestats/tubestats/internal/retry"
)

// Fetcher is the platform-facing half of the analyzer. *youtube.Fetcher implements it.
type Fetcher interface {
	Resolve(ctx context.Context, input string) (string, error)
	FetchChannel(ctx context.Context, channelID string) (*models.ChannelIdentity, error)
	FetchChannelVideos(ctx context.Context, channelID string) (*models.ChannelIdentity, []models.VideoRecord, error)
}

// Analyzer serves channel snapshots through a read-through cache and builds reports.
type Analyzer struct {
	fetcher Fetcher
	store   cache.Store
	retry   retry.Config
	group   singleflight.Group
	log     zerolog.Logger
	now     func() time.Time
}

// New creates an Analyzer. A nil store disables caching.
func New(fetcher Fetcher, store cache.Store, retryCfg retry.Config, log zerolog.Logger) *Analyzer {
	if store == nil {
		store = cache.NewMemory(0)
	}
	return &Analyzer{
		fetcher: fetcher,
		store:   store,
		retry:   retryCfg,
		log:     log.With().Str("component", "analyzer").Logger(),
		now:     time.Now,
	}
}

// Resolve maps user input to a canonical channel ID.
func (a *Analyzer) Resolve(ctx context.Context, input string) (string, error) {
	var channelID string
	err := retry.Do(ctx, a.retry, nil, func(ctx context.Context) error {
		id, err := a.fetcher.Resolve(ctx, input)
		channelID = id
		return err
	})
	if err != nil {
		return "", err
	}
	return channelID, nil
}

// GetChannel returns the channel identity, from the cached snapshot when there is one.
func (a *Analyzer) GetChannel(ctx context.Context, channelID string) (*models.ChannelIdentity, error) {
	if snap := a.cached(ctx, channelID); snap != nil {
		ch := snap.Channel
		return &ch, nil
	}

	var channel *models.ChannelIdentity
	err := retry.Do(ctx, a.retry, nil, func(ctx context.Context) error {
		ch, err := a.fetcher.FetchChannel(ctx, channelID)
		channel = ch
		return err
	})
	if err != nil {
		return nil, err
	}
	return channel, nil
}

// GetVideos returns the channel with its full upload collection. Concurrent callers
// asking for the same channel share one fetch. The shared fetch runs on the context of
// the caller that started it; if that caller goes away, the remaining callers start a
// new fetch on their own context instead of inheriting its cancellation.
func (a *Analyzer) GetVideos(ctx context.Context, channelID string) (*models.Snapshot, error) {
	if snap := a.cached(ctx, channelID); snap != nil {
		return snap, nil
	}

	for {
		var led bool
		ch := a.group.DoChan(channelID, func() (interface{}, error) {
			led = true
			return a.fetch(ctx, channelID)
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}

		if res.Err != nil {
			if !led && ctx.Err() == nil && isContextErr(res.Err) {
				a.log.Debug().Str("channel_id", channelID).Msg("shared fetch abandoned by its caller, refetching")
				continue
			}
			return nil, res.Err
		}
		snap := res.Val.(*models.Snapshot)
		if res.Shared {
			cp := *snap
			cp.Videos = append([]models.VideoRecord(nil), snap.Videos...)
			snap = &cp
		}
		return snap, nil
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (a *Analyzer) fetch(ctx context.Context, channelID string) (*models.Snapshot, error) {
	start := a.now()

	var snap *models.Snapshot
	err := retry.Do(ctx, a.retry, nil, func(ctx context.Context) error {
		channel, videos, err := a.fetcher.FetchChannelVideos(ctx, channelID)
		if err != nil {
			return err
		}
		snap = &models.Snapshot{Channel: *channel, Videos: videos, FetchedAt: a.now().UTC()}
		return nil
	})
	if err != nil {
		a.log.Warn().Err(err).Str("channel_id", channelID).Msg("fetch failed")
		return nil, err
	}

	if err := a.store.Put(ctx, channelID, snap); err != nil {
		a.log.Warn().Err(err).Str("channel_id", channelID).Msg("cache write failed")
	}
	a.log.Info().
		Str("channel_id", channelID).
		Int("videos", len(snap.Videos)).
		Dur("elapsed", a.now().Sub(start)).
		Msg("fetched channel snapshot")
	return snap, nil
}

func (a *Analyzer) cached(ctx context.Context, channelID string) *models.Snapshot {
	snap, err := a.store.Get(ctx, channelID)
	if err != nil {
		a.log.Warn().Err(err).Str("channel_id", channelID).Msg("cache read failed")
		return nil
	}
	if snap != nil {
		a.log.Debug().Str("channel_id", channelID).Msg("cache hit")
	}
	return snap
}

// Invalidate drops the cached snapshot so the next request refetches.
func (a *Analyzer) Invalidate(ctx context.Context, channelID string) error {
	return a.store.Invalidate(ctx, channelID)
}

// Derived returns the normalized record set of a channel together with its snapshot.
func (a *Analyzer) Derived(ctx context.Context, channelID string) (*models.Snapshot, []models.DerivedVideo, error) {
	snap, err := a.GetVideos(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}
	derived, err := analysis.Normalize(snap.Videos)
	if err != nil {
		return nil, nil, err
	}
	return snap, derived, nil
}
