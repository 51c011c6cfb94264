package youtube

import (
	"context"

	"github.com/tubestats/tubestats/internal/errors"
	"github.com/tubestats/tubestats/internal/models"
)

// FetchAllVideos walks the uploads playlist page by page and returns every video in
// playlist order. Paging stops only when a page carries no continuation token; the
// advisory total is logged but never trusted. Any failure or cancellation discards
// what was collected so far.
func (f *Fetcher) FetchAllVideos(ctx context.Context, uploadsPlaylistID string) ([]models.VideoRecord, error) {
	if uploadsPlaylistID == "" {
		return nil, errors.NotFound("channel has no uploads playlist")
	}

	var (
		all       []models.VideoRecord
		pageToken string
		pages     int
		advisory  int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.api.ListPlaylistPage(ctx, uploadsPlaylistID, pageToken)
		if err != nil {
			return nil, err
		}
		pages++
		advisory = page.TotalResults

		if len(page.VideoIDs) > 0 {
			batch, err := f.api.ListVideos(ctx, page.VideoIDs)
			if err != nil {
				return nil, err
			}
			all = append(all, inRequestedOrder(page.VideoIDs, batch)...)
		}

		f.log.Debug().
			Str("playlist_id", uploadsPlaylistID).
			Int("page", pages).
			Int("page_items", len(page.VideoIDs)).
			Int("collected", len(all)).
			Msg("fetched playlist page")

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	f.log.Info().
		Str("playlist_id", uploadsPlaylistID).
		Int("pages", pages).
		Int("videos", len(all)).
		Int64("advisory_total", advisory).
		Msg("fetched uploads")
	return all, nil
}

// FetchChannelVideos fetches the channel identity and then its full upload collection.
func (f *Fetcher) FetchChannelVideos(ctx context.Context, channelID string) (*models.ChannelIdentity, []models.VideoRecord, error) {
	channel, err := f.FetchChannel(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}
	videos, err := f.FetchAllVideos(ctx, channel.UploadsPlaylistID)
	if err != nil {
		return nil, nil, err
	}
	return channel, videos, nil
}

// inRequestedOrder lines the batch up with ids. IDs the platform did not return
// (private or deleted uploads) are dropped.
func inRequestedOrder(ids []string, batch []models.VideoRecord) []models.VideoRecord {
	byID := make(map[string]models.VideoRecord, len(batch))
	for _, rec := range batch {
		byID[rec.ID] = rec
	}
	out := make([]models.VideoRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}
