package youtube

import (
	"context"
	"time"

	"google.golang.org/api/youtube/v3"

	"github.com/tubestats/tubestats/internal/errors"
	"github.com/tubestats/tubestats/internal/models"
)

// FetchChannel loads the identity and uploads playlist of one channel.
func (f *Fetcher) FetchChannel(ctx context.Context, channelID string) (*models.ChannelIdentity, error) {
	items, err := f.api.ListChannels(ctx, ChannelQuery{ID: channelID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || items[0] == nil {
		return nil, errors.NotFound("channel %s not found", channelID)
	}

	identity := channelIdentity(items[0])
	if identity.ID == "" {
		identity.ID = channelID
	}
	f.log.Info().
		Str("channel_id", identity.ID).
		Str("title", identity.Title).
		Int64("video_count", identity.VideoCount).
		Msg("fetched channel")
	return identity, nil
}

func channelIdentity(ch *youtube.Channel) *models.ChannelIdentity {
	identity := &models.ChannelIdentity{ID: ch.Id}

	if s := ch.Snippet; s != nil {
		identity.Title = s.Title
		identity.Description = s.Description
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			identity.PublishedAt = t.UTC()
		}
		if s.Thumbnails != nil {
			identity.ThumbnailURL = bestThumbnail(s.Thumbnails)
		}
	}
	if st := ch.Statistics; st != nil {
		identity.SubscriberCount = int64(st.SubscriberCount)
		identity.VideoCount = int64(st.VideoCount)
	}
	if cd := ch.ContentDetails; cd != nil && cd.RelatedPlaylists != nil {
		identity.UploadsPlaylistID = cd.RelatedPlaylists.Uploads
	}
	return identity
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	for _, th := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
