package models

import "time"

// ChannelIdentity represents a YouTube channel as fetched for one analysis session
type ChannelIdentity struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	SubscriberCount   int64     `json:"subscriberCount"`
	VideoCount        int64     `json:"videoCount"`
	PublishedAt       time.Time `json:"publishedAt"`
	ThumbnailURL      string    `json:"thumbnailUrl"`
	UploadsPlaylistID string    `json:"uploadsPlaylistId"`
}

// StartDate renders the channel creation date the way the report shows it.
func (c *ChannelIdentity) StartDate() string {
	if c.PublishedAt.IsZero() {
		return ""
	}
	return c.PublishedAt.UTC().Format("02 January 2006")
}

// Snapshot is one fetched channel with its full upload collection, as cached between
// pipeline runs. Videos are kept raw so the pipeline always rebuilds derived fields.
type Snapshot struct {
	Channel   ChannelIdentity `json:"channel"`
	Videos    []VideoRecord   `json:"videos"`
	FetchedAt time.Time       `json:"fetchedAt"`
}
