package models

import "time"

const watchURLPrefix = "https://www.youtube.com/watch?v="

// VideoRecord represents a YouTube video exactly as the platform reported it.
// Statistics are pointers because the uploader can hide them.
type VideoRecord struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PublishedAt   string   `json:"publishedAt"`
	Duration      string   `json:"duration"`
	Tags          []string `json:"tags,omitempty"`
	ViewCount     *int64   `json:"viewCount,omitempty"`
	LikeCount     *int64   `json:"likeCount,omitempty"`
	DislikeCount  *int64   `json:"dislikeCount,omitempty"`
	FavoriteCount *int64   `json:"favoriteCount,omitempty"`
	CommentCount  *int64   `json:"commentCount,omitempty"`
}

// DerivedVideo is a normalized VideoRecord with the computed fields the report uses.
type DerivedVideo struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags,omitempty"`
	Published   time.Time     `json:"published"`
	Length      time.Duration `json:"length"`

	Views     int64 `json:"views"`
	Likes     int64 `json:"likes"`
	Dislikes  int64 `json:"dislikes"`
	Favorites int64 `json:"favorites"`
	Comments  int64 `json:"comments"`

	SumLikeDislike int64 `json:"sumLikeDislike"`
	// nil when likes+dislikes is zero
	LikeDislikeRatio *float64 `json:"likeDislikeRatio"`
	// natural log of Views, nil when Views is zero
	LogViews *float64 `json:"logViews"`

	// Position is the index in the publish-ordered sequence produced by normalization.
	Position int `json:"position"`
}

// TimeGapRecord carries the number of days until the next later video in the same set.
type TimeGapRecord struct {
	DerivedVideo
	TimeDiffDays float64 `json:"timeDiffDays"`
}

// Ranking is a top-N view over a record set with parallel title and ID lists for links.
type Ranking struct {
	Records []DerivedVideo `json:"records"`
	Titles  []string       `json:"titles"`
	IDs     []string       `json:"ids"`
}

// WatchURL returns the watch page link for a video ID.
func WatchURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return watchURLPrefix + videoID
}

// Int64 returns a pointer to v, for building optional statistics.
func Int64(v int64) *int64 {
	return &v
}
