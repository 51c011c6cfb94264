// Package analysis turns fetched video records into the derived statistics the report
// shows. Every function here is pure: inputs are never mutated and results are rebuilt.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/sosodev/duration"

	"github.com/tubestats/tubestats/internal/errors"
	"github.com/tubestats/tubestats/internal/models"
)

// publishedLayout is the wire format of snippet.publishedAt.
const publishedLayout = time.RFC3339

// Normalize validates raw records, computes the derived fields and returns them sorted
// ascending by publish instant. Records with identical timestamps keep their input order.
func Normalize(raw []models.VideoRecord) ([]models.DerivedVideo, error) {
	out := make([]models.DerivedVideo, 0, len(raw))
	for _, rec := range raw {
		d, err := derive(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Published.Before(out[j].Published)
	})
	for i := range out {
		out[i].Position = i
	}
	return out, nil
}

func derive(rec models.VideoRecord) (models.DerivedVideo, error) {
	if rec.PublishedAt == "" {
		return models.DerivedVideo{}, errors.Malformed(rec.ID, "publishedAt", "is missing")
	}
	if rec.Duration == "" {
		return models.DerivedVideo{}, errors.Malformed(rec.ID, "duration", "is missing")
	}
	if rec.ViewCount == nil {
		return models.DerivedVideo{}, errors.Malformed(rec.ID, "viewCount", "is missing")
	}

	d := models.DerivedVideo{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Tags:        append([]string(nil), rec.Tags...),
		Views:       *rec.ViewCount,
		Likes:       orZero(rec.LikeCount),
		Dislikes:    orZero(rec.DislikeCount),
		Favorites:   orZero(rec.FavoriteCount),
		Comments:    orZero(rec.CommentCount),
	}

	d.SumLikeDislike = d.Likes + d.Dislikes
	if d.SumLikeDislike != 0 {
		ratio := float64(d.Likes) / float64(d.SumLikeDislike)
		d.LikeDislikeRatio = &ratio
	}
	if d.Views > 0 {
		lv := math.Log(float64(d.Views))
		d.LogViews = &lv
	}

	published, err := time.Parse(publishedLayout, rec.PublishedAt)
	if err != nil {
		return models.DerivedVideo{}, errors.Malformed(rec.ID, "publishedAt", "is not RFC 3339: "+rec.PublishedAt)
	}
	d.Published = published.UTC()

	length, err := ParseDuration(rec.Duration)
	if err != nil {
		return models.DerivedVideo{}, errors.Malformed(rec.ID, "duration", "is not ISO 8601: "+rec.Duration)
	}
	d.Length = length

	return d, nil
}

// ParseDuration converts an ISO 8601 interval such as PT1H2M3S into a time span.
func ParseDuration(s string) (time.Duration, error) {
	parsed, err := duration.Parse(s)
	if err != nil {
		return 0, err
	}
	return parsed.ToTimeDuration(), nil
}

func orZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
