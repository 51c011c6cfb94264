package analysis

import (
	"sort"

	"github.com/tubestats/tubestats/internal/models"
)

// Default result counts used by the report.
const (
	DefaultTopViewed   = 10
	DefaultTopDisliked = 5
	DefaultTopGaps     = 10
)

type rankOptions struct {
	includeUndefined bool
}

// RankOption tunes TopByDislikeRatio.
type RankOption func(*rankOptions)

// IncludeUndefinedRatio keeps records without like/dislike data, ranked after all others.
func IncludeUndefinedRatio() RankOption {
	return func(o *rankOptions) { o.includeUndefined = true }
}

// TopByViews returns the n most viewed records, ties broken by publish order.
func TopByViews(records []models.DerivedVideo, n int) models.Ranking {
	sorted := append([]models.DerivedVideo(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Views != sorted[j].Views {
			return sorted[i].Views > sorted[j].Views
		}
		return sorted[i].Position < sorted[j].Position
	})
	return newRanking(sorted, n)
}

// TopByDislikeRatio returns the n records with the lowest like/dislike ratio.
// Records with an undefined ratio are left out unless IncludeUndefinedRatio is given.
func TopByDislikeRatio(records []models.DerivedVideo, n int, opts ...RankOption) models.Ranking {
	var o rankOptions
	for _, opt := range opts {
		opt(&o)
	}

	defined := make([]models.DerivedVideo, 0, len(records))
	var undefined []models.DerivedVideo
	for _, r := range records {
		if r.LikeDislikeRatio == nil {
			undefined = append(undefined, r)
			continue
		}
		defined = append(defined, r)
	}

	sort.SliceStable(defined, func(i, j int) bool {
		a, b := *defined[i].LikeDislikeRatio, *defined[j].LikeDislikeRatio
		if a != b {
			return a < b
		}
		return defined[i].Position < defined[j].Position
	})
	if o.includeUndefined {
		sort.SliceStable(undefined, func(i, j int) bool {
			return undefined[i].Position < undefined[j].Position
		})
		defined = append(defined, undefined...)
	}
	return newRanking(defined, n)
}

func newRanking(sorted []models.DerivedVideo, n int) models.Ranking {
	n = clamp(n, len(sorted))
	top := sorted[:n]
	r := models.Ranking{
		Records: top,
		Titles:  make([]string, 0, n),
		IDs:     make([]string, 0, n),
	}
	for _, v := range top {
		r.Titles = append(r.Titles, v.Title)
		r.IDs = append(r.IDs, v.ID)
	}
	return r
}

func clamp(n, size int) int {
	if n < 0 {
		return 0
	}
	if n > size {
		return size
	}
	return n
}
