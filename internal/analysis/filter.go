package analysis

import (
	"time"

	"github.com/tubestats/tubestats/internal/models"
)

// FilterByDate keeps records published in [start, end). A zero bound is open.
func FilterByDate(records []models.DerivedVideo, start, end time.Time) []models.DerivedVideo {
	out := make([]models.DerivedVideo, 0, len(records))
	for _, r := range records {
		if !start.IsZero() && r.Published.Before(start) {
			continue
		}
		if !end.IsZero() && !r.Published.Before(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ComputeTotals sums views, durations and comments over the set.
func ComputeTotals(records []models.DerivedVideo) models.Totals {
	var t models.Totals
	for _, r := range records {
		t.Views += r.Views
		t.Watchtime += r.Length
		t.Comments += r.Comments
	}
	return t
}

// DateBounds returns the earliest and latest publish instants of a normalized set.
func DateBounds(records []models.DerivedVideo) (first, last time.Time) {
	for i, r := range records {
		if i == 0 || r.Published.Before(first) {
			first = r.Published
		}
		if i == 0 || r.Published.After(last) {
			last = r.Published
		}
	}
	return first, last
}
