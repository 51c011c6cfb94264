package analysis

import (
	"errors"
	"sort"

	"github.com/tubestats/tubestats/internal/models"
)

// ErrNoRecords is returned by operations that need at least one record.
var ErrNoRecords = errors.New("analysis: no records")

const hoursPerDay = 24

// ComputeTimeGaps pairs every record with the next later one and stores the gap in days.
// Input must be sorted ascending by publish instant; the last record's gap is 0.
func ComputeTimeGaps(records []models.DerivedVideo) []models.TimeGapRecord {
	out := make([]models.TimeGapRecord, len(records))
	for i, r := range records {
		out[i] = models.TimeGapRecord{DerivedVideo: r}
		if i+1 < len(records) {
			out[i].TimeDiffDays = records[i+1].Published.Sub(r.Published).Hours() / hoursPerDay
		}
	}
	return out
}

// RankByGap returns the n records followed by the longest gaps, ties by publish order.
func RankByGap(gaps []models.TimeGapRecord, n int) []models.TimeGapRecord {
	sorted := append([]models.TimeGapRecord(nil), gaps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TimeDiffDays != sorted[j].TimeDiffDays {
			return sorted[i].TimeDiffDays > sorted[j].TimeDiffDays
		}
		return sorted[i].Position < sorted[j].Position
	})
	return sorted[:clamp(n, len(sorted))]
}

// ComputeGapStats returns the quartiles and maximum of the gap distribution.
func ComputeGapStats(gaps []models.TimeGapRecord) (models.GapStats, error) {
	if len(gaps) == 0 {
		return models.GapStats{}, ErrNoRecords
	}
	values := make([]float64, len(gaps))
	for i, g := range gaps {
		values[i] = g.TimeDiffDays
	}
	sort.Float64s(values)

	return models.GapStats{
		P25: quantile(values, 0.25),
		P50: quantile(values, 0.50),
		P75: quantile(values, 0.75),
		Max: values[len(values)-1],
	}, nil
}

// LongestHiatusNeighbors finds the record opening the longest gap along with the records
// directly before and after it in publish order. The earliest record wins a tie.
func LongestHiatusNeighbors(gaps []models.TimeGapRecord) (models.Hiatus, error) {
	if len(gaps) == 0 {
		return models.Hiatus{}, ErrNoRecords
	}
	best := 0
	for i := 1; i < len(gaps); i++ {
		if gaps[i].TimeDiffDays > gaps[best].TimeDiffDays {
			best = i
		}
	}

	h := models.Hiatus{Greatest: gaps[best].ID}
	if best > 0 {
		h.Previous = gaps[best-1].ID
	}
	if best+1 < len(gaps) {
		h.Next = gaps[best+1].ID
	}
	return h, nil
}

// quantile uses linear interpolation between closest ranks (the R-7 / numpy default).
// values must be sorted and non-empty.
func quantile(values []float64, p float64) float64 {
	if len(values) == 1 {
		return values[0]
	}
	h := float64(len(values)-1) * p
	lo := int(h)
	if lo >= len(values)-1 {
		return values[len(values)-1]
	}
	frac := h - float64(lo)
	return values[lo] + frac*(values[lo+1]-values[lo])
}
