package models

import "time"

// Totals aggregates a record set
type Totals struct {
	Views     int64         `json:"views"`
	Watchtime time.Duration `json:"watchtime"`
	Comments  int64         `json:"comments"`
}

// GapStats summarizes the distribution of time gaps in days
type GapStats struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	Max float64 `json:"max"`
}

// Hiatus names the video opening the longest gap and its neighbors in publish order.
// Empty IDs mean there is no neighbor on that side.
type Hiatus struct {
	Greatest string `json:"greatest"`
	Previous string `json:"previous"`
	Next     string `json:"next"`
}

// TimeRange represents the time period for analytics
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Report is the full payload handed to the report collaborator for one channel
type Report struct {
	Channel   ChannelIdentity `json:"channel"`
	StartDate string          `json:"startDate"`
	Totals    Totals          `json:"totals"`
	// Bounds holds the first and last publish instants, both inclusive.
	Bounds TimeRange `json:"bounds"`
	// Window is the filter applied to the rankings: Start inclusive, End exclusive.
	// A zero End means the window is open-ended.
	Window      TimeRange       `json:"window"`
	VideoCount  int             `json:"videoCount"`
	WindowCount int             `json:"windowCount"`
	MostViewed  Ranking         `json:"mostViewed"`
	MostDislike Ranking         `json:"mostDisliked"`
	TimeGaps    []TimeGapRecord `json:"timeGaps"`
	GapStats    *GapStats       `json:"gapStats,omitempty"`
	Hiatus      *Hiatus         `json:"hiatus,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}
