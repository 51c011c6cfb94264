package service

import (
	"context"
	"time"

	"github.com/tubestats/tubestats/internal/analysis"
	"github.com/tubestats/tubestats/internal/models"
)

// ReportOptions selects the window and the ranking sizes of a report.
type ReportOptions struct {
	Start            time.Time
	End              time.Time
	TopViewed        int
	TopDisliked      int
	TopGaps          int
	IncludeUndefined bool
}

// DefaultReportOptions covers the whole channel with the standard ranking sizes.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		TopViewed:   analysis.DefaultTopViewed,
		TopDisliked: analysis.DefaultTopDisliked,
		TopGaps:     analysis.DefaultTopGaps,
	}
}

// BuildReport fetches (or reuses) the channel snapshot and runs the full pipeline.
func (a *Analyzer) BuildReport(ctx context.Context, channelID string, opts ReportOptions) (*models.Report, error) {
	snap, derived, err := a.Derived(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return buildReport(snap.Channel, derived, opts, a.now()), nil
}

func buildReport(channel models.ChannelIdentity, derived []models.DerivedVideo, opts ReportOptions, now time.Time) *models.Report {
	first, last := analysis.DateBounds(derived)
	window := analysis.FilterByDate(derived, opts.Start, opts.End)

	report := &models.Report{
		Channel:     channel,
		StartDate:   channel.StartDate(),
		Totals:      analysis.ComputeTotals(derived),
		Bounds:      models.TimeRange{Start: first, End: last},
		Window:      models.TimeRange{Start: opts.Start, End: opts.End},
		VideoCount:  len(derived),
		WindowCount: len(window),
		MostViewed:  analysis.TopByViews(window, opts.TopViewed),
		Timestamp:   now.UTC(),
	}
	if report.Window.Start.IsZero() {
		report.Window.Start = first
	}

	var rankOpts []analysis.RankOption
	if opts.IncludeUndefined {
		rankOpts = append(rankOpts, analysis.IncludeUndefinedRatio())
	}
	report.MostDislike = analysis.TopByDislikeRatio(window, opts.TopDisliked, rankOpts...)

	gaps := analysis.ComputeTimeGaps(window)
	report.TimeGaps = analysis.RankByGap(gaps, opts.TopGaps)

	if stats, err := analysis.ComputeGapStats(gaps); err == nil {
		report.GapStats = &stats
	}
	if hiatus, err := analysis.LongestHiatusNeighbors(gaps); err == nil {
		report.Hiatus = &hiatus
	}
	return report
}
