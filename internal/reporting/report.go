// Package reporting assembles periodic visibility reports from tracked
// history: the headline mention-ratio stats, the weighted score breakdown
// with its interpretation, the trend against the previous window, and the
// top discovered competitors.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/geotrack/visibility-tracker/internal/models"
	"github.com/geotrack/visibility-tracker/internal/scoring"
	"github.com/geotrack/visibility-tracker/internal/tracking"
)

const topCompetitorLimit = 5

// Report is one brand's visibility report over a trailing window.
type Report struct {
	GeneratedAt    time.Time                  `json:"generated_at"`
	BrandID        string                     `json:"brand_id"`
	BrandName      string                     `json:"brand_name"`
	Period         string                     `json:"period"` // daily or weekly
	WindowDays     int                        `json:"window_days"`
	Stats          models.TrackingStats       `json:"stats"`
	Breakdown      scoring.ScoreBreakdown     `json:"breakdown"`
	Interpretation scoring.Interpretation     `json:"interpretation"`
	Trend          scoring.Trend              `json:"trend"`
	Target         scoring.TargetEstimate     `json:"target"`
	TopCompetitors []models.CompetitorMention `json:"top_competitors,omitempty"`
}

// Builder builds reports from the tracking service's aggregates.
type Builder struct {
	tracking    *tracking.Service
	targetScore float64
}

// NewBuilder creates a report builder. targetScore is the goal the time-to-
// target projection aims for.
func NewBuilder(trackingService *tracking.Service, targetScore float64) *Builder {
	return &Builder{tracking: trackingService, targetScore: targetScore}
}

// Build assembles the report for one brand. The trend compares the current
// window against the window immediately before it.
func (b *Builder) Build(ctx context.Context, brand models.Brand, windowDays int, period string) (*Report, error) {
	stats, err := b.tracking.GetBrandTrackingStats(ctx, brand.ID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking stats: %w", err)
	}

	breakdown, err := b.tracking.GetVisibilityBreakdown(ctx, brand.ID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get score breakdown: %w", err)
	}

	previousScore, err := b.previousWindowScore(ctx, brand.ID, windowDays, stats)
	if err != nil {
		return nil, err
	}

	trend := scoring.CalculateTrend(stats.VisibilityScore, previousScore)

	// Scale the window-over-window delta to a weekly pace for the projection.
	weeklyTrend := (stats.VisibilityScore - previousScore) * 7 / float64(windowDays)
	target := scoring.EstimateTimeToTarget(stats.VisibilityScore, b.targetScore, weeklyTrend)

	competitors, err := b.tracking.GetTopCompetitors(ctx, brand.ID, windowDays, topCompetitorLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get competitors: %w", err)
	}

	return &Report{
		GeneratedAt:    time.Now(),
		BrandID:        brand.ID,
		BrandName:      brand.Name,
		Period:         period,
		WindowDays:     windowDays,
		Stats:          *stats,
		Breakdown:      *breakdown,
		Interpretation: scoring.GetScoreInterpretation(breakdown.Overall),
		Trend:          trend,
		Target:         target,
		TopCompetitors: competitors,
	}, nil
}

// previousWindowScore derives the mention ratio of the window immediately
// before the current one by differencing the doubled window's totals.
func (b *Builder) previousWindowScore(ctx context.Context, brandID string, windowDays int, current *models.TrackingStats) (float64, error) {
	doubled, err := b.tracking.GetBrandTrackingStats(ctx, brandID, windowDays*2)
	if err != nil {
		return 0, fmt.Errorf("failed to get previous window stats: %w", err)
	}

	previousTracked := doubled.TotalTracked - current.TotalTracked
	previousMentions := doubled.TotalMentions - current.TotalMentions
	if previousTracked <= 0 {
		return 0, nil
	}

	return float64(previousMentions) / float64(previousTracked) * 100, nil
}
