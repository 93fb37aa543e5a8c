package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/geotrack/visibility-tracker/internal/scoring"
)

// GetVisibilityBreakdown assembles the scorer input from stored history and
// returns the weighted multi-factor score for the trailing window. This is
// the diagnostic companion to GetBrandTrackingStats' headline mention ratio.
func (s *Service) GetVisibilityBreakdown(ctx context.Context, brandID string, windowDays int) (*scoring.ScoreBreakdown, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	sessions, err := s.store.ListCompletedSessions(ctx, brandID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	citationStats, err := s.store.GetCitationStats(ctx, brandID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get citation stats: %w", err)
	}

	totalMentions := 0
	positionSum := 0
	positionCount := 0
	for _, session := range sessions {
		if session.Mentioned {
			totalMentions++
			if session.Position != nil {
				positionSum += *session.Position
				positionCount++
			}
		}
	}

	var averagePosition *float64
	if positionCount > 0 {
		avg := float64(positionSum) / float64(positionCount)
		averagePosition = &avg
	}

	breakdown := scoring.CalculateVisibilityScore(scoring.VisibilityMetrics{
		TotalQueries:    len(sessions),
		TotalMentions:   totalMentions,
		AveragePosition: averagePosition,
		SentimentDistribution: scoring.SentimentDistribution{
			Positive: citationStats.Positive,
			Neutral:  citationStats.Neutral,
			Negative: citationStats.Negative,
		},
		CitationQuality: citationStats.AvgRelevance,
	})

	return &breakdown, nil
}
