// Package scoring converts aggregate tracking metrics into the weighted
// 0-100 visibility score with sub-scores, trend deltas and goal projections.
// Every function is pure and total: zero-data inputs produce zero/neutral
// defaults, never an error or NaN. This package is the sole source of
// weighted-scoring truth; no other code recomputes these numbers.
package scoring

import (
	"fmt"
	"math"
)

// Component weights of the overall score. Must sum to 1.0 exactly.
const (
	weightMentionFrequency = 0.4
	weightPosition         = 0.3
	weightSentiment        = 0.2
	weightCitationQuality  = 0.1
)

// maxWeeksAchievable is the horizon beyond which a target is reported as
// out of reach at the current pace (about six months).
const maxWeeksAchievable = 26

// SentimentDistribution holds per-label mention counts over a window. The
// counts need not sum to total mentions; uncategorized mentions are omitted.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// VisibilityMetrics is the aggregate scorer input for one brand and window.
// AveragePosition is nil when the brand was never mentioned in the window.
type VisibilityMetrics struct {
	TotalQueries          int                   `json:"total_queries"`
	TotalMentions         int                   `json:"total_mentions"`
	AveragePosition       *float64              `json:"average_position"`
	SentimentDistribution SentimentDistribution `json:"sentiment_distribution"`
	CitationQuality       float64               `json:"citation_quality"` // average relevance, 0-1
}

// ScoreBreakdown is the weighted overall score plus its four sub-scores,
// each 0-100 rounded to one decimal place.
type ScoreBreakdown struct {
	Overall          float64 `json:"overall"`
	MentionFrequency float64 `json:"mention_frequency"`
	Position         float64 `json:"position"`
	Sentiment        float64 `json:"sentiment"`
	CitationQuality  float64 `json:"citation_quality"`
}

// Interpretation is the presentation tier for a score.
type Interpretation struct {
	Label          string `json:"label"`
	Description    string `json:"description"`
	Color          string `json:"color"`
	Recommendation string `json:"recommendation"`
}

// Trend describes the change between two scores.
type Trend struct {
	Value      float64 `json:"value"` // percent change, 1 decimal
	IsPositive bool    `json:"is_positive"`
	Label      string  `json:"label"` // improving, declining or stable
}

// TargetEstimate projects how long reaching a target score will take.
// Weeks is +Inf when the trend is flat or negative.
type TargetEstimate struct {
	Weeks      float64 `json:"weeks"`
	Achievable bool    `json:"achievable"`
	Message    string  `json:"message"`
}

// CalculateMentionFrequencyScore maps the mention rate onto 0-100 through a
// piecewise-linear curve. Zero queries score 0 rather than dividing by zero.
func CalculateMentionFrequencyScore(totalQueries, totalMentions int) float64 {
	if totalQueries == 0 {
		return 0
	}

	rate := float64(totalMentions) / float64(totalQueries)

	switch {
	case rate >= 0.9:
		return 100
	case rate >= 0.7:
		return 80 + (rate-0.7)*100
	case rate >= 0.5:
		return 60 + (rate-0.5)*100
	case rate >= 0.3:
		return 40 + (rate-0.3)*100
	default:
		return rate * 133.33 // 0-30% maps onto 0-40
	}
}

// CalculatePositionScore scores the average ranking position; lower positions
// (earlier in the answer) score higher. A nil position means no mentions and
// scores 0. Monotonically non-increasing in position, floored at 0.
func CalculatePositionScore(averagePosition *float64) float64 {
	if averagePosition == nil {
		return 0
	}
	pos := *averagePosition

	switch {
	case pos <= 1:
		return 100
	case pos <= 2:
		return 90
	case pos <= 3:
		return 80
	case pos <= 4:
		return 65
	case pos <= 5:
		return 50
	case pos <= 10:
		return math.Max(0, 40-(pos-5)*4)
	default:
		return math.Max(0, 20-(pos-10)*2)
	}
}

// CalculateSentimentScore scores the positive/neutral/negative mix: positive
// mentions are worth 100, neutral 70, negative -50, rate-weighted over the
// categorized total and clamped to 0-100. All-zero counts score 0.
func CalculateSentimentScore(dist SentimentDistribution) float64 {
	total := dist.Positive + dist.Neutral + dist.Negative
	if total == 0 {
		return 0
	}

	positiveRate := float64(dist.Positive) / float64(total)
	neutralRate := float64(dist.Neutral) / float64(total)
	negativeRate := float64(dist.Negative) / float64(total)

	score := positiveRate*100 + neutralRate*70 - negativeRate*50

	return clamp(score, 0, 100)
}

// CalculateCitationQualityScore maps average citation relevance (0-1) onto
// 0-100. The clamp guards inputs that drift out of the nominal range.
func CalculateCitationQualityScore(averageRelevance float64) float64 {
	return clamp(averageRelevance*100, 0, 100)
}

// CalculateVisibilityScore computes the four sub-scores and their weighted
// composite. All five values are rounded to one decimal place.
func CalculateVisibilityScore(metrics VisibilityMetrics) ScoreBreakdown {
	mentionFrequency := CalculateMentionFrequencyScore(metrics.TotalQueries, metrics.TotalMentions)
	position := CalculatePositionScore(metrics.AveragePosition)
	sentiment := CalculateSentimentScore(metrics.SentimentDistribution)
	citationQuality := CalculateCitationQualityScore(metrics.CitationQuality)

	overall := mentionFrequency*weightMentionFrequency +
		position*weightPosition +
		sentiment*weightSentiment +
		citationQuality*weightCitationQuality

	return ScoreBreakdown{
		Overall:          round1(overall),
		MentionFrequency: round1(mentionFrequency),
		Position:         round1(position),
		Sentiment:        round1(sentiment),
		CitationQuality:  round1(citationQuality),
	}
}

// GetScoreInterpretation maps a score onto its presentation tier. The 70
// boundary is inclusive: 70.0 is Excellent.
func GetScoreInterpretation(score float64) Interpretation {
	switch {
	case score >= 70:
		return Interpretation{
			Label:          "Excellent",
			Description:    "Your brand has strong AI search visibility",
			Color:          "green",
			Recommendation: "Maintain your current strategy and continue tracking performance.",
		}
	case score >= 50:
		return Interpretation{
			Label:          "Good",
			Description:    "Your brand is performing well in AI search",
			Color:          "yellow",
			Recommendation: "Focus on improving ranking positions and increasing positive citations.",
		}
	case score >= 30:
		return Interpretation{
			Label:          "Fair",
			Description:    "Your brand has moderate AI search presence",
			Color:          "yellow",
			Recommendation: "Optimize prompts, increase content quality, and build authoritative citations.",
		}
	default:
		return Interpretation{
			Label:          "Needs Improvement",
			Description:    "Your brand needs significant optimization",
			Color:          "red",
			Recommendation: "Apply GEO techniques: add statistics, quotations, and authoritative sources to your content.",
		}
	}
}

// CalculateTrend compares two scores. The percent value is 0 when the
// previous score is 0; the label follows the sign of the raw delta, not the
// rounded percentage.
func CalculateTrend(currentScore, previousScore float64) Trend {
	change := currentScore - previousScore

	percentChange := 0.0
	if previousScore > 0 {
		percentChange = change / previousScore * 100
	}

	label := "stable"
	if change > 0 {
		label = "improving"
	} else if change < 0 {
		label = "declining"
	}

	return Trend{
		Value:      round1(percentChange),
		IsPositive: currentScore > previousScore,
		Label:      label,
	}
}

// EstimateTimeToTarget projects the weeks needed to reach targetScore at the
// given weekly trend. Estimates beyond 26 weeks keep their numeric week count
// but are reported as not achievable.
func EstimateTimeToTarget(currentScore, targetScore, weeklyTrend float64) TargetEstimate {
	if currentScore >= targetScore {
		return TargetEstimate{
			Weeks:      0,
			Achievable: true,
			Message:    "Target already achieved!",
		}
	}

	if weeklyTrend <= 0 {
		return TargetEstimate{
			Weeks:      math.Inf(1),
			Achievable: false,
			Message:    "Score is not improving. Optimize your strategy to see progress.",
		}
	}

	weeks := math.Ceil((targetScore - currentScore) / weeklyTrend)

	if weeks > maxWeeksAchievable {
		return TargetEstimate{
			Weeks:      weeks,
			Achievable: false,
			Message:    fmt.Sprintf("At current pace, it would take %.0f weeks. Consider more aggressive optimization.", weeks),
		}
	}

	return TargetEstimate{
		Weeks:      weeks,
		Achievable: true,
		Message:    fmt.Sprintf("At current pace, you could reach %.0f in approximately %.0f weeks.", targetScore, weeks),
	}
}

// round1 rounds to one decimal place, halves away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
