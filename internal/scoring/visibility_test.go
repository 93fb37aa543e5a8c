package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMentionFrequencyScore(t *testing.T) {
	tests := []struct {
		name     string
		queries  int
		mentions int
		expected float64
	}{
		{"Zero queries scores zero", 0, 0, 0},
		{"Zero queries ignores mentions", 0, 5, 0},
		{"Full mention rate", 10, 10, 100},
		{"Ninety percent hits ceiling", 10, 9, 100},
		{"Eighty percent", 10, 8, 90},
		{"Sixty percent", 10, 6, 70},
		{"Forty percent", 10, 4, 50},
		{"Fifteen percent on low segment", 100, 15, 19.9995},
		{"No mentions", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateMentionFrequencyScore(tt.queries, tt.mentions), 0.001)
		})
	}
}

func TestCalculatePositionScore(t *testing.T) {
	position := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		position *float64
		expected float64
	}{
		{"No mentions scores zero", nil, 0},
		{"First position", position(1), 100},
		{"Second position", position(2), 90},
		{"Third position", position(3), 80},
		{"Fourth position", position(4), 65},
		{"Fifth position", position(5), 50},
		{"Mid range decays", position(7.5), 30},
		{"Tenth position", position(10), 20},
		{"Deep tail", position(15), 10},
		{"Floor at zero", position(30), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculatePositionScore(tt.position), 0.001)
		})
	}
}

func TestCalculatePositionScore_Monotonic(t *testing.T) {
	previous := 101.0 // above any reachable score

	for pos := 1.0; pos <= 20; pos++ {
		p := pos
		score := CalculatePositionScore(&p)
		assert.LessOrEqual(t, score, previous, "score must not increase with position %v", pos)
		assert.GreaterOrEqual(t, score, 0.0)
		previous = score
	}
}

func TestCalculateSentimentScore(t *testing.T) {
	tests := []struct {
		name     string
		dist     SentimentDistribution
		expected float64
	}{
		{"No categorized mentions", SentimentDistribution{}, 0},
		{"All positive", SentimentDistribution{Positive: 5}, 100},
		{"All neutral", SentimentDistribution{Neutral: 5}, 70},
		{"All negative clamps to zero", SentimentDistribution{Negative: 5}, 0},
		{"Even mix", SentimentDistribution{Positive: 1, Neutral: 1, Negative: 1}, 40},
		{"Mostly positive", SentimentDistribution{Positive: 8, Neutral: 1, Negative: 1}, 82},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := CalculateSentimentScore(tt.dist)
			assert.InDelta(t, tt.expected, score, 0.001)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		})
	}
}

func TestCalculateCitationQualityScore(t *testing.T) {
	assert.InDelta(t, 82, CalculateCitationQualityScore(0.82), 0.001)
	assert.InDelta(t, 0, CalculateCitationQualityScore(0), 0.001)
	assert.InDelta(t, 100, CalculateCitationQualityScore(1.5), 0.001, "over-range relevance clamps")
	assert.InDelta(t, 0, CalculateCitationQualityScore(-0.3), 0.001, "negative relevance clamps")
}

func TestCalculateVisibilityScore(t *testing.T) {
	t.Run("Zero metrics score zero", func(t *testing.T) {
		breakdown := CalculateVisibilityScore(VisibilityMetrics{})

		assert.Equal(t, 0.0, breakdown.Overall)
		assert.Equal(t, 0.0, breakdown.MentionFrequency)
		assert.Equal(t, 0.0, breakdown.Position)
		assert.Equal(t, 0.0, breakdown.Sentiment)
		assert.Equal(t, 0.0, breakdown.CitationQuality)
	})

	t.Run("Overall equals weighted sub-scores", func(t *testing.T) {
		avgPos := 2.0
		metrics := VisibilityMetrics{
			TotalQueries:    10,
			TotalMentions:   8,
			AveragePosition: &avgPos,
			SentimentDistribution: SentimentDistribution{
				Positive: 6, Neutral: 2, Negative: 0,
			},
			CitationQuality: 0.85,
		}

		breakdown := CalculateVisibilityScore(metrics)

		weighted := breakdown.MentionFrequency*0.4 +
			breakdown.Position*0.3 +
			breakdown.Sentiment*0.2 +
			breakdown.CitationQuality*0.1
		assert.InDelta(t, weighted, breakdown.Overall, 0.1)

		assert.InDelta(t, 90, breakdown.MentionFrequency, 0.001)
		assert.InDelta(t, 90, breakdown.Position, 0.001)
		assert.InDelta(t, 92.5, breakdown.Sentiment, 0.001)
		assert.InDelta(t, 85, breakdown.CitationQuality, 0.001)
	})

	t.Run("Composite stays within bounds", func(t *testing.T) {
		best := 1.0
		for _, metrics := range []VisibilityMetrics{
			{},
			{TotalQueries: 1, TotalMentions: 1, AveragePosition: &best,
				SentimentDistribution: SentimentDistribution{Positive: 10}, CitationQuality: 1},
			{TotalQueries: 100, TotalMentions: 3,
				SentimentDistribution: SentimentDistribution{Negative: 10}, CitationQuality: 0},
		} {
			breakdown := CalculateVisibilityScore(metrics)
			assert.GreaterOrEqual(t, breakdown.Overall, 0.0)
			assert.LessOrEqual(t, breakdown.Overall, 100.0)
		}
	})
}

func TestGetScoreInterpretation(t *testing.T) {
	tests := []struct {
		score float64
		label string
		color string
	}{
		{75, "Excellent", "green"},
		{70, "Excellent", "green"},
		{69.9, "Good", "yellow"},
		{50, "Good", "yellow"},
		{49.9, "Fair", "yellow"},
		{30, "Fair", "yellow"},
		{29.9, "Needs Improvement", "red"},
		{0, "Needs Improvement", "red"},
	}

	for _, tt := range tests {
		interpretation := GetScoreInterpretation(tt.score)
		assert.Equal(t, tt.label, interpretation.Label, "score %v", tt.score)
		assert.Equal(t, tt.color, interpretation.Color, "score %v", tt.score)
		assert.NotEmpty(t, interpretation.Recommendation)
	}
}

func TestCalculateTrend(t *testing.T) {
	t.Run("Improvement", func(t *testing.T) {
		trend := CalculateTrend(60, 50)
		assert.InDelta(t, 20.0, trend.Value, 0.001)
		assert.True(t, trend.IsPositive)
		assert.Equal(t, "improving", trend.Label)
	})

	t.Run("Zero previous reports zero percent but keeps direction", func(t *testing.T) {
		trend := CalculateTrend(50, 0)
		assert.Equal(t, 0.0, trend.Value)
		assert.True(t, trend.IsPositive)
		assert.Equal(t, "improving", trend.Label)
	})

	t.Run("Decline", func(t *testing.T) {
		trend := CalculateTrend(40, 50)
		assert.InDelta(t, -20.0, trend.Value, 0.001)
		assert.False(t, trend.IsPositive)
		assert.Equal(t, "declining", trend.Label)
	})

	t.Run("Stable", func(t *testing.T) {
		trend := CalculateTrend(50, 50)
		assert.Equal(t, 0.0, trend.Value)
		assert.False(t, trend.IsPositive)
		assert.Equal(t, "stable", trend.Label)
	})
}

func TestEstimateTimeToTarget(t *testing.T) {
	t.Run("Already achieved", func(t *testing.T) {
		estimate := EstimateTimeToTarget(80, 70, 5)
		assert.Equal(t, 0.0, estimate.Weeks)
		assert.True(t, estimate.Achievable)
	})

	t.Run("Flat trend is unachievable", func(t *testing.T) {
		estimate := EstimateTimeToTarget(40, 70, 0)
		assert.True(t, math.IsInf(estimate.Weeks, 1))
		assert.False(t, estimate.Achievable)
	})

	t.Run("Negative trend is unachievable", func(t *testing.T) {
		estimate := EstimateTimeToTarget(40, 70, -2)
		assert.True(t, math.IsInf(estimate.Weeks, 1))
		assert.False(t, estimate.Achievable)
	})

	t.Run("Reachable at current pace", func(t *testing.T) {
		estimate := EstimateTimeToTarget(40, 70, 5)
		assert.Equal(t, 6.0, estimate.Weeks)
		assert.True(t, estimate.Achievable)
	})

	t.Run("Ceiling division rounds up", func(t *testing.T) {
		estimate := EstimateTimeToTarget(40, 70, 4)
		assert.Equal(t, 8.0, estimate.Weeks)
		assert.True(t, estimate.Achievable)
	})

	t.Run("Beyond horizon keeps week count but is unachievable", func(t *testing.T) {
		estimate := EstimateTimeToTarget(40, 70, 1)
		assert.Equal(t, 30.0, estimate.Weeks)
		assert.False(t, estimate.Achievable)
	})
}
