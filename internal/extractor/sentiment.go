package extractor

import (
	"strings"

	"github.com/geotrack/visibility-tracker/internal/models"
)

// SentimentClassifier labels a piece of text as positive, neutral or negative.
// The default is a keyword lexicon; the interface exists so a statistical
// classifier can be swapped in behind the same contract.
type SentimentClassifier interface {
	Classify(text string) string
}

// LexiconClassifier counts hits from fixed positive and negative word lists.
// Ties (including zero hits on both sides) are neutral.
type LexiconClassifier struct {
	positiveWords []string
	negativeWords []string
}

var _ SentimentClassifier = (*LexiconClassifier)(nil)

// NewLexiconClassifier creates a classifier with the default lexicons.
func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{
		positiveWords: []string{
			"excellent", "great", "best", "top", "leading", "premier",
			"outstanding", "exceptional", "highly rated", "recommended",
			"trusted", "quality", "professional", "reliable",
		},
		negativeWords: []string{
			"poor", "bad", "worst", "avoid", "disappointing", "inferior",
			"limited", "lacking", "unreliable", "problematic",
		},
	}
}

func (c *LexiconClassifier) Classify(text string) string {
	lower := strings.ToLower(text)

	positiveCount := 0
	for _, word := range c.positiveWords {
		if strings.Contains(lower, word) {
			positiveCount++
		}
	}

	negativeCount := 0
	for _, word := range c.negativeWords {
		if strings.Contains(lower, word) {
			negativeCount++
		}
	}

	if positiveCount > negativeCount {
		return models.SentimentPositive
	}
	if negativeCount > positiveCount {
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}
