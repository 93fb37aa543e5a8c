package extractor

import "regexp"

// BrandCandidateDetector finds candidate brand names in a piece of text.
// The default is a capitalized-word heuristic; the interface exists so an
// NER-based detector can replace it without touching the extractor.
type BrandCandidateDetector interface {
	Candidates(text string) []string
}

// CapitalizedWordsDetector treats sequences of capitalized words as candidate
// brand names. It is deliberately approximate: sentence-initial words and
// proper nouns that are not brands will produce false positives.
type CapitalizedWordsDetector struct {
	stopWords map[string]bool
}

var _ BrandCandidateDetector = (*CapitalizedWordsDetector)(nil)

var capitalizedPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)

// NewCapitalizedWordsDetector creates a detector with the default stop list of
// common capitalized function words.
func NewCapitalizedWordsDetector() *CapitalizedWordsDetector {
	stop := []string{
		"The", "A", "An", "In", "For", "To", "This", "That", "These", "Those",
		"It", "Is", "Are", "Was", "Were", "Be", "Been", "Being",
		"Have", "Has", "Had", "Do", "Does", "Did",
		"Will", "Would", "Could", "Should", "May", "Might", "Must", "Can",
	}

	stopWords := make(map[string]bool, len(stop))
	for _, w := range stop {
		stopWords[w] = true
	}

	return &CapitalizedWordsDetector{stopWords: stopWords}
}

// Candidates returns the unique capitalized sequences in text, in first-seen
// order, excluding stop words and tokens of two characters or fewer.
func (d *CapitalizedWordsDetector) Candidates(text string) []string {
	matches := capitalizedPattern.FindAllString(text, -1)

	seen := make(map[string]bool, len(matches))
	var candidates []string

	for _, match := range matches {
		if d.stopWords[match] || len(match) <= 2 {
			continue
		}
		if !seen[match] {
			seen[match] = true
			candidates = append(candidates, match)
		}
	}

	return candidates
}
