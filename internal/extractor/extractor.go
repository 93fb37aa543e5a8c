// Package extractor analyzes raw AI-engine responses for brand mentions,
// citations and competitor brands. Extraction is deterministic and never
// fails: malformed or empty text yields an empty analysis, not an error.
package extractor

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/geotrack/visibility-tracker/internal/models"
)

const (
	// Relevance assigned to citations by how they were found.
	relevanceDirectMention = 0.9
	relevanceBrandURL      = 0.95
	relevancePlainURL      = 0.5
	relevanceFallback      = 0.8

	// Stored citation text is truncated to keep rows bounded.
	maxCitationText = 500
	maxURLCitation  = 200
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Extractor turns a raw response into a structured CitationAnalysis.
// Safe for concurrent use; it holds no mutable state.
type Extractor struct {
	detector   BrandCandidateDetector
	classifier SentimentClassifier
}

// New creates an Extractor with the default heuristic detector and classifier.
func New() *Extractor {
	return &Extractor{
		detector:   NewCapitalizedWordsDetector(),
		classifier: NewLexiconClassifier(),
	}
}

// NewWithStrategies creates an Extractor with custom detection strategies.
func NewWithStrategies(detector BrandCandidateDetector, classifier SentimentClassifier) *Extractor {
	return &Extractor{detector: detector, classifier: classifier}
}

// Extract parses responseText into citations, discovered brands and
// target-brand mention facts. Matching against targetBrandNames is
// case-insensitive substring containment: "Art" matches inside "Smart".
// That leniency is intentional and load-bearing for name variants; do not
// tighten it to word boundaries without a product decision.
func (e *Extractor) Extract(responseText string, targetBrandNames []string) models.CitationAnalysis {
	var citations []models.ExtractedCitation
	discovered := make(map[string]*models.DiscoveredBrand)
	var discoveredOrder []string
	targetMentioned := false
	targetPosition := 0

	sections := splitSections(responseText)

	for i, section := range sections {
		position := i + 1

		matched, matchedName := detectBrandMention(section, targetBrandNames)
		if matched {
			targetMentioned = true
			if targetPosition == 0 {
				targetPosition = position
			}

			citations = append(citations, models.ExtractedCitation{
				CitationText:     truncate(section, maxCitationText),
				Position:         position,
				Context:          section,
				IsBrandMentioned: true,
				BrandName:        matchedName,
				Sentiment:        e.classifier.Classify(section),
				RelevanceScore:   relevanceDirectMention,
			})
		}

		for _, name := range e.detector.Candidates(section) {
			if existing, ok := discovered[name]; ok {
				existing.MentionCount++
			} else {
				discovered[name] = &models.DiscoveredBrand{
					BrandName:    name,
					Position:     position,
					MentionCount: 1,
				}
				discoveredOrder = append(discoveredOrder, name)
			}
		}

		for _, rawURL := range extractURLs(section) {
			citation := models.ExtractedCitation{
				SourceURL:        rawURL,
				SourceDomain:     extractDomain(rawURL),
				CitationText:     truncate(section, maxURLCitation),
				Position:         position,
				Context:          section,
				IsBrandMentioned: matched,
				RelevanceScore:   relevancePlainURL,
			}
			if matched {
				citation.BrandName = matchedName
				citation.RelevanceScore = relevanceBrandURL
			}
			citations = append(citations, citation)
		}
	}

	// The brand must never be reported mentioned with zero evidence records.
	if targetMentioned && len(citations) == 0 {
		citations = append(citations, models.ExtractedCitation{
			CitationText:     truncate(responseText, maxCitationText),
			Position:         1,
			Context:          responseText,
			IsBrandMentioned: true,
			Sentiment:        e.classifier.Classify(responseText),
			RelevanceScore:   relevanceFallback,
		})
	}

	brands := make([]models.DiscoveredBrand, 0, len(discoveredOrder))
	for _, name := range discoveredOrder {
		brands = append(brands, *discovered[name])
	}

	including := "not including"
	if targetMentioned {
		including = "including"
	}

	return models.CitationAnalysis{
		Citations:            citations,
		DiscoveredBrands:     brands,
		TargetBrandMentioned: targetMentioned,
		TargetBrandPosition:  targetPosition,
		TotalBrandsFound:     len(brands),
		Summary: fmt.Sprintf("Found %d citations, %s target brand. Discovered %d other brands.",
			len(citations), including, len(brands)),
	}
}

// CalculateRelevanceScore re-scores a citation for a brand from scratch,
// independent of the extraction pass. Reproducible given only the citation
// and the brand name.
func CalculateRelevanceScore(citation models.ExtractedCitation, brandName string) float64 {
	score := 0.5

	if citation.IsBrandMentioned {
		score += 0.3
	}

	// Earlier positions score higher; the bonus decays to zero at position 10.
	if citation.Position > 0 {
		bonus := 0.2 - float64(citation.Position)*0.02
		if bonus > 0 {
			score += bonus
		}
	}

	switch citation.Sentiment {
	case models.SentimentPositive:
		score += 0.2
	case models.SentimentNegative:
		score -= 0.2
	}

	if citation.SourceDomain != "" &&
		strings.Contains(citation.SourceDomain, strings.ToLower(brandName)) {
		score += 0.3
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// splitSections divides a response into paragraphs on blank-line boundaries,
// dropping whitespace-only sections. A section's 1-based index is its position.
func splitSections(text string) []string {
	parts := strings.Split(text, "\n\n")
	sections := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			sections = append(sections, part)
		}
	}
	return sections
}

// detectBrandMention returns the first brand variant contained in text,
// case-insensitively.
func detectBrandMention(text string, brandNames []string) (bool, string) {
	lower := strings.ToLower(text)
	for _, name := range brandNames {
		if strings.Contains(lower, strings.ToLower(name)) {
			return true, name
		}
	}
	return false, ""
}

// extractURLs finds http(s) URLs in text, trimming trailing punctuation that
// prose tends to glue onto them.
func extractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	urls := make([]string, 0, len(matches))
	for _, match := range matches {
		urls = append(urls, strings.TrimRight(match, ".,;!?)"))
	}
	return urls
}

// extractDomain returns the URL's hostname without a leading "www.", or ""
// when the URL does not parse. Unparseable URLs are not an error.
func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// truncate cuts s to at most limit bytes without splitting a multi-byte rune;
// stored citation text must stay valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
