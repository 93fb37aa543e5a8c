package models

import "time"

// Sentiment labels assigned to citations
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// AI engine identifiers accepted by the tracking API
const (
	EngineChatGPT    = "chatgpt"
	EnginePerplexity = "perplexity"
	EngineGemini     = "gemini"
	EngineClaude     = "claude"
)

// Tracking session statuses
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// KnownEngines lists every engine identifier the API accepts, implemented or not.
var KnownEngines = []string{EngineChatGPT, EnginePerplexity, EngineGemini, EngineClaude}

// IsKnownEngine reports whether name is one of the accepted engine identifiers.
func IsKnownEngine(name string) bool {
	for _, e := range KnownEngines {
		if e == name {
			return true
		}
	}
	return false
}

// ExtractedCitation is one evidential unit found in an AI response.
// Position is the 1-based index of the section the citation came from.
type ExtractedCitation struct {
	SourceURL        string  `json:"source_url,omitempty"`
	SourceTitle      string  `json:"source_title,omitempty"`
	SourceDomain     string  `json:"source_domain,omitempty"`
	CitationText     string  `json:"citation_text"`
	Position         int     `json:"position"`
	Context          string  `json:"context"`
	IsBrandMentioned bool    `json:"is_brand_mentioned"`
	BrandName        string  `json:"brand_name,omitempty"`
	Sentiment        string  `json:"sentiment,omitempty"`
	RelevanceScore   float64 `json:"relevance_score"`
}

// DiscoveredBrand is a candidate competitor brand surfaced while scanning a response.
type DiscoveredBrand struct {
	BrandName    string `json:"brand_name"`
	BrandDomain  string `json:"brand_domain,omitempty"`
	Position     int    `json:"position"`
	MentionCount int    `json:"mention_count"`
}

// CitationAnalysis is the full output of one extraction pass over a response.
// TargetBrandPosition is 0 when the brand was never mentioned (positions are 1-based).
type CitationAnalysis struct {
	Citations            []ExtractedCitation `json:"citations"`
	DiscoveredBrands     []DiscoveredBrand   `json:"discovered_brands"`
	TargetBrandMentioned bool                `json:"target_brand_mentioned"`
	TargetBrandPosition  int                 `json:"target_brand_position,omitempty"`
	TotalBrandsFound     int                 `json:"total_brands_found"`
	Summary              string              `json:"summary"`
}

// Brand is a tracked brand with its name variations used for matching.
type Brand struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Domain        string     `json:"domain,omitempty"`
	Variations    []string   `json:"variations,omitempty"`
	IsActive      bool       `json:"is_active"`
	LastTrackedAt *time.Time `json:"last_tracked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Prompt is one query tracked for a brand.
type Prompt struct {
	ID            string     `json:"id"`
	BrandID       string     `json:"brand_id"`
	Text          string     `json:"text"`
	IsActive      bool       `json:"is_active"`
	LastTrackedAt *time.Time `json:"last_tracked_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TrackingSession is one (brand, prompt, engine) tracking run record.
// It is created running and transitions exactly once to completed or failed.
type TrackingSession struct {
	ID           string         `json:"id"`
	BrandID      string         `json:"brand_id"`
	PromptID     string         `json:"prompt_id"`
	Engine       string         `json:"engine"`
	Status       string         `json:"status"`
	ResponseText string         `json:"response_text,omitempty"`
	Mentioned    bool           `json:"mentioned"`
	Position     *int           `json:"position,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TrackingResult summarizes the outcome of one tracking unit.
type TrackingResult struct {
	SessionID             string `json:"session_id"`
	Status                string `json:"status"`
	BrandMentioned        bool   `json:"brand_mentioned"`
	Position              int    `json:"position,omitempty"`
	CitationsCount        int    `json:"citations_count"`
	DiscoveredBrandsCount int    `json:"discovered_brands_count"`
	Error                 string `json:"error,omitempty"`
}

// EngineStats is the per-engine slice of a tracking stats window.
type EngineStats struct {
	Tracked  int     `json:"tracked"`
	Mentions int     `json:"mentions"`
	Score    float64 `json:"score"`
}

// TrackingStats aggregates completed sessions over a trailing window.
// VisibilityScore here is the simple mention ratio; the weighted breakdown
// lives in the scoring package.
type TrackingStats struct {
	TotalTracked    int                    `json:"total_tracked"`
	TotalMentions   int                    `json:"total_mentions"`
	VisibilityScore float64                `json:"visibility_score"`
	AvgPosition     float64                `json:"avg_position"`
	ByEngine        map[string]EngineStats `json:"by_engine"`
}

// CitationStats aggregates brand-mention citations over a trailing window:
// the sentiment mix and the average relevance of stored citations.
type CitationStats struct {
	Positive     int     `json:"positive"`
	Neutral      int     `json:"neutral"`
	Negative     int     `json:"negative"`
	AvgRelevance float64 `json:"avg_relevance"`
}

// CompetitorMention aggregates discovered-brand rows for one competitor name.
type CompetitorMention struct {
	BrandName    string `json:"brand_name"`
	Mentions     int    `json:"mentions"`
	BestPosition int    `json:"best_position"`
}
