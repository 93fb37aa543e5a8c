// Package tracking drives tracking runs: for each (prompt, engine) pair it
// queries the engine, extracts citations from the answer, persists the
// results and reports a per-unit outcome. Failures stay local to their unit.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/geotrack/visibility-tracker/internal/archive"
	"github.com/geotrack/visibility-tracker/internal/engines"
	"github.com/geotrack/visibility-tracker/internal/extractor"
	"github.com/geotrack/visibility-tracker/internal/models"
	"github.com/geotrack/visibility-tracker/internal/store"
)

// citationInstructions is appended to every prompt so engines answer with the
// sources and brand names the extractor feeds on. Part of the contract with
// the engine collaborator, not engine behavior.
const citationInstructions = "\n\nPlease provide a comprehensive answer with specific sources, " +
	"citations, and references where applicable. Include URLs and website names when mentioning " +
	"specific brands, products, or services."

const (
	defaultRequestDelay = 2 * time.Second
	defaultQueryTimeout = 60 * time.Second
)

// Options tunes a tracking service.
type Options struct {
	// RequestDelay is the pause between sequential engine calls in a batch,
	// a deliberate throttle for provider rate limits.
	RequestDelay time.Duration
	// QueryTimeout bounds a single engine call.
	QueryTimeout time.Duration
}

// Service coordinates tracking runs for brands.
type Service struct {
	store        store.Store
	engines      engines.Registry
	extractor    *extractor.Extractor
	archive      archive.Archive
	requestDelay time.Duration
	queryTimeout time.Duration

	metrics Metrics
	mu      sync.RWMutex
}

// Metrics holds counters from the most recent batch run.
type Metrics struct {
	TotalUnits      int            `json:"total_units"`
	Completed       int            `json:"completed"`
	Failed          int            `json:"failed"`
	Mentioned       int            `json:"mentioned"`
	LastRun         time.Time      `json:"last_run"`
	LastRunDuration string         `json:"last_run_duration"`
	EngineUnits     map[string]int `json:"engine_units"`
}

// TrackPromptOptions identifies one tracking unit.
type TrackPromptOptions struct {
	BrandID    string
	PromptID   string
	PromptText string
	BrandNames []string // primary name + variations
	Engine     string
}

// NewService creates a tracking service with injected collaborators. Pass
// archive.Noop{} when raw-response archival is not configured.
func NewService(st store.Store, registry engines.Registry, arch archive.Archive, opts Options) *Service {
	if opts.RequestDelay == 0 {
		opts.RequestDelay = defaultRequestDelay
	}
	if opts.QueryTimeout == 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}

	return &Service{
		store:        st,
		engines:      registry,
		extractor:    extractor.New(),
		archive:      arch,
		requestDelay: opts.RequestDelay,
		queryTimeout: opts.QueryTimeout,
		metrics:      Metrics{EngineUnits: make(map[string]int)},
	}
}

// ValidateEngines rejects identifiers outside the known engine set. Called
// before any persistence side effect.
func ValidateEngines(engineNames []string) error {
	for _, name := range engineNames {
		if !models.IsKnownEngine(name) {
			return fmt.Errorf("unknown AI engine: %s", name)
		}
	}
	return nil
}

// TrackPrompt runs one (prompt, engine) tracking unit to a terminal state.
// Collaborator failures are captured into the failed run record and the
// returned result; they are never propagated as errors.
func (s *Service) TrackPrompt(ctx context.Context, opts TrackPromptOptions) models.TrackingResult {
	if !models.IsKnownEngine(opts.Engine) {
		return models.TrackingResult{
			Status: models.StatusFailed,
			Error:  fmt.Sprintf("unknown AI engine: %s", opts.Engine),
		}
	}

	sessionID, err := s.store.CreateSession(ctx, opts.BrandID, opts.PromptID, opts.Engine)
	if err != nil {
		return models.TrackingResult{
			Status: models.StatusFailed,
			Error:  fmt.Sprintf("failed to create tracking session: %v", err),
		}
	}

	result, err := s.runUnit(ctx, sessionID, opts)
	if err != nil {
		logrus.Errorf("Tracking unit %s failed: %v", sessionID, err)
		if failErr := s.store.FailSession(ctx, sessionID, err.Error()); failErr != nil {
			logrus.Errorf("Failed to mark session %s failed: %v", sessionID, failErr)
		}
		return models.TrackingResult{
			SessionID: sessionID,
			Status:    models.StatusFailed,
			Error:     err.Error(),
		}
	}

	return *result
}

// runUnit performs the engine call, extraction and persistence for a session
// that is already in the running state.
func (s *Service) runUnit(ctx context.Context, sessionID string, opts TrackPromptOptions) (*models.TrackingResult, error) {
	engine, ok := s.engines[opts.Engine]
	if !ok {
		// Known identifier without a client: fail fast before any engine I/O.
		return nil, fmt.Errorf("%s integration not yet implemented", opts.Engine)
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	response, err := engine.Query(queryCtx, opts.PromptText+citationInstructions, engines.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("engine query failed: %w", err)
	}

	analysis := s.extractor.Extract(response.Content, opts.BrandNames)

	if err := s.archive.Store(ctx, sessionID+".txt", []byte(response.Content)); err != nil {
		logrus.Warnf("Failed to archive response for session %s: %v", sessionID, err)
	}

	var position *int
	if analysis.TargetBrandPosition > 0 {
		p := analysis.TargetBrandPosition
		position = &p
	}

	// Counts only; the full analysis is persisted row by row below.
	metadata := map[string]any{
		"total_citations":         len(analysis.Citations),
		"total_brands_discovered": analysis.TotalBrandsFound,
		"summary":                 analysis.Summary,
		"model":                   response.Model,
		"total_tokens":            response.Usage.TotalTokens,
	}

	if err := s.store.CompleteSession(ctx, sessionID, response.Content, analysis.TargetBrandMentioned, position, metadata); err != nil {
		return nil, fmt.Errorf("failed to update tracking session: %w", err)
	}

	if err := s.store.InsertCitations(ctx, sessionID, opts.BrandID, analysis.Citations); err != nil {
		return nil, fmt.Errorf("failed to store citations: %w", err)
	}

	if err := s.store.InsertDiscoveredBrands(ctx, sessionID, analysis.DiscoveredBrands); err != nil {
		return nil, fmt.Errorf("failed to store discovered brands: %w", err)
	}

	now := time.Now()
	if err := s.store.TouchPromptTracked(ctx, opts.PromptID, now); err != nil {
		return nil, fmt.Errorf("failed to update prompt: %w", err)
	}
	if err := s.store.TouchBrandTracked(ctx, opts.BrandID, now); err != nil {
		return nil, fmt.Errorf("failed to update brand: %w", err)
	}

	return &models.TrackingResult{
		SessionID:             sessionID,
		Status:                models.StatusCompleted,
		BrandMentioned:        analysis.TargetBrandMentioned,
		Position:              analysis.TargetBrandPosition,
		CitationsCount:        len(analysis.Citations),
		DiscoveredBrandsCount: analysis.TotalBrandsFound,
	}, nil
}

// TrackBrandPrompts runs every (prompt, engine) combination for a brand,
// sequentially, with the configured delay between engine calls. Partial
// failures never abort the batch; every unit is attempted and reported.
func (s *Service) TrackBrandPrompts(ctx context.Context, brandID string, promptIDs, engineNames []string) ([]models.TrackingResult, error) {
	start := time.Now()

	brand, err := s.store.GetBrand(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("brand not found: %w", err)
	}

	brandNames := append([]string{brand.Name}, brand.Variations...)

	prompts, err := s.store.ListActivePrompts(ctx, brandID, promptIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	if len(prompts) == 0 {
		return []models.TrackingResult{}, nil
	}

	if len(engineNames) == 0 {
		engineNames = []string{models.EngineChatGPT}
	}

	logrus.Infof("Tracking %d prompts across %d engines for brand %s", len(prompts), len(engineNames), brand.Name)

	var results []models.TrackingResult
	engineUnits := make(map[string]int)
	for _, prompt := range prompts {
		for _, engineName := range engineNames {
			result := s.TrackPrompt(ctx, TrackPromptOptions{
				BrandID:    brandID,
				PromptID:   prompt.ID,
				PromptText: prompt.Text,
				BrandNames: brandNames,
				Engine:     engineName,
			})
			results = append(results, result)
			engineUnits[engineName]++

			// Throttle between sequential engine calls; this is rate-limit
			// courtesy, not retry backoff.
			time.Sleep(s.requestDelay)
		}
	}

	s.updateMetrics(results, engineUnits, time.Since(start))

	return results, nil
}

// GetBrandTrackingStats aggregates completed sessions over the trailing
// window. No data yields zeroed stats, never an error. The mention-ratio
// score here is the quick summary; the weighted breakdown comes from
// GetVisibilityBreakdown.
func (s *Service) GetBrandTrackingStats(ctx context.Context, brandID string, windowDays int) (*models.TrackingStats, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	sessions, err := s.store.ListCompletedSessions(ctx, brandID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	stats := &models.TrackingStats{ByEngine: make(map[string]models.EngineStats)}
	if len(sessions) == 0 {
		return stats, nil
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

		engineStats := stats.ByEngine[session.Engine]
		engineStats.Tracked++
		if session.Mentioned {
			engineStats.Mentions++
		}
		engineStats.Score = round2(float64(engineStats.Mentions) / float64(engineStats.Tracked) * 100)
		stats.ByEngine[session.Engine] = engineStats
	}

	stats.TotalTracked = len(sessions)
	stats.TotalMentions = totalMentions
	stats.VisibilityScore = round2(float64(totalMentions) / float64(len(sessions)) * 100)
	if positionCount > 0 {
		stats.AvgPosition = round2(float64(positionSum) / float64(positionCount))
	}

	return stats, nil
}

// GetTopCompetitors returns the most-mentioned discovered brands in the window.
func (s *Service) GetTopCompetitors(ctx context.Context, brandID string, windowDays, limit int) ([]models.CompetitorMention, error) {
	since := time.Now().AddDate(0, 0, -windowDays)
	return s.store.TopDiscoveredBrands(ctx, brandID, since, limit)
}

// GetMetrics returns the last batch run's counters as JSON.
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

func (s *Service) updateMetrics(results []models.TrackingResult, engineUnits map[string]int, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalUnits = len(results)
	s.metrics.Completed = 0
	s.metrics.Failed = 0
	s.metrics.Mentioned = 0
	s.metrics.LastRun = time.Now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.EngineUnits = engineUnits

	for _, result := range results {
		switch result.Status {
		case models.StatusCompleted:
			s.metrics.Completed++
		case models.StatusFailed:
			s.metrics.Failed++
		}
		if result.BrandMentioned {
			s.metrics.Mentioned++
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
