package tracking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/geotrack/visibility-tracker/internal/archive"
	"github.com/geotrack/visibility-tracker/internal/engines"
	"github.com/geotrack/visibility-tracker/internal/models"
)

// MockStore is a mock implementation of the store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetBrand(ctx context.Context, brandID string) (*models.Brand, error) {
	args := m.Called(ctx, brandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Brand), args.Error(1)
}

func (m *MockStore) ListActiveBrands(ctx context.Context) ([]models.Brand, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Brand), args.Error(1)
}

func (m *MockStore) TouchBrandTracked(ctx context.Context, brandID string, at time.Time) error {
	args := m.Called(ctx, brandID, at)
	return args.Error(0)
}

func (m *MockStore) ListActivePrompts(ctx context.Context, brandID string, promptIDs []string) ([]models.Prompt, error) {
	args := m.Called(ctx, brandID, promptIDs)
	return args.Get(0).([]models.Prompt), args.Error(1)
}

func (m *MockStore) TouchPromptTracked(ctx context.Context, promptID string, at time.Time) error {
	args := m.Called(ctx, promptID, at)
	return args.Error(0)
}

func (m *MockStore) CreateSession(ctx context.Context, brandID, promptID, engine string) (string, error) {
	args := m.Called(ctx, brandID, promptID, engine)
	return args.String(0), args.Error(1)
}

func (m *MockStore) CompleteSession(ctx context.Context, sessionID, responseText string, mentioned bool, position *int, metadata map[string]any) error {
	args := m.Called(ctx, sessionID, responseText, mentioned, position, metadata)
	return args.Error(0)
}

func (m *MockStore) FailSession(ctx context.Context, sessionID, errorMessage string) error {
	args := m.Called(ctx, sessionID, errorMessage)
	return args.Error(0)
}

func (m *MockStore) ListCompletedSessions(ctx context.Context, brandID string, since time.Time) ([]models.TrackingSession, error) {
	args := m.Called(ctx, brandID, since)
	return args.Get(0).([]models.TrackingSession), args.Error(1)
}

func (m *MockStore) InsertCitations(ctx context.Context, sessionID, brandID string, citations []models.ExtractedCitation) error {
	args := m.Called(ctx, sessionID, brandID, citations)
	return args.Error(0)
}

func (m *MockStore) InsertDiscoveredBrands(ctx context.Context, sessionID string, brands []models.DiscoveredBrand) error {
	args := m.Called(ctx, sessionID, brands)
	return args.Error(0)
}

func (m *MockStore) TopDiscoveredBrands(ctx context.Context, brandID string, since time.Time, limit int) ([]models.CompetitorMention, error) {
	args := m.Called(ctx, brandID, since, limit)
	return args.Get(0).([]models.CompetitorMention), args.Error(1)
}

func (m *MockStore) GetCitationStats(ctx context.Context, brandID string, since time.Time) (*models.CitationStats, error) {
	args := m.Called(ctx, brandID, since)
	return args.Get(0).(*models.CitationStats), args.Error(1)
}

// stubEngine answers with fixed content, failing for prompts that contain
// failOn.
type stubEngine struct {
	name    string
	content string
	failOn  string
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Query(ctx context.Context, prompt string, opts engines.QueryOptions) (*engines.Response, error) {
	if e.failOn != "" && strings.Contains(prompt, e.failOn) {
		return nil, errors.New("rate limited")
	}
	return &engines.Response{
		Content: e.content,
		Model:   "stub-model",
		Usage:   engines.Usage{TotalTokens: 42},
	}, nil
}

func fastOptions() Options {
	return Options{RequestDelay: time.Millisecond, QueryTimeout: time.Second}
}

func TestValidateEngines(t *testing.T) {
	assert.NoError(t, ValidateEngines(nil))
	assert.NoError(t, ValidateEngines([]string{"chatgpt", "claude", "perplexity", "gemini"}))

	err := ValidateEngines([]string{"chatgpt", "bing"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown AI engine: bing")
}

func TestTrackPrompt_UnknownEngine(t *testing.T) {
	mockStore := &MockStore{}
	service := NewService(mockStore, engines.Registry{}, archive.Noop{}, fastOptions())

	result := service.TrackPrompt(context.Background(), TrackPromptOptions{
		BrandID:    "brand-1",
		PromptID:   "prompt-1",
		PromptText: "best tools?",
		BrandNames: []string{"Acme"},
		Engine:     "bing",
	})

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "unknown AI engine")
	// Rejected identifiers must leave no session behind
	mockStore.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackPrompt_KnownEngineWithoutClient(t *testing.T) {
	mockStore := &MockStore{}
	mockStore.On("CreateSession", mock.Anything, "brand-1", "prompt-1", "claude").Return("session-1", nil)
	mockStore.On("FailSession", mock.Anything, "session-1", "claude integration not yet implemented").Return(nil)

	service := NewService(mockStore, engines.Registry{}, archive.Noop{}, fastOptions())

	result := service.TrackPrompt(context.Background(), TrackPromptOptions{
		BrandID:    "brand-1",
		PromptID:   "prompt-1",
		PromptText: "best tools?",
		BrandNames: []string{"Acme"},
		Engine:     models.EngineClaude,
	})

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, "session-1", result.SessionID)
	assert.Contains(t, result.Error, "not yet implemented")
	mockStore.AssertExpectations(t)
}

func TestTrackPrompt_Success(t *testing.T) {
	mockStore := &MockStore{}
	mockStore.On("CreateSession", mock.Anything, "brand-1", "prompt-1", "chatgpt").Return("session-1", nil)
	mockStore.On("CompleteSession", mock.Anything, "session-1", mock.Anything, true, mock.Anything, mock.Anything).Return(nil)
	mockStore.On("InsertCitations", mock.Anything, "session-1", "brand-1", mock.Anything).Return(nil)
	mockStore.On("InsertDiscoveredBrands", mock.Anything, "session-1", mock.Anything).Return(nil)
	mockStore.On("TouchPromptTracked", mock.Anything, "prompt-1", mock.Anything).Return(nil)
	mockStore.On("TouchBrandTracked", mock.Anything, "brand-1", mock.Anything).Return(nil)

	registry := engines.Registry{
		"chatgpt": &stubEngine{
			name:    "chatgpt",
			content: "Acme is the best choice for small teams.\n\nOther options exist too.",
		},
	}
	service := NewService(mockStore, registry, archive.Noop{}, fastOptions())

	result := service.TrackPrompt(context.Background(), TrackPromptOptions{
		BrandID:    "brand-1",
		PromptID:   "prompt-1",
		PromptText: "best tools?",
		BrandNames: []string{"Acme"},
		Engine:     models.EngineChatGPT,
	})

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.True(t, result.BrandMentioned)
	assert.Equal(t, 1, result.Position)
	assert.Equal(t, 1, result.CitationsCount)
	mockStore.AssertExpectations(t)
}

func TestTrackPrompt_EngineFailureStaysLocal(t *testing.T) {
	mockStore := &MockStore{}
	mockStore.On("CreateSession", mock.Anything, "brand-1", "prompt-1", "chatgpt").Return("session-1", nil)
	mockStore.On("FailSession", mock.Anything, "session-1", mock.Anything).Return(nil)

	registry := engines.Registry{
		"chatgpt": &stubEngine{name: "chatgpt", failOn: "best tools?"},
	}
	service := NewService(mockStore, registry, archive.Noop{}, fastOptions())

	result := service.TrackPrompt(context.Background(), TrackPromptOptions{
		BrandID:    "brand-1",
		PromptID:   "prompt-1",
		PromptText: "best tools?",
		BrandNames: []string{"Acme"},
		Engine:     models.EngineChatGPT,
	})

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "engine query failed")
	mockStore.AssertExpectations(t)
}

func TestTrackBrandPrompts_PartialFailure(t *testing.T) {
	brand := &models.Brand{ID: "brand-1", Name: "Acme", Variations: []string{"Acme Corp"}}
	prompts := []models.Prompt{
		{ID: "p1", BrandID: "brand-1", Text: "best project tools?"},
		{ID: "p2", BrandID: "brand-1", Text: "flaky question"},
		{ID: "p3", BrandID: "brand-1", Text: "top analytics vendors?"},
	}

	mockStore := &MockStore{}
	mockStore.On("GetBrand", mock.Anything, "brand-1").Return(brand, nil)
	mockStore.On("ListActivePrompts", mock.Anything, "brand-1", []string(nil)).Return(prompts, nil)
	mockStore.On("CreateSession", mock.Anything, "brand-1", mock.Anything, "chatgpt").Return("session", nil)
	mockStore.On("FailSession", mock.Anything, "session", mock.Anything).Return(nil)
	mockStore.On("CompleteSession", mock.Anything, "session", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockStore.On("InsertCitations", mock.Anything, "session", "brand-1", mock.Anything).Return(nil)
	mockStore.On("InsertDiscoveredBrands", mock.Anything, "session", mock.Anything).Return(nil)
	mockStore.On("TouchPromptTracked", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockStore.On("TouchBrandTracked", mock.Anything, "brand-1", mock.Anything).Return(nil)

	registry := engines.Registry{
		"chatgpt": &stubEngine{
			name:    "chatgpt",
			content: "Acme leads the pack.",
			failOn:  "flaky question",
		},
	}
	service := NewService(mockStore, registry, archive.Noop{}, fastOptions())

	results, err := service.TrackBrandPrompts(context.Background(), "brand-1", nil, []string{"chatgpt"})

	assert.NoError(t, err, "per-unit failures must not abort the batch")
	assert.Len(t, results, 3)

	completed, failed := 0, 0
	for _, result := range results {
		switch result.Status {
		case models.StatusCompleted:
			completed++
		case models.StatusFailed:
			failed++
			assert.NotEmpty(t, result.Error)
		}
	}
	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, failed)
}

func TestTrackBrandPrompts_BrandNotFound(t *testing.T) {
	mockStore := &MockStore{}
	mockStore.On("GetBrand", mock.Anything, "missing").Return(nil, errors.New("not found"))

	service := NewService(mockStore, engines.Registry{}, archive.Noop{}, fastOptions())

	results, err := service.TrackBrandPrompts(context.Background(), "missing", nil, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "brand not found")
	assert.Nil(t, results)
}

func TestTrackBrandPrompts_NoActivePrompts(t *testing.T) {
	brand := &models.Brand{ID: "brand-1", Name: "Acme"}

	mockStore := &MockStore{}
	mockStore.On("GetBrand", mock.Anything, "brand-1").Return(brand, nil)
	mockStore.On("ListActivePrompts", mock.Anything, "brand-1", []string(nil)).Return([]models.Prompt{}, nil)

	service := NewService(mockStore, engines.Registry{}, archive.Noop{}, fastOptions())

	results, err := service.TrackBrandPrompts(context.Background(), "brand-1", nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetBrandTrackingStats(t *testing.T) {
	p1, p3 := 1, 3
	sessions := []models.TrackingSession{
		{Engine: "chatgpt", Status: models.StatusCompleted, Mentioned: true, Position: &p1},
		{Engine: "chatgpt", Status: models.StatusCompleted, Mentioned: false},
		{Engine: "chatgpt", Status: models.StatusCompleted, Mentioned: true, Position: &p3},
		{Engine: "perplexity", Status: models.StatusCompleted, Mentioned: false},
	}

	mockStore := &MockStore{}
	mockStore.On("ListCompletedSessions", mock.Anything, "brand-1", mock.Anything).Return(sessions, nil)

	service := NewService(mockStore, engines.Registry{}, archive.Noop{}, fastOptions())

	stats, err := service.GetBrandTrackingStats(context.Background(), "brand-1", 7)
	assert.NoError(t, err)
	assert.Equal(t, 4, stats.TotalTracked)
	assert.Equal(t, 2, stats.TotalMentions)
	assert.InDelta(t, 50.0, stats.VisibilityScore, 0.001)
	assert.InDelta(t, 2.0, stats.AvgPosition, 0.001)

	assert.Equal(t, 3, stats.ByEngine["chatgpt"].Tracked)
	assert.Equal(t, 2, stats.ByEngine["chatgpt"].Mentions)
	assert.InDelta(t, 66.67, stats.ByEngine["chatgpt"].Score, 0.001)
	assert.Equal(t, 1, stats.ByEngine["perplexity"].Tracked)
	assert.Equal(t, 0, stats.ByEngine["perplexity"].Mentions)
}

func TestGetBrandTrackingStats_NoData(t *testing.T) {
	mockStore := &MockStore{}
	mockStore.On("ListCompletedSessions", mock.Anything, "brand-1", mock.Anything).Return([]models.TrackingSession{}, nil)

	service := NewService(mockStore, engines.Registry{}, archive.Noop{}, fastOptions())

	stats, err := service.GetBrandTrackingStats(context.Background(), "brand-1", 7)
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.TotalTracked)
	assert.Equal(t, 0, stats.TotalMentions)
	assert.Equal(t, 0.0, stats.VisibilityScore)
	assert.Equal(t, 0.0, stats.AvgPosition)
	assert.Empty(t, stats.ByEngine)
}

func TestGetVisibilityBreakdown(t *testing.T) {
	p2 := 2
	sessions := []models.TrackingSession{
		{Engine: "chatgpt", Status: models.StatusCompleted, Mentioned: true, Position: &p2},
		{Engine: "chatgpt", Status: models.StatusCompleted, Mentioned: false},
	}
	citationStats := &models.CitationStats{Positive: 3, Neutral: 1, AvgRelevance: 0.9}

	mockStore := &MockStore{}
	mockStore.On("ListCompletedSessions", mock.Anything, "brand-1", mock.Anything).Return(sessions, nil)
	mockStore.On("GetCitationStats", mock.Anything, "brand-1", mock.Anything).Return(citationStats, nil)

	service := NewService(mockStore, engines.Registry{}, archive.Noop{}, fastOptions())

	breakdown, err := service.GetVisibilityBreakdown(context.Background(), "brand-1", 7)
	assert.NoError(t, err)

	// 50% mention rate, position 2, sentiment 3:1:0, relevance 0.9
	assert.InDelta(t, 60, breakdown.MentionFrequency, 0.001)
	assert.InDelta(t, 90, breakdown.Position, 0.001)
	assert.InDelta(t, 92.5, breakdown.Sentiment, 0.001)
	assert.InDelta(t, 90, breakdown.CitationQuality, 0.001)
	assert.InDelta(t, 78.5, breakdown.Overall, 0.1)
}
