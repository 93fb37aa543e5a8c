// Package store is the persistence boundary for brands, prompts, tracking
// sessions, citations and discovered brands. Callers depend only on the
// typed Store interface; SQL lives in the Postgres implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/geotrack/visibility-tracker/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the contract the tracking core requires from persistence. Only
// per-statement atomicity is assumed; there are no transaction semantics.
type Store interface {
	// Brands
	GetBrand(ctx context.Context, brandID string) (*models.Brand, error)
	ListActiveBrands(ctx context.Context) ([]models.Brand, error)
	TouchBrandTracked(ctx context.Context, brandID string, at time.Time) error

	// Prompts. An empty promptIDs filter selects all active prompts for the brand.
	ListActivePrompts(ctx context.Context, brandID string, promptIDs []string) ([]models.Prompt, error)
	TouchPromptTracked(ctx context.Context, promptID string, at time.Time) error

	// Tracking sessions
	CreateSession(ctx context.Context, brandID, promptID, engine string) (string, error)
	CompleteSession(ctx context.Context, sessionID, responseText string, mentioned bool, position *int, metadata map[string]any) error
	FailSession(ctx context.Context, sessionID, errorMessage string) error
	ListCompletedSessions(ctx context.Context, brandID string, since time.Time) ([]models.TrackingSession, error)

	// Extraction results
	InsertCitations(ctx context.Context, sessionID, brandID string, citations []models.ExtractedCitation) error
	InsertDiscoveredBrands(ctx context.Context, sessionID string, brands []models.DiscoveredBrand) error
	TopDiscoveredBrands(ctx context.Context, brandID string, since time.Time, limit int) ([]models.CompetitorMention, error)
	GetCitationStats(ctx context.Context, brandID string, since time.Time) (*models.CitationStats, error)
}
