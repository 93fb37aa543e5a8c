package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geotrack/visibility-tracker/internal/models"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the database and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tracking tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS brands (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			domain TEXT NOT NULL DEFAULT '',
			variations TEXT[] NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_tracked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS prompts (
			id UUID PRIMARY KEY,
			brand_id UUID NOT NULL REFERENCES brands(id),
			prompt_text TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_tracked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS tracking_sessions (
			id UUID PRIMARY KEY,
			brand_id UUID NOT NULL REFERENCES brands(id),
			prompt_id UUID NOT NULL REFERENCES prompts(id),
			ai_engine TEXT NOT NULL,
			status TEXT NOT NULL,
			response_text TEXT NOT NULL DEFAULT '',
			mentioned BOOLEAN NOT NULL DEFAULT FALSE,
			position INTEGER,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS citations (
			id UUID PRIMARY KEY,
			tracking_session_id UUID NOT NULL REFERENCES tracking_sessions(id),
			brand_id UUID NOT NULL REFERENCES brands(id),
			source_url TEXT NOT NULL DEFAULT '',
			source_title TEXT NOT NULL DEFAULT '',
			source_domain TEXT NOT NULL DEFAULT '',
			citation_text TEXT NOT NULL,
			position INTEGER NOT NULL,
			context TEXT NOT NULL,
			is_brand_mentioned BOOLEAN NOT NULL,
			sentiment TEXT NOT NULL DEFAULT '',
			relevance_score DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS discovered_brands (
			id UUID PRIMARY KEY,
			tracking_session_id UUID NOT NULL REFERENCES tracking_sessions(id),
			brand_name TEXT NOT NULL,
			brand_domain TEXT NOT NULL DEFAULT '',
			mention_count INTEGER NOT NULL,
			first_position INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_brand_status ON tracking_sessions (brand_id, status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_discovered_session ON discovered_brands (tracking_session_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetBrand(ctx context.Context, brandID string) (*models.Brand, error) {
	query, args, err := s.builder.
		Select("id", "name", "domain", "variations", "is_active", "last_tracked_at", "created_at").
		From("brands").
		Where(sq.Eq{"id": brandID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build brand query: %w", err)
	}

	var brand models.Brand
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&brand.ID, &brand.Name, &brand.Domain, &brand.Variations,
		&brand.IsActive, &brand.LastTrackedAt, &brand.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand %s: %w", brandID, err)
	}

	return &brand, nil
}

func (s *PostgresStore) ListActiveBrands(ctx context.Context) ([]models.Brand, error) {
	query, args, err := s.builder.
		Select("id", "name", "domain", "variations", "is_active", "last_tracked_at", "created_at").
		From("brands").
		Where(sq.Eq{"is_active": true}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build brands query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	var brands []models.Brand
	for rows.Next() {
		var brand models.Brand
		if err := rows.Scan(
			&brand.ID, &brand.Name, &brand.Domain, &brand.Variations,
			&brand.IsActive, &brand.LastTrackedAt, &brand.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, brand)
	}
	return brands, rows.Err()
}

func (s *PostgresStore) TouchBrandTracked(ctx context.Context, brandID string, at time.Time) error {
	query, args, err := s.builder.
		Update("brands").
		Set("last_tracked_at", at).
		Where(sq.Eq{"id": brandID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build brand update: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update brand %s: %w", brandID, err)
	}
	return nil
}

func (s *PostgresStore) ListActivePrompts(ctx context.Context, brandID string, promptIDs []string) ([]models.Prompt, error) {
	q := s.builder.
		Select("id", "brand_id", "prompt_text", "is_active", "last_tracked_at", "created_at").
		From("prompts").
		Where(sq.Eq{"brand_id": brandID, "is_active": true}).
		OrderBy("created_at")

	if len(promptIDs) > 0 {
		q = q.Where(sq.Eq{"id": promptIDs})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build prompts query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []models.Prompt
	for rows.Next() {
		var prompt models.Prompt
		if err := rows.Scan(
			&prompt.ID, &prompt.BrandID, &prompt.Text, &prompt.IsActive,
			&prompt.LastTrackedAt, &prompt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, prompt)
	}
	return prompts, rows.Err()
}

func (s *PostgresStore) TouchPromptTracked(ctx context.Context, promptID string, at time.Time) error {
	query, args, err := s.builder.
		Update("prompts").
		Set("last_tracked_at", at).
		Where(sq.Eq{"id": promptID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build prompt update: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update prompt %s: %w", promptID, err)
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, brandID, promptID, engine string) (string, error) {
	id := uuid.New().String()

	query, args, err := s.builder.
		Insert("tracking_sessions").
		Columns("id", "brand_id", "prompt_id", "ai_engine", "status").
		Values(id, brandID, promptID, engine, models.StatusRunning).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build session insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to create tracking session: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) CompleteSession(ctx context.Context, sessionID, responseText string, mentioned bool, position *int, metadata map[string]any) error {
	query, args, err := s.builder.
		Update("tracking_sessions").
		Set("status", models.StatusCompleted).
		Set("response_text", responseText).
		Set("mentioned", mentioned).
		Set("position", position).
		Set("metadata", metadata).
		Where(sq.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build session update: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to complete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *PostgresStore) FailSession(ctx context.Context, sessionID, errorMessage string) error {
	query, args, err := s.builder.
		Update("tracking_sessions").
		Set("status", models.StatusFailed).
		Set("metadata", map[string]any{"error": errorMessage}).
		Where(sq.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build session update: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to fail session %s: %w", sessionID, err)
	}
	return nil
}

func (s *PostgresStore) ListCompletedSessions(ctx context.Context, brandID string, since time.Time) ([]models.TrackingSession, error) {
	query, args, err := s.builder.
		Select("id", "brand_id", "prompt_id", "ai_engine", "status", "mentioned", "position", "created_at").
		From("tracking_sessions").
		Where(sq.Eq{"brand_id": brandID, "status": models.StatusCompleted}).
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sessions query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.TrackingSession
	for rows.Next() {
		var session models.TrackingSession
		if err := rows.Scan(
			&session.ID, &session.BrandID, &session.PromptID, &session.Engine,
			&session.Status, &session.Mentioned, &session.Position, &session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *PostgresStore) InsertCitations(ctx context.Context, sessionID, brandID string, citations []models.ExtractedCitation) error {
	if len(citations) == 0 {
		return nil
	}

	q := s.builder.
		Insert("citations").
		Columns("id", "tracking_session_id", "brand_id", "source_url", "source_title",
			"source_domain", "citation_text", "position", "context",
			"is_brand_mentioned", "sentiment", "relevance_score")

	for _, c := range citations {
		q = q.Values(uuid.New().String(), sessionID, brandID, c.SourceURL, c.SourceTitle,
			c.SourceDomain, c.CitationText, c.Position, c.Context,
			c.IsBrandMentioned, c.Sentiment, c.RelevanceScore)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build citations insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert citations: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertDiscoveredBrands(ctx context.Context, sessionID string, brands []models.DiscoveredBrand) error {
	if len(brands) == 0 {
		return nil
	}

	q := s.builder.
		Insert("discovered_brands").
		Columns("id", "tracking_session_id", "brand_name", "brand_domain", "mention_count", "first_position")

	for _, b := range brands {
		q = q.Values(uuid.New().String(), sessionID, b.BrandName, b.BrandDomain, b.MentionCount, b.Position)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build discovered brands insert: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert discovered brands: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCitationStats(ctx context.Context, brandID string, since time.Time) (*models.CitationStats, error) {
	query, args, err := s.builder.
		Select(
			"COUNT(*) FILTER (WHERE c.sentiment = 'positive')",
			"COUNT(*) FILTER (WHERE c.sentiment = 'neutral')",
			"COUNT(*) FILTER (WHERE c.sentiment = 'negative')",
			"COALESCE(AVG(c.relevance_score), 0)",
		).
		From("citations c").
		Join("tracking_sessions s ON s.id = c.tracking_session_id").
		Where(sq.Eq{"c.brand_id": brandID, "c.is_brand_mentioned": true, "s.status": models.StatusCompleted}).
		Where(sq.GtOrEq{"s.created_at": since}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build citation stats query: %w", err)
	}

	var stats models.CitationStats
	if err := s.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Positive, &stats.Neutral, &stats.Negative, &stats.AvgRelevance,
	); err != nil {
		return nil, fmt.Errorf("failed to get citation stats: %w", err)
	}
	return &stats, nil
}

func (s *PostgresStore) TopDiscoveredBrands(ctx context.Context, brandID string, since time.Time, limit int) ([]models.CompetitorMention, error) {
	query, args, err := s.builder.
		Select("d.brand_name", "SUM(d.mention_count) AS mentions", "MIN(d.first_position) AS best_position").
		From("discovered_brands d").
		Join("tracking_sessions s ON s.id = d.tracking_session_id").
		Where(sq.Eq{"s.brand_id": brandID, "s.status": models.StatusCompleted}).
		Where(sq.GtOrEq{"s.created_at": since}).
		GroupBy("d.brand_name").
		OrderBy("mentions DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build competitors query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitors: %w", err)
	}
	defer rows.Close()

	var competitors []models.CompetitorMention
	for rows.Next() {
		var c models.CompetitorMention
		if err := rows.Scan(&c.BrandName, &c.Mentions, &c.BestPosition); err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		competitors = append(competitors, c)
	}
	return competitors, rows.Err()
}
