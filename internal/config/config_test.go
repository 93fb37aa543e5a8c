package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/visibility")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, []string{"chatgpt"}, cfg.DefaultEngines)
	assert.Equal(t, 2*time.Second, cfg.RequestDelay)
	assert.Equal(t, 60*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 7, cfg.StatsWindowDays)
	assert.Equal(t, "off", cfg.TrackingSchedule)
	assert.Equal(t, "responses", cfg.StorageContainer)
	assert.Equal(t, 70.0, cfg.TargetScore)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/visibility")
	t.Setenv("PORT", "9090")
	t.Setenv("DEBUG", "true")
	t.Setenv("DEFAULT_ENGINES", "chatgpt,perplexity")
	t.Setenv("REQUEST_DELAY", "500ms")
	t.Setenv("QUERY_TIMEOUT", "90s")
	t.Setenv("STATS_WINDOW_DAYS", "30")
	t.Setenv("TARGET_SCORE", "85.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"chatgpt", "perplexity"}, cfg.DefaultEngines)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 90*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 30, cfg.StatsWindowDays)
	assert.Equal(t, 85.5, cfg.TargetScore)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("Missing database URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("Invalid schedule", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/visibility")
		t.Setenv("TRACKING_SCHEDULE", "hourly")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "TRACKING_SCHEDULE")
	})

	t.Run("Schedule on without a report channel", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/visibility")
		t.Setenv("TRACKING_SCHEDULE", "daily")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "report channel")
	})

	t.Run("Schedule on with webhook passes", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/visibility")
		t.Setenv("TRACKING_SCHEDULE", "weekly")
		t.Setenv("WEBHOOK_URL", "https://example.com/hook")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "weekly", cfg.TrackingSchedule)
	})

	t.Run("Email without SMTP fails", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/visibility")
		t.Setenv("NOTIFICATION_EMAIL", "team@example.com")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "SMTP")
	})
}
