package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geotrack/visibility-tracker/internal/archive"
	"github.com/geotrack/visibility-tracker/internal/engines"
	"github.com/geotrack/visibility-tracker/internal/models"
	"github.com/geotrack/visibility-tracker/internal/reporting"
	"github.com/geotrack/visibility-tracker/internal/store"
	"github.com/geotrack/visibility-tracker/internal/tracking"
)

// previewStore serves canned tracking history so a report can be rendered
// without a database or any engine credentials.
type previewStore struct {
	brand       models.Brand
	sessions    []models.TrackingSession
	citations   models.CitationStats
	competitors []models.CompetitorMention
}

func (p *previewStore) GetBrand(ctx context.Context, brandID string) (*models.Brand, error) {
	if brandID != p.brand.ID {
		return nil, store.ErrNotFound
	}
	return &p.brand, nil
}

func (p *previewStore) ListActiveBrands(ctx context.Context) ([]models.Brand, error) {
	return []models.Brand{p.brand}, nil
}

func (p *previewStore) TouchBrandTracked(ctx context.Context, brandID string, at time.Time) error {
	return nil
}

func (p *previewStore) ListActivePrompts(ctx context.Context, brandID string, promptIDs []string) ([]models.Prompt, error) {
	return nil, nil
}

func (p *previewStore) TouchPromptTracked(ctx context.Context, promptID string, at time.Time) error {
	return nil
}

func (p *previewStore) CreateSession(ctx context.Context, brandID, promptID, engine string) (string, error) {
	return "preview-session", nil
}

func (p *previewStore) CompleteSession(ctx context.Context, sessionID, responseText string, mentioned bool, position *int, metadata map[string]any) error {
	return nil
}

func (p *previewStore) FailSession(ctx context.Context, sessionID, errorMessage string) error {
	return nil
}

func (p *previewStore) ListCompletedSessions(ctx context.Context, brandID string, since time.Time) ([]models.TrackingSession, error) {
	var sessions []models.TrackingSession
	for _, s := range p.sessions {
		if s.CreatedAt.After(since) {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

func (p *previewStore) InsertCitations(ctx context.Context, sessionID, brandID string, citations []models.ExtractedCitation) error {
	return nil
}

func (p *previewStore) InsertDiscoveredBrands(ctx context.Context, sessionID string, brands []models.DiscoveredBrand) error {
	return nil
}

func (p *previewStore) TopDiscoveredBrands(ctx context.Context, brandID string, since time.Time, limit int) ([]models.CompetitorMention, error) {
	if limit > len(p.competitors) {
		limit = len(p.competitors)
	}
	return p.competitors[:limit], nil
}

func (p *previewStore) GetCitationStats(ctx context.Context, brandID string, since time.Time) (*models.CitationStats, error) {
	stats := p.citations
	return &stats, nil
}

func sampleSession(daysAgo int, engine string, mentioned bool, position int) models.TrackingSession {
	session := models.TrackingSession{
		ID:        fmt.Sprintf("preview-%d", daysAgo),
		BrandID:   "brand-preview",
		Engine:    engine,
		Status:    models.StatusCompleted,
		Mentioned: mentioned,
		CreatedAt: time.Now().Add(-time.Duration(daysAgo*24) * time.Hour),
	}
	if mentioned && position > 0 {
		session.Position = &position
	}
	return session
}

func main() {
	fmt.Println("📊 AI Visibility Tracker - Report Preview")
	fmt.Println("=========================================")

	previewData := &previewStore{
		brand: models.Brand{
			ID:         "brand-preview",
			Name:       "Northwind Analytics",
			Domain:     "northwind.example.com",
			Variations: []string{"Northwind"},
			IsActive:   true,
		},
		sessions: []models.TrackingSession{
			// Current week: 4 of 6 prompts mentioned
			sampleSession(1, models.EngineChatGPT, true, 1),
			sampleSession(2, models.EngineChatGPT, true, 2),
			sampleSession(3, models.EngineChatGPT, false, 0),
			sampleSession(4, models.EngineChatGPT, true, 1),
			sampleSession(5, models.EngineChatGPT, true, 3),
			sampleSession(6, models.EngineChatGPT, false, 0),
			// Previous week: 2 of 6 mentioned, so the trend reads as improving
			sampleSession(8, models.EngineChatGPT, true, 4),
			sampleSession(9, models.EngineChatGPT, false, 0),
			sampleSession(10, models.EngineChatGPT, false, 0),
			sampleSession(11, models.EngineChatGPT, true, 2),
			sampleSession(12, models.EngineChatGPT, false, 0),
			sampleSession(13, models.EngineChatGPT, false, 0),
		},
		citations: models.CitationStats{
			Positive:     5,
			Neutral:      3,
			Negative:     1,
			AvgRelevance: 0.82,
		},
		competitors: []models.CompetitorMention{
			{BrandName: "Contoso Insights", Mentions: 9, BestPosition: 1},
			{BrandName: "Fabrikam Data", Mentions: 6, BestPosition: 2},
			{BrandName: "Tailwind Metrics", Mentions: 3, BestPosition: 3},
		},
	}

	trackingService := tracking.NewService(previewData, engines.Registry{}, archive.Noop{}, tracking.Options{})
	builder := reporting.NewBuilder(trackingService, 70)

	fmt.Printf("\n📈 Building weekly report for %s...\n", previewData.brand.Name)

	report, err := builder.Build(context.Background(), previewData.brand, 7, "weekly")
	if err != nil {
		fmt.Printf("❌ Error building report: %v\n", err)
		os.Exit(1)
	}

	printReport(report)

	if err := saveReportToFile(report); err != nil {
		fmt.Printf("\n⚠️  Warning: Could not save to file: %v\n", err)
	}

	fmt.Println("\n✅ Report preview completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Check the 'preview_output' directory for the saved JSON report")
	fmt.Println("   • Configure WEBHOOK_URL or NOTIFICATION_EMAIL to deliver real reports")
}

func printReport(report *reporting.Report) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("📊 AI VISIBILITY REPORT - %s\n", report.BrandName)
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("📅 Period: %s (%d days)\n", report.Period, report.WindowDays)
	fmt.Printf("🕒 Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	fmt.Printf("\n⭐ Weighted score: %.1f - %s\n", report.Breakdown.Overall, report.Interpretation.Label)
	fmt.Printf("   %s\n", report.Interpretation.Description)
	fmt.Printf("\n📈 Mention rate: %.2f (%d of %d tracked prompts)\n",
		report.Stats.VisibilityScore, report.Stats.TotalMentions, report.Stats.TotalTracked)
	fmt.Printf("📍 Average position: %.2f\n", report.Stats.AvgPosition)
	fmt.Printf("📉 Trend: %.1f%% (%s)\n", report.Trend.Value, report.Trend.Label)
	fmt.Printf("🎯 %s\n", report.Target.Message)

	fmt.Println("\n🧮 Sub-scores:")
	fmt.Printf("   • %-18s %.1f\n", "Mention frequency:", report.Breakdown.MentionFrequency)
	fmt.Printf("   • %-18s %.1f\n", "Position:", report.Breakdown.Position)
	fmt.Printf("   • %-18s %.1f\n", "Sentiment:", report.Breakdown.Sentiment)
	fmt.Printf("   • %-18s %.1f\n", "Citation quality:", report.Breakdown.CitationQuality)

	if len(report.TopCompetitors) > 0 {
		fmt.Println("\n🏁 Top competitors:")
		for i, c := range report.TopCompetitors {
			fmt.Printf("   %d. %s - %d mentions (best position %d)\n", i+1, c.BrandName, c.Mentions, c.BestPosition)
		}
	}

	fmt.Printf("\n💬 %s\n", report.Interpretation.Recommendation)
	fmt.Println(strings.Repeat("=", 70))
}

func saveReportToFile(report *reporting.Report) error {
	dir := "preview_output"
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	timestamp := report.GeneratedAt.Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("visibility_report_%s.json", timestamp))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}

	fmt.Printf("\n💾 Report saved to: %s\n", filename)
	return nil
}
