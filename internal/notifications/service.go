package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/geotrack/visibility-tracker/internal/config"
	"github.com/geotrack/visibility-tracker/internal/reporting"
)

// Service delivers visibility reports via the configured channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// WebhookMessage is the card payload posted to the report webhook
type WebhookMessage struct {
	Type     string           `json:"@type"`
	Context  string           `json:"@context"`
	Title    string           `json:"title"`
	Text     string           `json:"text"`
	Sections []WebhookSection `json:"sections,omitempty"`
}

type WebhookSection struct {
	ActivityTitle string        `json:"activityTitle,omitempty"`
	ActivityText  string        `json:"activityText,omitempty"`
	Facts         []WebhookFact `json:"facts,omitempty"`
	Markdown      bool          `json:"markdown,omitempty"`
}

type WebhookFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a visibility report via all configured channels
func (s *Service) SendReport(report *reporting.Report) error {
	var errors []string

	if s.config.WebhookURL != "" {
		if err := s.sendToWebhook(report); err != nil {
			logrus.Errorf("Failed to send webhook notification: %v", err)
			errors = append(errors, fmt.Sprintf("webhook: %v", err))
		} else {
			logrus.Infof("Sent visibility report for %s to webhook", report.BrandName)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("email: %v", err))
		} else {
			logrus.Infof("Sent visibility report for %s via email", report.BrandName)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToWebhook(report *reporting.Report) error {
	message := s.buildWebhookMessage(report)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.WebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send webhook message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildWebhookMessage(report *reporting.Report) *WebhookMessage {
	message := &WebhookMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("AI Visibility Report - %s", report.BrandName),
		Text: fmt.Sprintf("%s visibility is %s: score %.1f over the last %d days (%s)",
			report.BrandName, report.Interpretation.Label, report.Stats.VisibilityScore,
			report.WindowDays, report.Trend.Label),
	}

	facts := []WebhookFact{
		{Name: "Visibility Score", Value: fmt.Sprintf("%.2f", report.Stats.VisibilityScore)},
		{Name: "Weighted Score", Value: fmt.Sprintf("%.1f (%s)", report.Breakdown.Overall, report.Interpretation.Label)},
		{Name: "Prompts Tracked", Value: fmt.Sprintf("%d", report.Stats.TotalTracked)},
		{Name: "Brand Mentions", Value: fmt.Sprintf("%d", report.Stats.TotalMentions)},
		{Name: "Trend", Value: fmt.Sprintf("%.1f%% (%s)", report.Trend.Value, report.Trend.Label)},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}

	message.Sections = append(message.Sections, WebhookSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.TopCompetitors) > 0 {
		var competitors []string
		for _, c := range report.TopCompetitors {
			competitors = append(competitors,
				fmt.Sprintf("**%s** - %d mentions (best position %d)", c.BrandName, c.Mentions, c.BestPosition))
		}

		message.Sections = append(message.Sections, WebhookSection{
			ActivityTitle: "Top Competitors",
			ActivityText:  strings.Join(competitors, "\n\n"),
			Markdown:      true,
		})
	}

	message.Sections = append(message.Sections, WebhookSection{
		ActivityTitle: "Recommendation",
		ActivityText:  report.Interpretation.Recommendation,
		Markdown:      true,
	})

	return message
}

func (s *Service) sendEmail(report *reporting.Report) error {
	subject := fmt.Sprintf("AI Visibility Report - %s (score %.1f)",
		report.BrandName, report.Breakdown.Overall)

	htmlBody, err := s.buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	textBody := s.buildEmailText(report)

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var emailTemplate = template.Must(template.New("report").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>AI Visibility Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #1a73e8; color: white; padding: 20px; border-radius: 5px; }
        .score { font-size: 2em; font-weight: bold; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .competitor { border-left: 4px solid #1a73e8; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .green { color: #107c10; }
        .yellow { color: #c19c00; }
        .red { color: #d13438; }
    </style>
</head>
<body>
    <div class="header">
        <h1>AI Visibility Report - {{.BrandName}}</h1>
        <p>{{.Period}} report generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <p class="score {{.Interpretation.Color}}">{{printf "%.1f" .Breakdown.Overall}} - {{.Interpretation.Label}}</p>
        <p>{{.Interpretation.Description}}</p>
        <p><strong>Mention Rate Score:</strong> {{printf "%.2f" .Stats.VisibilityScore}} ({{.Stats.TotalMentions}} of {{.Stats.TotalTracked}} tracked prompts)</p>
        <p><strong>Average Position:</strong> {{printf "%.2f" .Stats.AvgPosition}}</p>
        <p><strong>Trend:</strong> {{printf "%.1f" .Trend.Value}}% ({{.Trend.Label}})</p>
        <p><strong>Sub-scores:</strong>
            mentions {{printf "%.1f" .Breakdown.MentionFrequency}},
            position {{printf "%.1f" .Breakdown.Position}},
            sentiment {{printf "%.1f" .Breakdown.Sentiment}},
            citations {{printf "%.1f" .Breakdown.CitationQuality}}</p>
        <p><em>{{.Interpretation.Recommendation}}</em></p>
    </div>

    {{if .TopCompetitors}}
    <h2>Top Competitors</h2>
    {{range .TopCompetitors}}
    <div class="competitor">
        <strong>{{.BrandName}}</strong> - {{.Mentions}} mentions, best position {{.BestPosition}}
    </div>
    {{end}}
    {{end}}
</body>
</html>`))

func (s *Service) buildEmailHTML(report *reporting.Report) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) buildEmailText(report *reporting.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "AI Visibility Report - %s\n", report.BrandName)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Weighted score: %.1f (%s)\n", report.Breakdown.Overall, report.Interpretation.Label)
	fmt.Fprintf(&b, "Mention rate score: %.2f (%d of %d tracked prompts)\n",
		report.Stats.VisibilityScore, report.Stats.TotalMentions, report.Stats.TotalTracked)
	fmt.Fprintf(&b, "Trend: %.1f%% (%s)\n", report.Trend.Value, report.Trend.Label)

	fmt.Fprintf(&b, "Projection: %s\n", report.Target.Message)
	fmt.Fprintf(&b, "\n%s\n", report.Interpretation.Recommendation)

	if len(report.TopCompetitors) > 0 {
		b.WriteString("\nTop competitors:\n")
		for _, c := range report.TopCompetitors {
			fmt.Fprintf(&b, "  - %s: %d mentions (best position %d)\n", c.BrandName, c.Mentions, c.BestPosition)
		}
	}

	return b.String()
}
