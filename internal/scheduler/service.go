package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/geotrack/visibility-tracker/internal/config"
	"github.com/geotrack/visibility-tracker/internal/notifications"
	"github.com/geotrack/visibility-tracker/internal/reporting"
	"github.com/geotrack/visibility-tracker/internal/store"
	"github.com/geotrack/visibility-tracker/internal/tracking"
)

// Service schedules periodic tracking runs and report delivery
type Service struct {
	config          *config.Config
	store           store.Store
	trackingService *tracking.Service
	reportBuilder   *reporting.Builder
	notifier        notifications.NotificationInterface
	cron            *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, st store.Store, trackingService *tracking.Service,
	reportBuilder *reporting.Builder, notifier notifications.NotificationInterface) *Service {
	return &Service{
		config:          cfg,
		store:           st,
		trackingService: trackingService,
		reportBuilder:   reportBuilder,
		notifier:        notifier,
		cron:            cron.New(cron.WithSeconds()),
	}
}

// Start begins scheduled tracking. Schedule "off" disables the cron entirely.
func (s *Service) Start() error {
	if s.config.TrackingSchedule == "off" {
		logrus.Info("Scheduled tracking disabled")
		return nil
	}

	var cronExpression string
	switch s.config.TrackingSchedule {
	case "daily":
		// Run daily at 9 AM UTC
		cronExpression = "0 0 9 * * *"
	case "weekly":
		// Run weekly on Monday at 9 AM UTC
		cronExpression = "0 0 9 * * MON"
	}

	_, err := s.cron.AddFunc(cronExpression, func() {
		logrus.Info("Starting scheduled tracking run")
		s.RunScheduledTracking(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s schedule", s.config.TrackingSchedule)
	return nil
}

// RunScheduledTracking tracks every active brand and delivers its report.
// Per-brand failures are logged and do not stop the remaining brands.
func (s *Service) RunScheduledTracking(ctx context.Context) {
	brands, err := s.store.ListActiveBrands(ctx)
	if err != nil {
		logrus.Errorf("Scheduled tracking: failed to list brands: %v", err)
		return
	}

	windowDays := s.config.StatsWindowDays
	if s.config.TrackingSchedule == "daily" {
		windowDays = 1
	}

	for _, brand := range brands {
		results, err := s.trackingService.TrackBrandPrompts(ctx, brand.ID, nil, s.config.DefaultEngines)
		if err != nil {
			logrus.Errorf("Scheduled tracking failed for brand %s: %v", brand.Name, err)
			continue
		}
		logrus.Infof("Scheduled tracking for %s finished with %d units", brand.Name, len(results))

		report, err := s.reportBuilder.Build(ctx, brand, windowDays, s.config.TrackingSchedule)
		if err != nil {
			logrus.Errorf("Failed to build report for brand %s: %v", brand.Name, err)
			continue
		}

		if err := s.notifier.SendReport(report); err != nil {
			logrus.Errorf("Failed to send report for brand %s: %v", brand.Name, err)
		}
	}
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
