package notifications

import "github.com/geotrack/visibility-tracker/internal/reporting"

// NotificationInterface defines the contract for report delivery
type NotificationInterface interface {
	SendReport(report *reporting.Report) error
}
