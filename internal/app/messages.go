package app

import (
	"time"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/export"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// SessionLoadedMsg carries a session that should become current.
type SessionLoadedMsg struct {
	Session *services.Session
}

// ReloadMsg requests reading the data file again.
type ReloadMsg struct{}

// ReloadResultMsg contains the result of a manual reload.
type ReloadResultMsg struct {
	Session *services.Session
	Error   error
}

// FilterChangedMsg is sent after the global filter was modified.
type FilterChangedMsg struct {
	Filter models.FilterCriteria
}

// ExportMsg requests writing records to the export directory.
type ExportMsg struct {
	Format  export.Format
	Records []models.UsageRecord
}

// ExportResultMsg contains the result of an export operation.
type ExportResultMsg struct {
	Path    string
	Format  export.Format
	Records int
	Error   error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// QuitMsg requests the application to quit.
type QuitMsg struct{}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// ShowFlagMsg asks the flags tab to search for a flag name.
type ShowFlagMsg struct {
	Name string
}
