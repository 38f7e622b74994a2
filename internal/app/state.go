// Package app provides the main Bubble Tea application model and state management.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/services"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial bool
	Reload  bool
	Export  bool
}

// State is shared by all tabs. It holds the current session, the global
// filter and the filtered view derived from both.
type State struct {
	mu sync.RWMutex

	Session *services.Session
	Filter  models.FilterCriteria

	// view is Session.Aggregator restricted by Filter.
	view *usage.Aggregator
	// revision changes whenever the session or the filter changes.
	revision int

	Loading LoadingState

	LastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state waiting for its first session.
func NewState() *State {
	return &State{
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "reload":
		s.Loading.Reload = loading
	case "export":
		s.Loading.Export = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial || s.Loading.Reload || s.Loading.Export
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// GetLoadingResources returns a list of currently loading resources.
func (s *State) GetLoadingResources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resources []string
	if s.Loading.Initial {
		resources = append(resources, "initial")
	}
	if s.Loading.Reload {
		resources = append(resources, "reload")
	}
	if s.Loading.Export {
		resources = append(resources, "export")
	}
	return resources
}

// SetSession replaces the current session and rebuilds the filtered view.
// Filter origins that no longer exist are kept; they simply match nothing.
func (s *State) SetSession(session *services.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Session = session
	s.LastUpdated = time.Now()
	s.rebuildLocked()
}

// GetSession returns the current session, or nil before the first load.
func (s *State) GetSession() *services.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Session
}

// HasData reports whether a session has been loaded.
func (s *State) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Session != nil
}

// All returns the unfiltered aggregator of the current session.
func (s *State) All() *usage.Aggregator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Session == nil {
		return emptyAggregator()
	}
	return s.Session.Aggregator
}

// View returns the current session restricted by the global filter.
func (s *State) View() *usage.Aggregator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.view == nil {
		return emptyAggregator()
	}
	return s.view
}

// Revision changes every time the view is rebuilt. Tabs that cache
// derived rows compare it to decide when to refresh.
func (s *State) Revision() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// GetFilter returns a copy of the global filter.
func (s *State) GetFilter() models.FilterCriteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFilter(s.Filter)
}

// SetFilter replaces the global filter.
func (s *State) SetFilter(filter models.FilterCriteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Filter = copyFilter(filter)
	s.rebuildLocked()
}

// SetNameQuery replaces the name part of the global filter.
func (s *State) SetNameQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Filter.NameQuery == query {
		return
	}
	s.Filter.NameQuery = query
	s.rebuildLocked()
}

// ToggleOrigin adds origin to the filter, or removes it if present.
func (s *State) ToggleOrigin(origin string) models.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Filter = s.Filter.ToggleOrigin(origin)
	s.rebuildLocked()
	return copyFilter(s.Filter)
}

// ClearFilter removes every restriction.
func (s *State) ClearFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Filter = models.FilterCriteria{}
	s.rebuildLocked()
}

func (s *State) rebuildLocked() {
	s.revision++
	if s.Session == nil {
		s.view = nil
		return
	}
	s.view = s.Session.Aggregator.Filter(s.Filter)
}

func copyFilter(f models.FilterCriteria) models.FilterCriteria {
	out := models.FilterCriteria{NameQuery: f.NameQuery}
	if len(f.Origins) > 0 {
		out.Origins = append([]string(nil), f.Origins...)
	}
	return out
}

func emptyAggregator() *usage.Aggregator {
	agg, _ := usage.Load(nil)
	return agg
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := fmt.Sprintf("%s-%d", time.Now().Format("20060102150405"), s.notificationSeq)

	notification := Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	}

	s.notifications = append(s.notifications, notification)

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}

	return active
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}
