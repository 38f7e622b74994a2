// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/gen2brain/beeep"
	"github.com/google/uuid"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/config"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/export"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/services/source"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
)

// Session is one loaded dataset. It is never mutated after creation;
// a reload produces a new Session.
type Session struct {
	ID         string
	Source     string
	LoadedAt   time.Time
	Aggregator *usage.Aggregator
}

type (
	// DataLoadedEvent is emitted when the data file was reloaded.
	DataLoadedEvent struct {
		Session *Session
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}

	// ExportedEvent is emitted after a view was written to disk.
	ExportedEvent struct {
		Path    string
		Format  export.Format
		Records int
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (DataLoadedEvent) isServiceEvent() {}
func (ErrorEvent) isServiceEvent()      {}
func (ExportedEvent) isServiceEvent()   {}

// Notifier shows a desktop notification.
type Notifier func(title, body string) error

func beeepNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	source      *source.Service
	session     *Session
	notify      Notifier
	stopChan    chan struct{}
	closeOnce   sync.Once
	subscribers []chan<- ServiceEvent
}

// NewManager loads the configured data file and starts event routing.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
	if cfg.DesktopNotify {
		m.notify = beeepNotify
	}

	src, err := source.New(cfg.DataPath, source.Options{Watch: cfg.WatchDataFile})
	if err != nil {
		return nil, fmt.Errorf("failed to load usage data: %w", err)
	}
	m.source = src

	session, err := m.newSession(src.Records(), src.LoadedAt())
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	m.session = session

	logger.Info("usage data loaded",
		"path", cfg.DataPath,
		"records", session.Aggregator.Len(),
		"session", session.ID,
		"watch", src.Watching(),
	)

	go m.routeEvents()

	return m, nil
}

func (m *Manager) newSession(records []models.UsageRecord, loadedAt time.Time) (*Session, error) {
	agg, err := usage.Load(records)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:         uuid.NewString(),
		Source:     m.cfg.DataPath,
		LoadedAt:   loadedAt,
		Aggregator: agg,
	}, nil
}

// routeEvents routes events from the source service to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.source.Events():
			m.handleSourceEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

// handleSourceEvent converts and broadcasts source events.
func (m *Manager) handleSourceEvent(event source.Event) {
	switch event.Type {
	case source.EventChanged:
		session, err := m.swapSession(event.Records)
		if err != nil {
			m.broadcast(ErrorEvent{Service: "source", Error: err})
			return
		}
		m.broadcast(DataLoadedEvent{Session: session})
		m.sendNotification("Flag usage reloaded",
			fmt.Sprintf("%s records from %s",
				humanize.Comma(int64(session.Aggregator.Len())), filepath.Base(session.Source)))

	case source.EventError:
		m.broadcast(ErrorEvent{Service: "source", Error: event.Error})
	}
}

func (m *Manager) swapSession(records []models.UsageRecord) (*Session, error) {
	session, err := m.newSession(records, m.source.LoadedAt())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	logger.Info("usage session started", "session", session.ID, "records", session.Aggregator.Len())
	return session, nil
}

func (m *Manager) sendNotification(title, body string) {
	if m.notify == nil {
		return
	}
	if err := m.notify(title, body); err != nil {
		logger.Debug("desktop notification failed", "error", err)
	}
}

// Session returns the current session.
func (m *Manager) Session() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Reload reads the data file again and starts a new session.
// The current session is kept when the file cannot be loaded.
func (m *Manager) Reload() (*Session, error) {
	records, err := m.source.Reload()
	if err != nil {
		return nil, fmt.Errorf("failed to reload usage data: %w", err)
	}
	return m.swapSession(records)
}

// Export writes records to the configured export directory and returns
// the written path.
func (m *Manager) Export(format export.Format, records []models.UsageRecord, filter models.FilterCriteria) (string, error) {
	if err := m.cfg.EnsureExportDir(); err != nil {
		return "", err
	}
	path := filepath.Join(m.cfg.ExportDir, format.DefaultName())

	session := m.Session()
	info := export.SnapshotInfo{
		SessionID: session.ID,
		Source:    session.Source,
		Filter:    filter,
	}
	if err := export.ToFile(format, path, records, info); err != nil {
		return "", fmt.Errorf("failed to export %s: %w", format, err)
	}

	logger.Info("view exported", "path", path, "format", format.String(), "records", len(records))
	m.broadcast(ExportedEvent{Path: path, Format: format, Records: len(records)})
	m.sendNotification("Flag usage exported",
		fmt.Sprintf("%s records written to %s", humanize.Comma(int64(len(records))), filepath.Base(path)))

	return path, nil
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Watching reports whether the data file is being watched.
func (m *Manager) Watching() bool {
	return m.source.Watching()
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
// It yields nil once the channel is closed.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		err = m.source.Close()
	})
	return err
}
