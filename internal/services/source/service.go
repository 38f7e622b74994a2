// Package source owns the usage data file: it loads it, optionally watches it
// for changes, and reloads it on demand.
package source

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/loader"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
)

const debounceInterval = 100 * time.Millisecond

// Event represents a source service event.
type Event struct {
	Type    EventType
	Error   error
	Records []models.UsageRecord
}

// EventType defines the type of source event.
type EventType int

const (
	EventLoaded EventType = iota
	EventChanged
	EventError
)

// LoadFunc reads the records stored at path.
type LoadFunc func(path string) ([]models.UsageRecord, error)

// Options configures a Service.
type Options struct {
	// Watch reloads the file when it is written or recreated.
	Watch bool
	// Load defaults to loader.LoadFile.
	Load LoadFunc
}

// Service loads the data file and keeps the last good copy of its records.
type Service struct {
	mu            sync.RWMutex
	records       []models.UsageRecord
	loadedAt      time.Time
	filePath      string
	load          LoadFunc
	group         singleflight.Group
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// New loads filePath and, when opts.Watch is set, starts watching it.
// A load failure is returned and no service is created.
func New(filePath string, opts Options) (*Service, error) {
	if filePath == "" {
		return nil, fmt.Errorf("no usage data path configured")
	}

	s := &Service{
		filePath:  filePath,
		load:      opts.Load,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}
	if s.load == nil {
		s.load = loader.LoadFile
	}

	if _, err := s.Reload(); err != nil {
		return nil, err
	}

	if opts.Watch {
		if err := s.startWatcher(); err != nil {
			return nil, fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	s.sendEvent(Event{Type: EventLoaded, Records: s.Records()})

	return s, nil
}

// Events returns the event channel for watch-triggered changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the watched file path.
func (s *Service) Path() string {
	return s.filePath
}

// Watching reports whether the file watcher is running.
func (s *Service) Watching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watcher != nil
}

// Records returns a copy of the last successfully loaded records.
func (s *Service) Records() []models.UsageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.UsageRecord, len(s.records))
	copy(records, s.records)
	return records
}

// LoadedAt returns when the current records were read.
func (s *Service) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Reload reads the file again. Concurrent calls share a single read.
// On failure the previously loaded records are kept.
func (s *Service) Reload() ([]models.UsageRecord, error) {
	v, err, shared := s.group.Do(s.filePath, func() (any, error) {
		records, err := s.load(s.filePath)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.records = records
		s.loadedAt = time.Now()
		s.mu.Unlock()

		logger.Debug("usage data loaded", "path", s.filePath, "records", len(records))
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("usage data reload coalesced", "path", s.filePath)
	}

	records := v.([]models.UsageRecord)
	out := make([]models.UsageRecord, len(records))
	copy(out, records)
	return out, nil
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory to catch editors that replace the file
	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(watcher)
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the file after an external change.
func (s *Service) handleFileChange() {
	select {
	case <-s.stopChan:
		return
	default:
	}

	records, err := s.Reload()
	if err != nil {
		logger.Warn("usage data reload failed", "path", s.filePath, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	s.sendEvent(Event{Type: EventChanged, Records: records})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		watcher := s.watcher
		s.watcher = nil
		s.mu.Unlock()

		if watcher != nil {
			err = watcher.Close()
		}
	})
	return err
}
