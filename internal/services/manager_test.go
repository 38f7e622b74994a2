package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/config"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/db"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/export"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/services/source"
)

const scenarioJSON = `[
	{"origin": "svc-a", "name": "flagX", "sum": 10},
	{"origin": "svc-b", "name": "flagX", "sum": 5},
	{"origin": "svc-a", "name": "flagY", "sum": 3}
]`

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	dataPath := filepath.Join(tmpDir, "out.json")
	if err := os.WriteFile(dataPath, []byte(scenarioJSON), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return &config.Config{
		DataPath:  dataPath,
		ExportDir: filepath.Join(tmpDir, "exports"),
		TopN:      20,
	}
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestNewManager(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)

	session := mgr.Session()
	if session == nil {
		t.Fatal("Session should be initialized")
	}
	if session.ID == "" {
		t.Error("Session ID should be set")
	}
	if session.Source != cfg.DataPath {
		t.Errorf("Session source = %s, want %s", session.Source, cfg.DataPath)
	}
	if got := session.Aggregator.Metrics().TotalCalls; got != 18 {
		t.Errorf("TotalCalls = %v, want 18", got)
	}
	if mgr.Config() != cfg {
		t.Error("Config() should return the manager's config")
	}
	if mgr.Watching() {
		t.Error("watching should be off by default")
	}
}

func TestNewManager_MissingFile(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.DataPath = filepath.Join(t.TempDir(), "missing.json")

	if _, err := NewManager(cfg); err == nil {
		t.Error("expected error for missing data file")
	}
}

func TestManager_Reload(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)
	first := mgr.Session()

	content := `[{"origin": "svc-c", "name": "flagZ", "sum": 2}]`
	if err := os.WriteFile(cfg.DataPath, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	second, err := mgr.Reload()
	if err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("reload should start a new session")
	}
	if mgr.Session() != second {
		t.Error("Session() should return the reloaded session")
	}
	if first.Aggregator.Len() != 3 {
		t.Error("previous session must not change")
	}
	if second.Aggregator.Len() != 1 {
		t.Errorf("expected 1 record, got %d", second.Aggregator.Len())
	}
}

func TestManager_ReloadFailureKeepsSession(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)
	first := mgr.Session()

	if err := os.WriteFile(cfg.DataPath, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if _, err := mgr.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if mgr.Session() != first {
		t.Error("failed reload must keep the current session")
	}
}

func TestManager_ExportCSV(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)

	ch, _ := mgr.Subscribe()

	agg := mgr.Session().Aggregator
	records := agg.Sorted(models.SortBySum, models.Descending)
	path, err := mgr.Export(export.FormatCSV, records, models.FilterCriteria{})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if filepath.Base(path) != export.DefaultCSVName {
		t.Errorf("export file = %s, want %s", filepath.Base(path), export.DefaultCSVName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 || lines[0] != "origin,name,sum" || lines[1] != "svc-a,flagX,10" {
		t.Errorf("unexpected csv: %q", string(data))
	}

	select {
	case event := <-ch:
		exported, ok := event.(ExportedEvent)
		if !ok {
			t.Fatalf("expected ExportedEvent, got %T", event)
		}
		if exported.Records != 3 || exported.Path != path {
			t.Errorf("unexpected event %+v", exported)
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for ExportedEvent")
	}
}

func TestManager_ExportSQLite(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)

	filter := models.FilterCriteria{Origins: []string{"svc-a"}}
	view := mgr.Session().Aggregator.Filter(filter)
	path, err := mgr.Export(export.FormatSQLite, view.Records(), filter)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	store, err := db.OpenExisting(path)
	if err != nil {
		t.Fatalf("OpenExisting() failed: %v", err)
	}
	defer store.Close()

	meta, err := store.GetLatestSnapshotMeta()
	if err != nil || meta == nil {
		t.Fatalf("GetLatestSnapshotMeta() = %v, %v", meta, err)
	}
	if meta.SessionID != mgr.Session().ID {
		t.Errorf("snapshot session = %s, want %s", meta.SessionID, mgr.Session().ID)
	}
	if meta.RecordCount != 2 || meta.TotalCalls != 13 {
		t.Errorf("unexpected snapshot meta %+v", meta)
	}
	if meta.Filter != "origins=svc-a" {
		t.Errorf("snapshot filter = %q", meta.Filter)
	}
}

func TestManager_Notifications(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)

	var mu sync.Mutex
	var titles []string
	mgr.notify = func(title, body string) error {
		mu.Lock()
		defer mu.Unlock()
		titles = append(titles, title)
		return errors.New("no notification daemon")
	}

	if _, err := mgr.Export(export.FormatCSV, nil, models.FilterCriteria{}); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(titles) != 1 || titles[0] != "Flag usage exported" {
		t.Errorf("unexpected notifications %v", titles)
	}
}

func TestManager_WatchBroadcastsReload(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.WatchDataFile = true
	mgr := newTestManager(t, cfg)

	if !mgr.Watching() {
		t.Fatal("expected watcher to run")
	}
	ch, _ := mgr.Subscribe()
	first := mgr.Session()

	content := `[{"origin": "svc-w", "name": "watched", "sum": 9}]`
	if err := os.WriteFile(cfg.DataPath, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-ch:
			loaded, ok := event.(DataLoadedEvent)
			if !ok {
				continue
			}
			if loaded.Session.ID == first.ID {
				t.Error("watch reload should start a new session")
			}
			if loaded.Session.Aggregator.Len() != 1 {
				continue
			}
			return
		case <-timeout:
			t.Fatal("timeout waiting for DataLoadedEvent")
		}
	}
}

func TestManager_SourceErrorBroadcast(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)
	ch, _ := mgr.Subscribe()

	mgr.handleSourceEvent(source.Event{Type: source.EventError, Error: errors.New("watch failed")})

	select {
	case event := <-ch:
		errEvent, ok := event.(ErrorEvent)
		if !ok || errEvent.Service != "source" {
			t.Errorf("unexpected event %#v", event)
		}
	default:
		t.Error("expected ErrorEvent")
	}
}

func TestManager_SubscribeClose(t *testing.T) {
	cfg := newTestConfig(t)
	mgr := newTestManager(t, cfg)

	ch, cmd := mgr.Subscribe()
	if cmd == nil {
		t.Fatal("Subscribe should return a wait command")
	}

	mgr.broadcast(ErrorEvent{Service: "test", Error: errors.New("boom")})
	if msg := cmd(); msg == nil {
		t.Error("expected event from wait command")
	}

	if err := mgr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Close")
	}
	if msg := WaitForEvent(ch)(); msg != nil {
		t.Errorf("closed channel should yield nil, got %v", msg)
	}
}

func TestManager_CloseIdempotent(t *testing.T) {
	cfg := newTestConfig(t)
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	mgr.Subscribe()

	if err := mgr.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}
