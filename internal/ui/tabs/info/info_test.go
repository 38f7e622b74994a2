package info

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/app"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/config"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/export"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/services"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/version"
)

func TestNew(t *testing.T) {
	state := app.NewState()
	cfg := &config.Config{}
	m := New(state, cfg)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init should return nil")
	}
}

func TestModel_Update(t *testing.T) {
	m := New(app.NewState(), &config.Config{})

	updated, _ := m.Update(nil)
	if updated == nil {
		t.Error("Update returned nil model")
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if updated == nil {
		t.Error("Update returned nil model")
	}
}

func TestModel_ViewWithoutData(t *testing.T) {
	version.Version = "v1.2.3"
	version.Commit = "abc123"
	version.Date = "2026-01-02"
	t.Cleanup(version.Reset)

	m := New(app.NewState(), nil)
	m.SetSize(100, 80)

	view := m.View()
	for _, want := range []string{"No dataset loaded", "Configuration not loaded", "v1.2.3", "abc123"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
}

func TestModel_View(t *testing.T) {
	agg, err := usage.Load([]models.UsageRecord{
		{Origin: "svc-a", Name: "flagX", Sum: 10},
		{Origin: "svc-b", Name: "flagX", Sum: 5},
	})
	if err != nil {
		t.Fatalf("usage.Load failed: %v", err)
	}
	state := app.NewState()
	state.SetSession(&services.Session{
		ID:         "session-42",
		Source:     "usage.json",
		LoadedAt:   time.Now(),
		Aggregator: agg,
	})
	state.ToggleOrigin("svc-b")

	cfg := &config.Config{
		DataPath:  "usage.json",
		ExportDir: "/tmp/exports",
		TopN:      15,
		LogLevel:  "debug",
	}
	m := New(state, cfg)
	m.SetSize(100, 80)

	view := m.View()
	for _, want := range []string{
		"session-42",
		"usage.json",
		"/tmp/exports",
		"15",
		"origins=svc-b",
		"stderr (debug)",
		version.Name,
	} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), &config.Config{})
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp should not be empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp should not be empty")
	}
}

func TestModel_SnapshotCard(t *testing.T) {
	dir := t.TempDir()
	m := New(app.NewState(), &config.Config{ExportDir: dir})
	m.SetSize(100, 120)

	if view := m.View(); !strings.Contains(view, "No snapshot exported yet") {
		t.Error("View should report a missing snapshot")
	}

	path := filepath.Join(dir, export.DefaultSnapshotName)
	records := []models.UsageRecord{
		{Origin: "svc-a", Name: "flagX", Sum: 10},
		{Origin: "svc-b", Name: "flagX", Sum: 5},
	}
	if _, err := export.SQLiteFile(path, records, export.SnapshotInfo{SessionID: "snap-1", Source: "usage.json"}); err != nil {
		t.Fatalf("SQLiteFile failed: %v", err)
	}

	view := m.View()
	for _, want := range []string{"Last Snapshot", "snap-1", "usage.json", "15"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}
	cached := m.snapshot

	m.View()
	if m.snapshot != cached {
		t.Error("unchanged snapshot file should not be reread")
	}

	if _, err := export.SQLiteFile(path, records[:1], export.SnapshotInfo{SessionID: "snap-2"}); err != nil {
		t.Fatalf("SQLiteFile failed: %v", err)
	}
	// Some filesystems keep coarse modification times.
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	if view := m.View(); !strings.Contains(view, "snap-2") {
		t.Error("View should pick up the rewritten snapshot")
	}
}

func TestModel_SnapshotCardUnreadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, export.DefaultSnapshotName)
	if err := os.WriteFile(path, []byte("not sqlite"), 0o600); err != nil {
		t.Fatal(err)
	}

	m := New(app.NewState(), &config.Config{ExportDir: dir})
	m.SetSize(100, 120)
	if view := m.View(); !strings.Contains(view, "Unreadable") {
		t.Error("View should flag an unreadable snapshot")
	}
}
