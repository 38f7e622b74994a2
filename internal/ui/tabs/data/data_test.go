package data

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/app"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/export"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/services"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
)

func newLoadedState(t *testing.T) *app.State {
	t.Helper()
	agg, err := usage.Load([]models.UsageRecord{
		{Origin: "svc-a", Name: "flagX", Sum: 10},
		{Origin: "svc-b", Name: "flagX", Sum: 5},
		{Origin: "svc-a", Name: "flagY", Sum: 3},
	})
	if err != nil {
		t.Fatalf("usage.Load failed: %v", err)
	}
	state := app.NewState()
	state.SetSession(&services.Session{ID: "s1", Source: "out.json", LoadedAt: time.Now(), Aggregator: agg})
	return state
}

func press(m *Model, s string) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return cmd
}

func sums(records []models.UsageRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Sum
	}
	return out
}

func TestNew(t *testing.T) {
	m := New(app.NewState())
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.SortField() != models.SortBySum || m.SortOrder() != models.Descending {
		t.Error("default sort should be sum descending")
	}
	if m.Init() != nil {
		t.Error("Init should return nil")
	}
}

func TestModel_DefaultOrder(t *testing.T) {
	m := New(newLoadedState(t))
	got := sums(m.Records())
	want := []float64{10, 5, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sums = %v, want %v", got, want)
		}
	}
}

func TestModel_Sorting(t *testing.T) {
	m := New(newLoadedState(t))
	m.SetSize(100, 30)

	press(m, "o")
	if m.SortOrder() != models.Ascending {
		t.Fatal("o should toggle the order")
	}
	if got := sums(m.Records()); got[0] != 3 || got[2] != 10 {
		t.Errorf("ascending sums = %v", got)
	}

	press(m, "s")
	if m.SortField() != models.SortByName {
		t.Fatal("s should move to the name column")
	}
	records := m.Records()
	if records[0].Name != "flagX" || records[2].Name != "flagY" {
		t.Errorf("name ascending = %+v", records)
	}

	press(m, "s")
	if m.SortField() != models.SortByOrigin {
		t.Fatal("s should move to the origin column")
	}
	if records := m.Records(); records[2].Origin != "svc-b" {
		t.Errorf("origin ascending = %+v", records)
	}

	press(m, "s")
	if m.SortField() != models.SortBySum {
		t.Error("s should wrap to sum")
	}
}

func TestModel_FollowsFilter(t *testing.T) {
	state := newLoadedState(t)
	m := New(state)
	if len(m.Records()) != 3 {
		t.Fatal("expected 3 rows")
	}

	state.SetNameQuery("flagy")
	if len(m.Records()) != 1 {
		t.Errorf("rows = %d, want 1", len(m.Records()))
	}
}

func TestModel_Export(t *testing.T) {
	state := newLoadedState(t)
	state.ToggleOrigin("svc-a")
	m := New(state)

	cmd := press(m, "e")
	if cmd == nil {
		t.Fatal("e should return a command")
	}
	msg, ok := cmd().(app.ExportMsg)
	if !ok {
		t.Fatal("e should emit ExportMsg")
	}
	if msg.Format != export.FormatCSV {
		t.Errorf("Format = %v, want csv", msg.Format)
	}
	if len(msg.Records) != 2 || msg.Records[0].Sum != 10 {
		t.Errorf("Records = %+v", msg.Records)
	}

	msg = press(m, "S")().(app.ExportMsg)
	if msg.Format != export.FormatSQLite {
		t.Errorf("Format = %v, want sqlite", msg.Format)
	}
}

func TestModel_ShowFlag(t *testing.T) {
	m := New(newLoadedState(t))
	m.SetSize(100, 30)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should return a command")
	}
	msg, ok := cmd().(app.ShowFlagMsg)
	if !ok || msg.Name != "flagX" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestModel_View(t *testing.T) {
	m := New(newLoadedState(t))
	m.SetSize(100, 30)

	view := m.View()
	for _, want := range []string{"Raw Data", "3 rows, sorted by sum (descending)", "Origin", "svc-a", "flagY"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q", want)
		}
	}

	empty := New(app.NewState())
	empty.SetSize(100, 30)
	if !strings.Contains(empty.View(), "No records match") {
		t.Error("empty view should say so")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState())
	if len(m.ShortHelp()) == 0 || len(m.FullHelp()) == 0 {
		t.Error("help should not be empty")
	}
}
