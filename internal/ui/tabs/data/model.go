// Package data provides the raw data tab: a sortable table over the
// filtered view with CSV and SQLite export.
package data

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/app"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/export"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/styles"
)

// keyMap defines the key bindings specific to the data tab.
type keyMap struct {
	Sort         key.Binding
	Order        key.Binding
	ExportCSV    key.Binding
	ExportSQLite key.Binding
	ShowFlag     key.Binding
}

// defaultKeyMap returns the default key bindings for the data tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle sort column"),
		),
		Order: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle sort order"),
		),
		ExportCSV: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export csv"),
		),
		ExportSQLite: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "export sqlite"),
		),
		ShowFlag: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "show flag"),
		),
	}
}

// Model represents the data tab state.
type Model struct {
	state  *app.State
	keys   keyMap
	table  table.Model
	width  int
	height int

	sortField models.SortField
	sortOrder models.SortOrder

	// records backs the table rows in display order.
	records  []models.UsageRecord
	revision int
	dirty    bool
}

// New creates a new data model sorted by sum, largest first.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithStyles(styles.TableStyles()),
	)

	return &Model{
		state:     state,
		keys:      defaultKeyMap(),
		table:     t,
		sortField: models.SortBySum,
		sortOrder: models.Descending,
		revision:  -1,
	}
}

// columns sizes the table columns for the given width.
func columns(width int) []table.Column {
	sumWidth := 16
	rest := max(width-sumWidth-8, 30)
	originWidth := rest * 2 / 5
	return []table.Column{
		{Title: "Origin", Width: originWidth},
		{Title: "Name", Width: rest - originWidth},
		{Title: "Sum", Width: sumWidth},
	}
}

// Init initializes the data tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// SortField returns the active sort column.
func (m *Model) SortField() models.SortField {
	return m.sortField
}

// SortOrder returns the active sort direction.
func (m *Model) SortOrder() models.SortOrder {
	return m.sortOrder
}

// Records returns the rows in display order.
func (m *Model) Records() []models.UsageRecord {
	m.refresh()
	return m.records
}

// Update handles messages for the data tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	m.refresh()

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Sort):
		m.sortField = m.sortField.Next()
		m.dirty = true
		m.refresh()
		m.table.GotoTop()

	case key.Matches(keyMsg, m.keys.Order):
		m.sortOrder = m.sortOrder.Toggle()
		m.dirty = true
		m.refresh()
		m.table.GotoTop()

	case key.Matches(keyMsg, m.keys.ExportCSV):
		return m, m.exportCmd(export.FormatCSV)

	case key.Matches(keyMsg, m.keys.ExportSQLite):
		return m, m.exportCmd(export.FormatSQLite)

	case key.Matches(keyMsg, m.keys.ShowFlag):
		if row := m.table.Cursor(); row >= 0 && row < len(m.records) {
			name := m.records[row].Name
			return m, func() tea.Msg {
				return app.ShowFlagMsg{Name: name}
			}
		}

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(keyMsg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) exportCmd(format export.Format) tea.Cmd {
	records := make([]models.UsageRecord, len(m.records))
	copy(records, m.records)
	return func() tea.Msg {
		return app.ExportMsg{Format: format, Records: records}
	}
}

// refresh rebuilds the rows after the view or the sort changed.
func (m *Model) refresh() {
	rev := m.state.Revision()
	if rev == m.revision && !m.dirty {
		return
	}
	m.revision = rev
	m.dirty = false

	m.records = m.state.View().Sorted(m.sortField, m.sortOrder)

	rows := make([]table.Row, len(m.records))
	for i, r := range m.records {
		rows[i] = table.Row{r.Origin, r.Name, components.FormatCalls(r.Sum)}
	}
	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.GotoTop()
	}
}

// SetSize sets the available size for the data tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width - 6))
	m.table.SetWidth(max(width-6, 40))
	m.table.SetHeight(max(height-6, 3))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Sort,
		m.keys.Order,
		m.keys.ExportCSV,
		m.keys.ExportSQLite,
		m.keys.ShowFlag,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Sort, m.keys.Order},
		{m.keys.ExportCSV, m.keys.ExportSQLite},
		{m.keys.ShowFlag},
	}
}
