// Package origins provides the origins tab: a per-origin breakdown with
// a toggle into the global origin filter.
package origins

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/app"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
)

// originFlagLimit is the number of flags charted for the selected origin.
const originFlagLimit = 30

// keyMap defines the key bindings specific to the origins tab.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	First  key.Binding
	Last   key.Binding
	Toggle key.Binding
}

// defaultKeyMap returns the default key bindings for the origins tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev origin"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next origin"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first origin"),
		),
		Last: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last origin"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle origin filter"),
		),
	}
}

// Model represents the origins tab state.
type Model struct {
	state    *app.State
	shareBar components.ShareBar
	keys     keyMap
	detail   viewport.Model
	width    int
	height   int

	// origins is the sorted origin list of the unfiltered session,
	// rebuilt when the state revision changes.
	origins  []string
	revision int
	selected int

	// scope is the session narrowed by the name query only, so the detail
	// pane ignores the origin part of the filter.
	scope *usage.Aggregator
}

// New creates a new origins model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		shareBar: components.NewShareBar(),
		keys:     defaultKeyMap(),
		detail:   viewport.New(0, 0),
		revision: -1,
	}
}

// Init initializes the origins tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the origins tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	m.refresh()

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	count := len(m.origins)
	if count == 0 {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		m.selected = (m.selected + 1) % count
	case key.Matches(keyMsg, m.keys.Up):
		m.selected = (m.selected - 1 + count) % count
	case key.Matches(keyMsg, m.keys.First):
		m.selected = 0
	case key.Matches(keyMsg, m.keys.Last):
		m.selected = count - 1
	case key.Matches(keyMsg, m.keys.Toggle):
		return m, m.toggleSelected()
	default:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(keyMsg)
		return m, cmd
	}

	m.detail.GotoTop()

	return m, nil
}

// toggleSelected flips the selected origin in the global filter.
func (m *Model) toggleSelected() tea.Cmd {
	origin := m.SelectedOrigin()
	if origin == "" {
		return nil
	}
	filter := m.state.ToggleOrigin(origin)
	return func() tea.Msg {
		return app.FilterChangedMsg{Filter: filter}
	}
}

// refresh rebuilds the origin list after the session changed.
func (m *Model) refresh() {
	rev := m.state.Revision()
	if rev == m.revision {
		return
	}
	m.revision = rev

	current := m.SelectedOrigin()
	all := m.state.All()
	m.origins = all.Origins()
	m.scope = all.Filter(models.FilterCriteria{NameQuery: m.state.GetFilter().NameQuery})

	m.selected = 0
	for i, o := range m.origins {
		if o == current {
			m.selected = i
			break
		}
	}
}

// SelectedOrigin returns the origin under the cursor, or "" when the
// session has none.
func (m *Model) SelectedOrigin() string {
	if m.selected < 0 || m.selected >= len(m.origins) {
		return ""
	}
	return m.origins[m.selected]
}

// SetSize sets the available size for the origins tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.detail.Width = max(width-listWidth-10, 30)
	m.detail.Height = max(height-2, 5)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Down,
		m.keys.Up,
		m.keys.Toggle,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Down, m.keys.Up},
		{m.keys.First, m.keys.Last},
		{m.keys.Toggle},
	}
}
