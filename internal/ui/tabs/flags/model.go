// Package flags provides the flags tab: flag search with per-origin
// detail, and the flags shared across origins when no search is active.
package flags

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/app"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/components"
)

const (
	// sharedMinOrigins is the origin count from which a flag counts as shared.
	sharedMinOrigins = 2
	// sharedLimit caps the shared flag list.
	sharedLimit = 20
)

// keyMap defines the key bindings specific to the flags tab.
type keyMap struct {
	Search key.Binding
	Clear  key.Binding
	Up     key.Binding
	Down   key.Binding
}

// defaultKeyMap returns the default key bindings for the flags tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Search: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "search flags"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear search"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev match"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next match"),
		),
	}
}

// Model represents the flags tab state.
type Model struct {
	state    *app.State
	keys     keyMap
	input    textinput.Model
	viewport viewport.Model
	shareBar components.ShareBar
	width    int
	height   int

	// searching is true while the search input has focus.
	searching bool
	// query is the search applied to the current view.
	query string
	// before restores query when a search edit is cancelled.
	before string

	matches  []models.FlagMatch
	selected int
	revision int
}

// New creates a new flags model.
func New(state *app.State) *Model {
	ti := textinput.New()
	ti.Prompt = "search: "
	ti.Placeholder = "flag name"
	ti.CharLimit = 128

	return &Model{
		state:    state,
		keys:     defaultKeyMap(),
		input:    ti,
		viewport: viewport.New(0, 0),
		shareBar: components.NewShareBar(),
		revision: -1,
	}
}

// Init initializes the flags tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// CapturingInput reports whether the search input has focus.
func (m *Model) CapturingInput() bool {
	return m.searching
}

// Query returns the active search.
func (m *Model) Query() string {
	return m.query
}

// Matches returns the flags matching the active search.
func (m *Model) Matches() []models.FlagMatch {
	m.refresh()
	return m.matches
}

// Selected returns the match under the cursor.
func (m *Model) Selected() (models.FlagMatch, bool) {
	m.refresh()
	if m.selected < 0 || m.selected >= len(m.matches) {
		return models.FlagMatch{}, false
	}
	return m.matches[m.selected], true
}

// Update handles messages for the flags tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case app.ShowFlagMsg:
		m.setQuery(msg.Name)
		m.selectName(msg.Name)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m, m.handleSearchKey(msg)
		}
		return m, m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	m.refresh()
	count := len(m.matches)

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.before = m.query
		m.input.SetValue(m.query)
		m.input.CursorEnd()
		return m.input.Focus()

	case key.Matches(msg, m.keys.Clear):
		m.setQuery("")

	case key.Matches(msg, m.keys.Down):
		if count > 0 {
			m.selected = (m.selected + 1) % count
			m.viewport.GotoTop()
		}

	case key.Matches(msg, m.keys.Up):
		if count > 0 {
			m.selected = (m.selected - 1 + count) % count
			m.viewport.GotoTop()
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	return nil
}

// handleSearchKey edits the search. Results follow every keystroke;
// esc restores the previous search.
func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.input.Blur()
		return nil

	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		m.setQuery(m.before)
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.setQuery(strings.TrimSpace(m.input.Value()))
	return cmd
}

func (m *Model) setQuery(query string) {
	if !m.searching {
		m.input.SetValue(query)
	}
	if query == m.query && m.revision == m.state.Revision() {
		return
	}
	m.query = query
	m.matches = nil
	m.selected = 0
	m.revision = -1
	m.viewport.GotoTop()
	m.refresh()
}

// selectName moves the cursor to the exact match for name, if present.
func (m *Model) selectName(name string) {
	for i, match := range m.matches {
		if match.Name == name {
			m.selected = i
			return
		}
	}
}

// refresh recomputes matches when the query or the state view changed.
func (m *Model) refresh() {
	rev := m.state.Revision()
	if rev == m.revision {
		return
	}
	m.revision = rev

	current := ""
	if m.selected >= 0 && m.selected < len(m.matches) {
		current = m.matches[m.selected].Name
	}

	m.matches = m.state.View().FlagMatches(m.query)
	m.selected = 0
	if current != "" {
		m.selectName(current)
	}
}

// SetSize sets the available size for the flags tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-3, 3)
	m.input.Width = max(width-20, 10)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Search,
		m.keys.Clear,
		m.keys.Down,
		m.keys.Up,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Search, m.keys.Clear},
		{m.keys.Down, m.keys.Up},
	}
}
