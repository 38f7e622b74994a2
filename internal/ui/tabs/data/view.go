package data

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/styles"
)

// View renders the data tab.
func (m *Model) View() string {
	m.refresh()

	title := styles.TitleStyle.Render("Raw Data")
	status := styles.HelpStyle.Render(fmt.Sprintf("%s rows, sorted by %s (%s)",
		components.FormatCount(len(m.records)), m.sortField, m.sortOrder))

	var body string
	if len(m.records) == 0 {
		body = styles.HelpStyle.Render("No records match the current filter")
	} else {
		body = m.table.View()
	}

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, status, "", body))
}
