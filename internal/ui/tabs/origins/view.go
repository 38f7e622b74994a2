package origins

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
)

// listWidth is the width of the origin list column.
const listWidth = 32

// View renders the origins tab.
func (m *Model) View() string {
	m.refresh()

	if len(m.origins) == 0 {
		return styles.DocStyle.Width(m.width).Height(m.height).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				styles.TitleStyle.Render("Origins"),
				styles.HelpStyle.Render("No origins in the loaded dataset"),
			),
		)
	}

	m.detail.SetContent(m.renderDetail())

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderList(),
		"  ",
		m.detail.View(),
	)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

// renderList renders the scrolling origin list with filter marks.
func (m *Model) renderList() string {
	filter := m.state.GetFilter()
	visible := max(m.height-8, 5)

	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	end := min(start+visible, len(m.origins))

	rows := []string{
		styles.CardTitleStyle.Render(fmt.Sprintf("Origins (%s)", components.FormatCount(len(m.origins)))),
		"",
	}

	for i := start; i < end; i++ {
		origin := m.origins[i]

		mark := "○ "
		if filter.HasOrigin(origin) {
			mark = styles.MarkedStyle.Render("● ")
		}

		name := components.Truncate(origin, listWidth-10)
		if i == m.selected {
			rows = append(rows, styles.FocusedStyle.Render("▸ ")+mark+styles.SelectedListItemStyle.Render(name))
		} else {
			rows = append(rows, "  "+mark+styles.ListItemStyle.Render(name))
		}
	}

	if end < len(m.origins) {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  … %d more", len(m.origins)-end)))
	}

	rows = append(rows, "", styles.HelpStyle.Render("space: toggle filter"))

	return styles.CardStyle.Width(listWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderDetail renders the summary and top flags of the selected origin,
// limited by the name part of the global filter.
func (m *Model) renderDetail() string {
	origin := m.SelectedOrigin()
	filter := m.state.GetFilter()
	scope := m.scope
	width := m.detail.Width

	header := lipgloss.NewStyle().Bold(true).Foreground(styles.OriginColor).Render(origin)
	if filter.HasOrigin(origin) {
		header += "  " + styles.MarkedStyle.Render("[in filter]")
	}

	rows := []string{header, ""}

	summary, err := scope.OriginSummary(origin)
	if errors.Is(err, usage.ErrDivisionUndefined) {
		rows = append(rows, styles.HelpStyle.Render("No records for this origin under the current name filter"))
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	rows = append(rows,
		renderRow("Records", components.FormatCount(summary.RecordCount)),
		renderRow("Total calls", components.FormatCalls(summary.TotalCalls)),
		renderRow("Mean calls", components.FormatCalls(summary.MeanCalls)),
		"",
	)

	total := scope.Metrics().TotalCalls
	share := 0.0
	if total > 0 {
		share = summary.TotalCalls / total * 100
	}
	rows = append(rows, m.shareBar.View(share, "share of calls", width), "")

	flags := scope.OriginFlags(origin, originFlagLimit)
	bars := components.RankedBars(flags, func(r models.UsageRecord) (string, float64) {
		return r.Name, r.Sum
	})
	rows = append(rows,
		styles.CardTitleStyle.Render(fmt.Sprintf("Top %d flags", originFlagLimit)),
		"",
		components.RenderBarChart(bars, width, styles.FlagColor),
	)

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(14).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}
