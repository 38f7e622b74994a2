package flags

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/styles"
)

// View renders the flags tab.
func (m *Model) View() string {
	m.refresh()

	var sections []string
	if m.query == "" {
		sections = append(sections, m.renderShared())
	} else {
		sections = append(sections, m.renderMatches())
		if match, ok := m.Selected(); ok {
			sections = append(sections, m.renderDetail(match.Name))
		}
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			m.renderSearchLine(),
			"",
			m.viewport.View(),
		))
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) renderSearchLine() string {
	if m.searching {
		return m.input.View()
	}
	if m.query == "" {
		return styles.HelpStyle.Render("press f to search flags")
	}
	return styles.HelpStyle.Render("search: ") + styles.FilterActiveStyle.Render(m.query) +
		styles.HelpStyle.Render("  (c to clear)")
}

// renderShared lists the flags used by more than one origin.
func (m *Model) renderShared() string {
	shared := m.state.View().SharedFlags(sharedMinOrigins)

	rows := []string{
		styles.CardTitleStyle.Render(fmt.Sprintf("Flags shared by %d+ origins", sharedMinOrigins)),
		"",
	}

	if len(shared) == 0 {
		rows = append(rows, styles.HelpStyle.Render("No flag is used by more than one origin"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	nameWidth := max(m.cardWidth()-36, 16)
	rows = append(rows, styles.TableHeaderStyle.Render(
		fmt.Sprintf("%-*s %8s %14s", nameWidth, "FLAG", "ORIGINS", "CALLS"),
	))

	limit := min(len(shared), sharedLimit)
	for _, f := range shared[:limit] {
		rows = append(rows, fmt.Sprintf("%-*s %8s %14s",
			nameWidth, components.Truncate(f.Name, nameWidth),
			components.FormatCount(f.DistinctOriginCount),
			components.FormatCalls(f.TotalCalls),
		))
	}
	if len(shared) > limit {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("… %d more", len(shared)-limit)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderMatches lists the flags matching the search.
func (m *Model) renderMatches() string {
	rows := []string{
		styles.CardTitleStyle.Render(fmt.Sprintf("Matches (%s)", components.FormatCount(len(m.matches)))),
		"",
	}

	if len(m.matches) == 0 {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("No flag name contains %q", m.query)))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	nameWidth := max(m.cardWidth()-36, 16)
	visible := max(m.height/3, 5)
	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	end := min(start+visible, len(m.matches))

	for i := start; i < end; i++ {
		match := m.matches[i]
		line := fmt.Sprintf("%-*s %14s  %s origins",
			nameWidth, components.Truncate(match.Name, nameWidth),
			components.FormatCalls(match.TotalCalls),
			components.FormatCount(match.OriginCount),
		)
		if i == m.selected {
			rows = append(rows, styles.FocusedStyle.Render("▸ ")+styles.SelectedListItemStyle.Render(line))
		} else {
			rows = append(rows, "  "+styles.ListItemStyle.Render(line))
		}
	}
	if end < len(m.matches) {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  … %d more", len(m.matches)-end)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderDetail breaks the selected flag down by origin.
func (m *Model) renderDetail(name string) string {
	view := m.state.View()
	detail := view.FlagDetail(name)

	rows := []string{
		lipgloss.NewStyle().Bold(true).Foreground(styles.FlagColor).Render(name),
		"",
		renderRow("Origins", components.FormatCount(detail.TotalOriginCount)),
		renderRow("Total calls", components.FormatCalls(detail.TotalCalls)),
		"",
	}

	total := view.Metrics().TotalCalls
	share := 0.0
	if total > 0 {
		share = detail.TotalCalls / total * 100
	}
	rows = append(rows,
		m.shareBar.View(share, "share of calls", m.cardWidth()-6),
		"",
		styles.CardTitleStyle.Render("Calls by origin"),
		"",
		components.RenderBarChart(perOriginBars(detail), m.cardWidth()-6, styles.OriginColor),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// perOriginBars orders a flag's per-origin totals by calls desc, origin asc.
func perOriginBars(detail models.FlagDetail) []components.Bar {
	bars := make([]components.Bar, 0, len(detail.PerOrigin))
	for origin, calls := range detail.PerOrigin {
		bars = append(bars, components.Bar{Label: origin, Value: calls})
	}
	slices.SortFunc(bars, func(a, b components.Bar) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return bars
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(14).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}
