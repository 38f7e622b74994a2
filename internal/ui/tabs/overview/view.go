package overview

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/styles"
)

// View renders the overview tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())
	sections = append(sections, m.renderMetrics())

	if m.state.View().Len() == 0 {
		sections = append(sections, m.renderEmpty())
	} else {
		sections = append(sections, m.renderTopOrigins())
		sections = append(sections, m.renderTopFlags())
		sections = append(sections, m.renderFlagShare())
		sections = append(sections, m.renderDistribution())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

// renderTitle renders the overview title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Flag Usage Overview")

	subtitle := "No dataset loaded"
	if session := m.state.GetSession(); session != nil {
		subtitle = fmt.Sprintf("%s records from %s",
			components.FormatCount(m.state.All().Len()), filepath.Base(session.Source))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

// renderMetrics renders the headline numbers of the filtered view.
func (m *Model) renderMetrics() string {
	metrics := m.state.View().Metrics()

	cards := []string{
		renderMetricCard("Total records", components.FormatCount(metrics.TotalRecords)),
		renderMetricCard("Unique flags", components.FormatCount(metrics.UniqueFlagCount)),
		renderMetricCard("Unique origins", components.FormatCount(metrics.UniqueOriginCount)),
		renderMetricCard("Total calls", components.FormatCalls(metrics.TotalCalls)),
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
		"",
	)
}

func renderMetricCard(label, value string) string {
	return styles.MetricCardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.MetricValueStyle.Render(value),
		styles.MetricLabelStyle.Render(label),
	))
}

func (m *Model) renderEmpty() string {
	rows := []string{
		styles.CardTitleStyle.Render("No records"),
		"",
		styles.HelpStyle.Render("Nothing matches the current filter."),
		styles.InfoTextStyle.Render("  ╰─▶ Press x to clear filters"),
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderTopOrigins() string {
	top := m.state.View().TopByOrigin(m.topN)
	bars := components.RankedBars(top, rankedBar)
	return m.renderChartCard(
		fmt.Sprintf("Top %d origins by calls", m.topN),
		components.RenderBarChart(bars, m.cardWidth()-6, styles.OriginColor),
	)
}

func (m *Model) renderTopFlags() string {
	top := m.state.View().TopByName(m.topN)
	bars := components.RankedBars(top, rankedBar)
	return m.renderChartCard(
		fmt.Sprintf("Top %d flags by calls", m.topN),
		components.RenderBarChart(bars, m.cardWidth()-6, styles.FlagColor),
	)
}

// renderFlagShare lists the largest flags with their share of all calls
// in the view.
func (m *Model) renderFlagShare() string {
	view := m.state.View()
	top := view.TopByName(shareTopN)
	return m.renderChartCard(
		fmt.Sprintf("Top %d flags by share of calls", shareTopN),
		components.RenderShareList(components.RankedBars(top, rankedBar), view.Metrics().TotalCalls, m.cardWidth()-6),
	)
}

func rankedBar(e models.RankedEntry) (string, float64) {
	return e.Key, e.Total
}

// renderDistribution plots how concentrated call volume is across records.
func (m *Model) renderDistribution() string {
	records := m.state.View().Records()
	sums := make([]float64, len(records))
	for i, r := range records {
		sums[i] = r.Sum
	}

	return m.renderChartCard(
		"Call distribution",
		components.RenderCumulativeChart(sums, m.cardWidth()-14, 10),
	)
}

func (m *Model) renderChartCard(title, body string) string {
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render(title)),
		"",
		body,
	))
}
