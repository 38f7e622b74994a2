package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/styles"
)

const (
	shareLowColor  = "#51cf66"
	shareHighColor = "#ff6b6b"
)

// ShareBar renders the part of total calls owned by one origin or flag.
type ShareBar struct {
	progress progress.Model
}

// NewShareBar creates a share bar with a green to red gradient.
func NewShareBar() ShareBar {
	p := progress.New(
		progress.WithScaledGradient(shareLowColor, shareHighColor),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return ShareBar{progress: p}
}

// View renders the bar with a label and the percentage. percent is clamped
// to 0..100.
func (s ShareBar) View(percent float64, label string, width int) string {
	percent = clampPercent(percent)

	barWidth := width - 24 // Reserve space for label and percentage
	if barWidth < 10 {
		barWidth = 10
	}
	s.progress.Width = barWidth

	bar := s.progress.ViewAs(percent / 100)

	percentStr := styles.GetShareStyle(percent).
		Width(7).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.1f%%", percent))

	labelStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(15).
		Render(Truncate(label, 14))

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, bar, " ", percentStr)
}

// RenderGradientBar renders a bar of plain block characters, for places
// where a progress model is too heavy (table cells, list rows).
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * clampPercent(percent) / 100)

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(shareLowColor, shareHighColor, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

// RenderShareList renders one row per bar: the label, a gradient bar and
// the bar's percentage of total.
func RenderShareList(bars []Bar, total float64, width int) string {
	if len(bars) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	labels := make([]string, len(bars))
	labelWidth := 0
	for i, b := range bars {
		labels[i] = Truncate(b.Label, maxBarLabel)
		labelWidth = max(labelWidth, lipgloss.Width(labels[i]))
	}
	barWidth := max(width-labelWidth-10, 10)

	labelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(labelWidth)
	percentStyle := lipgloss.NewStyle().Width(7).Align(lipgloss.Right)

	lines := make([]string, 0, len(bars))
	for i, b := range bars {
		percent := 0.0
		if total > 0 {
			percent = b.Value / total * 100
		}
		lines = append(lines, labelStyle.Render(labels[i])+" "+
			RenderGradientBar(percent, barWidth)+" "+
			percentStyle.Render(FormatPercent(b.Value, total)))
	}
	return strings.Join(lines, "\n")
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
