// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/ui/styles"
)

// maxBarLabel caps label width so long flag names do not eat the bars.
const maxBarLabel = 32

// Bar is one labelled value in a bar chart.
type Bar struct {
	Label string
	Value float64
}

// CumulativeShare sorts values in descending order and returns the running
// total of each position as a percentage of the grand total. It returns nil
// when the total is not positive.
func CumulativeShare(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	total := 0.0
	for _, v := range sorted {
		total += v
	}
	if total <= 0 {
		return nil
	}

	out := make([]float64, len(sorted))
	running := 0.0
	for i, v := range sorted {
		running += v
		out[i] = running / total * 100
	}
	return out
}

// RenderCumulativeChart plots how many records account for how much of the
// total call volume.
func RenderCumulativeChart(values []float64, width, height int) string {
	share := CumulativeShare(values)
	if len(share) == 0 {
		return styles.HelpStyle.Render("No data available")
	}
	if len(share) == 1 {
		// asciigraph needs two points to draw a line
		share = append([]float64{share[0]}, share[0])
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	caption := fmt.Sprintf("cumulative %% of calls over %s records (largest first)", FormatCount(len(values)))
	return asciigraph.Plot(share,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Precision(0),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Blue),
	)
}

// RenderBarChart creates a simple horizontal bar chart. Bars are scaled to
// the largest value; non-positive values render without a bar.
func RenderBarChart(bars []Bar, width int, color lipgloss.Color) string {
	if len(bars) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	// Find max value for scaling
	maxVal := 0.0
	for _, b := range bars {
		if b.Value > maxVal {
			maxVal = b.Value
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	labels := make([]string, len(bars))
	values := make([]string, len(bars))
	maxLabelLen := 0
	maxValueLen := 0
	for i, b := range bars {
		labels[i] = ansi.Truncate(b.Label, maxBarLabel, "…")
		values[i] = FormatCalls(b.Value)
		maxLabelLen = max(maxLabelLen, lipgloss.Width(labels[i]))
		maxValueLen = max(maxValueLen, len(values[i]))
	}

	barWidth := width - maxLabelLen - maxValueLen - 4 // label, separator and value
	if barWidth < 10 {
		barWidth = 10
	}

	barStyle := lipgloss.NewStyle().Foreground(color)
	labelStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(maxLabelLen).Align(lipgloss.Right)

	lines := make([]string, 0, len(bars))
	for i, b := range bars {
		barLen := int((b.Value / maxVal) * float64(barWidth))
		if barLen < 0 {
			barLen = 0
		}

		bar := barStyle.Render(strings.Repeat("█", barLen))
		lines = append(lines, labelStyle.Render(labels[i])+" │"+bar+" "+values[i])
	}

	return strings.Join(lines, "\n")
}

// RankedBars converts label/value pairs produced by fn into bars.
func RankedBars[T any](items []T, fn func(T) (string, float64)) []Bar {
	bars := make([]Bar, 0, len(items))
	for _, item := range items {
		label, value := fn(item)
		bars = append(bars, Bar{Label: label, Value: value})
	}
	return bars
}
