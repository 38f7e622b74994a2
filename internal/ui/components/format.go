package components

import (
	"math"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// FormatCalls renders a call count with thousands separators. Whole numbers
// print without decimals, others with up to two.
func FormatCalls(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return humanize.Comma(int64(v))
	}
	return humanize.CommafWithDigits(v, 2)
}

// FormatCount renders an integer count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatPercent renders part as a percentage of total.
func FormatPercent(part, total float64) string {
	if total == 0 {
		return "-"
	}
	return humanize.FtoaWithDigits(part/total*100, 1) + "%"
}

// Truncate shortens s to width cells, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
