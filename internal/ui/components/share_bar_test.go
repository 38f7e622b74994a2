package components

import (
	"strings"
	"testing"
)

func TestShareBar_View(t *testing.T) {
	bar := NewShareBar()
	view := bar.View(55.5, "svc-a", 60)
	if !strings.Contains(view, "55.5%") {
		t.Errorf("View() should contain percentage: %q", view)
	}
	if !strings.Contains(view, "svc-a") {
		t.Error("View() should contain label")
	}
}

func TestShareBar_ViewClamps(t *testing.T) {
	bar := NewShareBar()
	if view := bar.View(250, "x", 40); !strings.Contains(view, "100.0%") {
		t.Errorf("percent above 100 should clamp: %q", view)
	}
	if view := bar.View(-5, "x", 40); !strings.Contains(view, "0.0%") {
		t.Errorf("negative percent should clamp: %q", view)
	}
}

func TestRenderShareList(t *testing.T) {
	bars := []Bar{{Label: "flagX", Value: 15}, {Label: "flagY", Value: 3}, {Label: "flagZ", Value: 0}}
	view := RenderShareList(bars, 20, 60)

	lines := strings.Split(view, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(lines))
	}
	for i, want := range []string{"75%", "15%", "0%"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("row %d = %q, want %s", i, lines[i], want)
		}
	}
	if !strings.Contains(lines[0], "flagX") || !strings.Contains(lines[0], "█") {
		t.Errorf("row 0 should carry the label and a filled bar: %q", lines[0])
	}

	if got := RenderShareList(bars, 0, 60); !strings.Contains(got, "-") {
		t.Errorf("zero total should render a dash: %q", got)
	}
	if got := RenderShareList(nil, 10, 60); !strings.Contains(got, "No data") {
		t.Errorf("empty list = %q", got)
	}
}

func TestRenderGradientBar(t *testing.T) {
	s := RenderGradientBar(50.0, 10)
	if strings.Count(s, "█") != 5 {
		t.Errorf("expected 5 filled cells, got %d", strings.Count(s, "█"))
	}
	if strings.Count(s, "░") != 5 {
		t.Errorf("expected 5 empty cells, got %d", strings.Count(s, "░"))
	}
	if RenderGradientBar(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestInterpolateColor(t *testing.T) {
	if got := interpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("t=0 = %s", got)
	}
	if got := interpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("t=1 = %s", got)
	}
	if got := hexToRGB("zz"); got != [3]int{0, 0, 0} {
		t.Errorf("invalid hex = %v", got)
	}
}
