package report

import (
	"math"

	"github.com/tinytelemetry/cachebench/internal/model"
)

// RenderBar scales value against peak onto at most width glyphs.
// Any positive value is drawn at least one glyph wide.
func RenderBar(value, peak float64, width int, glyph string) model.ChartBar {
	bar := model.ChartBar{Glyph: glyph}
	if peak <= 0 || width <= 0 || value <= 0 {
		return bar
	}

	n := int(math.Floor(value / peak * float64(width)))
	n = min(max(n, 0), width)
	if n == 0 {
		n = 1
	}
	bar.Width = n
	return bar
}
