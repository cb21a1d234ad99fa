package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/tinytelemetry/cachebench/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Config controls report rendering.
type Config struct {
	ChartWidth int
	Glyph      string
	NoColor    bool
}

// Reporter renders comparison blocks. It holds no state between reports.
type Reporter struct {
	width   int
	glyph   string
	noColor bool
}

// NewReporter creates a reporter, filling unset fields with defaults.
func NewReporter(cfg Config) *Reporter {
	if cfg.ChartWidth <= 0 {
		cfg.ChartWidth = model.DefaultChartWidth
	}
	if cfg.Glyph == "" {
		cfg.Glyph = model.DefaultBarGlyph
	}
	return &Reporter{width: cfg.ChartWidth, glyph: cfg.Glyph, noColor: cfg.NoColor}
}

// ChartWidth returns the width shared by every bar this reporter draws.
func (r *Reporter) ChartWidth() int {
	return r.width
}

// Report renders one comparison block:
//
//	title
//	rule
//	Peak: <value>s
//	<left>  <bar> <value>s
//	<right> <bar> <value>s
//
//	<verdict>
func (r *Reporter) Report(pair model.ComparisonPair) string {
	peak := pair.Peak()
	labelWidth := max(lipgloss.Width(pair.Left.Label), lipgloss.Width(pair.Right.Label))

	var b strings.Builder
	b.WriteString(r.style(titleStyle).Render(pair.Title))
	b.WriteByte('\n')
	b.WriteString(r.style(ruleStyle).Render(strings.Repeat("─", labelWidth+r.width+16)))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Peak: %ss\n", FormatValue(peak))
	r.writeSide(&b, pair.Left, pair.LeftColor, peak, labelWidth)
	r.writeSide(&b, pair.Right, pair.RightColor, peak, labelWidth)
	b.WriteByte('\n')
	b.WriteString(Verdict(pair))
	b.WriteByte('\n')
	return b.String()
}

func (r *Reporter) writeSide(b *strings.Builder, s model.MetricSample, color string, peak float64, labelWidth int) {
	bar := RenderBar(s.TotalTime, peak, r.width, r.glyph)
	label := s.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(s.Label))
	pad := strings.Repeat(" ", r.width-bar.Width)
	fmt.Fprintf(b, "%s %s%s %ss\n", label, r.barStyle(color).Render(bar.String()), pad, FormatValue(s.TotalTime))
}

// Verdict states how the right side compares with the left side, e.g.
// "50.00% slower (db vs grid)". Percentages are always shown unsigned.
func Verdict(pair model.ComparisonPair) string {
	change := PercentChange(pair.Left.TotalTime, pair.Right.TotalTime)
	subject := fmt.Sprintf("(%s vs %s)", pair.Left.Label, pair.Right.Label)
	switch {
	case change > 0:
		return fmt.Sprintf("%.2f%% slower %s", change, subject)
	case change < 0:
		return fmt.Sprintf("%.2f%% faster %s", math.Abs(change), subject)
	default:
		return "no change " + subject
	}
}

func (r *Reporter) style(s lipgloss.Style) lipgloss.Style {
	if r.noColor {
		return lipgloss.NewStyle()
	}
	return s
}

func (r *Reporter) barStyle(token string) lipgloss.Style {
	if r.noColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(Color(token))
}
