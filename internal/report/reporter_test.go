package report

import (
	"strings"
	"testing"

	"github.com/tinytelemetry/cachebench/internal/model"
)

func pair(left, right float64) model.ComparisonPair {
	return model.ComparisonPair{
		Title:      "Lookup by id",
		Left:       model.MetricSample{Label: "db", TotalTime: left, Present: true},
		Right:      model.MetricSample{Label: "grid", TotalTime: right, Present: true},
		LeftColor:  "red",
		RightColor: "green",
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		name        string
		left, right float64
		want        string
	}{
		{"slower", 1.0, 1.5, "50.00% slower (db vs grid)"},
		{"faster", 1.5, 1.0, "33.33% faster (db vs grid)"},
		{"equal", 2, 2, "no change (db vs grid)"},
		{"zero baseline", 0, 3, "no change (db vs grid)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verdict(pair(tt.left, tt.right)); got != tt.want {
				t.Errorf("Verdict = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReport_Layout(t *testing.T) {
	r := NewReporter(Config{ChartWidth: 40, Glyph: "#", NoColor: true})
	out := r.Report(pair(0.02, 0.0004))

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("report has %d lines, want 7:\n%s", len(lines), out)
	}
	if lines[0] != "Lookup by id" {
		t.Errorf("title line = %q", lines[0])
	}
	if strings.Trim(lines[1], "─") != "" {
		t.Errorf("rule line = %q", lines[1])
	}
	if lines[2] != "Peak: 0.020000s" {
		t.Errorf("peak line = %q", lines[2])
	}
	if got := strings.Count(lines[3], "#"); got != 40 {
		t.Errorf("left bar = %d glyphs, want 40", got)
	}
	if got := strings.Count(lines[4], "#"); got != 1 {
		t.Errorf("right bar = %d glyphs, want 1", got)
	}
	if !strings.HasPrefix(lines[3], "db   ") {
		t.Errorf("left label not padded: %q", lines[3])
	}
	if !strings.HasSuffix(lines[3], " 0.020000s") || !strings.HasSuffix(lines[4], " 0.000400000s") {
		t.Errorf("value columns wrong:\n%s\n%s", lines[3], lines[4])
	}
	if lines[5] != "" {
		t.Errorf("expected blank line before verdict, got %q", lines[5])
	}
	if lines[6] != "98.00% faster (db vs grid)" {
		t.Errorf("verdict = %q", lines[6])
	}
}

func TestReport_ValuesAligned(t *testing.T) {
	r := NewReporter(Config{ChartWidth: 20, Glyph: "#", NoColor: true})
	out := r.Report(pair(1, 0.25))
	lines := strings.Split(out, "\n")

	if strings.LastIndex(lines[3], " ") != strings.LastIndex(lines[4], " ") {
		t.Errorf("value columns not aligned:\n%s\n%s", lines[3], lines[4])
	}
}

func TestReport_ZeroPeak(t *testing.T) {
	r := NewReporter(Config{NoColor: true, Glyph: "#"})
	out := r.Report(pair(0, 0))
	if strings.Contains(out, "#") {
		t.Errorf("zero peak should draw no bars:\n%s", out)
	}
	if !strings.Contains(out, "Peak: 0.000000000s") {
		t.Errorf("missing zero peak line:\n%s", out)
	}
}

func TestNewReporter_Defaults(t *testing.T) {
	r := NewReporter(Config{})
	if r.ChartWidth() != model.DefaultChartWidth {
		t.Errorf("ChartWidth = %d, want %d", r.ChartWidth(), model.DefaultChartWidth)
	}
	if r.glyph != model.DefaultBarGlyph {
		t.Errorf("glyph = %q, want %q", r.glyph, model.DefaultBarGlyph)
	}
}

func TestColor(t *testing.T) {
	if got := Color("Red"); got != "9" {
		t.Errorf("Color(Red) = %q, want 9", got)
	}
	if got := Color("#FF4444"); got != "#FF4444" {
		t.Errorf("Color(#FF4444) = %q", got)
	}
	if got := Color(" 214 "); got != "214" {
		t.Errorf("Color(214) = %q", got)
	}
}
