package tui

import (
	"strings"

	"github.com/tinytelemetry/cachebench/internal/model"
	"github.com/tinytelemetry/cachebench/internal/report"
	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	comparisonPageID = "comparisons"
	chartWidth       = 22
	chartHeight      = 7
)

// ComparisonPage shows one panel per configured pair: a bar chart of the two
// samples next to the textual report.
type ComparisonPage struct {
	session  *Session
	reporter *report.Reporter
	keys     KeyMap
	noColor  bool
	viewport viewport.Model
}

// NewComparisonPage creates the comparisons page.
func NewComparisonPage(s *Session, r *report.Reporter, keys KeyMap) *ComparisonPage {
	return &ComparisonPage{
		session:  s,
		reporter: r,
		keys:     keys,
		noColor:  s.opts.NoColor,
		viewport: viewport.New(80, 20),
	}
}

func (p *ComparisonPage) ID() string    { return comparisonPageID }
func (p *ComparisonPage) Init() tea.Cmd { return nil }

func (p *ComparisonPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, p.keys.NextPage):
			return nil, &PageNav{PageID: samplesPageID}
		case key.Matches(km, p.keys.Up):
			p.viewport.ScrollUp(1)
			return nil, nil
		case key.Matches(km, p.keys.Down):
			p.viewport.ScrollDown(1)
			return nil, nil
		}
	}
	return nil, nil
}

func (p *ComparisonPage) View(width, height int) string {
	s := p.session
	if s.Rounds == 0 {
		return renderLoadingPlaceholder(width, height)
	}
	if len(s.Pairs) == 0 {
		if s.Err != nil {
			return errorStyle.Render("Error: " + s.Err.Error())
		}
		return helpStyle.Render("No comparisons configured")
	}

	panels := make([]string, 0, len(s.Pairs))
	for _, pair := range s.Pairs {
		panels = append(panels, p.renderPair(pair, width))
	}

	p.viewport.Width = width
	p.viewport.Height = height
	p.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, panels...))
	return p.viewport.View()
}

func (p *ComparisonPage) renderPair(pair model.ComparisonPair, width int) string {
	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(2),
		barchart.WithBarWidth(8),
	)
	bc.Push(p.bar(pair.Left, pair.LeftColor))
	bc.Push(p.bar(pair.Right, pair.RightColor))
	bc.Draw()

	text := strings.TrimRight(p.reporter.Report(pair), "\n")
	body := lipgloss.JoinHorizontal(lipgloss.Top, bc.View(), "  ", text)
	return sectionStyle.Width(max(width-2, 0)).Render(body)
}

func (p *ComparisonPage) bar(s model.MetricSample, color string) barchart.BarData {
	style := lipgloss.NewStyle()
	if !p.noColor {
		c := report.Color(color)
		style = style.Foreground(c).Background(c)
	}
	label := s.Label
	if r := []rune(label); len(r) > 8 {
		label = string(r[:8])
	}
	return barchart.BarData{
		Label: label,
		Values: []barchart.BarValue{
			{Name: s.Label, Value: s.TotalTime, Style: style},
		},
	}
}
