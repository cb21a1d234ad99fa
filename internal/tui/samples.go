package tui

import (
	"fmt"
	"strings"

	"github.com/tinytelemetry/cachebench/internal/report"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const samplesPageID = "samples"

// SamplesPage lists the raw value of every tracked metric from the latest round.
type SamplesPage struct {
	session *Session
	keys    KeyMap
}

// NewSamplesPage creates the samples page.
func NewSamplesPage(s *Session, keys KeyMap) *SamplesPage {
	return &SamplesPage{session: s, keys: keys}
}

func (p *SamplesPage) ID() string    { return samplesPageID }
func (p *SamplesPage) Init() tea.Cmd { return nil }

func (p *SamplesPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, p.keys.NextPage) {
		return nil, &PageNav{PageID: comparisonPageID}
	}
	return nil, nil
}

func (p *SamplesPage) View(width, height int) string {
	s := p.session
	if s.Rounds == 0 {
		return renderLoadingPlaceholder(width, height)
	}
	if len(s.Samples) == 0 {
		return helpStyle.Render("No metrics tracked")
	}

	labelWidth := len("METRIC")
	for _, sample := range s.Samples {
		labelWidth = max(labelWidth, lipgloss.Width(sample.Label))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s  %14s  %-11s  %s", labelWidth, "METRIC", "TOTAL_TIME", "STATUS", "ENDPOINT")))
	b.WriteByte('\n')
	for _, sample := range s.Samples {
		status := "ok"
		if !sample.Present {
			status = "unavailable"
		}
		fmt.Fprintf(&b, "%-*s  %13ss  %-11s  %s\n", labelWidth, sample.Label, report.FormatValue(sample.TotalTime), status, sample.Endpoint)
	}
	return sectionStyle.Width(max(width-2, 0)).Render(strings.TrimRight(b.String(), "\n"))
}
