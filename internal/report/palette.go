package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	ruleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var namedColors = map[string]string{
	"black":   "0",
	"red":     "9",
	"green":   "10",
	"yellow":  "11",
	"blue":    "12",
	"magenta": "13",
	"cyan":    "14",
	"white":   "15",
	"gray":    "8",
	"grey":    "8",
	"orange":  "214",
}

// Color resolves a colour token. Names like "red" map to ANSI colours;
// anything else ("214", "#FF4444") is passed to lipgloss as-is.
func Color(token string) lipgloss.Color {
	t := strings.ToLower(strings.TrimSpace(token))
	if c, ok := namedColors[t]; ok {
		return lipgloss.Color(c)
	}
	return lipgloss.Color(strings.TrimSpace(token))
}
