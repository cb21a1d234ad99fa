package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorBlue  = lipgloss.Color("39")
	ColorGray  = lipgloss.Color("240")
	ColorRed   = lipgloss.Color("196")
	ColorAmber = lipgloss.Color("214")
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)
	statusStyle = lipgloss.NewStyle().Foreground(ColorGray)
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAmber)
	errorStyle  = lipgloss.NewStyle().Foreground(ColorRed)
	helpStyle   = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)
)
