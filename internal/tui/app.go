package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/tinytelemetry/cachebench/internal/report"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
)

// App is the top-level Bubble Tea model. It owns the refresh loop and routes
// everything else to the active page.
type App struct {
	session    *Session
	keys       KeyMap
	help       help.Model
	pages      map[string]Page
	activePage string
	width      int
	height     int
}

// NewApp creates the dashboard with its comparisons and samples pages.
func NewApp(c Collector, r *report.Reporter, opts Options) *App {
	s := NewSession(c, opts)
	keys := DefaultKeyMap()
	return newApp(s, keys, NewComparisonPage(s, r, keys), NewSamplesPage(s, keys))
}

// newApp wires pages together. The first page is the default.
func newApp(s *Session, keys KeyMap, pages ...Page) *App {
	pageMap := make(map[string]Page, len(pages))
	var firstID string
	for i, p := range pages {
		pageMap[p.ID()] = p
		if i == 0 {
			firstID = p.ID()
		}
	}
	return &App{
		session:    s,
		keys:       keys,
		help:       help.New(),
		pages:      pageMap,
		activePage: firstID,
		width:      defaultWidth,
		height:     defaultHeight,
	}
}

// Session exposes the collection state, mainly for tests.
func (a *App) Session() *Session {
	return a.session
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.session.begin(), spinnerTick(), a.session.tick()}
	if p, ok := a.pages[a.activePage]; ok {
		cmds = append(cmds, p.Init())
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit, a.keys.ForceQuit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Help):
			a.help.ShowAll = !a.help.ShowAll
			return a, nil
		case key.Matches(msg, a.keys.Pause):
			a.session.Paused = !a.session.Paused
			return a, nil
		case key.Matches(msg, a.keys.Refresh):
			return a, a.startRound()
		}

	case tickMsg:
		cmds := []tea.Cmd{a.session.tick()}
		if !a.session.Paused {
			cmds = append(cmds, a.startRound())
		}
		return a, tea.Batch(cmds...)

	case collectedMsg:
		a.session.finish(msg)
		return a, nil

	case SpinnerTickMsg:
		if a.session.InFlight {
			return a, spinnerTick()
		}
		return a, nil
	}

	p, ok := a.pages[a.activePage]
	if !ok {
		return a, nil
	}
	cmd, nav := p.Update(msg)
	if nav != nil {
		if _, exists := a.pages[nav.PageID]; exists {
			a.activePage = nav.PageID
			return a, tea.Batch(cmd, a.pages[a.activePage].Init())
		}
	}
	return a, cmd
}

// startRound begins a collection; a request made while one is already
// running is dropped.
func (a *App) startRound() tea.Cmd {
	cmd := a.session.begin()
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, spinnerTick())
}

func (a *App) View() string {
	header := a.renderHeader()
	footer := a.help.View(a.keys)
	bodyHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	body := "No active page"
	if p, ok := a.pages[a.activePage]; ok {
		body = p.View(a.width, bodyHeight)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (a *App) renderHeader() string {
	s := a.session
	parts := []string{fmt.Sprintf("every %s", s.Interval())}
	if !s.Updated.IsZero() {
		parts = append(parts, "updated "+s.Updated.Format(time.TimeOnly))
	}
	parts = append(parts, fmt.Sprintf("round %d", s.Rounds))
	if s.InFlight {
		parts = append(parts, "collecting")
	}

	line := headerStyle.Render("cachebench") + "  " + statusStyle.Render(strings.Join(parts, " | "))
	if s.Paused {
		line += "  " + pausedStyle.Render("PAUSED")
	}
	if s.Err != nil && len(s.Pairs) > 0 {
		line += "\n" + errorStyle.Render("Error: "+s.Err.Error())
	}
	return line
}
