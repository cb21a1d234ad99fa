package tui

import (
	"context"
	"time"

	"github.com/tinytelemetry/cachebench/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

// Collector produces one round of samples and the comparisons built from
// them. *pipeline.Pipeline satisfies it.
type Collector interface {
	Collect(ctx context.Context) []model.MetricSample
	Pairs(samples []model.MetricSample) ([]model.ComparisonPair, error)
}

// Options tune the refresh loop.
type Options struct {
	Interval time.Duration
	// Context ends collection when the program stops. Nil means Background.
	// Collection has no deadline of its own.
	Context context.Context
	// BeforeCollect runs at the start of every round, e.g. to drive traffic,
	// under its own BeforeTimeout deadline. Its error is shown but does not
	// stop the round.
	BeforeCollect func(ctx context.Context) error
	// BeforeTimeout bounds BeforeCollect. Zero means Interval.
	BeforeTimeout time.Duration
	NoColor       bool
}

type tickMsg struct{}

type collectedMsg struct {
	samples []model.MetricSample
	pairs   []model.ComparisonPair
	err     error
	at      time.Time
}

// Session holds the latest collection round. It is owned by the Bubble Tea
// update loop and is never touched from collection goroutines.
type Session struct {
	collector Collector
	opts      Options

	Samples []model.MetricSample
	Pairs   []model.ComparisonPair
	Err     error
	Updated time.Time

	InFlight bool
	Paused   bool
	Rounds   int
	Skipped  int
}

// NewSession creates a session; unset intervals fall back to the defaults.
func NewSession(c Collector, opts Options) *Session {
	if opts.Interval <= 0 {
		opts.Interval = model.DefaultUpdateInterval
	}
	if opts.BeforeTimeout <= 0 {
		opts.BeforeTimeout = opts.Interval
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return &Session{collector: c, opts: opts}
}

// Interval returns the refresh period.
func (s *Session) Interval() time.Duration {
	return s.opts.Interval
}

func (s *Session) tick() tea.Cmd {
	return tea.Tick(s.opts.Interval, func(time.Time) tea.Msg { return tickMsg{} })
}

// begin starts a collection round unless one is already running, in which
// case the request is counted as skipped and nil is returned.
func (s *Session) begin() tea.Cmd {
	if s.InFlight {
		s.Skipped++
		return nil
	}
	s.InFlight = true

	c, opts := s.collector, s.opts
	return func() tea.Msg {
		var beforeErr error
		if opts.BeforeCollect != nil {
			bctx, cancel := context.WithTimeout(opts.Context, opts.BeforeTimeout)
			beforeErr = opts.BeforeCollect(bctx)
			cancel()
		}
		samples := c.Collect(opts.Context)
		pairs, err := c.Pairs(samples)
		if err == nil {
			err = beforeErr
		}
		return collectedMsg{samples: samples, pairs: pairs, err: err, at: time.Now()}
	}
}

func (s *Session) finish(msg collectedMsg) {
	s.InFlight = false
	s.Rounds++
	s.Samples = msg.samples
	s.Err = msg.err
	s.Updated = msg.at
	if msg.pairs != nil || msg.err == nil {
		s.Pairs = msg.pairs
	}
}
