// Package pipeline collects the configured metrics and renders every
// configured comparison.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tinytelemetry/cachebench/internal/model"
	"github.com/tinytelemetry/cachebench/internal/report"
)

// ErrPairIndex is returned when a pair references a target that does not exist.
var ErrPairIndex = errors.New("pipeline: pair index out of range")

// Config holds the collection plan.
type Config struct {
	Targets []model.TrackTarget
	Pairs   []model.PairSpec
	// Progress receives one raw value line per metric while collecting.
	// Nil discards them.
	Progress io.Writer
}

// Pipeline runs one collection and report cycle per call. Nothing carries
// over between calls.
type Pipeline struct {
	extractor model.SampleExtractor
	reporter  *report.Reporter
	targets   []model.TrackTarget
	pairs     []model.PairSpec
	progress  io.Writer
}

// New validates cfg and builds a pipeline.
func New(extractor model.SampleExtractor, reporter *report.Reporter, cfg Config) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("pipeline: nil extractor")
	}
	if reporter == nil {
		return nil, fmt.Errorf("pipeline: nil reporter")
	}
	if err := ValidatePairs(cfg.Pairs, len(cfg.Targets)); err != nil {
		return nil, err
	}
	progress := cfg.Progress
	if progress == nil {
		progress = io.Discard
	}
	return &Pipeline{
		extractor: extractor,
		reporter:  reporter,
		targets:   cfg.Targets,
		pairs:     cfg.Pairs,
		progress:  progress,
	}, nil
}

// ValidatePairs checks that every pair index refers to one of n targets.
func ValidatePairs(pairs []model.PairSpec, n int) error {
	for i, p := range pairs {
		if p.Left < 0 || p.Left >= n {
			return fmt.Errorf("%w: comparison %d (%q) left=%d, have %d targets", ErrPairIndex, i, p.Title, p.Left, n)
		}
		if p.Right < 0 || p.Right >= n {
			return fmt.Errorf("%w: comparison %d (%q) right=%d, have %d targets", ErrPairIndex, i, p.Title, p.Right, n)
		}
	}
	return nil
}

// Targets returns the configured targets in collection order.
func (p *Pipeline) Targets() []model.TrackTarget {
	return p.targets
}

// Collect extracts every target in order, one at a time. Repeated endpoints
// are fetched again. A failed extraction yields a zero sample and the run
// continues.
func (p *Pipeline) Collect(ctx context.Context) []model.MetricSample {
	samples := make([]model.MetricSample, 0, len(p.targets))
	for _, t := range p.targets {
		s := p.extractor.Extract(ctx, t.Label, t.Endpoint)
		samples = append(samples, s)
		p.writeProgress(s)
	}
	return samples
}

func (p *Pipeline) writeProgress(s model.MetricSample) {
	line := fmt.Sprintf("%s: %ss", s.Label, report.FormatValue(s.TotalTime))
	if !s.Present {
		line += " (unavailable)"
	}
	fmt.Fprintln(p.progress, line)
}

// Pairs resolves the configured pair specs against samples.
func (p *Pipeline) Pairs(samples []model.MetricSample) ([]model.ComparisonPair, error) {
	if err := ValidatePairs(p.pairs, len(samples)); err != nil {
		return nil, err
	}
	out := make([]model.ComparisonPair, 0, len(p.pairs))
	for _, spec := range p.pairs {
		out = append(out, model.ComparisonPair{
			Title:      spec.Title,
			Left:       samples[spec.Left],
			Right:      samples[spec.Right],
			LeftColor:  spec.LeftColor,
			RightColor: spec.RightColor,
		})
	}
	return out, nil
}

// Report renders one block per configured pair, in order.
func (p *Pipeline) Report(samples []model.MetricSample) (string, error) {
	pairs, err := p.Pairs(samples)
	if err != nil {
		return "", err
	}
	blocks := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		blocks = append(blocks, p.reporter.Report(pair))
	}
	return strings.Join(blocks, "\n"), nil
}

// Run collects and reports.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	return p.Report(p.Collect(ctx))
}
