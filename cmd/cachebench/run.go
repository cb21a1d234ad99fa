package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tinytelemetry/cachebench/internal/environment"
	"github.com/tinytelemetry/cachebench/internal/logging"
	"github.com/tinytelemetry/cachebench/internal/metrics"
	"github.com/tinytelemetry/cachebench/internal/model"
	"github.com/tinytelemetry/cachebench/internal/pipeline"
	"github.com/tinytelemetry/cachebench/internal/report"
	"github.com/tinytelemetry/cachebench/internal/target"
	"github.com/tinytelemetry/cachebench/internal/traffic"
	"github.com/tinytelemetry/cachebench/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const healthPollInterval = 250 * time.Millisecond

// session is one started environment with everything wired against it.
type session struct {
	log      *zap.Logger
	env      environment.Environment
	baseURL  string
	driver   *traffic.Driver
	reporter *report.Reporter
	pipeline *pipeline.Pipeline
	paths    []string
}

// run drives traffic once, collects every target and prints the report.
func run(ctx context.Context, cfg appConfig, stdout io.Writer) error {
	log, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	defer cleanup()

	s, err := startSession(ctx, cfg, log, stdout)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.drive(ctx); err != nil {
		return err
	}

	out, err := s.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, out)
	}
	return nil
}

// runTUI shows the live dashboard until the user quits.
func runTUI(ctx context.Context, cfg appConfig) error {
	log, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	defer cleanup()

	s, err := startSession(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer s.close()

	app := tui.NewApp(s.pipeline, s.reporter, tui.Options{
		Interval:      cfg.UpdateInterval,
		Context:       ctx,
		BeforeCollect: s.drive,
		NoColor:       cfg.NoColor,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// startSession starts the environment, waits for it to be healthy and builds
// the traffic driver and pipeline against its base URL. progress receives
// the pipeline's per-metric lines; nil discards them.
func startSession(ctx context.Context, cfg appConfig, log *zap.Logger, progress io.Writer) (*session, error) {
	check, fetch := httpClients(cfg)
	env := buildEnvironment(cfg, check, log)

	startCtx, cancel := context.WithTimeout(ctx, cfg.Environment.StartupTimeout)
	defer cancel()

	if err := env.Start(startCtx); err != nil {
		return nil, fmt.Errorf("starting environment: %w", err)
	}
	s := &session{log: log, env: env, baseURL: cfg.BaseURL, paths: cfg.Traffic.Paths}
	if emb, ok := env.(*environment.Embedded); ok {
		s.baseURL = emb.BaseURL()
	}

	if err := environment.WaitHealthy(startCtx, env, healthPollInterval); err != nil {
		s.close()
		return nil, fmt.Errorf("waiting for %s: %w", s.baseURL, err)
	}
	log.Info("environment ready", zap.String("mode", cfg.Environment.Mode), zap.String("base_url", s.baseURL))

	driver, err := traffic.NewDriver(traffic.Config{
		BaseURL:     s.baseURL,
		Requests:    cfg.Traffic.Requests,
		Concurrency: cfg.Traffic.Concurrency,
		Client:      check,
	}, log)
	if err != nil {
		s.close()
		return nil, err
	}
	s.driver = driver

	s.reporter = report.NewReporter(report.Config{ChartWidth: cfg.ChartWidth, NoColor: cfg.NoColor})
	p, err := pipeline.New(metrics.NewExtractor(fetch, log), s.reporter, pipeline.Config{
		Targets:  resolveTargets(s.baseURL, cfg.Targets),
		Pairs:    cfg.Comparisons,
		Progress: progress,
	})
	if err != nil {
		s.close()
		return nil, err
	}
	s.pipeline = p
	return s, nil
}

// httpClients returns the client for health checks and traffic, bounded by
// check-timeout, and the client for metric fetches, which keeps the
// transport defaults.
func httpClients(cfg appConfig) (check, fetch *http.Client) {
	return &http.Client{Timeout: cfg.CheckTimeout}, &http.Client{}
}

func buildEnvironment(cfg appConfig, client *http.Client, log *zap.Logger) environment.Environment {
	switch cfg.Environment.Mode {
	case modeEmbedded:
		return &environment.Embedded{
			Service: target.New(target.Config{
				Addr:        cfg.Target.Addr,
				Catalog:     cfg.Target.catalogConfig(),
				CatalogSize: cfg.Target.CatalogSize,
				GridSize:    cfg.Target.GridSize,
			}, log),
			HealthPath: target.HealthPath,
			Client:     client,
		}
	case modeShell:
		return &environment.Shell{
			StartCommand: cfg.Environment.StartCommand,
			StopCommand:  cfg.Environment.StopCommand,
			HealthURL:    cfg.Environment.HealthURL,
			Client:       client,
			Log:          log,
		}
	default:
		return environment.None{HealthURL: cfg.Environment.HealthURL, Client: client}
	}
}

// drive sends the configured traffic and logs paths that saw failures.
func (s *session) drive(ctx context.Context) error {
	if s.driver == nil || len(s.paths) == 0 {
		return nil
	}
	res, err := s.driver.Drive(ctx, s.paths)
	if err != nil {
		return err
	}
	for _, p := range res.Paths {
		if p.Failed > 0 {
			s.log.Warn("traffic failures", zap.String("path", p.Path), zap.Int("failed", p.Failed), zap.Int("succeeded", p.Succeeded))
		}
	}
	return nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.env.Stop(ctx); err != nil {
		s.log.Warn("stopping environment", zap.Error(err))
	}
}

// resolveTargets joins relative endpoints onto baseURL.
func resolveTargets(baseURL string, targets []model.TrackTarget) []model.TrackTarget {
	out := make([]model.TrackTarget, len(targets))
	for i, t := range targets {
		out[i] = model.TrackTarget{Label: t.Label, Endpoint: traffic.Resolve(baseURL, t.Endpoint)}
	}
	return out
}
