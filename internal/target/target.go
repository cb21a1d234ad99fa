// Package target assembles the demo service: a seeded relational catalog, an
// LRU data grid in front of it, and the HTTP server timing both paths.
package target

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tinytelemetry/cachebench/internal/catalog"
	"github.com/tinytelemetry/cachebench/internal/grid"
	"github.com/tinytelemetry/cachebench/internal/httpserver"
	"github.com/tinytelemetry/cachebench/internal/logging"
	"github.com/tinytelemetry/cachebench/internal/model"
	"go.uber.org/zap"
)

// HealthPath is the route the runner polls before sending traffic.
const HealthPath = "/actuator/health"

const seedTimeout = 2 * time.Minute

// Config describes one target instance.
type Config struct {
	Addr        string
	Catalog     catalog.Config
	CatalogSize int
	GridSize    int
}

// Service owns the target's resources between Start and Stop.
type Service struct {
	cfg Config
	log *zap.Logger

	repo   catalog.Repository
	grid   *grid.Grid
	server *httpserver.Server
}

// New creates an unstarted service, filling unset sizes with defaults.
func New(cfg Config, log *zap.Logger) *Service {
	if cfg.CatalogSize <= 0 {
		cfg.CatalogSize = model.DefaultCatalogSize
	}
	if cfg.GridSize <= 0 {
		cfg.GridSize = model.DefaultGridSize
	}
	return &Service{cfg: cfg, log: logging.OrNop(log)}
}

// Start opens and seeds the catalog, warms the grid and begins serving.
// On failure everything opened so far is released.
func (s *Service) Start() error {
	repo, err := catalog.Open(s.cfg.Catalog)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	started := time.Now()
	if err := repo.Seed(ctx, s.cfg.CatalogSize); err != nil {
		_ = repo.Close()
		return fmt.Errorf("target: seed catalog: %w", err)
	}
	s.log.Info("catalog seeded",
		zap.String("driver", s.cfg.Catalog.Driver),
		zap.Int("books", s.cfg.CatalogSize),
		zap.Duration("took", time.Since(started)))

	g, err := grid.New(s.cfg.GridSize, repo)
	if err != nil {
		_ = repo.Close()
		return fmt.Errorf("target: %w", err)
	}
	if err := g.Warm(ctx, min(s.cfg.GridSize, s.cfg.CatalogSize)); err != nil {
		_ = repo.Close()
		return fmt.Errorf("target: %w", err)
	}

	server := httpserver.NewServer(s.cfg.Addr, repo, g, s.log)
	if err := server.Start(); err != nil {
		_ = repo.Close()
		return fmt.Errorf("target: start http server: %w", err)
	}

	s.repo, s.grid, s.server = repo, g, server
	return nil
}

// Stop shuts the HTTP server down and closes the catalog.
func (s *Service) Stop() error {
	var errs []error
	if s.server != nil {
		errs = append(errs, s.server.Stop())
	}
	if s.repo != nil {
		errs = append(errs, s.repo.Close())
	}
	if s.grid != nil {
		st := s.grid.Stats()
		s.log.Info("grid stats", zap.Int64("hits", st.Hits), zap.Int64("misses", st.Misses), zap.Int("entries", st.Entries))
	}
	s.server, s.repo, s.grid = nil, nil, nil
	return errors.Join(errs...)
}

// Addr returns the bound listen address once started.
func (s *Service) Addr() string {
	if s.server != nil {
		return s.server.Addr()
	}
	return s.cfg.Addr
}

// GridStats reports the data grid's counters; zero before Start.
func (s *Service) GridStats() grid.Stats {
	if s.grid == nil {
		return grid.Stats{}
	}
	return s.grid.Stats()
}
