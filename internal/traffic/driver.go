// Package traffic generates load against the service under test before its
// metrics are collected.
package traffic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/cachebench/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config controls how much traffic is sent.
type Config struct {
	BaseURL     string
	Requests    int // per path
	Concurrency int
	Client      *http.Client
}

// PathResult counts the outcome of the requests sent to one path.
type PathResult struct {
	Path      string
	Succeeded int
	Failed    int
}

// Result summarises one Drive call.
type Result struct {
	Paths    []PathResult
	Duration time.Duration
}

// Total returns the number of requests sent.
func (r Result) Total() int {
	n := 0
	for _, p := range r.Paths {
		n += p.Succeeded + p.Failed
	}
	return n
}

// Driver sends GET requests.
type Driver struct {
	cfg Config
	log *zap.Logger
}

// NewDriver validates cfg and creates a driver.
func NewDriver(cfg Config, log *zap.Logger) (*Driver, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("traffic: base url: %w", err)
	}
	if cfg.Requests < 0 {
		return nil, fmt.Errorf("traffic: requests must be >= 0, got %d", cfg.Requests)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &Driver{cfg: cfg, log: logging.OrNop(log)}, nil
}

// Drive sends cfg.Requests GETs to every path with at most cfg.Concurrency
// in flight. Request failures are counted, not returned; only context
// cancellation aborts the run.
func (d *Driver) Drive(ctx context.Context, paths []string) (Result, error) {
	start := time.Now()
	results := make([]PathResult, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)

	for i, p := range paths {
		results[i].Path = p
		target := Resolve(d.cfg.BaseURL, p)
		for n := 0; n < d.cfg.Requests; n++ {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				ok := d.send(gctx, target)
				mu.Lock()
				if ok {
					results[i].Succeeded++
				} else {
					results[i].Failed++
				}
				mu.Unlock()
				return nil
			})
		}
	}

	err := g.Wait()
	res := Result{Paths: results, Duration: time.Since(start)}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return res, fmt.Errorf("traffic: %w", err)
	}
	d.log.Info("traffic complete", zap.Int("requests", res.Total()), zap.Duration("duration", res.Duration))
	return res, nil
}

func (d *Driver) send(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		d.log.Debug("traffic request build failed", zap.String("url", target), zap.Error(err))
		return false
	}
	resp, err := d.cfg.Client.Do(req)
	if err != nil {
		d.log.Debug("traffic request failed", zap.String("url", target), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// Resolve joins a relative path onto base; absolute URLs pass through.
func Resolve(base, p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}
