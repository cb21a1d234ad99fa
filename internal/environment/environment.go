// Package environment starts, stops and health-checks the service under test.
package environment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnhealthy is returned when the environment does not become healthy in time.
var ErrUnhealthy = errors.New("environment: not healthy")

// Environment is the service under test as seen by the runner.
type Environment interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsHealthy(ctx context.Context) bool
}

// None is an environment managed elsewhere; it is always considered started.
type None struct {
	HealthURL string
	Client    *http.Client
}

func (n None) Start(context.Context) error { return nil }
func (n None) Stop(context.Context) error  { return nil }

// IsHealthy checks HealthURL; an empty URL is assumed healthy.
func (n None) IsHealthy(ctx context.Context) bool {
	if n.HealthURL == "" {
		return true
	}
	return CheckHealth(ctx, n.Client, n.HealthURL)
}

// CheckHealth GETs url and reports whether it answered 2xx and, when the body
// is a JSON object with a status field, whether that status is UP.
func CheckHealth(ctx context.Context, client *http.Client, url string) bool {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false
	}
	var doc struct {
		Status *string `json:"status"`
	}
	if json.Unmarshal(body, &doc) != nil || doc.Status == nil {
		return true
	}
	return strings.EqualFold(*doc.Status, "UP")
}

// WaitHealthy polls env every interval until it is healthy or ctx ends.
func WaitHealthy(ctx context.Context, env Environment, interval time.Duration) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if env.IsHealthy(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Join(ErrUnhealthy, ctx.Err())
		case <-ticker.C:
		}
	}
}
