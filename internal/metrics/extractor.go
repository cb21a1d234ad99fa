// Package metrics reads cumulative timing statistics from Actuator-style
// telemetry endpoints.
package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tinytelemetry/cachebench/internal/logging"
	"github.com/tinytelemetry/cachebench/internal/model"
	"go.uber.org/zap"
)

var (
	errEmptyBody       = errors.New("empty body")
	errNoMeasurements  = errors.New("document has no measurements")
	errNoTotalTime     = errors.New("no TOTAL_TIME measurement")
	errNullMeasurement = errors.New("TOTAL_TIME value is null")
)

// Document is the subset of a metrics document the extractor reads.
type Document struct {
	Name         string        `json:"name,omitempty"`
	Measurements []Measurement `json:"measurements"`
}

// Measurement is one statistic/value pair. Value is nil for JSON null.
type Measurement struct {
	Statistic string   `json:"statistic"`
	Value     *float64 `json:"value"`
}

// Extractor fetches metrics documents over HTTP.
type Extractor struct {
	client *http.Client
	log    *zap.Logger
}

// NewExtractor returns an extractor using client, or http.DefaultClient when nil.
func NewExtractor(client *http.Client, log *zap.Logger) *Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Extractor{client: client, log: logging.OrNop(log)}
}

// Extract performs one GET against endpoint and returns its TOTAL_TIME.
// Every failure degrades to a zero sample with Present unset; the cause is
// only visible in the log.
func (e *Extractor) Extract(ctx context.Context, label, endpoint string) model.MetricSample {
	sample := model.MetricSample{Label: label, Endpoint: endpoint}

	body, err := e.fetch(ctx, endpoint)
	if err != nil {
		e.log.Warn("metric fetch failed", zap.String("label", label), zap.String("endpoint", endpoint), zap.Error(err))
		return sample
	}

	value, err := TotalTime(body)
	if err != nil {
		e.log.Warn("metric parse failed", zap.String("label", label), zap.String("endpoint", endpoint), zap.Error(err))
		return sample
	}

	sample.TotalTime = value
	sample.Present = true
	e.log.Debug("metric collected", zap.String("label", label), zap.Float64("total_time", value))
	return sample
}

func (e *Extractor) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyBody
	}
	return body, nil
}

// TotalTime decodes a metrics document and returns its TOTAL_TIME value.
// Negative values are clamped to zero.
func TotalTime(body []byte) (float64, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("decoding metrics document: %w", err)
	}
	if doc.Measurements == nil {
		return 0, errNoMeasurements
	}
	for _, m := range doc.Measurements {
		if m.Statistic != model.TotalTimeStatistic {
			continue
		}
		if m.Value == nil {
			return 0, errNullMeasurement
		}
		return max(*m.Value, 0), nil
	}
	return 0, errNoTotalTime
}
