package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tinytelemetry/cachebench/internal/metrics"
	"github.com/tinytelemetry/cachebench/internal/model"
	"github.com/tinytelemetry/cachebench/internal/report"
)

// stubExtractor returns canned samples keyed by endpoint and records call order.
type stubExtractor struct {
	values map[string]float64
	calls  []string
}

func (s *stubExtractor) Extract(_ context.Context, label, endpoint string) model.MetricSample {
	s.calls = append(s.calls, endpoint)
	v, ok := s.values[endpoint]
	return model.MetricSample{Label: label, Endpoint: endpoint, TotalTime: v, Present: ok}
}

func newTestPipeline(t *testing.T, ex model.SampleExtractor, cfg Config) *Pipeline {
	t.Helper()
	p, err := New(ex, report.NewReporter(report.Config{ChartWidth: 40, Glyph: "#", NoColor: true}), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestCollect_SequentialInOrderWithoutDedup(t *testing.T) {
	ex := &stubExtractor{values: map[string]float64{"a": 1, "b": 2}}
	p := newTestPipeline(t, ex, Config{Targets: []model.TrackTarget{
		{Label: "A", Endpoint: "a"},
		{Label: "B", Endpoint: "b"},
		{Label: "A again", Endpoint: "a"},
	}})

	samples := p.Collect(context.Background())
	if got := strings.Join(ex.calls, ","); got != "a,b,a" {
		t.Errorf("call order = %s, want a,b,a", got)
	}
	if len(samples) != 3 || samples[2].Label != "A again" || samples[2].TotalTime != 1 {
		t.Errorf("samples = %+v", samples)
	}
}

func TestCollect_WritesProgressLines(t *testing.T) {
	var buf bytes.Buffer
	ex := &stubExtractor{values: map[string]float64{"a": 2.5}}
	p := newTestPipeline(t, ex, Config{
		Targets:  []model.TrackTarget{{Label: "db", Endpoint: "a"}, {Label: "grid", Endpoint: "missing"}},
		Progress: &buf,
	})

	p.Collect(context.Background())
	want := "db: 2.5000s\ngrid: 0.000000000s (unavailable)\n"
	if buf.String() != want {
		t.Errorf("progress = %q, want %q", buf.String(), want)
	}
}

func TestRun_FailureDegradesAndContinues(t *testing.T) {
	ex := &stubExtractor{values: map[string]float64{"db": 1.0, "grid": 1.5}}
	p := newTestPipeline(t, ex, Config{
		Targets: []model.TrackTarget{
			{Label: "db", Endpoint: "db"},
			{Label: "broken", Endpoint: "nowhere"},
			{Label: "grid", Endpoint: "grid"},
		},
		Pairs: []model.PairSpec{
			{Title: "first", Left: 0, Right: 2},
			{Title: "second", Left: 2, Right: 0},
			{Title: "third", Left: 1, Right: 0},
		},
	})

	out, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{
		"50.00% slower (db vs grid)",
		"33.33% faster (grid vs db)",
		"no change (broken vs db)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "first") > strings.Index(out, "second") || strings.Index(out, "second") > strings.Index(out, "third") {
		t.Errorf("reports out of configured order:\n%s", out)
	}
}

func TestNew_RejectsBadIndex(t *testing.T) {
	_, err := New(&stubExtractor{}, report.NewReporter(report.Config{}), Config{
		Targets: []model.TrackTarget{{Label: "only", Endpoint: "x"}},
		Pairs:   []model.PairSpec{{Title: "bad", Left: 0, Right: 1}},
	})
	if !errors.Is(err, ErrPairIndex) {
		t.Fatalf("err = %v, want ErrPairIndex", err)
	}
}

func TestReport_RejectsShortSampleList(t *testing.T) {
	p := newTestPipeline(t, &stubExtractor{}, Config{
		Targets: []model.TrackTarget{{Label: "a", Endpoint: "a"}, {Label: "b", Endpoint: "b"}},
		Pairs:   []model.PairSpec{{Title: "p", Left: 0, Right: 1}},
	})
	if _, err := p.Report([]model.MetricSample{{Label: "a"}}); !errors.Is(err, ErrPairIndex) {
		t.Fatalf("err = %v, want ErrPairIndex", err)
	}
}

func TestRun_EndToEndOverHTTP(t *testing.T) {
	payloads := map[string]string{
		"/db":   `{"measurements":[{"statistic":"COUNT","value":10},{"statistic":"TOTAL_TIME","value":0.02}]}`,
		"/grid": `{"measurements":[{"statistic":"TOTAL_TIME","value":0.0004}]}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := payloads[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	var progress bytes.Buffer
	p := newTestPipeline(t, metrics.NewExtractor(srv.Client(), nil), Config{
		Targets: []model.TrackTarget{
			{Label: "db", Endpoint: srv.URL + "/db"},
			{Label: "grid", Endpoint: srv.URL + "/grid"},
		},
		Pairs:    []model.PairSpec{{Title: "Lookup", Left: 0, Right: 1, LeftColor: "red", RightColor: "green"}},
		Progress: &progress,
	})

	samples := p.Collect(context.Background())
	if !samples[0].Present || !samples[1].Present {
		t.Fatalf("samples not present: %+v", samples)
	}
	out, err := p.Report(samples)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	lines := strings.Split(out, "\n")
	if got := strings.Count(lines[3], "#"); got != 40 {
		t.Errorf("db bar = %d, want 40", got)
	}
	if got := strings.Count(lines[4], "#"); got != 1 {
		t.Errorf("grid bar = %d, want 1", got)
	}
	if !strings.Contains(out, "98.00% faster (db vs grid)") {
		t.Errorf("verdict missing:\n%s", out)
	}
	if !strings.Contains(progress.String(), "db: 0.020000s") {
		t.Errorf("progress = %q", progress.String())
	}
}
