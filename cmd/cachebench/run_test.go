package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tinytelemetry/cachebench/internal/environment"
	"github.com/tinytelemetry/cachebench/internal/model"
)

func testConfig(t *testing.T) appConfig {
	t.Helper()
	return appConfig{
		ChartWidth:     40,
		NoColor:        true,
		UpdateInterval: time.Second,
		CheckTimeout:   5 * time.Second,
		LogLevel:       "debug",
		LogFile:        filepath.Join(t.TempDir(), "cachebench.log"),
		Traffic:        trafficConfig{Requests: 3, Concurrency: 2},
		Environment:    environmentConfig{Mode: modeNone, StartupTimeout: 2 * time.Second},
	}
}

func metricDoc(total float64) string {
	return fmt.Sprintf(`{"name":"http.server.requests","measurements":[{"statistic":"COUNT","value":3},{"statistic":"TOTAL_TIME","value":%g}]}`, total)
}

func TestRun_ExternalService(t *testing.T) {
	var trafficHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/m/db":
			fmt.Fprint(w, metricDoc(2))
		case "/m/grid":
			fmt.Fprint(w, metricDoc(1))
		case "/load":
			trafficHits.Add(1)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	cfg.BaseURL = srv.URL
	cfg.Traffic.Paths = []string{"/load"}
	cfg.Targets = []model.TrackTarget{
		{Label: "db", Endpoint: "/m/db"},
		{Label: "grid", Endpoint: "/m/grid"},
		{Label: "gone", Endpoint: "/m/missing"},
	}
	cfg.Comparisons = []model.PairSpec{
		{Title: "Lookup", Left: 0, Right: 1, LeftColor: "red", RightColor: "green"},
		{Title: "Missing", Left: 0, Right: 2},
	}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := trafficHits.Load(); got != 3 {
		t.Errorf("traffic hits = %d, want 3", got)
	}
	text := out.String()
	for _, want := range []string{
		"db: 2.0000s\n",
		"grid: 1.0000s\n",
		"gone: 0.000000000s (unavailable)\n",
		"Lookup\n",
		"50.00% faster (db vs grid)\n",
		"100.00% faster (db vs gone)\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "gone: ") > strings.Index(text, "Lookup") {
		t.Error("progress lines should precede the report")
	}
}

func TestRun_EmbeddedTarget(t *testing.T) {
	cfg := testConfig(t)
	cfg.Environment.Mode = modeEmbedded
	cfg.Environment.StartupTimeout = 30 * time.Second
	cfg.Target = embeddedTargetConfig{
		Addr:        "127.0.0.1:0",
		CatalogSize: 100,
		GridSize:    100,
		Relational:  "duckdb",
	}
	cfg.Traffic.Paths = defaultTrafficPaths()
	cfg.Targets = []model.TrackTarget{
		{Label: "db", Endpoint: requestsMetric + "/api/books/db/:id"},
		{Label: "grid", Endpoint: requestsMetric + "/api/books/grid/:id"},
	}
	cfg.Comparisons = []model.PairSpec{{Title: "Book by id", Left: 0, Right: 1}}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	if strings.Contains(text, "unavailable") {
		t.Errorf("every metric should be served by the embedded target:\n%s", text)
	}
	if !strings.Contains(text, "Book by id\n") || !strings.Contains(text, "(db vs grid)") {
		t.Errorf("report missing:\n%s", text)
	}
}

func TestRun_UnhealthyEnvironment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	cfg.BaseURL = srv.URL
	cfg.Environment.HealthURL = srv.URL + "/actuator/health"
	cfg.Environment.StartupTimeout = 300 * time.Millisecond

	var out bytes.Buffer
	err := run(context.Background(), cfg, &out)
	if !errors.Is(err, environment.ErrUnhealthy) {
		t.Fatalf("err = %v, want ErrUnhealthy", err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed, got %q", out.String())
	}
}

func TestResolveTargets(t *testing.T) {
	got := resolveTargets("http://h:1/", []model.TrackTarget{
		{Label: "a", Endpoint: "/x"},
		{Label: "b", Endpoint: "http://other/y"},
	})
	if got[0].Endpoint != "http://h:1/x" || got[1].Endpoint != "http://other/y" {
		t.Errorf("resolved = %+v", got)
	}
}

func TestBuildEnvironment(t *testing.T) {
	cfg := testConfig(t)
	for _, tt := range []struct {
		mode string
		want string
	}{
		{modeNone, "environment.None"},
		{modeShell, "*environment.Shell"},
		{modeEmbedded, "*environment.Embedded"},
	} {
		cfg.Environment.Mode = tt.mode
		if got := fmt.Sprintf("%T", buildEnvironment(cfg, http.DefaultClient, nil)); got != tt.want {
			t.Errorf("mode %s: got %s, want %s", tt.mode, got, tt.want)
		}
	}
}

func TestRun_SlowMetricOutlivesCheckTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		fmt.Fprint(w, metricDoc(2.5))
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t)
	cfg.BaseURL = srv.URL
	cfg.CheckTimeout = 20 * time.Millisecond
	cfg.Targets = []model.TrackTarget{{Label: "slow", Endpoint: "/m/slow"}}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if text := out.String(); !strings.Contains(text, "slow: 2.5000s\n") || strings.Contains(text, "unavailable") {
		t.Errorf("slow metric should still be read:\n%s", text)
	}
}
