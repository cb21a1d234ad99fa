package target

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tinytelemetry/cachebench/internal/catalog"
	"github.com/tinytelemetry/cachebench/internal/grid"
	"github.com/tinytelemetry/cachebench/internal/model"
)

func startTestService(t *testing.T) *Service {
	t.Helper()
	svc := New(Config{
		Addr:        "127.0.0.1:0",
		Catalog:     catalog.Config{Driver: catalog.DriverDuckDB},
		CatalogSize: 50,
		GridSize:    10,
	}, nil)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })
	return svc
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestService_ServesBothPaths(t *testing.T) {
	svc := startTestService(t)
	base := "http://" + svc.Addr()

	var fromDB, fromGrid model.Book
	if code := getJSON(t, base+"/api/books/db/42", &fromDB); code != http.StatusOK {
		t.Fatalf("db status = %d", code)
	}
	if code := getJSON(t, base+"/api/books/grid/42", &fromGrid); code != http.StatusOK {
		t.Fatalf("grid status = %d", code)
	}
	if fromDB != fromGrid || fromDB != model.SeedBook(42) {
		t.Errorf("db = %+v grid = %+v, want %+v", fromDB, fromGrid, model.SeedBook(42))
	}

	if code := getJSON(t, base+HealthPath, nil); code != http.StatusOK {
		t.Errorf("health status = %d", code)
	}
}

func TestService_GridWarmedAndReadThrough(t *testing.T) {
	svc := startTestService(t)
	base := "http://" + svc.Addr()

	if st := svc.GridStats(); st.Entries != 10 {
		t.Fatalf("entries after warm = %d, want 10", st.Entries)
	}

	getJSON(t, base+"/api/books/grid/5", nil)  // warmed
	getJSON(t, base+"/api/books/grid/30", nil) // miss, loaded from the catalog
	st := svc.GridStats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", st)
	}
}

func TestService_StopIsIdempotent(t *testing.T) {
	svc := startTestService(t)
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if st := svc.GridStats(); st != (grid.Stats{}) {
		t.Errorf("stats after stop = %+v", st)
	}
}

func TestService_StartFailsOnUnknownDriver(t *testing.T) {
	svc := New(Config{Addr: "127.0.0.1:0", Catalog: catalog.Config{Driver: "oracle"}}, nil)
	if err := svc.Start(); err == nil {
		_ = svc.Stop()
		t.Fatal("expected error")
	}
}
