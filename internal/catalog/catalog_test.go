package catalog

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/tinytelemetry/cachebench/internal/model"
)

func TestOpen_DefaultsToInMemoryDuckDB(t *testing.T) {
	repo, err := Open(Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	if err := repo.Seed(context.Background(), 5); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	b, err := repo.Book(context.Background(), 5)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b != model.SeedBook(5) {
		t.Errorf("Book(5) = %+v", b)
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown driver", Config{Driver: "oracle"}},
		{"postgres without dsn", Config{Driver: DriverPostgres}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// TestGormRepository runs against a real postgres when
// CACHEBENCH_TEST_POSTGRES_DSN is set.
func TestGormRepository(t *testing.T) {
	dsn := os.Getenv("CACHEBENCH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CACHEBENCH_TEST_POSTGRES_DSN not set")
	}

	repo, err := Open(Config{Driver: DriverPostgres, PostgresDSN: dsn})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := repo.Seed(ctx, 25); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := repo.Seed(ctx, 25); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	b, err := repo.Book(ctx, 25)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if b != model.SeedBook(25) {
		t.Errorf("Book(25) = %+v", b)
	}

	books, err := repo.Books(ctx, 3)
	if err != nil {
		t.Fatalf("Books: %v", err)
	}
	if len(books) != 3 || books[0].ID != 1 {
		t.Errorf("Books(3) = %+v", books)
	}

	if _, err := repo.Book(ctx, -1); !errors.Is(err, model.ErrBookNotFound) {
		t.Errorf("Book(-1) err = %v, want ErrBookNotFound", err)
	}
}
