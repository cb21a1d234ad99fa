// Package catalog selects the relational repository behind the target
// service's database path.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/tinytelemetry/cachebench/internal/duckdb"
	"github.com/tinytelemetry/cachebench/internal/model"
)

// Repository is the relational data-access path.
type Repository interface {
	model.BookReader
	model.BookSeeder
	model.Pinger
	Close() error
}

// Drivers accepted by Config.Driver.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Config selects and configures a repository.
type Config struct {
	Driver       string
	DBPath       string // duckdb; empty = in-memory
	PostgresDSN  string
	QueryTimeout time.Duration
}

// Open returns the repository named by cfg.Driver.
func Open(cfg Config) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverDuckDB:
		store, err := duckdb.NewStore(cfg.DBPath, cfg.QueryTimeout)
		if err != nil {
			return nil, fmt.Errorf("catalog: open duckdb: %w", err)
		}
		return store, nil
	case DriverPostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, fmt.Errorf("catalog: postgres-dsn is required for the postgres driver")
		}
		repo, err := OpenGorm(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("catalog: unknown driver %q", cfg.Driver)
	}
}
