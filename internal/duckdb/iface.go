package duckdb

import "github.com/tinytelemetry/cachebench/internal/model"

var (
	_ model.BookReader = (*Store)(nil)
	_ model.BookSeeder = (*Store)(nil)
	_ model.Pinger     = (*Store)(nil)
)
