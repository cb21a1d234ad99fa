package model

import (
	"context"
	"errors"
)

// SampleExtractor reads one MetricSample from an endpoint.
// Implementations degrade failures to a zero sample instead of erroring.
type SampleExtractor interface {
	Extract(ctx context.Context, label, endpoint string) MetricSample
}

// BookReader provides read access to the book catalog.
type BookReader interface {
	Book(ctx context.Context, id int64) (Book, error)
	Books(ctx context.Context, limit int) ([]Book, error)
}

// BookSeeder fills an empty catalog with deterministic records.
type BookSeeder interface {
	Seed(ctx context.Context, n int) error
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrBookNotFound is returned by BookReader implementations for unknown IDs.
var ErrBookNotFound = errors.New("book not found")
