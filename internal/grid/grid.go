// Package grid is the in-memory data path of the target service: a bounded
// LRU of books that reads through to the relational repository on a miss.
package grid

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tinytelemetry/cachebench/internal/model"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Stats counts grid lookups.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Grid caches books by ID.
type Grid struct {
	cache   *lru.Cache[int64, model.Book]
	backing model.BookReader
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a grid holding at most size books.
func New(size int, backing model.BookReader) (*Grid, error) {
	if backing == nil {
		return nil, fmt.Errorf("grid: nil backing reader")
	}
	if size <= 0 {
		size = model.DefaultGridSize
	}
	cache, err := lru.New[int64, model.Book](size)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return &Grid{cache: cache, backing: backing}, nil
}

// Book returns a cached book, loading and caching it on a miss.
func (g *Grid) Book(ctx context.Context, id int64) (model.Book, error) {
	if b, ok := g.cache.Get(id); ok {
		g.hits.Add(1)
		return b, nil
	}
	g.misses.Add(1)

	b, err := g.backing.Book(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	g.cache.Add(id, b)
	return b, nil
}

// Books returns the first limit books by ID, served from the grid where possible.
func (g *Grid) Books(ctx context.Context, limit int) ([]model.Book, error) {
	out := make([]model.Book, 0, limit)
	var missing bool
	for id := int64(1); id <= int64(limit); id++ {
		b, ok := g.cache.Get(id)
		if !ok {
			missing = true
			break
		}
		out = append(out, b)
	}
	if !missing {
		g.hits.Add(1)
		return out, nil
	}
	g.misses.Add(1)

	books, err := g.backing.Books(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		g.cache.Add(b.ID, b)
	}
	return books, nil
}

// Warm preloads the first n books.
func (g *Grid) Warm(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	books, err := g.backing.Books(ctx, n)
	if err != nil {
		return fmt.Errorf("grid: warm: %w", err)
	}
	for _, b := range books {
		g.cache.Add(b.ID, b)
	}
	return nil
}

// Stats returns lookup counters and the current entry count.
func (g *Grid) Stats() Stats {
	return Stats{
		Hits:    g.hits.Load(),
		Misses:  g.misses.Load(),
		Entries: g.cache.Len(),
	}
}
