package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tinytelemetry/cachebench/internal/model"
)

// Book returns one book by ID.
func (s *Store) Book(ctx context.Context, id int64) (model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var b model.Book
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, author, year FROM books WHERE id = ?", id,
	).Scan(&b.ID, &b.Title, &b.Author, &b.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Book{}, fmt.Errorf("%w: %d", model.ErrBookNotFound, id)
	}
	if err != nil {
		return model.Book{}, err
	}
	return b, nil
}

// Books returns up to limit books ordered by ID.
func (s *Store) Books(ctx context.Context, limit int) ([]model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, author, year FROM books ORDER BY id LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]model.Book, 0, limit)
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Year); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

// Seed inserts books 1..n, skipping IDs that already exist. Rows match
// model.SeedBook.
func (s *Store) Seed(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO books (id, title, author, year)
		SELECT
			i,
			'Book #' || CAST(i AS VARCHAR),
			'Author ' || CAST(i % 97 AS VARCHAR),
			CAST(1900 + i % 125 AS INTEGER)
		FROM range(1, ?) AS t(i)`, n+1)
	if err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	return nil
}

// Count returns the number of books in the catalog.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books").Scan(&n)
	return n, err
}
