package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// BookCatalog resolves the books a schedule refers to.
type BookCatalog interface {
	// EnsureBook returns the stored record for b.ID, creating it from b when
	// absent. An existing record is returned unchanged.
	EnsureBook(ctx context.Context, b BookRecord) (*BookRecord, error)
}

// EnsureBook is an idempotent upsert keyed by the catalogue id.
func (d *Database) EnsureBook(ctx context.Context, b BookRecord) (*BookRecord, error) {
	b.ID = strings.TrimSpace(b.ID)
	if b.ID == "" {
		return nil, invalidRequest("book id cannot be empty")
	}

	var out *BookRecord
	err := d.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := getBook(ctx, tx, b.ID)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if strings.TrimSpace(b.Title) == "" {
			return invalidRequest("book title cannot be empty")
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO books(id,title,author,cover_url) VALUES(?,?,?,?)`,
			b.ID, b.Title, b.Author, b.CoverURL); err != nil {
			return fmt.Errorf("insert book: %w", err)
		}
		out = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBook fetches a cached book record.
func (d *Database) GetBook(ctx context.Context, id string) (*BookRecord, error) {
	return getBook(ctx, d.db, id)
}

func getBook(ctx context.Context, q querier, id string) (*BookRecord, error) {
	var b BookRecord
	err := q.QueryRowContext(ctx, `SELECT id,title,author,cover_url FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.CoverURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("book not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	return &b, nil
}
