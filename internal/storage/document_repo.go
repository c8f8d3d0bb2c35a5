package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks reportqa/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// DocumentStore defines the interface for document catalog operations.
type DocumentStore interface {
	// GetByName gets a document by its file name.
	// Returns nil and ErrNotFound if not found.
	GetByName(ctx context.Context, name string) (*Document, error)
	// List returns all documents ordered by name.
	List(ctx context.Context) ([]Document, error)
	// Upsert inserts a new document or updates an existing one by name.
	Upsert(ctx context.Context, doc *Document) error
	// Delete removes a document by name. Missing documents are not an error.
	Delete(ctx context.Context, name string) error
}

// DocumentRepo provides methods for document catalog operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// GetByName gets a document by its file name.
func (r *DocumentRepo) GetByName(ctx context.Context, name string) (*Document, error) {
	var doc Document
	var indexedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, year, chunk_count, hash, indexed_at FROM documents WHERE name = ?",
		name,
	).Scan(&doc.ID, &doc.Name, &doc.Year, &doc.ChunkCount, &doc.Hash, &indexedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc.IndexedAt, err = parseTimestamp(indexedAtStr)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns all documents ordered by name.
func (r *DocumentRepo) List(ctx context.Context) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, year, chunk_count, hash, indexed_at FROM documents ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var indexedAtStr string
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Year, &doc.ChunkCount, &doc.Hash, &indexedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.IndexedAt, err = parseTimestamp(indexedAtStr)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// Upsert inserts a new document or updates an existing one by name.
// New documents get a generated UUID; existing documents keep theirs.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *Document) error {
	existing, err := r.GetByName(ctx, doc.Name)
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing == nil && doc.ID == "" {
		doc.ID = uuid.New().String()
	} else if existing != nil {
		doc.ID = existing.ID
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, year, chunk_count, hash, indexed_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (name) DO UPDATE SET
		 year = excluded.year, chunk_count = excluded.chunk_count, hash = excluded.hash, indexed_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.Name, doc.Year, doc.ChunkCount, doc.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Delete removes a document by name.
func (r *DocumentRepo) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// parseTimestamp handles both DATETIME formats SQLite may emit.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return t, nil
}
