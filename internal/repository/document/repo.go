// Package document persists search documents in the SQLite store.
package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/findex/internal/db/sqlite"
	"github.com/kailas-cloud/findex/internal/domain"
)

// Repo implements document storage over search_documents.
type Repo struct {
	db *sql.DB
}

// New creates a document repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Upsert inserts the document or replaces all mutable fields on id conflict.
// created_at is preserved on conflict; updated_at is always refreshed.
func (r *Repo) Upsert(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	tagsJSON, metaJSON, err := encodeDocFields(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO search_documents
			(id, title, content, content_type, tags, metadata, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title        = excluded.title,
			content      = excluded.content,
			content_type = excluded.content_type,
			tags         = excluded.tags,
			metadata     = excluded.metadata,
			embedding    = excluded.embedding,
			updated_at   = excluded.updated_at`,
		doc.ID, doc.Title, doc.Content, doc.ContentType,
		tagsJSON, metaJSON, sqlite.VectorToBytes(doc.Embedding),
		formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	return nil
}

// Get retrieves a document by id.
func (r *Repo) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, content, content_type, tags, metadata, embedding, created_at, updated_at
		FROM search_documents
		WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// Recent returns the most recently updated documents, newest first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, content, content_type, tags, metadata, embedding, created_at, updated_at
		FROM search_documents
		ORDER BY updated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan document: %w", scanErr)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM search_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Delete removes a document by id.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM search_documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}
	return nil
}
