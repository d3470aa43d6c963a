// Package sqlite opens and prepares the findex document store.
//
// The store holds two tables: search_documents (indexed content) and
// search_queries (the append-only query log). Repositories issue parameterized
// SQL against *sql.DB obtained via Store.DB().
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS search_documents (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	content      TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT '',
	tags         TEXT NOT NULL DEFAULT '[]',
	metadata     TEXT NOT NULL DEFAULT '{}',
	embedding    BLOB,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_documents_type
	ON search_documents(content_type);
CREATE INDEX IF NOT EXISTS idx_search_documents_updated
	ON search_documents(updated_at);

CREATE TABLE IF NOT EXISTS search_queries (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	query            TEXT NOT NULL,
	filters          TEXT NOT NULL DEFAULT '{}',
	search_type      TEXT NOT NULL,
	results_count    INTEGER NOT NULL DEFAULT 0,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	user_id          TEXT,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_queries_created
	ON search_queries(created_at);
CREATE INDEX IF NOT EXISTS idx_search_queries_type
	ON search_queries(search_type);
`

// Store wraps the SQLite connection pool.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// WAL allows concurrent readers while a writer is active; busy_timeout
// reduces SQLITE_BUSY errors under contention.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying connection pool to repositories.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
