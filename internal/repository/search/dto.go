package search

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/findex/internal/db/sqlite"
	"github.com/kailas-cloud/findex/internal/domain"
)

// timeLayout matches the storage format used by the document repository.
const timeLayout = "2006-01-02 15:04:05.000"

// filterClauses builds WHERE conditions for caller-supplied filters.
// All constraints are hard (AND), never relaxed.
func filterClauses(f domain.Filters) (where []string, args []any) {
	if len(f.ContentTypes) > 0 {
		where = append(where, fmt.Sprintf(
			"content_type IN (%s)", placeholders(len(f.ContentTypes))))
		for _, ct := range f.ContentTypes {
			args = append(args, ct)
		}
	}
	if len(f.Tags) > 0 {
		// Set overlap: at least one document tag is in the requested set.
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM json_each(search_documents.tags)
				WHERE json_each.value IN (%s))`, placeholders(len(f.Tags))))
		for _, tag := range f.Tags {
			args = append(args, tag)
		}
	}
	if !f.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.From.UTC().Format(timeLayout))
	}
	if !f.To.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, f.To.UTC().Format(timeLayout))
	}
	if f.UserID != "" {
		where = append(where, "json_extract(metadata, '$.user_id') = ?")
		args = append(args, f.UserID)
	}
	return where, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func andJoin(conds []string) string {
	if len(conds) == 0 {
		return "1=1"
	}
	return strings.Join(conds, " AND ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanResult maps a row of resultColumns (+ relevance) into a domain.Result.
func scanResult(row rowScanner) (domain.Result, error) {
	var (
		res       domain.Result
		tagsJSON  string
		metaJSON  string
		createdAt string
	)
	err := row.Scan(
		&res.ID, &res.Title, &res.Content, &res.ContentType,
		&tagsJSON, &metaJSON, &createdAt, &res.Score,
	)
	if err != nil {
		return domain.Result{}, err
	}
	decodeResultFields(&res, tagsJSON, metaJSON, createdAt)
	return res, nil
}

// scanResultWithVector maps a row of resultColumns + embedding; the relevance
// score is computed by the caller.
func scanResultWithVector(row rowScanner) (domain.Result, []float32, error) {
	var (
		res       domain.Result
		tagsJSON  string
		metaJSON  string
		createdAt string
		embedding []byte
	)
	err := row.Scan(
		&res.ID, &res.Title, &res.Content, &res.ContentType,
		&tagsJSON, &metaJSON, &createdAt, &embedding,
	)
	if err != nil {
		return domain.Result{}, nil, err
	}
	decodeResultFields(&res, tagsJSON, metaJSON, createdAt)
	return res, sqlite.VectorFromBytes(embedding), nil
}

// decodeResultFields parses JSON columns, defaulting malformed values rather
// than propagating untyped data.
func decodeResultFields(res *domain.Result, tagsJSON, metaJSON, createdAt string) {
	if json.Unmarshal([]byte(tagsJSON), &res.Tags) != nil {
		res.Tags = nil
	}
	if json.Unmarshal([]byte(metaJSON), &res.Metadata) != nil {
		res.Metadata = nil
	}
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		res.CreatedAt = t
	}
}

func collectResults(rows *sql.Rows) ([]domain.Result, error) {
	var results []domain.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}
