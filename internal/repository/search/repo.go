// Package search runs the retrieval queries against the SQLite store.
//
// Keyword relevance is computed store-side in a single prioritized CASE
// expression. Semantic relevance is computed per-row from stored embedding
// BLOBs; rows without an embedding receive a constant partial-credit score so
// they are never silently dropped.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/kailas-cloud/findex/internal/domain"
)

// unembeddedScore is the deterministic partial-credit score for documents
// that have no embedding yet but still match the companion substring clause.
const unembeddedScore = 0.5

// Fallback substring tiers: a title hit outranks a content-only hit.
const (
	fallbackTitleScore   = 0.8
	fallbackContentScore = 0.6
)

// Repo implements retrieval over search_documents.
type Repo struct {
	db *sql.DB
}

// New creates a search repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

const resultColumns = `id, title, content, content_type, tags, metadata, created_at`

// Semantic returns candidates scored by cosine similarity against queryVec.
// Candidates are rows matching the filters that either carry an embedding or
// contain the query as a substring of title/content. Returns
// domain.ErrVectorSearchUnsupported when similarity scoring cannot run at all
// (empty query vector, or no stored embedding matches its dimensionality);
// the caller falls back to Substring.
func (r *Repo) Semantic(
	ctx context.Context, queryVec []float32, query string,
	f domain.Filters, limit int,
) ([]domain.Result, error) {
	if len(queryVec) == 0 {
		return nil, domain.ErrVectorSearchUnsupported
	}

	where, args := filterClauses(f)
	where = append(where,
		`(embedding IS NOT NULL
			OR instr(lower(title), lower(?)) > 0
			OR instr(lower(content), lower(?)) > 0)`)
	args = append(args, query, query)

	q := fmt.Sprintf(`
		SELECT %s, embedding
		FROM search_documents
		WHERE %s`, resultColumns, andJoin(where))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("semantic candidates: %w", err)
	}
	defer rows.Close()

	var (
		results  []domain.Result
		embedded int
		scorable int
	)
	for rows.Next() {
		res, vec, scanErr := scanResultWithVector(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan semantic candidate: %w", scanErr)
		}

		switch {
		case len(vec) == 0:
			res.Score = unembeddedScore
		case len(vec) != len(queryVec):
			embedded++
			res.Score = unembeddedScore
		default:
			embedded++
			scorable++
			res.Score = normalizeCosine(cosineSimilarity(queryVec, vec))
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate semantic candidates: %w", err)
	}

	// Every stored embedding mismatched the query vector: the similarity
	// operator is effectively unsupported for this store.
	if embedded > 0 && scorable == 0 {
		return nil, fmt.Errorf(
			"no stored embedding matches query dimension %d: %w",
			len(queryVec), domain.ErrVectorSearchUnsupported,
		)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Keyword returns candidates with deterministic lexical relevance tiers,
// highest applicable tier winning:
//
//	1.0 exact title match > 0.9 title contains > 0.8 tag exact >
//	0.7 content contains > 0.6 tag contains > 0.4 matched by filter only.
//
// Without filters the text-match clause is required; with filters the filters
// alone admit a row at the 0.4 baseline.
func (r *Repo) Keyword(
	ctx context.Context, query string, f domain.Filters, limit int,
) ([]domain.Result, error) {
	const caseExpr = `
		CASE
			WHEN lower(title) = lower(?) THEN 1.0
			WHEN instr(lower(title), lower(?)) > 0 THEN 0.9
			WHEN EXISTS (SELECT 1 FROM json_each(search_documents.tags)
				WHERE lower(json_each.value) = lower(?)) THEN 0.8
			WHEN instr(lower(content), lower(?)) > 0 THEN 0.7
			WHEN EXISTS (SELECT 1 FROM json_each(search_documents.tags)
				WHERE instr(lower(json_each.value), lower(?)) > 0) THEN 0.6
			ELSE 0.4
		END`

	args := []any{query, query, query, query, query}

	where, filterArgs := filterClauses(f)
	if f.IsEmpty() {
		where = append(where, `(
			instr(lower(title), lower(?)) > 0
			OR instr(lower(content), lower(?)) > 0
			OR EXISTS (SELECT 1 FROM json_each(search_documents.tags)
				WHERE instr(lower(json_each.value), lower(?)) > 0))`)
		filterArgs = append(filterArgs, query, query, query)
	}
	args = append(args, filterArgs...)
	args = append(args, limit)

	q := fmt.Sprintf(`
		SELECT %s, %s AS relevance
		FROM search_documents
		WHERE %s
		ORDER BY relevance DESC, created_at DESC
		LIMIT ?`, resultColumns, caseExpr, andJoin(where))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	return collectResults(rows)
}

// Substring is the degraded retrieval path: plain case-insensitive substring
// matching over title and content with the same filter semantics.
func (r *Repo) Substring(
	ctx context.Context, query string, f domain.Filters, limit int,
) ([]domain.Result, error) {
	where, args := filterClauses(f)
	where = append(where,
		`(instr(lower(title), lower(?)) > 0 OR instr(lower(content), lower(?)) > 0)`)
	args = append([]any{query}, append(args, query, query, limit)...)

	q := fmt.Sprintf(`
		SELECT %s,
			CASE WHEN instr(lower(title), lower(?)) > 0 THEN %v ELSE %v END AS relevance
		FROM search_documents
		WHERE %s
		ORDER BY relevance DESC, created_at DESC
		LIMIT ?`, resultColumns, fallbackTitleScore, fallbackContentScore, andJoin(where))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	defer rows.Close()

	return collectResults(rows)
}

// TitleSuggestions returns up to limit distinct titles containing the query
// substring, ordered alphabetically.
func (r *Repo) TitleSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT title
		FROM search_documents
		WHERE title <> '' AND instr(lower(title), lower(?)) > 0
		ORDER BY title ASC
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("title suggestions: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles: %w", err)
	}
	return titles, nil
}
