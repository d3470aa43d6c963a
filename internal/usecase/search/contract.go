package search

import (
	"context"

	"github.com/kailas-cloud/findex/internal/domain"
)

// Repository defines the storage contract for retrieval.
type Repository interface {
	// Semantic scores candidates by vector similarity. Must return
	// domain.ErrVectorSearchUnsupported when similarity scoring cannot run;
	// any other error is a general store failure.
	Semantic(
		ctx context.Context, queryVec []float32, query string,
		f domain.Filters, limit int,
	) ([]domain.Result, error)

	// Keyword scores candidates by lexical relevance tiers.
	Keyword(
		ctx context.Context, query string, f domain.Filters, limit int,
	) ([]domain.Result, error)

	// Substring is the degraded plain substring path used as fallback.
	Substring(
		ctx context.Context, query string, f domain.Filters, limit int,
	) ([]domain.Result, error)
}

// Embedder vectorizes query text. Optional: a nil Embedder routes semantic
// search straight to the substring fallback.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Rewriter enhances raw query text. Optional and best-effort: errors keep the
// original query.
type Rewriter interface {
	RewriteQuery(ctx context.Context, query string) (string, error)
}

// QueryLogger appends immutable query-log records. Write failures never reach
// the search caller.
type QueryLogger interface {
	Insert(ctx context.Context, rec domain.QueryLog) error
}

// Suggester produces related-query strings for the final result set.
// Implementations never fail; they degrade through their own fallback tiers.
type Suggester interface {
	ForResults(ctx context.Context, query string, results []domain.Result) []string
}
