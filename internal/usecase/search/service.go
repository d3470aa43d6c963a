// Package search coordinates the semantic, keyword and hybrid retrieval
// strategies, query enhancement, logging and suggestion side effects.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findex/internal/domain"
	"github.com/kailas-cloud/findex/internal/metrics"
)

// Service executes searches. Construct with New and the With* options.
type Service struct {
	repo         Repository
	logs         QueryLogger
	suggest      Suggester
	embed        Embedder // nil: no provider configured
	rewriter     Rewriter // nil: query enhancement disabled
	logger       *zap.Logger
	defaultLimit int
	maxLimit     int
}

// New creates a search service.
func New(repo Repository, logs QueryLogger, suggest Suggester, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		logs:         logs,
		suggest:      suggest,
		logger:       logger,
		defaultLimit: 20,
		maxLimit:     100,
	}
}

// WithEmbedder attaches the optional embedding provider.
func (s *Service) WithEmbedder(e Embedder) *Service {
	s.embed = e
	return s
}

// WithRewriter enables best-effort query enhancement.
func (s *Service) WithRewriter(r Rewriter) *Service {
	s.rewriter = r
	return s
}

// WithLimits configures result count bounds.
func (s *Service) WithLimits(defaultLimit, maxLimit int) *Service {
	if defaultLimit > 0 {
		s.defaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	return s
}

// Request is one search invocation.
type Request struct {
	Query   string
	Filters domain.Filters
	Mode    domain.Mode
	Limit   int
	UserID  string
}

// Search dispatches a request to the chosen strategy. It never returns an
// error: a total, unrecoverable failure produces a valid empty response with
// SearchType "error", and a log row is written on every path.
func (s *Service) Search(ctx context.Context, req Request) domain.Response {
	start := time.Now()
	limit := s.clampLimit(req.Limit)

	mode := req.Mode
	if mode != domain.ModeSemantic && mode != domain.ModeKeyword {
		mode = domain.ModeHybrid
	}

	query, enhanced := s.enhanceQuery(ctx, req.Query)

	var (
		resp domain.Response
		err  error
	)
	switch mode {
	case domain.ModeSemantic:
		resp, err = s.semanticSearch(ctx, query, req.Filters, limit, req.UserID, enhanced)
	case domain.ModeKeyword:
		resp, err = s.keywordSearch(ctx, query, req.Filters, limit, req.UserID, enhanced)
	default:
		resp, err = s.hybridSearch(ctx, query, req.Filters, limit, req.UserID, enhanced)
	}

	if err != nil {
		s.logger.Error("Search failed",
			zap.String("mode", string(mode)),
			zap.String("query", query),
			zap.Error(err),
		)
		metrics.SearchesTotal.WithLabelValues(string(mode), "error").Inc()
		return s.errorResponse(ctx, query, req.Filters, start, req.UserID)
	}

	metrics.SearchesTotal.WithLabelValues(string(mode), outcomeLabel(resp.SearchType)).Inc()
	metrics.SearchDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	return resp
}

// SemanticSearch retrieves by embedding similarity, falling back to substring
// matching when similarity scoring is unavailable.
func (s *Service) SemanticSearch(
	ctx context.Context, query string, f domain.Filters, limit int, userID string,
) (domain.Response, error) {
	return s.semanticSearch(ctx, query, f, s.clampLimit(limit), userID, false)
}

// KeywordSearch retrieves by lexical relevance tiers.
func (s *Service) KeywordSearch(
	ctx context.Context, query string, f domain.Filters, limit int, userID string,
) (domain.Response, error) {
	return s.keywordSearch(ctx, query, f, s.clampLimit(limit), userID, false)
}

// HybridSearch runs both strategies concurrently and merges their results.
func (s *Service) HybridSearch(
	ctx context.Context, query string, f domain.Filters, limit int, userID string,
) (domain.Response, error) {
	return s.hybridSearch(ctx, query, f, s.clampLimit(limit), userID, false)
}

func (s *Service) semanticSearch(
	ctx context.Context, query string, f domain.Filters,
	limit int, userID string, enhanced bool,
) (domain.Response, error) {
	start := time.Now()

	results, st, err := s.retrieveSemantic(ctx, query, f, limit)
	if err != nil {
		return domain.Response{}, err
	}
	if enhanced {
		st = st.Enhanced()
	}
	return s.finish(ctx, query, f, st, results, start, userID), nil
}

// retrieveSemantic tries similarity scoring first; when the vector path is
// unavailable it degrades to plain substring matching with the same filters.
// Only a failure of the substring path itself propagates.
func (s *Service) retrieveSemantic(
	ctx context.Context, query string, f domain.Filters, limit int,
) ([]domain.Result, domain.SearchType, error) {
	queryVec := s.embedQuery(ctx, query)

	results, err := s.repo.Semantic(ctx, queryVec, query, f, limit)
	if err == nil {
		return results, domain.SearchTypeSemantic, nil
	}
	if !errors.Is(err, domain.ErrVectorSearchUnsupported) {
		return nil, "", err
	}

	s.logger.Warn("Vector search unavailable, using substring fallback",
		zap.String("query", query), zap.Error(err))

	results, err = s.repo.Substring(ctx, query, f, limit)
	if err != nil {
		return nil, "", err
	}
	return results, domain.SearchTypeFallback, nil
}

func (s *Service) keywordSearch(
	ctx context.Context, query string, f domain.Filters,
	limit int, userID string, enhanced bool,
) (domain.Response, error) {
	start := time.Now()

	results, err := s.repo.Keyword(ctx, query, f, limit)
	if err != nil {
		return domain.Response{}, err
	}

	st := domain.SearchTypeKeyword
	if enhanced {
		st = st.Enhanced()
	}
	return s.finish(ctx, query, f, st, results, start, userID), nil
}

// embedQuery vectorizes the query. A nil provider or a provider failure
// yields a nil vector, which routes the retriever to its substring fallback.
func (s *Service) embedQuery(ctx context.Context, query string) []float32 {
	if s.embed == nil {
		return nil
	}
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("Query embedding failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return vec
}

// enhanceQuery rewrites the raw query when a rewriter is configured.
// Best-effort: any provider error keeps the original query.
func (s *Service) enhanceQuery(ctx context.Context, query string) (string, bool) {
	if s.rewriter == nil || strings.TrimSpace(query) == "" {
		return query, false
	}
	rewritten, err := s.rewriter.RewriteQuery(ctx, query)
	if err != nil {
		s.logger.Debug("Query enhancement failed", zap.String("query", query), zap.Error(err))
		return query, false
	}
	if rewritten == "" || rewritten == query {
		return query, false
	}
	s.logger.Debug("Query enhanced",
		zap.String("original", query), zap.String("rewritten", rewritten))
	return rewritten, true
}

// finish assembles the response and fires the logging and suggestion side
// effects shared by every successful strategy call.
func (s *Service) finish(
	ctx context.Context, query string, f domain.Filters,
	st domain.SearchType, results []domain.Result,
	start time.Time, userID string,
) domain.Response {
	if results == nil {
		results = []domain.Result{}
	}
	elapsed := time.Since(start).Milliseconds()

	s.logQuery(ctx, domain.QueryLog{
		Query:          query,
		Filters:        f,
		SearchType:     st,
		ResultsCount:   len(results),
		ResponseTimeMs: elapsed,
		UserID:         userID,
	})

	return domain.Response{
		Results:        results,
		Total:          len(results),
		Query:          query,
		SearchType:     st,
		ResponseTimeMs: elapsed,
		Suggestions:    s.suggest.ForResults(ctx, query, results),
	}
}

// errorResponse is the terminal shape for a total failure: empty results,
// SearchType "error", still logged.
func (s *Service) errorResponse(
	ctx context.Context, query string, f domain.Filters,
	start time.Time, userID string,
) domain.Response {
	elapsed := time.Since(start).Milliseconds()

	s.logQuery(ctx, domain.QueryLog{
		Query:          query,
		Filters:        f,
		SearchType:     domain.SearchTypeError,
		ResultsCount:   0,
		ResponseTimeMs: elapsed,
		UserID:         userID,
	})

	return domain.Response{
		Results:        []domain.Result{},
		Total:          0,
		Query:          query,
		SearchType:     domain.SearchTypeError,
		ResponseTimeMs: elapsed,
		Suggestions:    []string{},
	}
}

// logQuery appends a query-log row. Failures are reported to the operational
// log only, never to the caller.
func (s *Service) logQuery(ctx context.Context, rec domain.QueryLog) {
	if err := s.logs.Insert(ctx, rec); err != nil {
		s.logger.Warn("Failed to write query log",
			zap.String("query", rec.Query),
			zap.String("search_type", string(rec.SearchType)),
			zap.Error(err),
		)
	}
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

func outcomeLabel(st domain.SearchType) string {
	if strings.HasPrefix(string(st), string(domain.SearchTypeFallback)) {
		return "fallback"
	}
	return "ok"
}
