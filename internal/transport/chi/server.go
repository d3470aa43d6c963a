// Package chi holds the HTTP API: JSON handlers over the usecase services,
// wired into a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/findex/internal/domain"
	analyticsuc "github.com/kailas-cloud/findex/internal/usecase/analytics"
	healthuc "github.com/kailas-cloud/findex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/findex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/findex/internal/usecase/search"
	suggestuc "github.com/kailas-cloud/findex/internal/usecase/suggest"
)

const maxBatchSize = 100

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search API over HTTP.
type Server struct {
	search        *searchuc.Service
	index         *indexuc.Service
	suggest       *suggestuc.Service
	analytics     *analyticsuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	index *indexuc.Service,
	suggest *suggestuc.Service,
	analytics *analyticsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		index:     index,
		suggest:   suggest,
		analytics: analytics,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidMode, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrProviderNotConfigured, http.StatusNotImplemented, codeProviderError),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
	}
	return s
}

// Routes mounts all API handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/suggestions", s.Suggestions)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.IndexDocument)
			r.Post("/batch", s.BatchIndex)
			r.Put("/{id}", s.UpsertDocument)
			r.Get("/{id}", s.GetDocument)
			r.Delete("/{id}", s.DeleteDocument)
			r.Post("/{id}/reindex", s.ReindexDocument)
		})

		r.Get("/analytics", s.Analytics)
		r.Get("/queries/popular", s.PopularQueries)
		r.Get("/content/trending", s.TrendingContent)
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	filters, err := req.filters()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "invalid date filter: "+err.Error())
		return
	}

	resp := s.search.Search(r.Context(), searchuc.Request{
		Query:   req.Query,
		Filters: filters,
		Mode:    mode,
		Limit:   req.Limit,
		UserID:  req.UserID,
	})

	writeJSON(w, http.StatusOK, responseToDTO(resp))
}

// Suggestions handles GET /api/v1/suggestions?q=.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "q is required")
		return
	}

	suggestions := s.suggest.Suggestions(r.Context(), query)

	items := make([]suggestionItem, len(suggestions))
	for i, sg := range suggestions {
		items[i] = suggestionItem{Text: sg.Text, Source: string(sg.Source)}
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Query:       query,
		Suggestions: items,
	})
}

// IndexDocument handles POST /api/v1/documents. The document ID is generated
// when absent.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	s.indexOne(w, r, "")
}

// UpsertDocument handles PUT /api/v1/documents/{id}.
func (s *Server) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	s.indexOne(w, r, chi.URLParam(r, "id"))
}

func (s *Server) indexOne(w http.ResponseWriter, r *http.Request, id string) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if id != "" {
		req.ID = id
	}

	doc := documentFromIndex(req)
	existed := doc.ID != "" && s.documentExists(r, doc.ID)

	stored, err := s.index.IndexContent(r.Context(), doc)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	} else {
		w.Header().Set("Location", "/api/v1/documents/"+stored.ID)
	}
	writeJSON(w, status, indexResponse{
		ID:        stored.ID,
		Embedded:  stored.HasEmbedding(),
		CreatedAt: stored.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: stored.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) documentExists(r *http.Request, id string) bool {
	_, err := s.index.Document(r.Context(), id)
	return err == nil
}

// BatchIndex handles POST /api/v1/documents/batch.
func (s *Server) BatchIndex(w http.ResponseWriter, r *http.Request) {
	var req batchIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Documents) == 0 || len(req.Documents) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", maxBatchSize))
		return
	}

	docs := make([]*domain.Document, len(req.Documents))
	for i, item := range req.Documents {
		docs[i] = documentFromIndex(item)
	}

	results, err := s.index.IndexBatch(r.Context(), docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	succeeded, failed := 0, 0
	items := make([]batchItemResult, len(results))
	for i, res := range results {
		items[i] = batchItemResult{ID: res.ID}
		if res.Error != nil {
			items[i].Error = safeDomainMessage(res.Error)
			failed++
		} else {
			succeeded++
		}
	}

	writeJSON(w, http.StatusOK, batchIndexResponse{
		Items:     items,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.index.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(doc))
}

// DeleteDocument handles DELETE /api/v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReindexDocument handles POST /api/v1/documents/{id}/reindex.
func (s *Server) ReindexDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.index.Reindex(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, indexResponse{
		ID:        doc.ID,
		Embedded:  doc.HasEmbedding(),
		CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: doc.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// Analytics handles GET /api/v1/analytics?days=.
func (s *Server) Analytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.Report(r.Context(), queryInt(r, "days"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyticsToDTO(report))
}

// PopularQueries handles GET /api/v1/queries/popular?days=&limit=.
func (s *Server) PopularQueries(w http.ResponseWriter, r *http.Request) {
	stats, err := s.analytics.PopularQueries(r.Context(), queryInt(r, "days"), queryInt(r, "limit"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]queryStatItem, len(stats))
	for i, q := range stats {
		items[i] = queryStatItem{Query: q.Query, Count: q.Count, AvgResults: q.AvgResults}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": items})
}

// TrendingContent handles GET /api/v1/content/trending?limit=.
func (s *Server) TrendingContent(w http.ResponseWriter, r *http.Request) {
	items, err := s.analytics.TrendingContent(r.Context(), queryInt(r, "limit"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrEmptyQuery,
		domain.ErrInvalidMode,
		domain.ErrEmbeddingProviderError,
		domain.ErrProviderNotConfigured,
		domain.ErrVectorSearchUnsupported,
		domain.ErrStoreUnavailable,
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
