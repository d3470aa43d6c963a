// Package index ingests documents: embed, then persist.
//
// Embedding is best-effort. A provider failure or a missing provider stores
// the document without a vector so it stays reachable through keyword search,
// and a later re-index can fill the vector in.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/findex/internal/domain"
)

const defaultBatchConcurrency = 4

// Service indexes documents into the store.
type Service struct {
	repo        Repository
	embed       Embedder // nil: index without embeddings
	logger      *zap.Logger
	concurrency int
}

// New creates an indexing service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		logger:      logger,
		concurrency: defaultBatchConcurrency,
	}
}

// WithEmbedder attaches the optional embedding provider.
func (s *Service) WithEmbedder(e Embedder) *Service {
	s.embed = e
	return s
}

// WithConcurrency bounds the parallelism of batch indexing.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// IndexContent validates, embeds and upserts one document. A missing ID is
// generated. Returns the stored document with timestamps and ID populated.
func (s *Service) IndexContent(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document: %w", domain.ErrDocumentNotFound)
	}
	if strings.TrimSpace(doc.Title) == "" && strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("document has no text: %w", domain.ErrEmptyQuery)
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	doc.Embedding = s.embedDocument(ctx, doc)

	if err := s.repo.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}

	s.logger.Debug("Indexed document",
		zap.String("id", doc.ID),
		zap.String("content_type", doc.ContentType),
		zap.Bool("embedded", doc.HasEmbedding()),
	)
	return doc, nil
}

// BatchResult reports the outcome of one document in a batch.
type BatchResult struct {
	ID    string
	Error error
}

// IndexBatch indexes documents concurrently with per-document isolation: one
// document failing does not abort the rest. Results are returned in input
// order; the returned error is non-nil only when the context is cancelled.
func (s *Service) IndexBatch(ctx context.Context, docs []*domain.Document) ([]BatchResult, error) {
	results := make([]BatchResult, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stored, err := s.IndexContent(ctx, doc)
			if err != nil {
				results[i] = BatchResult{Error: err}
				if doc != nil {
					results[i].ID = doc.ID
				}
				return nil
			}
			results[i] = BatchResult{ID: stored.ID}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("index batch: %w", err)
	}
	return results, nil
}

// Document loads a stored document by id.
func (s *Service) Document(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	return doc, nil
}

// Remove deletes a document by id.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// Reindex re-embeds an existing document in place. Useful after switching
// embedding models.
func (s *Service) Reindex(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.IndexContent(ctx, doc)
}

// embedDocument vectorizes the document text, keeping any existing vector
// when the provider is unavailable.
func (s *Service) embedDocument(ctx context.Context, doc *domain.Document) []float32 {
	if s.embed == nil {
		return doc.Embedding
	}
	vec, err := s.embed.Embed(ctx, doc.EmbeddingInput())
	if err != nil {
		s.logger.Warn("Embedding failed, indexing without vector",
			zap.String("id", doc.ID), zap.Error(err))
		return doc.Embedding
	}
	return vec
}
