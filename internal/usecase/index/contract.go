package index

import (
	"context"

	"github.com/kailas-cloud/findex/internal/domain"
)

// Repository persists documents.
type Repository interface {
	Upsert(ctx context.Context, doc *domain.Document) error
	Get(ctx context.Context, id string) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
}

// Embedder vectorizes document text. Optional: with a nil Embedder documents
// are stored without embeddings and surface only through keyword search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
