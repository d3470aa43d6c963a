package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrEmptyQuery signals a blank search query.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrInvalidMode signals an unknown search mode.
	ErrInvalidMode = errors.New("invalid search mode")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrProviderNotConfigured signals that no provider credential is present.
	ErrProviderNotConfigured = errors.New("embedding provider not configured")
	// ErrVectorSearchUnsupported signals that similarity scoring cannot run
	// against the current store contents (e.g. dimension mismatch). Retrievers
	// treat it as a cue to fall back to substring search.
	ErrVectorSearchUnsupported = errors.New("vector search unsupported")
	// ErrStoreUnavailable signals a non-recoverable store failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)
