package domain

import (
	"strings"
	"time"
)

// Document is a unit of indexed content.
// A document without an Embedding is still matchable by keyword search but is
// excluded from similarity scoring (it receives a constant partial-credit
// score instead of being dropped).
type Document struct {
	ID          string
	Title       string
	Content     string
	ContentType string
	Tags        []string
	Metadata    map[string]any
	Embedding   []float32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EmbeddingInput is the text the indexer vectorizes for a document.
func (d *Document) EmbeddingInput() string {
	return strings.TrimSpace(d.Title + " " + d.Content)
}

// HasEmbedding reports whether the document has been vectorized.
func (d *Document) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// Filters constrains a search. Caller-supplied and immutable per request;
// empty fields mean "no constraint".
type Filters struct {
	ContentTypes []string
	Tags         []string
	From         time.Time
	To           time.Time
	UserID       string
}

// IsEmpty reports whether no constraint is set.
func (f Filters) IsEmpty() bool {
	return len(f.ContentTypes) == 0 && len(f.Tags) == 0 &&
		f.From.IsZero() && f.To.IsZero() && f.UserID == ""
}
