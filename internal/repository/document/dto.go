package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/findex/internal/db/sqlite"
	"github.com/kailas-cloud/findex/internal/domain"
)

// timeLayout is the storage format for timestamps: SQLite's native datetime
// text format, always UTC. Lexicographic order stays chronological and the
// date()/datetime() functions parse it directly.
const timeLayout = "2006-01-02 15:04:05.000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeDocFields(doc *domain.Document) (tagsJSON, metaJSON string, err error) {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	tb, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("marshal tags: %w", err)
	}

	meta := doc.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	mb, err := json.Marshal(meta)
	if err != nil {
		return "", "", fmt.Errorf("marshal metadata: %w", err)
	}

	return string(tb), string(mb), nil
}

// DecodeTags parses the tags column. Malformed JSON defaults to no tags
// rather than failing the whole row.
func DecodeTags(raw string) []string {
	var tags []string
	if json.Unmarshal([]byte(raw), &tags) != nil {
		return nil
	}
	return tags
}

// DecodeMetadata parses the metadata column, defaulting malformed JSON to nil.
func DecodeMetadata(raw string) map[string]any {
	var meta map[string]any
	if json.Unmarshal([]byte(raw), &meta) != nil {
		return nil
	}
	return meta
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument maps one search_documents row into a typed domain.Document.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc       domain.Document
		tagsJSON  string
		metaJSON  string
		embedding []byte
		createdAt string
		updatedAt string
	)

	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Content, &doc.ContentType,
		&tagsJSON, &metaJSON, &embedding, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Tags = DecodeTags(tagsJSON)
	doc.Metadata = DecodeMetadata(metaJSON)
	doc.Embedding = sqlite.VectorFromBytes(embedding)
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return &doc, nil
}
