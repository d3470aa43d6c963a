package document

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/findex/internal/db/sqlite"
	"github.com/kailas-cloud/findex/internal/domain"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store.DB())
}

func TestUpsert_Roundtrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := &domain.Document{
		ID:          "d1",
		Title:       "Go Concurrency",
		Content:     "Channels and goroutines",
		ContentType: "article",
		Tags:        []string{"go", "concurrency"},
		Metadata:    map[string]any{"author": "alice", "user_id": "u-1"},
		Embedding:   []float32{0.1, 0.2, 0.3},
	}
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != doc.Title || got.Content != doc.Content || got.ContentType != doc.ContentType {
		t.Errorf("fields mismatch: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" {
		t.Errorf("tags mismatch: %v", got.Tags)
	}
	if got.Metadata["author"] != "alice" {
		t.Errorf("metadata mismatch: %v", got.Metadata)
	}
	if len(got.Embedding) != 3 || got.Embedding[1] != 0.2 {
		t.Errorf("embedding mismatch: %v", got.Embedding)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestUpsert_PreservesCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &domain.Document{ID: "d1", Title: "v1", Content: "c"}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	created := first.CreatedAt

	time.Sleep(5 * time.Millisecond)

	second := &domain.Document{ID: "d1", Title: "v2", Content: "c2"}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "v2" {
		t.Errorf("expected updated title, got %q", got.Title)
	}
	if !got.CreatedAt.Equal(created.Truncate(time.Millisecond)) {
		t.Errorf("created_at changed: was %v, now %v", created, got.CreatedAt)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("updated_at not refreshed: created %v, updated %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestUpsert_ClearsEmbedding(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	withVec := &domain.Document{ID: "d1", Title: "t", Content: "c", Embedding: []float32{0.5}}
	if err := repo.Upsert(ctx, withVec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	withoutVec := &domain.Document{ID: "d1", Title: "t", Content: "c"}
	if err := repo.Upsert(ctx, withoutVec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.HasEmbedding() {
		t.Errorf("expected embedding cleared, got %v", got.Embedding)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, &domain.Document{ID: "d1", Title: "t", Content: "c"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Delete(ctx, "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "d1"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected document gone, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Delete(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestRecent_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"old", "mid", "new"} {
		if err := repo.Upsert(ctx, &domain.Document{ID: id, Title: id, Content: "c"}); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	docs, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "new" || docs[1].ID != "mid" {
		t.Errorf("expected [new mid], got [%s %s]", docs[0].ID, docs[1].ID)
	}
}

func TestCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Upsert(ctx, &domain.Document{ID: id, Title: id, Content: "c"}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}

func TestDecodeFields_MalformedJSON(t *testing.T) {
	if tags := DecodeTags("not json"); tags != nil {
		t.Errorf("expected nil tags, got %v", tags)
	}
	if meta := DecodeMetadata("{broken"); meta != nil {
		t.Errorf("expected nil metadata, got %v", meta)
	}
}
