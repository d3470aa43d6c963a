package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findex/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	upsertErr error
	getErr    error
	deleteErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{docs: make(map[string]*domain.Document)}
}

func (m *mockRepo) Upsert(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.docs, id)
	return nil
}

type mockEmbedder struct {
	mu    sync.Mutex
	vec   []float32
	err   error
	calls int
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.texts = append(m.texts, text)
	return m.vec, m.err
}

// --- Tests ---

func TestIndexContent_GeneratesID(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, zap.NewNop())

	doc, err := svc.IndexContent(context.Background(), &domain.Document{
		Title:   "Go Tutorial",
		Content: "Learn Go",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID == "" {
		t.Error("expected a generated document ID")
	}
	if _, ok := repo.docs[doc.ID]; !ok {
		t.Error("document not stored under generated ID")
	}
}

func TestIndexContent_KeepsExplicitID(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, zap.NewNop())

	doc, err := svc.IndexContent(context.Background(), &domain.Document{
		ID: "doc-1", Title: "T", Content: "C",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != "doc-1" {
		t.Errorf("expected doc-1, got %q", doc.ID)
	}
}

func TestIndexContent_EmbedsTitleAndContent(t *testing.T) {
	repo := newMockRepo()
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	svc := New(repo, zap.NewNop()).WithEmbedder(embed)

	doc, err := svc.IndexContent(context.Background(), &domain.Document{
		ID: "d", Title: "Go", Content: "Tutorial",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.HasEmbedding() {
		t.Error("expected document to carry an embedding")
	}
	if len(embed.texts) != 1 || embed.texts[0] != "Go Tutorial" {
		t.Errorf("expected embedding input \"Go Tutorial\", got %v", embed.texts)
	}
}

func TestIndexContent_EmbedFailureIndexesWithoutVector(t *testing.T) {
	repo := newMockRepo()
	embed := &mockEmbedder{err: errors.New("provider down")}
	svc := New(repo, zap.NewNop()).WithEmbedder(embed)

	doc, err := svc.IndexContent(context.Background(), &domain.Document{
		ID: "d", Title: "Go", Content: "Tutorial",
	})
	if err != nil {
		t.Fatalf("expected success despite embed failure, got %v", err)
	}
	if doc.HasEmbedding() {
		t.Error("expected no embedding after provider failure")
	}
	if _, ok := repo.docs["d"]; !ok {
		t.Error("document should still be stored")
	}
}

func TestIndexContent_RejectsEmptyText(t *testing.T) {
	svc := New(newMockRepo(), zap.NewNop())

	_, err := svc.IndexContent(context.Background(), &domain.Document{ID: "d"})
	if err == nil {
		t.Fatal("expected error for document without text")
	}
}

func TestIndexContent_NilDocument(t *testing.T) {
	svc := New(newMockRepo(), zap.NewNop())

	if _, err := svc.IndexContent(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}

func TestIndexBatch_PerDocumentIsolation(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, zap.NewNop())

	docs := []*domain.Document{
		{ID: "ok-1", Title: "A", Content: "a"},
		{ID: "bad", Title: "", Content: ""},
		{ID: "ok-2", Title: "B", Content: "b"},
	}
	results, err := svc.IndexBatch(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected batch error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Errorf("expected ok-1 and ok-2 to succeed: %+v", results)
	}
	if results[1].Error == nil {
		t.Error("expected the empty document to fail")
	}
	if len(repo.docs) != 2 {
		t.Errorf("expected 2 stored documents, got %d", len(repo.docs))
	}
}

func TestIndexBatch_PreservesInputOrder(t *testing.T) {
	repo := newMockRepo()
	svc := New(repo, zap.NewNop()).WithConcurrency(8)

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	docs := make([]*domain.Document, len(ids))
	for i, id := range ids {
		docs[i] = &domain.Document{ID: id, Title: id, Content: id}
	}

	results, err := svc.IndexBatch(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, id := range ids {
		if results[i].ID != id {
			t.Errorf("result %d: expected %q, got %q", i, id, results[i].ID)
		}
	}
}

func TestIndexBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := New(newMockRepo(), zap.NewNop())
	_, err := svc.IndexBatch(ctx, []*domain.Document{
		{ID: "a", Title: "A", Content: "a"},
	})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestReindex_NotFound(t *testing.T) {
	svc := New(newMockRepo(), zap.NewNop())

	_, err := svc.Reindex(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestReindex_RefreshesEmbedding(t *testing.T) {
	repo := newMockRepo()
	repo.docs["d"] = &domain.Document{ID: "d", Title: "Go", Content: "Tutorial"}
	embed := &mockEmbedder{vec: []float32{0.5}}
	svc := New(repo, zap.NewNop()).WithEmbedder(embed)

	doc, err := svc.Reindex(context.Background(), "d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.HasEmbedding() {
		t.Error("expected embedding after reindex")
	}
	if embed.calls != 1 {
		t.Errorf("expected one embed call, got %d", embed.calls)
	}
}

func TestRemove_Propagates(t *testing.T) {
	repo := newMockRepo()
	repo.deleteErr = domain.ErrDocumentNotFound
	svc := New(repo, zap.NewNop())

	if err := svc.Remove(context.Background(), "x"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
