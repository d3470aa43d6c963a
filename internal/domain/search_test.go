package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeHybrid, false},
		{"semantic", ModeSemantic, false},
		{"keyword", ModeKeyword, false},
		{"hybrid", ModeHybrid, false},
		{"psychic", "", true},
		{"Semantic", "", true},
	}
	for _, tt := range tests {
		t.Run("input="+tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMode) {
					t.Fatalf("expected ErrInvalidMode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSearchType_Enhanced(t *testing.T) {
	if got := SearchTypeHybrid.Enhanced(); got != "hybrid_enhanced" {
		t.Errorf("expected hybrid_enhanced, got %q", got)
	}
	if got := SearchTypeFallback.Enhanced(); got != "fallback_enhanced" {
		t.Errorf("expected fallback_enhanced, got %q", got)
	}
}

func TestDocument_EmbeddingInput(t *testing.T) {
	doc := &Document{Title: "Go Tutorial", Content: "channels and goroutines"}
	if got := doc.EmbeddingInput(); got != "Go Tutorial channels and goroutines" {
		t.Errorf("unexpected input: %q", got)
	}

	untitled := &Document{Content: "body only"}
	if got := untitled.EmbeddingInput(); got != "body only" {
		t.Errorf("expected trimmed input, got %q", got)
	}
}

func TestDocument_HasEmbedding(t *testing.T) {
	if (&Document{}).HasEmbedding() {
		t.Error("empty document must not report an embedding")
	}
	if !(&Document{Embedding: []float32{0.1}}).HasEmbedding() {
		t.Error("vectorized document must report an embedding")
	}
}

func TestFilters_IsEmpty(t *testing.T) {
	if !(Filters{}).IsEmpty() {
		t.Error("zero filters must be empty")
	}

	tests := []struct {
		name string
		f    Filters
	}{
		{"content types", Filters{ContentTypes: []string{"article"}}},
		{"tags", Filters{Tags: []string{"go"}}},
		{"from", Filters{From: time.Now()}},
		{"to", Filters{To: time.Now()}},
		{"user", Filters{UserID: "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.f.IsEmpty() {
				t.Error("filter set must not be empty")
			}
		})
	}
}
