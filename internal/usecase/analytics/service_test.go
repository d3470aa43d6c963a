package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findex/internal/domain"
)

// --- Mocks ---

type mockLogs struct {
	report   *domain.Analytics
	popular  []domain.QueryStat
	err      error
	lastDays int
	lastLim  int
}

func (m *mockLogs) Analytics(_ context.Context, days int) (*domain.Analytics, error) {
	m.lastDays = days
	if m.err != nil {
		return nil, m.err
	}
	if m.report == nil {
		return &domain.Analytics{}, nil
	}
	return m.report, nil
}

func (m *mockLogs) PopularQueries(_ context.Context, days, limit int) ([]domain.QueryStat, error) {
	m.lastDays = days
	m.lastLim = limit
	return m.popular, m.err
}

type mockDocs struct {
	recent  []*domain.Document
	err     error
	lastLim int
}

func (m *mockDocs) Recent(_ context.Context, limit int) ([]*domain.Document, error) {
	m.lastLim = limit
	return m.recent, m.err
}

func (m *mockDocs) Count(_ context.Context) (int, error) {
	return len(m.recent), nil
}

func newTestService(logs *mockLogs, docs *mockDocs) *Service {
	return New(logs, docs, zap.NewNop())
}

// --- Tests ---

func TestReport_WindowClamping(t *testing.T) {
	tests := []struct {
		name string
		days int
		want int
	}{
		{"zero uses default", 0, 7},
		{"negative uses default", -3, 7},
		{"above max clamps", 365, 90},
		{"in range passes", 30, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := &mockLogs{}
			svc := newTestService(logs, &mockDocs{})

			report, err := svc.Report(context.Background(), tt.days)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logs.lastDays != tt.want {
				t.Errorf("expected repo window %d, got %d", tt.want, logs.lastDays)
			}
			if report.Days != tt.want {
				t.Errorf("expected report days %d, got %d", tt.want, report.Days)
			}
		})
	}
}

func TestReport_PropagatesError(t *testing.T) {
	logs := &mockLogs{err: errors.New("table locked")}
	svc := newTestService(logs, &mockDocs{})

	if _, err := svc.Report(context.Background(), 7); err == nil {
		t.Fatal("expected error")
	}
}

func TestPopularQueries_DefaultLimit(t *testing.T) {
	logs := &mockLogs{popular: []domain.QueryStat{{Query: "go", Count: 3}}}
	svc := newTestService(logs, &mockDocs{})

	stats, err := svc.PopularQueries(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logs.lastLim != 10 {
		t.Errorf("expected default limit 10, got %d", logs.lastLim)
	}
	if len(stats) != 1 {
		t.Errorf("expected 1 stat, got %d", len(stats))
	}
}

func TestTrendingContent_MapsDocuments(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	docs := &mockDocs{recent: []*domain.Document{
		{
			ID:          "d1",
			Title:       "Go Generics",
			ContentType: "article",
			Tags:        []string{"go"},
			Embedding:   []float32{0.1},
			UpdatedAt:   now,
		},
	}}
	svc := newTestService(&mockLogs{}, docs)

	items, err := svc.TrendingContent(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ID != "d1" || items[0].Title != "Go Generics" {
		t.Errorf("unexpected item: %+v", items[0])
	}
	if items[0].UpdatedAt != "2026-08-30T12:00:00Z" {
		t.Errorf("unexpected timestamp: %q", items[0].UpdatedAt)
	}
	if docs.lastLim != 5 {
		t.Errorf("expected limit 5, got %d", docs.lastLim)
	}
}

func TestTrendingContent_LimitDefaults(t *testing.T) {
	docs := &mockDocs{}
	svc := newTestService(&mockLogs{}, docs)

	if _, err := svc.TrendingContent(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs.lastLim != 10 {
		t.Errorf("expected default limit 10, got %d", docs.lastLim)
	}

	if _, err := svc.TrendingContent(context.Background(), 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs.lastLim != 10 {
		t.Errorf("expected oversized limit to default, got %d", docs.lastLim)
	}
}
