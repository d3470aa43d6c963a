package querylog

import (
	"context"
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

func insertLogs(t *testing.T, repo *Repo, recs ...domain.QueryLog) {
	t.Helper()
	for _, rec := range recs {
		if err := repo.Insert(context.Background(), rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestAnalytics_Totals(t *testing.T) {
	repo := newTestRepo(t)
	insertLogs(t, repo,
		domain.QueryLog{Query: "go", SearchType: domain.SearchTypeHybrid, ResultsCount: 5, ResponseTimeMs: 10, UserID: "u-1"},
		domain.QueryLog{Query: "go", SearchType: domain.SearchTypeHybrid, ResultsCount: 3, ResponseTimeMs: 30, UserID: "u-1"},
		domain.QueryLog{Query: "rust", SearchType: domain.SearchTypeKeyword, ResultsCount: 1, ResponseTimeMs: 20, UserID: "u-2"},
		domain.QueryLog{Query: "zig", SearchType: domain.SearchTypeKeyword, ResultsCount: 0, ResponseTimeMs: 40},
	)

	a, err := repo.Analytics(context.Background(), 7)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.TotalSearches != 4 {
		t.Errorf("expected 4 searches, got %d", a.TotalSearches)
	}
	if a.AvgResponseTimeMs != 25 {
		t.Errorf("expected avg 25ms, got %v", a.AvgResponseTimeMs)
	}
	// Anonymous searches carry a NULL user_id and do not count as a user.
	if a.UniqueUsers != 2 {
		t.Errorf("expected 2 unique users, got %d", a.UniqueUsers)
	}
}

func TestAnalytics_TopQueries(t *testing.T) {
	repo := newTestRepo(t)
	insertLogs(t, repo,
		domain.QueryLog{Query: "go", SearchType: domain.SearchTypeHybrid, ResultsCount: 4},
		domain.QueryLog{Query: "go", SearchType: domain.SearchTypeHybrid, ResultsCount: 6},
		domain.QueryLog{Query: "rust", SearchType: domain.SearchTypeHybrid, ResultsCount: 2},
	)

	a, err := repo.Analytics(context.Background(), 7)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(a.TopQueries) != 2 {
		t.Fatalf("expected 2 top queries, got %+v", a.TopQueries)
	}
	if a.TopQueries[0].Query != "go" || a.TopQueries[0].Count != 2 || a.TopQueries[0].AvgResults != 5 {
		t.Errorf("unexpected top query: %+v", a.TopQueries[0])
	}
}

func TestAnalytics_TypePerformance(t *testing.T) {
	repo := newTestRepo(t)
	insertLogs(t, repo,
		domain.QueryLog{Query: "a", SearchType: domain.SearchTypeSemantic, ResponseTimeMs: 10, ResultsCount: 2},
		domain.QueryLog{Query: "b", SearchType: domain.SearchTypeSemantic, ResponseTimeMs: 20, ResultsCount: 4},
		domain.QueryLog{Query: "c", SearchType: domain.SearchTypeError},
	)

	a, err := repo.Analytics(context.Background(), 7)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(a.TypePerformance) != 2 {
		t.Fatalf("expected 2 type rows, got %+v", a.TypePerformance)
	}
	top := a.TypePerformance[0]
	if top.SearchType != domain.SearchTypeSemantic || top.Count != 2 {
		t.Errorf("unexpected top type: %+v", top)
	}
	if top.AvgResponseTimeMs != 15 || top.AvgResults != 3 {
		t.Errorf("unexpected averages: %+v", top)
	}
}

func TestAnalytics_DailyVolume(t *testing.T) {
	repo := newTestRepo(t)
	day := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	insertLogs(t, repo,
		domain.QueryLog{Query: "a", SearchType: domain.SearchTypeHybrid, CreatedAt: day},
		domain.QueryLog{Query: "b", SearchType: domain.SearchTypeHybrid, CreatedAt: day.Add(2 * time.Hour)},
		domain.QueryLog{Query: "c", SearchType: domain.SearchTypeKeyword, CreatedAt: day},
	)

	a, err := repo.Analytics(context.Background(), 7)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if len(a.DailyVolume) != 2 {
		t.Fatalf("expected 2 volume rows, got %+v", a.DailyVolume)
	}
	for _, v := range a.DailyVolume {
		if v.Day != "2026-08-29" {
			t.Errorf("unexpected day %q", v.Day)
		}
		switch v.SearchType {
		case domain.SearchTypeHybrid:
			if v.Count != 2 {
				t.Errorf("expected 2 hybrid, got %d", v.Count)
			}
		case domain.SearchTypeKeyword:
			if v.Count != 1 {
				t.Errorf("expected 1 keyword, got %d", v.Count)
			}
		default:
			t.Errorf("unexpected type %q", v.SearchType)
		}
	}
}

func TestAnalytics_WindowExcludesOldRecords(t *testing.T) {
	repo := newTestRepo(t)
	insertLogs(t, repo,
		domain.QueryLog{Query: "fresh", SearchType: domain.SearchTypeHybrid},
		domain.QueryLog{
			Query: "stale", SearchType: domain.SearchTypeHybrid,
			CreatedAt: time.Now().UTC().AddDate(0, 0, -40),
		},
	)

	a, err := repo.Analytics(context.Background(), 7)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.TotalSearches != 1 {
		t.Errorf("expected 1 search in window, got %d", a.TotalSearches)
	}
}

func TestPopularQueries_OrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	insertLogs(t, repo,
		domain.QueryLog{Query: "go", SearchType: domain.SearchTypeHybrid},
		domain.QueryLog{Query: "go", SearchType: domain.SearchTypeHybrid},
		domain.QueryLog{Query: "go", SearchType: domain.SearchTypeHybrid},
		domain.QueryLog{Query: "rust", SearchType: domain.SearchTypeHybrid},
		domain.QueryLog{Query: "rust", SearchType: domain.SearchTypeHybrid},
		domain.QueryLog{Query: "zig", SearchType: domain.SearchTypeHybrid},
	)

	stats, err := repo.PopularQueries(context.Background(), 7, 2)
	if err != nil {
		t.Fatalf("popular queries: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 stats, got %+v", stats)
	}
	if stats[0].Query != "go" || stats[0].Count != 3 {
		t.Errorf("unexpected first stat: %+v", stats[0])
	}
	if stats[1].Query != "rust" || stats[1].Count != 2 {
		t.Errorf("unexpected second stat: %+v", stats[1])
	}
}

func TestInsert_EmptyFiltersStored(t *testing.T) {
	repo := newTestRepo(t)
	insertLogs(t, repo, domain.QueryLog{Query: "go", SearchType: domain.SearchTypeHybrid})

	a, err := repo.Analytics(context.Background(), 7)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.TotalSearches != 1 {
		t.Errorf("expected 1 record, got %d", a.TotalSearches)
	}
}
