package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kailas-cloud/findex/internal/domain"
)

// Strategy weights for hybrid scoring. A document found by both strategies
// gets the average of its two weighted scores, not the sum, so appearing in
// both lists does not trivially dominate the ranking.
const (
	semanticWeight = 0.7
	keywordWeight  = 0.3
)

// Sub-limit fractions deliberately over-fetch (they sum past 1.0) to leave
// deduplication headroom before the post-merge truncation.
const (
	semanticShare = 0.6
	keywordShare  = 0.4
)

type branchResult struct {
	resp domain.Response
	err  error
}

// hybridSearch fans out to both strategies concurrently, joins on both
// completions, merges, and truncates to limit. Each branch carries its own
// internal fallback, so only both branches failing propagates. The two inner
// calls each write their own log row; the hybrid call writes a third.
func (s *Service) hybridSearch(
	ctx context.Context, query string, f domain.Filters,
	limit int, userID string, enhanced bool,
) (domain.Response, error) {
	start := time.Now()

	semCh := make(chan branchResult, 1)
	kwCh := make(chan branchResult, 1)

	go func() {
		resp, err := s.semanticSearch(ctx, query, f, subLimit(limit, semanticShare), userID, false)
		semCh <- branchResult{resp: resp, err: err}
	}()
	go func() {
		resp, err := s.keywordSearch(ctx, query, f, subLimit(limit, keywordShare), userID, false)
		kwCh <- branchResult{resp: resp, err: err}
	}()

	sem, kw := <-semCh, <-kwCh

	if sem.err != nil && kw.err != nil {
		return domain.Response{}, fmt.Errorf(
			"hybrid search: semantic: %v; keyword: %w", sem.err, kw.err)
	}

	merged := mergeWeighted(sem.resp.Results, kw.resp.Results, limit)

	st := domain.SearchTypeHybrid
	if enhanced {
		st = st.Enhanced()
	}
	return s.finish(ctx, query, f, st, merged, start, userID), nil
}

// mergeWeighted deduplicates by document id and combines scores:
// single-strategy hits keep their strategy weight applied once; dual hits get
// the average of the two weighted scores. Ordering is by descending combined
// score with ties kept in insertion order (stable sort), and truncation
// happens only after the merge.
func mergeWeighted(semantic, keyword []domain.Result, limit int) []domain.Result {
	merged := make([]domain.Result, 0, len(semantic)+len(keyword))
	pos := make(map[string]int, len(semantic))

	for _, r := range semantic {
		r.Score *= semanticWeight
		pos[r.ID] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range keyword {
		weighted := r.Score * keywordWeight
		if i, ok := pos[r.ID]; ok {
			merged[i].Score = (merged[i].Score + weighted) / 2
			continue
		}
		r.Score = weighted
		pos[r.ID] = len(merged)
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func subLimit(limit int, share float64) int {
	return int(math.Ceil(float64(limit) * share))
}
