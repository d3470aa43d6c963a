// Package suggest generates "did you mean / related query" strings.
//
// Tiers are tried in a fixed order and each failure degrades silently to the
// next: AI generation seeded with result titles, then store titles containing
// the query substring, then generic templates. The template tier cannot fail,
// so the generator as a whole never does.
package suggest

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/findex/internal/domain"
)

const (
	maxSuggestions = 5
	contextTitles  = 3
	cacheSize      = 1000
	cacheTTL       = 5 * time.Minute
)

// Provider is the AI suggestion contract. Optional.
type Provider interface {
	Suggest(ctx context.Context, query string, titles []string) ([]string, error)
}

// TitleSearcher serves the store-derived fallback tier.
type TitleSearcher interface {
	TitleSuggestions(ctx context.Context, query string, limit int) ([]string, error)
}

type cacheEntry struct {
	suggestions []domain.Suggestion
	expiresAt   time.Time
}

// Service produces suggestions through the ordered fallback tiers.
type Service struct {
	provider Provider // nil: AI tier skipped
	titles   TitleSearcher
	cache    *lru.Cache[string, cacheEntry]
	logger   *zap.Logger
}

// New creates a suggestion service.
func New(titles TitleSearcher, logger *zap.Logger) *Service {
	cache, err := lru.New[string, cacheEntry](cacheSize)
	if err != nil {
		// Only possible with a non-positive size constant.
		panic("suggest: create cache: " + err.Error())
	}
	return &Service{
		titles: titles,
		cache:  cache,
		logger: logger,
	}
}

// WithProvider attaches the optional AI tier.
func (s *Service) WithProvider(p Provider) *Service {
	s.provider = p
	return s
}

// ForResults returns suggestion strings for a search response, seeding the AI
// tier with the titles of the top results. Never fails.
func (s *Service) ForResults(ctx context.Context, query string, results []domain.Result) []string {
	titles := make([]string, 0, contextTitles)
	for _, r := range results {
		if len(titles) == contextTitles {
			break
		}
		if r.Title != "" {
			titles = append(titles, r.Title)
		}
	}

	suggestions := s.generate(ctx, query, titles)
	out := make([]string, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, sg.Text)
	}
	return out
}

// Suggestions returns typed suggestions for a raw query (no result context).
func (s *Service) Suggestions(ctx context.Context, query string) []domain.Suggestion {
	return s.generate(ctx, query, nil)
}

// tier is one step of the fallback chain: a result, or a signal to try the
// next tier.
type tier struct {
	source domain.SuggestionSource
	fetch  func(ctx context.Context) ([]string, error)
}

func (s *Service) generate(ctx context.Context, query string, titles []string) []domain.Suggestion {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	cacheKey := strings.ToLower(query)
	if entry, ok := s.cache.Get(cacheKey); ok && time.Now().Before(entry.expiresAt) {
		return entry.suggestions
	}

	tiers := []tier{
		{
			source: domain.SuggestionSourceAI,
			fetch: func(ctx context.Context) ([]string, error) {
				if s.provider == nil {
					return nil, domain.ErrProviderNotConfigured
				}
				return s.provider.Suggest(ctx, query, titles)
			},
		},
		{
			source: domain.SuggestionSourceTitles,
			fetch: func(ctx context.Context) ([]string, error) {
				return s.titles.TitleSuggestions(ctx, query, maxSuggestions)
			},
		},
		{
			source: domain.SuggestionSourceTemplate,
			fetch: func(context.Context) ([]string, error) {
				return templateSuggestions(query), nil
			},
		},
	}

	var suggestions []domain.Suggestion
	for _, t := range tiers {
		items, err := t.fetch(ctx)
		if err != nil {
			s.logger.Debug("Suggestion tier failed",
				zap.String("tier", string(t.source)),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		if len(items) == 0 {
			continue
		}
		suggestions = typed(items, t.source)
		break
	}

	s.cache.Add(cacheKey, cacheEntry{
		suggestions: suggestions,
		expiresAt:   time.Now().Add(cacheTTL),
	})
	return suggestions
}

func typed(items []string, source domain.SuggestionSource) []domain.Suggestion {
	if len(items) > maxSuggestions {
		items = items[:maxSuggestions]
	}
	out := make([]domain.Suggestion, 0, len(items))
	for _, it := range items {
		out = append(out, domain.Suggestion{Text: it, Source: source})
	}
	return out
}

// templateSuggestions is the last-resort tier.
func templateSuggestions(query string) []string {
	return []string{
		query + " tutorial",
		query + " guide",
		query + " examples",
		"advanced " + query,
		query + " best practices",
	}
}
