// Package analytics aggregates the query log into usage reports.
package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/findex/internal/domain"
)

// Service serves analytics reads over the query log and document store.
type Service struct {
	logs        QueryLogReader
	docs        DocumentReader
	logger      *zap.Logger
	defaultDays int
	maxDays     int
}

// New creates an analytics service.
func New(logs QueryLogReader, docs DocumentReader, logger *zap.Logger) *Service {
	return &Service{
		logs:        logs,
		docs:        docs,
		logger:      logger,
		defaultDays: 7,
		maxDays:     90,
	}
}

// WithWindow configures the default and maximum reporting window in days.
func (s *Service) WithWindow(defaultDays, maxDays int) *Service {
	if defaultDays > 0 {
		s.defaultDays = defaultDays
	}
	if maxDays > 0 {
		s.maxDays = maxDays
	}
	return s
}

// Report returns the aggregated analytics for the last N days. The window is
// clamped to the configured bounds; zero or negative means the default.
func (s *Service) Report(ctx context.Context, days int) (*domain.Analytics, error) {
	days = s.clampDays(days)

	report, err := s.logs.Analytics(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("aggregate query log: %w", err)
	}
	report.Days = days
	return report, nil
}

// PopularQueries returns the most frequent queries inside the window.
func (s *Service) PopularQueries(ctx context.Context, days, limit int) ([]domain.QueryStat, error) {
	days = s.clampDays(days)
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	stats, err := s.logs.PopularQueries(ctx, days, limit)
	if err != nil {
		return nil, fmt.Errorf("popular queries: %w", err)
	}
	return stats, nil
}

// TrendingItem is one recently updated document, embedding omitted.
type TrendingItem struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	ContentType string         `json:"contentType"`
	Tags        []string       `json:"tags"`
	UpdatedAt   string         `json:"updatedAt"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// TrendingContent lists the most recently updated documents.
func (s *Service) TrendingContent(ctx context.Context, limit int) ([]TrendingItem, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	docs, err := s.docs.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent documents: %w", err)
	}

	items := make([]TrendingItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, TrendingItem{
			ID:          d.ID,
			Title:       d.Title,
			ContentType: d.ContentType,
			Tags:        d.Tags,
			UpdatedAt:   d.UpdatedAt.UTC().Format(time.RFC3339),
			Metadata:    d.Metadata,
		})
	}
	return items, nil
}

func (s *Service) clampDays(days int) int {
	if days <= 0 {
		return s.defaultDays
	}
	if days > s.maxDays {
		s.logger.Debug("Analytics window clamped",
			zap.Int("requested", days), zap.Int("max", s.maxDays))
		return s.maxDays
	}
	return days
}
