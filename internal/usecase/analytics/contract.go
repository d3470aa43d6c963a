package analytics

import (
	"context"

	"github.com/kailas-cloud/findex/internal/domain"
)

// QueryLogReader reads aggregated query-log statistics.
type QueryLogReader interface {
	Analytics(ctx context.Context, days int) (*domain.Analytics, error)
	PopularQueries(ctx context.Context, days, limit int) ([]domain.QueryStat, error)
}

// DocumentReader serves the trending-content view.
type DocumentReader interface {
	Recent(ctx context.Context, limit int) ([]*domain.Document, error)
	Count(ctx context.Context) (int, error)
}
