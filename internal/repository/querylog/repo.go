// Package querylog persists and aggregates the append-only search query log.
package querylog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/findex/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05.000"

// Repo implements query-log storage over search_queries.
type Repo struct {
	db *sql.DB
}

// New creates a query-log repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Insert appends one log record. Records are immutable once written.
func (r *Repo) Insert(ctx context.Context, rec domain.QueryLog) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	filtersJSON, err := json.Marshal(rec.Filters)
	if err != nil {
		return fmt.Errorf("marshal filters: %w", err)
	}

	userID := sql.NullString{String: rec.UserID, Valid: rec.UserID != ""}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO search_queries
			(query, filters, search_type, results_count, response_time_ms, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Query, string(filtersJSON), string(rec.SearchType),
		rec.ResultsCount, rec.ResponseTimeMs, userID,
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	return nil
}

// Analytics aggregates the log over the trailing window of days. Read-only.
func (r *Repo) Analytics(ctx context.Context, days int) (*domain.Analytics, error) {
	cutoff := windowCutoff(days)
	a := &domain.Analytics{Days: days}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(response_time_ms), 0),
			COUNT(DISTINCT user_id)
		FROM search_queries
		WHERE created_at >= ?`, cutoff,
	).Scan(&a.TotalSearches, &a.AvgResponseTimeMs, &a.UniqueUsers)
	if err != nil {
		return nil, fmt.Errorf("analytics totals: %w", err)
	}

	if a.DailyVolume, err = r.dailyVolume(ctx, cutoff); err != nil {
		return nil, err
	}
	if a.TopQueries, err = r.topQueries(ctx, cutoff, 10); err != nil {
		return nil, err
	}
	if a.TypePerformance, err = r.typePerformance(ctx, cutoff); err != nil {
		return nil, err
	}
	return a, nil
}

// PopularQueries returns the most frequent queries over the window.
func (r *Repo) PopularQueries(ctx context.Context, days, limit int) ([]domain.QueryStat, error) {
	return r.topQueries(ctx, windowCutoff(days), limit)
}

func (r *Repo) dailyVolume(ctx context.Context, cutoff string) ([]domain.DailyVolume, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date(created_at), search_type, COUNT(*)
		FROM search_queries
		WHERE created_at >= ?
		GROUP BY date(created_at), search_type
		ORDER BY date(created_at) ASC, search_type ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("daily volume: %w", err)
	}
	defer rows.Close()

	var volume []domain.DailyVolume
	for rows.Next() {
		var v domain.DailyVolume
		if err := rows.Scan(&v.Day, &v.SearchType, &v.Count); err != nil {
			return nil, fmt.Errorf("scan daily volume: %w", err)
		}
		volume = append(volume, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily volume: %w", err)
	}
	return volume, nil
}

func (r *Repo) topQueries(ctx context.Context, cutoff string, limit int) ([]domain.QueryStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT query, COUNT(*), COALESCE(AVG(results_count), 0)
		FROM search_queries
		WHERE created_at >= ? AND query <> ''
		GROUP BY query
		ORDER BY COUNT(*) DESC, query ASC
		LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("top queries: %w", err)
	}
	defer rows.Close()

	var stats []domain.QueryStat
	for rows.Next() {
		var s domain.QueryStat
		if err := rows.Scan(&s.Query, &s.Count, &s.AvgResults); err != nil {
			return nil, fmt.Errorf("scan query stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query stats: %w", err)
	}
	return stats, nil
}

func (r *Repo) typePerformance(ctx context.Context, cutoff string) ([]domain.TypeStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT search_type, COUNT(*),
			COALESCE(AVG(response_time_ms), 0),
			COALESCE(AVG(results_count), 0)
		FROM search_queries
		WHERE created_at >= ?
		GROUP BY search_type
		ORDER BY COUNT(*) DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("type performance: %w", err)
	}
	defer rows.Close()

	var stats []domain.TypeStat
	for rows.Next() {
		var s domain.TypeStat
		if err := rows.Scan(&s.SearchType, &s.Count, &s.AvgResponseTimeMs, &s.AvgResults); err != nil {
			return nil, fmt.Errorf("scan type stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate type stats: %w", err)
	}
	return stats, nil
}

func windowCutoff(days int) string {
	return time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
}
