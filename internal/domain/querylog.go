package domain

import "time"

// QueryLog is one immutable record per search invocation, written on success
// and failure paths alike.
type QueryLog struct {
	Query          string
	Filters        Filters
	SearchType     SearchType
	ResultsCount   int
	ResponseTimeMs int64
	UserID         string
	CreatedAt      time.Time
}

// Analytics aggregates the query log over a trailing window of days.
type Analytics struct {
	Days              int
	TotalSearches     int
	AvgResponseTimeMs float64
	UniqueUsers       int
	DailyVolume       []DailyVolume
	TopQueries        []QueryStat
	TypePerformance   []TypeStat
}

// DailyVolume is the query count for one day and search type.
type DailyVolume struct {
	Day        string
	SearchType SearchType
	Count      int
}

// QueryStat is a leaderboard entry for a frequent query.
type QueryStat struct {
	Query      string
	Count      int
	AvgResults float64
}

// TypeStat is per-search-type performance over the window.
type TypeStat struct {
	SearchType        SearchType
	Count             int
	AvgResponseTimeMs float64
	AvgResults        float64
}
