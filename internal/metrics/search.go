package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SearchesTotal counts search invocations by mode and outcome
	// ("ok", "fallback", "error").
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findex",
			Name:      "searches_total",
			Help:      "Total number of search invocations",
		},
		[]string{"mode", "outcome"},
	)

	// SearchDuration tracks end-to-end search latency by mode.
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "findex",
			Name:      "search_duration_seconds",
			Help:      "Search latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	// EmbeddingRequestsTotal counts provider calls by operation
	// ("embed", "rewrite", "suggest") and status ("success", "error").
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding provider requests",
		},
		[]string{"operation", "status"},
	)

	// EmbeddingTokensTotal counts tokens consumed by provider calls.
	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findex",
			Name:      "embedding_tokens_total",
			Help:      "Total tokens consumed by embedding provider requests",
		},
		[]string{"operation"},
	)

	// EmbeddingCacheTotal counts embedding cache lookups with label
	// "result" ("hit"/"miss").
	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "findex",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result",
		},
		[]string{"result"},
	)
)

// RegisterSearchMetrics registers search and embedding collectors explicitly
// (no init()) so tests can opt out of global registry pollution.
func RegisterSearchMetrics() {
	prometheus.MustRegister(
		SearchesTotal,
		SearchDuration,
		EmbeddingRequestsTotal,
		EmbeddingTokensTotal,
		EmbeddingCacheTotal,
	)
}
