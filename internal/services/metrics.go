package services

import "github.com/prometheus/client_golang/prometheus"

// Search outcomes reported on searchQueries.
const (
	outcomeOK        = "ok"
	outcomeEmpty     = "empty"
	outcomeMalformed = "malformed"
	outcomeError     = "error"
)

var (
	docsIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_documents_indexed_total",
			Help: "Documents accepted by the index, by status.",
		},
		[]string{"status"},
	)

	docsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_documents",
			Help: "Documents currently held by the index.",
		},
	)

	searchQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_queries_total",
			Help: "Searches executed, by outcome.",
		},
		[]string{"outcome"},
	)

	searchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_query_duration_seconds",
			Help:    "Time spent ranking a query.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 16),
		},
	)

	searchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_query_results",
			Help:    "Documents returned per search.",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)
)

func init() {
	prometheus.MustRegister(docsIndexed, docsGauge, searchQueries, searchLatency, searchResults)
}
