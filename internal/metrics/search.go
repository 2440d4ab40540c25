package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Kind label values for the search-path metrics.
const (
	KindSearch       = "search"
	KindRank         = "rank"
	KindRankedSearch = "ranked_search"
)

// Search and ranking Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "search_requests_total",
			Help:      "Total number of search and ranking requests",
		},
		[]string{"kind", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rankdex",
			Name:      "search_duration_seconds",
			Help:      "Search and ranking request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"kind"},
	)
)

// ObserveSearch records one search-path request outcome.
func ObserveSearch(kind string, d time.Duration, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	SearchRequestsTotal.WithLabelValues(kind, status).Inc()
	SearchDuration.WithLabelValues(kind).Observe(d.Seconds())
}

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	searchMetricsRegistered = true
}
