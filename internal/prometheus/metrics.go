package prometheus

import (
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal - Counter of HTTP requests by method, path and status
	RequestsTotal = promclient.NewCounterVec(
		promclient.CounterOpts{
			Name: "friendly_ad_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration - Histogram of HTTP request durations
	RequestDuration = promclient.NewHistogramVec(
		promclient.HistogramOpts{
			Name:    "friendly_ad_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: promclient.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// SearchesTotal - Counter of directory searches by type and outcome
	SearchesTotal = promclient.NewCounterVec(
		promclient.CounterOpts{
			Name: "friendly_ad_searches_total",
			Help: "Total number of directory searches",
		},
		[]string{"type", "status"},
	)

	// SearchDuration - Histogram of directory search durations
	SearchDuration = promclient.NewHistogramVec(
		promclient.HistogramOpts{
			Name:    "friendly_ad_search_duration_seconds",
			Help:    "Directory search duration in seconds",
			Buckets: promclient.DefBuckets,
		},
		[]string{"type", "status"},
	)

	// CacheHitsTotal - Counter of search cache hits
	CacheHitsTotal = promclient.NewCounter(
		promclient.CounterOpts{
			Name: "friendly_ad_cache_hits_total",
			Help: "Total number of search cache hits",
		},
	)

	// CacheMissesTotal - Counter of search cache misses
	CacheMissesTotal = promclient.NewCounter(
		promclient.CounterOpts{
			Name: "friendly_ad_cache_misses_total",
			Help: "Total number of search cache misses",
		},
	)
)

// Init registers all metrics with the default registry
func Init() {
	promclient.MustRegister(
		RequestsTotal,
		RequestDuration,
		SearchesTotal,
		SearchDuration,
		CacheHitsTotal,
		CacheMissesTotal,
	)
}

// RecordSearch records duration and count for one directory search
func RecordSearch(searchType string, start time.Time, status string) {
	SearchDuration.WithLabelValues(searchType, status).Observe(time.Since(start).Seconds())
	SearchesTotal.WithLabelValues(searchType, status).Inc()
}
