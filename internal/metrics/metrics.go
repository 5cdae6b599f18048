// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - Scrobble import operations
// - Result cache efficiency

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Import Operation Metrics
	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "import_duration_seconds",
			Help:    "Duration of scrobble import operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // Large archives can take minutes
		},
	)

	ImportScrobblesAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "import_scrobbles_added_total",
			Help: "Total number of scrobbles added by imports",
		},
	)

	ImportRowsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "import_rows_skipped_total",
			Help: "Total number of malformed rows skipped during imports",
		},
	)

	ImportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_errors_total",
			Help: "Total number of failed import operations",
		},
		[]string{"error_type"}, // "parse", "database", "conflict"
	)

	ImportLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "import_last_success_timestamp",
			Help: "Unix timestamp of last successful import",
		},
	)

	ImportFileRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "import_file_rows",
			Help:    "Number of rows in imported files",
			Buckets: []float64{10, 100, 1000, 10000, 50000, 100000, 500000},
		},
	)

	// Result Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "stats"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of full cache invalidations after bulk mutations",
		},
	)

	// Catalog Metrics
	CatalogVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_version",
			Help: "Current catalog version (increments on bulk mutations)",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordImport records an import operation metric
func RecordImport(duration time.Duration, rowsRead, rowsSkipped, scrobblesAdded int, err error) {
	ImportDuration.Observe(duration.Seconds())
	ImportFileRows.Observe(float64(rowsRead))
	ImportRowsSkipped.Add(float64(rowsSkipped))
	if err != nil {
		errorType := "other"
		errorMsg := err.Error()
		switch {
		case contains(errorMsg, "parse"), contains(errorMsg, "malformed"), contains(errorMsg, "usable rows"):
			errorType = "parse"
		case contains(errorMsg, "database"), contains(errorMsg, "transaction"):
			errorType = "database"
		case contains(errorMsg, "in progress"):
			errorType = "conflict"
		}
		ImportErrors.WithLabelValues(errorType).Inc()
	} else {
		ImportScrobblesAdded.Add(float64(scrobblesAdded))
		ImportLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheHit records a cache hit for the given cache type
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCacheInvalidation records a full cache clear after a bulk mutation
func RecordCacheInvalidation() {
	CacheInvalidations.Inc()
}

// SetCatalogVersion updates the catalog version gauge
func SetCatalogVersion(version int64) {
	CatalogVersion.Set(float64(version))
}

// Helper function to check if string contains substring
func contains(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
