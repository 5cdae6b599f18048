// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus client
library, exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Database query performance
  - Scrobble import statistics
  - Result cache hit/miss rates

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:3866/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type

Import Metrics:
  - import_duration_seconds: Import operation duration (histogram)
  - import_scrobbles_added_total: Scrobbles added by imports (counter)
  - import_rows_skipped_total: Malformed rows skipped (counter)
  - import_errors_total: Failed imports (counter)
    Labels: error_type
  - import_last_success_timestamp: Unix timestamp of last successful import (gauge)
  - import_file_rows: Rows per imported file (histogram)

Cache Metrics:
  - cache_hits_total: Cache hits (counter)
    Labels: cache_type
  - cache_misses_total: Cache misses (counter)
    Labels: cache_type
  - cache_evictions_total: Cache evictions (counter)
    Labels: cache_type
  - cache_entries: Current cached entries (gauge)
    Labels: cache_type
  - cache_invalidations_total: Full cache clears after bulk mutations (counter)

Catalog Metrics:
  - catalog_version: Current catalog version (gauge)

System Metrics:
  - app_info: Version and build information (gauge)
    Labels: version, go_version
  - app_uptime_seconds: Application uptime (gauge)

# Usage

Metrics are registered automatically via promauto at package init. Recording
helpers wrap the common patterns:

	start := time.Now()
	rows, err := db.Query(query)
	metrics.RecordDBQuery("SELECT", "scrobbles", time.Since(start), err)

# Grafana Integration

All metrics follow Prometheus naming conventions and work with standard
Grafana dashboards. Suggested queries:

	rate(api_requests_total[5m])
	histogram_quantile(0.95, rate(api_request_duration_seconds_bucket[5m]))
	cache_hits_total / (cache_hits_total + cache_misses_total)
*/
package metrics
