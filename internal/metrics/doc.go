// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry via promauto at package
init; importing the package is enough to make them scrapeable.

# Overview

The package provides metrics for:
  - API request latency and throughput
  - DuckDB query performance
  - Dataset load statistics (records read, loaded, skipped by reason)
  - Cache hit/miss rates
  - WebSocket connection counts
  - Circuit breaker state for remote dataset sources

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8439/metrics

# Usage Example

Recording metrics from application code:

	import "github.com/viewlens/viewlens/internal/metrics"

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)

	metrics.RecordSkippedRecord("bad_timestamp")
	metrics.RecordCacheHit("analytics")

# Prometheus Configuration

Example prometheus.yml scrape config:

	scrape_configs:
	  - job_name: 'viewlens'
	    static_configs:
	      - targets: ['localhost:8439']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

Example PromQL queries:

	# API request rate
	rate(api_requests_total[5m])

	# API p95 latency
	histogram_quantile(0.95, rate(api_request_duration_seconds_bucket[5m]))

	# Cache hit rate
	sum(rate(cache_hits_total[5m])) / (sum(rate(cache_hits_total[5m])) + sum(rate(cache_misses_total[5m])))

	# Records skipped during the last load, by reason
	increase(dataset_records_skipped_total[10m])

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To prevent high cardinality issues:

  - Endpoint labels use the chi route pattern, not the raw URL path
  - Database error types are truncated to 50 characters
  - Skip reasons and breaker names come from small fixed sets
  - User and show identifiers never appear as labels
*/
package metrics
