// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package middleware provides HTTP middleware for the Viewlens API server.
//
// The middleware here uses plain http.HandlerFunc signatures so it can be
// composed directly or adapted to chi's func(http.Handler) http.Handler via
// the api package's chiMiddleware helper. Chi-native middleware (CORS, rate
// limiting) lives in the api package instead, built from the go-chi ecosystem.
//
// # Available Middleware
//
//   - RequestID: assigns each request an ID, reusing an incoming
//     X-Request-ID header when present, and threads it through the logging
//     context so every log line of a request carries the same id.
//   - PrometheusMetrics: records request counts, durations, and the
//     in-flight request gauge, capturing the response status code.
//   - Compression: gzip-compresses responses for clients that accept it,
//     with pooled writers. WebSocket upgrades pass through untouched.
//
// # Ordering
//
// RequestID should run first so the logging context is in place before any
// other middleware logs. PrometheusMetrics should wrap Compression so
// recorded durations include compression time:
//
//	handler := middleware.RequestID(
//	    middleware.PrometheusMetrics(
//	        middleware.Compression(apiHandler),
//	    ),
//	)
//
// The package also provides PerformanceMonitor, a sliding-window tracker of
// recent request latencies that backs the health endpoint's per-endpoint
// percentile stats. Its Middleware method is chi-compatible directly.
package middleware
