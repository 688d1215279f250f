// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package api provides the HTTP interface of the Viewlens server: a
// chi-routed JSON API over the viewing-event analytics in the database
// package, plus the WebSocket upgrade endpoint and dataset administration.
//
// # Layout
//
//   - router.go: chi route tree and global middleware stack
//   - chi_middleware.go: CORS, rate limiting, and security headers built
//     from the go-chi ecosystem
//   - handlers.go: Handler struct and shared dependencies
//   - handlers_overview.go / handlers_users.go / handlers_shows.go:
//     analytics endpoints, all running through the query executor
//   - handlers_events.go: raw event listing and load statistics
//   - handlers_admin.go: rate-limited dataset reload
//   - handlers_health.go: liveness and readiness probes
//   - analytics_executor.go: cache-first execution flow shared by every
//     analytics endpoint
//   - response.go: response envelope writing, ETag, error codes
//   - requests.go: validated query-parameter structs and filter parsing
//
// # Response Envelope
//
// Every endpoint responds with the same envelope:
//
//	{
//	  "status": "success" | "error",
//	  "data": ...,
//	  "metadata": {"timestamp": ..., "query_time_ms": ..., "cached": true},
//	  "error": {"code": ..., "message": ...}
//	}
//
// # Filtering
//
// Analytics endpoints accept the shared filter query parameters start_date,
// end_date (calendar dates, inclusive), states, genres, show_types
// (comma-separated), and min_views. The filter narrows the event set before
// any aggregation runs. Invalid parameters yield HTTP 400 with a
// VALIDATION_ERROR envelope rather than being silently ignored.
//
// # Caching
//
// Analytics responses are cached by route and filter for the configured TTL
// and served with an ETag; If-None-Match revalidation returns 304. The cache
// is cleared after every dataset reload so clients never see stale numbers.
package api
