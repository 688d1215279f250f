// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/viewlens/viewlens/internal/metrics"
)

// PrometheusMetrics wraps a handler to record request count, duration, and
// the in-flight request gauge. The endpoint label is the request path; all
// API routes are static paths, so label cardinality stays bounded.
func PrometheusMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		wrapped := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next(wrapped, r)

		metrics.RecordAPIRequest(r.Method, r.URL.Path, strconv.Itoa(wrapped.statusCode), time.Since(start))
	}
}

// metricsResponseWriter captures the status code written by the handler.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
