// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package middleware

import (
	"context"
	"net/http"

	"github.com/viewlens/viewlens/internal/logging"
)

// RequestIDHeader is the header carrying the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a unique ID and threads it through the
// logging context. An ID supplied by the client in X-Request-ID is reused so
// upstream proxies can correlate their logs with ours; otherwise a fresh
// UUID is generated. The ID is echoed back in the response header and ends
// up in every log line emitted via logging.Ctx and in API error envelopes.
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		next(w, r.WithContext(ctx))
	}
}

// GetRequestID returns the request ID from a context, or empty string when
// the RequestID middleware did not run.
func GetRequestID(ctx context.Context) string {
	return logging.RequestIDFromContext(ctx)
}
