// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viewlens/viewlens/internal/config"
	"github.com/viewlens/viewlens/internal/middleware"
)

// Router sets up HTTP routes using the Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given handler. Middleware limits and
// CORS origins come from the security section of the config; a nil config
// falls back to the middleware defaults.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	var chiMw *ChiMiddleware
	if cfg != nil {
		chiMw = NewChiMiddlewareFromSecurity(
			cfg.Security.CORSOrigins,
			cfg.Security.RateLimitReqs,
			cfg.Security.RateLimitWindow,
			cfg.Security.RateLimitDisabled,
		)
	} else {
		chiMw = NewChiMiddleware(nil)
	}

	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler so it can be used with r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup configures all HTTP routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	perfMW := router.handler.PerformanceMonitor().Middleware

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order. None of these wrap the response
	// writer, so the WebSocket upgrade still reaches a hijackable writer.
	r.Use(chiMiddleware(middleware.RequestID)) // X-Request-ID header and logging context
	r.Use(chimiddleware.RealIP)                // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)             // Recover from panics
	r.Use(router.chiMiddleware.CORS())         // CORS must be global to handle OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, errCodeNotFound, "Endpoint not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, errCodeMethodNotAllowed, "Method not allowed", nil)
	})

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting so monitoring can poll frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Overview Analytics
	// ========================
	// Cached read-only endpoints; permissive limits keep dashboard loads
	// smooth since one page fetches several charts.
	r.Route("/api/v1/overview", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAnalytics))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(perfMW)
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/totals", router.handler.OverviewTotals)
		r.Get("/engagement-levels", router.handler.OverviewEngagementLevels)
		r.Get("/daily-trends", router.handler.OverviewDailyTrends)
		r.Get("/hourly-activity", router.handler.OverviewHourlyActivity)
		r.Get("/weekly-trends", router.handler.OverviewWeeklyTrends)
		r.Get("/states", router.handler.OverviewStates)
	})

	// ========================
	// User Analytics
	// ========================
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAnalytics))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(perfMW)
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/summaries", router.handler.UserSummaries)
		r.Get("/top", router.handler.TopUsers)
		r.Get("/segments/engagement", router.handler.UserEngagementSegments)
		r.Get("/segments/completion", router.handler.UserCompletionSegments)
		r.Get("/segments/matrix", router.handler.UserSegmentMatrix)
		r.Get("/lifecycle", router.handler.UserLifecycle)
		r.Get("/cohorts", router.handler.UserCohorts)
		r.Get("/cohorts/retention", router.handler.UserCohortRetention)
		r.Get("/by-state", router.handler.UsersByState)
	})

	// ========================
	// Show Analytics
	// ========================
	r.Route("/api/v1/shows", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAnalytics))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(perfMW)
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/summaries", router.handler.ShowSummaries)
		r.Get("/top-completion", router.handler.TopShowsByCompletion)
		r.Get("/completion-stats", router.handler.ShowCompletionStats)
	})

	// ========================
	// Raw Events
	// ========================
	// Standard configured rate limit: event pages are uncached and heavier
	// than the aggregate queries.
	r.Route("/api/v1/events", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(perfMW)
		r.Use(chiMiddleware(middleware.Compression))

		r.Get("/", router.handler.Events)
		r.Get("/stats", router.handler.EventsStats)
	})

	// ========================
	// Admin
	// ========================
	// Strict per-IP limit on top of the handler's own token bucket.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitReload))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/reload", router.handler.TriggerReload)
	})

	// ========================
	// WebSocket
	// ========================
	// The upgrade hijacks the connection, so no writer-wrapping middleware
	// may sit in front of it.
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket))
		r.Get("/", router.handler.WebSocket)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
