// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/viewlens/viewlens/internal/cache"
	"github.com/viewlens/viewlens/internal/config"
	"github.com/viewlens/viewlens/internal/database"
	"github.com/viewlens/viewlens/internal/ingest"
	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/middleware"
	ws "github.com/viewlens/viewlens/internal/websocket"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, WebSocket upgrade (this file)
//   - handlers_overview.go: overview analytics endpoints
//   - handlers_users.go: user analytics endpoints
//   - handlers_shows.go: show analytics endpoints
//   - handlers_events.go: raw event listing and load stats
//   - handlers_admin.go: dataset reload
//   - handlers_health.go: health and readiness probes
type Handler struct {
	db        *database.DB
	loader    *ingest.Loader
	config    *config.Config
	wsHub     *ws.Hub
	cache     *cache.Cache
	perfMon   *middleware.PerformanceMonitor
	reloadLim *rate.Limiter
	startTime time.Time
}

// NewHandler creates the API handler. The cache may be nil when disabled;
// every cache touch is nil-guarded. The reload limiter spaces dataset
// reloads by dataset.reload_interval with a burst of dataset.reload_burst.
func NewHandler(db *database.DB, loader *ingest.Loader, cfg *config.Config, wsHub *ws.Hub, respCache *cache.Cache) *Handler {
	var reloadLim *rate.Limiter
	if cfg != nil && cfg.Dataset.ReloadInterval > 0 {
		burst := cfg.Dataset.ReloadBurst
		if burst < 1 {
			burst = 1
		}
		reloadLim = rate.NewLimiter(rate.Every(cfg.Dataset.ReloadInterval), burst)
	}

	return &Handler{
		db:        db,
		loader:    loader,
		config:    cfg,
		wsHub:     wsHub,
		cache:     respCache,
		perfMon:   middleware.NewPerformanceMonitor(1000), // keep the last 1000 requests
		reloadLim: reloadLim,
		startTime: time.Now(),
	}
}

// ClearCache invalidates all cached analytics responses. Called after each
// successful dataset reload so clients never see numbers from the previous
// dataset.
func (h *Handler) ClearCache() {
	if h.cache != nil {
		if err := h.cache.Clear(); err != nil {
			logging.Warn().Err(err).Msg("Failed to clear response cache")
			return
		}
		logging.Info().Msg("Analytics cache cleared")
	}
}

// GetCacheStats returns response cache statistics for the health payload.
func (h *Handler) GetCacheStats() cache.Stats {
	if h.cache != nil {
		return h.cache.GetStats()
	}
	return cache.Stats{}
}

// GetPerformanceStats returns the per-endpoint latency window for the
// health payload.
func (h *Handler) GetPerformanceStats() []middleware.EndpointStats {
	if h.perfMon != nil {
		return h.perfMon.GetStats()
	}
	return nil
}

// PerformanceMonitor exposes the monitor so the router can mount its
// middleware.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// onDatasetReloaded handles post-reload tasks: drop cached responses built
// from the previous dataset, then notify WebSocket clients.
func (h *Handler) onDatasetReloaded(stats *ingest.LoadStats) {
	h.ClearCache()

	if h.wsHub == nil || stats == nil {
		return
	}

	h.wsHub.BroadcastDatasetReloaded(stats.Source, stats.RecordsLoaded, stats.Duration())

	total, err := h.db.CountEvents(context.Background(), database.EventFilter{})
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to count events for stats broadcast")
		return
	}

	lastEvent := ""
	if last, err := h.db.GetLastEventTime(context.Background()); err == nil && last != nil {
		lastEvent = last.Format(time.RFC3339)
	}
	h.wsHub.BroadcastStatsUpdated(total, lastEvent)
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browser WebSockets always send Origin; an empty Origin means a
	// non-browser client trying to sidestep CORS. Reject it.
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// Nil config allows any origin, for tests and development harnesses.
	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket handles WebSocket upgrade requests. Connected clients receive
// dataset_reloaded and stats_updated pushes.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, r, http.StatusServiceUnavailable, errCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
