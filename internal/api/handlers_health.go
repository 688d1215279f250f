// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"
	"time"

	"github.com/viewlens/viewlens/internal/models"
)

// Health handles health check requests. It always responds 200; the body
// reports "healthy" or "degraded" so dashboards can show partial outages
// without probes flapping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	datasetLoaded := false
	var lastLoadPtr *time.Time
	if h.loader != nil {
		if summary := h.loader.Summary(); summary != nil {
			datasetLoaded = summary.Status == "completed"
			lastLoadPtr = summary.EndTime
		}
	}

	status := "healthy"
	if !dbConnected || !datasetLoaded {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           "1.0.0",
		DatabaseConnected: dbConnected,
		DatasetLoaded:     datasetLoaded,
		LastLoadTime:      lastLoadPtr,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 200 only when the database responds and an initial dataset load
// has completed; 503 otherwise so load balancers hold traffic until the
// analytics endpoints can answer.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	datasetLoaded := false
	if h.loader != nil {
		if summary := h.loader.Summary(); summary != nil {
			datasetLoaded = summary.Status == "completed"
		}
	}

	ready := dbConnected && datasetLoaded

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, r, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"dataset_loaded":     datasetLoaded,
			"ready_to_serve":     ready,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
