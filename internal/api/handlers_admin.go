// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/viewlens/viewlens/internal/ingest"
	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/models"
)

// TriggerReload starts an asynchronous dataset reload and returns 202
// immediately. The reload re-fetches the source, swaps the events table,
// clears the analytics cache, and notifies WebSocket clients.
//
// Two guards apply before the goroutine is spawned: a token bucket sized
// from the configured reload interval (429 when exhausted) and the
// loader's own single-flight check (409 while a load is running). The
// loader re-checks under its lock, so a race between two triggers still
// runs only one load.
func (h *Handler) TriggerReload(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		respondError(w, r, http.StatusServiceUnavailable, errCodeServiceUnavailable, "Dataset loader not available", nil)
		return
	}

	if h.reloadLim != nil && !h.reloadLim.Allow() {
		respondError(w, r, http.StatusTooManyRequests, errCodeRateLimit, "Reload requested too frequently", nil)
		return
	}

	if h.loader.IsRunning() {
		respondError(w, r, http.StatusConflict, errCodeReloadInProgress, "A dataset load is already running", nil)
		return
	}

	requestID := logging.RequestIDFromContext(r.Context())

	go func() {
		// Detached from the request context: the reload outlives the
		// 202 response.
		ctx := logging.ContextWithRequestID(context.Background(), requestID)

		logging.Ctx(ctx).Info().Msg("Dataset reload triggered via API")

		stats, err := h.loader.Reload(ctx)
		if err != nil {
			if errors.Is(err, ingest.ErrLoadInProgress) {
				logging.Ctx(ctx).Warn().Msg("Dataset reload skipped, load already in progress")
				return
			}
			logging.CtxErr(ctx, err).Msg("Dataset reload failed")
			return
		}

		h.onDatasetReloaded(stats)
	}()

	respondJSON(w, r, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data:   map[string]string{"message": "Dataset reload triggered"},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
