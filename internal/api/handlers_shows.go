// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"context"
	"net/http"

	"github.com/viewlens/viewlens/internal/database"
)

// ShowSummaries returns the per-show aggregate rows: view counts, unique
// viewers, watch time, and average completion rate.
func (h *Handler) ShowSummaries(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "shows/summaries",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetShowSummaries(ctx, filter)
		})
}

// TopShowsByCompletion returns shows ranked by average completion rate.
// Shows with fewer rated views than the configured floor are excluded so a
// single full watch cannot top the chart.
func (h *Handler) TopShowsByCompletion(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := parseLimit(r, h.config.Analytics.TopShowsLimit)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	minViews := h.config.Analytics.MinShowViews
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteWithLimit(w, r, "shows/top-completion", limit,
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetTopShowsByCompletion(ctx, filter, limit, minViews)
		})
}

// ShowCompletionStats returns the distribution of per-show average
// completion rates: mean, median, max, min, and the show count.
func (h *Handler) ShowCompletionStats(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "shows/completion-stats",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetShowCompletionStats(ctx, filter)
		})
}
