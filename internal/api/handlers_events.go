// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"
	"time"

	"github.com/viewlens/viewlens/internal/database"
	"github.com/viewlens/viewlens/internal/ingest"
	"github.com/viewlens/viewlens/internal/models"
)

// datasetStats is the /events/stats payload: live dataset counters plus
// the most recent load summary. Defined here rather than in models because
// it embeds the ingest summary directly.
type datasetStats struct {
	TotalEvents   int64              `json:"total_events"`
	LastEventTime *time.Time         `json:"last_event_time,omitempty"`
	LastLoad      *ingest.LoadSummary `json:"last_load,omitempty"`
}

// Events returns a page of raw viewing events ordered by timestamp
// descending, newest first. The shared filter applies before pagination,
// so total_count reflects the filtered set.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondError(w, r, http.StatusServiceUnavailable, errCodeServiceUnavailable, "Database not available", nil)
		return
	}

	filter, apiErr := parseEventFilter(r)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	limit, apiErr := getIntParam(r, "limit", h.config.API.DefaultPageSize)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}
	offset, apiErr := getIntParam(r, "offset", 0)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}
	if apiErr := validateRequest(&EventsRequest{Limit: limit, Offset: offset}); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}

	start := time.Now()

	total, err := h.db.CountEvents(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeDatabase, "Failed to count events", err)
		return
	}

	events, err := h.db.GetEvents(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeDatabase, "Failed to fetch events", err)
		return
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.EventsResponse{
			Events: events,
			Pagination: models.PaginationInfo{
				Limit:      limit,
				Offset:     offset,
				TotalCount: total,
				HasMore:    int64(offset+len(events)) < total,
			},
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// EventsStats returns dataset-level counters and the most recent load
// summary. Unlike the analytics endpoints this ignores the shared filter;
// it describes the dataset as loaded.
func (h *Handler) EventsStats(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondError(w, r, http.StatusServiceUnavailable, errCodeServiceUnavailable, "Database not available", nil)
		return
	}

	start := time.Now()

	total, err := h.db.CountEvents(r.Context(), database.EventFilter{})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeDatabase, "Failed to count events", err)
		return
	}

	stats := datasetStats{TotalEvents: total}

	if lastEvent, err := h.db.GetLastEventTime(r.Context()); err == nil && lastEvent != nil {
		stats.LastEventTime = lastEvent
	}
	if h.loader != nil {
		stats.LastLoad = h.loader.Summary()
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   stats,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
