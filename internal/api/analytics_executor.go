// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/viewlens/viewlens/internal/cache"
	"github.com/viewlens/viewlens/internal/database"
	"github.com/viewlens/viewlens/internal/models"
)

// AnalyticsQueryExecutor encapsulates the common pattern of the analytics
// handlers: parse the shared filter, check the response cache, run the
// query on a miss, cache the marshaled result, respond in the envelope.
//
// Cached entries hold the marshaled data payload, not the whole envelope,
// so each response still carries a fresh timestamp and the cached flag.
//
// Example usage:
//
//	executor := NewAnalyticsQueryExecutor(h)
//	executor.ExecuteSimple(w, r, "overview/totals",
//	    func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
//	        return h.db.GetOverviewTotals(ctx, filter)
//	    })
type AnalyticsQueryExecutor struct {
	handler *Handler
}

// NewAnalyticsQueryExecutor creates an executor bound to the handler's
// database, cache, and config.
func NewAnalyticsQueryExecutor(h *Handler) *AnalyticsQueryExecutor {
	return &AnalyticsQueryExecutor{handler: h}
}

// AnalyticsQueryFunc executes one analytics query under the given filter.
// The result must be JSON-serializable; it is cached in marshaled form.
type AnalyticsQueryFunc func(ctx context.Context, filter database.EventFilter) (interface{}, error)

// ExecuteSimple runs a query keyed by the shared filter alone.
func (e *AnalyticsQueryExecutor) ExecuteSimple(
	w http.ResponseWriter,
	r *http.Request,
	cacheKeyPrefix string,
	queryFunc AnalyticsQueryFunc,
) {
	filter, apiErr := parseEventFilter(r)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	cacheKey := cache.GenerateKey(cacheKeyPrefix, filter)
	e.execute(w, r, cacheKeyPrefix, cacheKey, filter, queryFunc)
}

// ExecuteWithLimit runs a query keyed by the shared filter plus a limit, so
// different limits do not collide in the cache.
func (e *AnalyticsQueryExecutor) ExecuteWithLimit(
	w http.ResponseWriter,
	r *http.Request,
	cacheKeyPrefix string,
	limit int,
	queryFunc AnalyticsQueryFunc,
) {
	filter, apiErr := parseEventFilter(r)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	cacheKey := cache.GenerateKey(cacheKeyPrefix, struct {
		Filter database.EventFilter `json:"filter"`
		Limit  int                  `json:"limit"`
	}{filter, limit})
	e.execute(w, r, cacheKeyPrefix, cacheKey, filter, queryFunc)
}

func (e *AnalyticsQueryExecutor) execute(
	w http.ResponseWriter,
	r *http.Request,
	cacheKeyPrefix, cacheKey string,
	filter database.EventFilter,
	queryFunc AnalyticsQueryFunc,
) {
	h := e.handler
	if h.db == nil {
		respondError(w, r, http.StatusServiceUnavailable, errCodeServiceUnavailable, "Database not available", nil)
		return
	}

	start := time.Now()

	if h.cache != nil {
		if payload, found := h.cache.Get(cacheKey); found {
			respondJSON(w, r, http.StatusOK, &models.APIResponse{
				Status: "success",
				Data:   json.RawMessage(payload),
				Metadata: models.Metadata{
					Timestamp:   time.Now(),
					QueryTimeMS: 0, // served from cache
					Cached:      true,
				},
			})
			return
		}
	}

	data, err := queryFunc(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeDatabase,
			fmt.Sprintf("Failed to execute query: %s", cacheKeyPrefix), err)
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal,
			fmt.Sprintf("Failed to encode result: %s", cacheKeyPrefix), err)
		return
	}

	if h.cache != nil {
		h.cache.Set(cacheKey, payload)
	}

	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   json.RawMessage(payload),
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
