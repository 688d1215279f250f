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

// UserSummaries returns the per-user aggregate rows: view counts, watch
// time, distinct shows and states, average completion, and activity span.
func (h *Handler) UserSummaries(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "users/summaries",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetUserSummaries(ctx, filter)
		})
}

// TopUsers returns the heaviest viewers ranked by view count. The limit
// query parameter overrides the configured default.
func (h *Handler) TopUsers(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := parseLimit(r, h.config.Analytics.TopUsersLimit)
	if apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteWithLimit(w, r, "users/top", limit,
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetTopUsers(ctx, filter, limit)
		})
}

// UserEngagementSegments returns user counts per engagement segment:
// Heavy, Regular, Casual, and Light viewers by view count.
func (h *Handler) UserEngagementSegments(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "users/segments/engagement",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetEngagementSegments(ctx, filter)
		})
}

// UserCompletionSegments returns user counts per completion segment:
// Completionist, Engaged, Selective, and Browser by average completion rate.
func (h *Handler) UserCompletionSegments(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "users/segments/completion",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetCompletionSegments(ctx, filter)
		})
}

// UserSegmentMatrix returns the engagement x completion cross-tabulation
// with user counts and average watch time per cell.
func (h *Handler) UserSegmentMatrix(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "users/segments/matrix",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetSegmentMatrix(ctx, filter)
		})
}

// UserLifecycle returns user counts and engagement averages per lifecycle
// stage, derived from each user's active span in days.
func (h *Handler) UserLifecycle(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "users/lifecycle",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetLifecycleStats(ctx, filter)
		})
}

// UserCohorts returns per-cohort summaries grouped by each user's first
// viewing month.
func (h *Handler) UserCohorts(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "users/cohorts",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetCohortSummaries(ctx, filter)
		})
}

// UserCohortRetention returns month-over-month retention per first-view
// cohort, bounded by the configured horizon and minimum cohort size.
func (h *Handler) UserCohortRetention(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "users/cohorts/retention",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetCohortRetention(ctx, filter,
				h.config.Analytics.RetentionMaxMonths, h.config.Analytics.RetentionMinCohortSize)
		})
}

// UsersByState returns unique user counts and per-user averages grouped by
// the state events were viewed from.
func (h *Handler) UsersByState(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "users/by-state",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetUsersByState(ctx, filter)
		})
}
