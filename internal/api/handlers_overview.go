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

// OverviewTotals returns dataset-wide totals: events, users, shows, watch
// time, and the average completion rate across rated events.
func (h *Handler) OverviewTotals(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "overview/totals",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetOverviewTotals(ctx, filter)
		})
}

// OverviewEngagementLevels returns the High/Medium/Low user distribution
// based on lifetime view counts.
func (h *Handler) OverviewEngagementLevels(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "overview/engagement-levels",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetEngagementLevels(ctx, filter)
		})
}

// OverviewDailyTrends returns per-day view counts, unique users, and watch
// time ordered by date.
func (h *Handler) OverviewDailyTrends(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "overview/daily-trends",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetDailyTrends(ctx, filter)
		})
}

// OverviewHourlyActivity returns view counts bucketed by hour of day, 0-23.
func (h *Handler) OverviewHourlyActivity(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "overview/hourly-activity",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetHourlyActivity(ctx, filter)
		})
}

// OverviewWeeklyTrends returns per-ISO-week view counts and unique users.
func (h *Handler) OverviewWeeklyTrends(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "overview/weekly-trends",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetWeeklyTrends(ctx, filter)
		})
}

// OverviewStates returns per-state view totals, unique users, watch time,
// and average completion rate.
func (h *Handler) OverviewStates(w http.ResponseWriter, r *http.Request) {
	executor := NewAnalyticsQueryExecutor(h)
	executor.ExecuteSimple(w, r, "overview/states",
		func(ctx context.Context, filter database.EventFilter) (interface{}, error) {
			return h.db.GetStateStats(ctx, filter)
		})
}
