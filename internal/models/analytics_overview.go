// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package models

// OverviewTotals represents the headline numbers for the filtered population.
//
// AvgCompletionRate is the mean over events with a defined rate; it is nil
// when the population is empty or contains only zero-duration events.
// TotalWatchHours is the sum of watch durations converted to hours.
type OverviewTotals struct {
	TotalViews        int64    `json:"total_views"`
	UniqueUsers       int      `json:"unique_users"`
	UniqueShows       int      `json:"unique_shows"`
	AvgCompletionRate *float64 `json:"avg_completion_rate,omitempty"`
	TotalWatchHours   float64  `json:"total_watch_hours"`
}
