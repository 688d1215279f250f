// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package models

// StateStats represents event-level aggregates for one state.
// Summed across all states, Views equals the total filtered view count.
type StateStats struct {
	State             string   `json:"state"`
	Views             int      `json:"views"`
	UniqueUsers       int      `json:"unique_users"`
	AvgCompletionRate *float64 `json:"avg_completion_rate,omitempty"`
	ViewsPerUser      float64  `json:"views_per_user"`
}

// StateUserStats represents user-level aggregates for one state: how many
// users the state has and how they behave on average. Users are attributed
// to the state of their first event.
type StateUserStats struct {
	State             string   `json:"state"`
	UserCount         int      `json:"user_count"`
	AvgViewsPerUser   float64  `json:"avg_views_per_user"`
	AvgCompletionRate *float64 `json:"avg_completion_rate,omitempty"`
	AvgWatchHours     float64  `json:"avg_watch_hours"`
}
