// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package models

import "time"

// UserSummary aggregates all filtered events of one user into a single row.
//
// A summary row exists only for users with at least one event after
// filtering, so TotalViews is always >= 1 and there are no zero rows.
//
// AvgCompletionRate averages only the user's defined per-event rates;
// it is nil when every event of the user has an undefined rate
// (zero show duration). CompletionSegment is empty in that case since
// there is no rate to classify.
//
// State is taken from the user's first event (by CreatedAt).
type UserSummary struct {
	UserID int    `json:"user_id"`
	State  string `json:"state"`

	TotalViews        int      `json:"total_views"`
	AvgCompletionRate *float64 `json:"avg_completion_rate,omitempty"`

	FirstView  time.Time `json:"first_view"`
	LastView   time.Time `json:"last_view"`
	DaysActive int       `json:"days_active"` // LastView - FirstView in days, >= 0

	AvgWatchDurationSeconds float64 `json:"avg_watch_duration_seconds"`
	TotalWatchSeconds       int64   `json:"total_watch_seconds"`
	WatchHours              float64 `json:"watch_hours"`

	UniqueShows  int `json:"unique_shows"`
	UniqueGenres int `json:"unique_genres"`

	EngagementSegment EngagementSegment `json:"engagement_segment"`
	CompletionSegment CompletionSegment `json:"completion_segment,omitempty"`
	LifecycleStage    LifecycleStage    `json:"lifecycle_stage"`
}

// ShowSummary aggregates all filtered events of one show into a single row.
// Genre, type, and rating are inherited from the show's events and assumed
// constant per show.
type ShowSummary struct {
	ShowID     int    `json:"show_id"`
	ShowName   string `json:"show_name"`
	ShowType   string `json:"show_type"`
	ShowGenre  string `json:"show_genre"`
	ShowRating string `json:"show_rating"`

	TotalViews        int      `json:"total_views"`
	UniqueViewers     int      `json:"unique_viewers"`
	AvgCompletionRate *float64 `json:"avg_completion_rate,omitempty"`

	AvgWatchDurationSeconds float64 `json:"avg_watch_duration_seconds"`
	TotalWatchHours         float64 `json:"total_watch_hours"`
}

// ShowCompletionStats summarizes the distribution of per-show average
// completion rates across all shows in the filtered population.
type ShowCompletionStats struct {
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Max       float64 `json:"max"`
	Min       float64 `json:"min"`
	ShowCount int     `json:"show_count"`
}
