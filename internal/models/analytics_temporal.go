// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package models

import "time"

// DailyTrendPoint represents activity for one calendar day.
// Days inside an explicitly requested date range appear even with zero
// activity; AvgCompletionRate is nil for such days.
type DailyTrendPoint struct {
	Date              time.Time `json:"date"`
	Views             int       `json:"views"`
	UniqueViewers     int       `json:"unique_viewers"`
	AvgCompletionRate *float64  `json:"avg_completion_rate,omitempty"`
}

// HourlyActivityPoint represents activity for one hour of day (0-23).
// The hourly histogram always contains all 24 hours, zero-filled.
type HourlyActivityPoint struct {
	Hour        int `json:"hour"`
	Views       int `json:"views"`
	ActiveUsers int `json:"active_users"`
}

// WeeklyTrendPoint represents activity for one ISO week.
type WeeklyTrendPoint struct {
	Week              string   `json:"week"` // ISO week label, e.g. "2025-W07"
	Views             int      `json:"views"`
	UniqueViewers     int      `json:"unique_viewers"`
	AvgCompletionRate *float64 `json:"avg_completion_rate,omitempty"`
}
