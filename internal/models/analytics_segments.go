// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package models

// SegmentCount represents the user count for one segment value. Used for
// both engagement and completion segment distributions.
type SegmentCount struct {
	Segment   string `json:"segment"`
	UserCount int    `json:"user_count"`
}

// EngagementLevelCount represents the user count for one coarse engagement
// level (High/Medium/Low) in the overview breakdown.
type EngagementLevelCount struct {
	Level     string `json:"level"`
	UserCount int    `json:"user_count"`
}

// SegmentMatrixCell represents one cell of the engagement x completion
// segment grid. Cells exist only for populated combinations.
type SegmentMatrixCell struct {
	EngagementSegment EngagementSegment `json:"engagement_segment"`
	CompletionSegment CompletionSegment `json:"completion_segment"`
	UserCount         int               `json:"user_count"`
	AvgWatchHours     float64           `json:"avg_watch_hours"`
	AvgUniqueShows    float64           `json:"avg_unique_shows"`
}

// LifecycleStageStats represents aggregate behavior of the users in one
// lifecycle stage.
type LifecycleStageStats struct {
	Stage             LifecycleStage `json:"stage"`
	UserCount         int            `json:"user_count"`
	AvgViews          float64        `json:"avg_views"`
	AvgCompletionRate *float64       `json:"avg_completion_rate,omitempty"`
}
