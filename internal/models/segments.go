// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package models

// EngagementSegment classifies a user by total view count.
type EngagementSegment string

// Engagement segments, from most to least active. Boundaries are inclusive
// at the lower edge: exactly 20 views is Heavy, exactly 10 is Regular.
const (
	EngagementHeavy   EngagementSegment = "Heavy"   // >= 20 views
	EngagementRegular EngagementSegment = "Regular" // 10-19 views
	EngagementCasual  EngagementSegment = "Casual"  // 5-9 views
	EngagementLight   EngagementSegment = "Light"   // 1-4 views
)

// CompletionSegment classifies a user by mean completion rate.
type CompletionSegment string

// Completion segments. Boundaries are inclusive at the lower edge:
// a mean rate of exactly 80.0 is Completionist.
const (
	CompletionCompletionist CompletionSegment = "Completionist" // >= 80
	CompletionEngaged       CompletionSegment = "Engaged"       // 60-79.x
	CompletionSelective     CompletionSegment = "Selective"     // 40-59.x
	CompletionBrowser       CompletionSegment = "Browser"       // < 40
)

// LifecycleStage classifies a user by active lifespan (days between first
// and last view).
type LifecycleStage string

// Lifecycle stages. Boundaries are inclusive at the upper edge of each band
// except the last: exactly 7 days is 1 Week, 8 days is 1 Month, 90 days is
// 3 Months, 91 days is 3+ Months.
const (
	LifecycleSingleDay   LifecycleStage = "Single Day" // 0 days
	LifecycleOneWeek     LifecycleStage = "1 Week"     // 1-7 days
	LifecycleOneMonth    LifecycleStage = "1 Month"    // 8-30 days
	LifecycleThreeMonths LifecycleStage = "3 Months"   // 31-90 days
	LifecycleLongTerm    LifecycleStage = "3+ Months"  // > 90 days
)

// Engagement levels for the coarse 3-band overview breakdown.
const (
	EngagementLevelHigh   = "High"   // >= 10 views
	EngagementLevelMedium = "Medium" // 5-9 views
	EngagementLevelLow    = "Low"    // < 5 views
)

// EngagementSegmentFor returns the engagement segment for a view count.
// Summaries always carry at least one view, so 0 never reaches here in
// practice; it falls into Light.
func EngagementSegmentFor(totalViews int) EngagementSegment {
	switch {
	case totalViews >= 20:
		return EngagementHeavy
	case totalViews >= 10:
		return EngagementRegular
	case totalViews >= 5:
		return EngagementCasual
	default:
		return EngagementLight
	}
}

// CompletionSegmentFor returns the completion segment for a mean completion
// rate. Callers with no defined rates (all events zero-duration) should skip
// classification instead of calling this with a made-up rate.
func CompletionSegmentFor(avgRate float64) CompletionSegment {
	switch {
	case avgRate >= 80:
		return CompletionCompletionist
	case avgRate >= 60:
		return CompletionEngaged
	case avgRate >= 40:
		return CompletionSelective
	default:
		return CompletionBrowser
	}
}

// LifecycleStageFor returns the lifecycle stage for a days-active span.
func LifecycleStageFor(daysActive int) LifecycleStage {
	switch {
	case daysActive <= 0:
		return LifecycleSingleDay
	case daysActive <= 7:
		return LifecycleOneWeek
	case daysActive <= 30:
		return LifecycleOneMonth
	case daysActive <= 90:
		return LifecycleThreeMonths
	default:
		return LifecycleLongTerm
	}
}

// EngagementLevelFor returns the coarse 3-band engagement level for a view
// count, used by the overview breakdown.
func EngagementLevelFor(totalViews int) string {
	switch {
	case totalViews >= 10:
		return EngagementLevelHigh
	case totalViews >= 5:
		return EngagementLevelMedium
	default:
		return EngagementLevelLow
	}
}
