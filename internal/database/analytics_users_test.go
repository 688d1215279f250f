// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package database

import (
	"context"
	"testing"
	"time"

	"github.com/viewlens/viewlens/internal/models"
)

func TestGetUserSummaries(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	summaries, err := db.GetUserSummaries(context.Background(), EventFilter{})
	checkNoError(t, err)
	checkSliceLen(t, "summaries", len(summaries), 4)

	// Ordered by user_id
	for i, wantID := range []int{1, 2, 3, 4} {
		checkIntEqual(t, "user_id", summaries[i].UserID, wantID)
	}

	u1 := summaries[0]
	checkStringEqual(t, "u1.State", u1.State, "CA")
	checkIntEqual(t, "u1.TotalViews", u1.TotalViews, 3)
	checkRateNear(t, "u1.AvgCompletionRate", u1.AvgCompletionRate, 80)
	checkIntEqual(t, "u1.DaysActive", u1.DaysActive, 1)
	checkFloatNear(t, "u1.AvgWatchDurationSeconds", u1.AvgWatchDurationSeconds, 2480)
	if u1.TotalWatchSeconds != 7440 {
		t.Errorf("u1.TotalWatchSeconds = %d, want 7440", u1.TotalWatchSeconds)
	}
	checkFloatNear(t, "u1.WatchHours", u1.WatchHours, 7440.0/3600.0)
	checkIntEqual(t, "u1.UniqueShows", u1.UniqueShows, 3)
	checkIntEqual(t, "u1.UniqueGenres", u1.UniqueGenres, 3)
	if !u1.FirstView.Equal(time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("u1.FirstView = %v", u1.FirstView)
	}
	if !u1.LastView.Equal(time.Date(2025, time.March, 11, 20, 0, 0, 0, time.UTC)) {
		t.Errorf("u1.LastView = %v", u1.LastView)
	}

	u3 := summaries[2]
	checkStringEqual(t, "u3.State", u3.State, "NY")
	checkIntEqual(t, "u3.TotalViews", u3.TotalViews, 6)
	checkRateNear(t, "u3.AvgCompletionRate", u3.AvgCompletionRate, 440.0/6.0)
	checkIntEqual(t, "u3.DaysActive", u3.DaysActive, 166)
	checkIntEqual(t, "u3.UniqueShows", u3.UniqueShows, 4)
	checkIntEqual(t, "u3.UniqueGenres", u3.UniqueGenres, 4)
}

func TestGetUserSummaries_Segments(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	summaries, err := db.GetUserSummaries(context.Background(), EventFilter{})
	checkNoError(t, err)
	checkSliceLen(t, "summaries", len(summaries), 4)

	tests := []struct {
		userID     int
		engagement models.EngagementSegment
		completion models.CompletionSegment
		lifecycle  models.LifecycleStage
	}{
		{1, models.EngagementLight, models.CompletionCompletionist, models.LifecycleOneWeek},
		{2, models.EngagementLight, models.CompletionSelective, models.LifecycleSingleDay},
		{3, models.EngagementCasual, models.CompletionEngaged, models.LifecycleLongTerm},
		{4, models.EngagementLight, "", models.LifecycleSingleDay},
	}

	for i, tt := range tests {
		s := summaries[i]
		checkIntEqual(t, "user_id", s.UserID, tt.userID)
		checkStringEqual(t, "engagement", string(s.EngagementSegment), string(tt.engagement))
		checkStringEqual(t, "completion", string(s.CompletionSegment), string(tt.completion))
		checkStringEqual(t, "lifecycle", string(s.LifecycleStage), string(tt.lifecycle))
	}
}

func TestGetUserSummaries_UndefinedRateStaysNil(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	summaries, err := db.GetUserSummaries(context.Background(), EventFilter{})
	checkNoError(t, err)

	// User 4 only watched a show with unknown duration: the average must be
	// nil, not zero, and the view still counts.
	u4 := summaries[3]
	checkIntEqual(t, "u4.UserID", u4.UserID, 4)
	checkRateNil(t, "u4.AvgCompletionRate", u4.AvgCompletionRate)
	checkIntEqual(t, "u4.TotalViews", u4.TotalViews, 1)

	// User 2's zero-duration event is excluded from the average (leaving the
	// lone 50% event) but included in the view count.
	u2 := summaries[1]
	checkRateNear(t, "u2.AvgCompletionRate", u2.AvgCompletionRate, 50)
	checkIntEqual(t, "u2.TotalViews", u2.TotalViews, 2)
}

func TestGetUserSummaries_FilteredPopulation(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	// Only Californians; users 2 and 3 vanish entirely, no zero rows
	summaries, err := db.GetUserSummaries(context.Background(), EventFilter{States: []string{"CA"}})
	checkNoError(t, err)
	checkSliceLen(t, "summaries", len(summaries), 2)
	checkIntEqual(t, "first.UserID", summaries[0].UserID, 1)
	checkIntEqual(t, "second.UserID", summaries[1].UserID, 4)
}

func TestGetUserSummaries_EmptyPopulation(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	summaries, err := db.GetUserSummaries(context.Background(), EventFilter{States: []string{"WA"}})
	checkNoError(t, err)
	checkSliceEmpty(t, "summaries", len(summaries))
}

func TestGetTopUsers(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	top, err := db.GetTopUsers(context.Background(), EventFilter{}, 2)
	checkNoError(t, err)
	checkSliceLen(t, "top", len(top), 2)

	// User 3 (6 views) leads, then user 1 (3 views)
	checkIntEqual(t, "top[0].UserID", top[0].UserID, 3)
	checkIntEqual(t, "top[1].UserID", top[1].UserID, 1)

	views := make([]int, len(top))
	for i, s := range top {
		views[i] = s.TotalViews
	}
	checkSortedDescending(t, "views", views)
}

func TestGetEngagementSegments_AllBandsPresent(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	segments, err := db.GetEngagementSegments(context.Background(), EventFilter{})
	checkNoError(t, err)
	checkSliceLen(t, "segments", len(segments), 4)

	want := []struct {
		segment string
		count   int
	}{
		{"Heavy", 0},
		{"Regular", 0},
		{"Casual", 1},
		{"Light", 3},
	}
	for i, w := range want {
		checkStringEqual(t, "segment", segments[i].Segment, w.segment)
		checkIntEqual(t, "user_count", segments[i].UserCount, w.count)
	}
}

func TestGetCompletionSegments_UnclassifiedUsersExcluded(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	segments, err := db.GetCompletionSegments(context.Background(), EventFilter{})
	checkNoError(t, err)
	checkSliceLen(t, "segments", len(segments), 4)

	want := []struct {
		segment string
		count   int
	}{
		{"Completionist", 1},
		{"Engaged", 1},
		{"Selective", 1},
		{"Browser", 0},
	}
	total := 0
	for i, w := range want {
		checkStringEqual(t, "segment", segments[i].Segment, w.segment)
		checkIntEqual(t, "user_count", segments[i].UserCount, w.count)
		total += segments[i].UserCount
	}

	// User 4 has no defined rate and lands in no bucket
	checkIntEqual(t, "classified users", total, 3)
}

func TestGetSegmentMatrix(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	cells, err := db.GetSegmentMatrix(context.Background(), EventFilter{})
	checkNoError(t, err)
	checkSliceLen(t, "cells", len(cells), 3)

	// Casual sorts before Light; within Light, Completionist before Selective
	c0 := cells[0]
	checkStringEqual(t, "cells[0].engagement", string(c0.EngagementSegment), "Casual")
	checkStringEqual(t, "cells[0].completion", string(c0.CompletionSegment), "Engaged")
	checkIntEqual(t, "cells[0].UserCount", c0.UserCount, 1)
	checkFloatNear(t, "cells[0].AvgWatchHours", c0.AvgWatchHours, 16740.0/3600.0)
	checkFloatNear(t, "cells[0].AvgUniqueShows", c0.AvgUniqueShows, 4)

	c1 := cells[1]
	checkStringEqual(t, "cells[1].engagement", string(c1.EngagementSegment), "Light")
	checkStringEqual(t, "cells[1].completion", string(c1.CompletionSegment), "Completionist")

	c2 := cells[2]
	checkStringEqual(t, "cells[2].engagement", string(c2.EngagementSegment), "Light")
	checkStringEqual(t, "cells[2].completion", string(c2.CompletionSegment), "Selective")
}

func TestGetLifecycleStats(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	stats, err := db.GetLifecycleStats(context.Background(), EventFilter{})
	checkNoError(t, err)
	checkSliceLen(t, "stats", len(stats), 5)

	byStage := make(map[models.LifecycleStage]models.LifecycleStageStats)
	for _, s := range stats {
		byStage[s.Stage] = s
	}

	single := byStage[models.LifecycleSingleDay]
	checkIntEqual(t, "SingleDay.UserCount", single.UserCount, 2)
	checkFloatNear(t, "SingleDay.AvgViews", single.AvgViews, 1.5)
	// Only user 2 contributes a defined rate (50); user 4 has none
	checkRateNear(t, "SingleDay.AvgCompletionRate", single.AvgCompletionRate, 50)

	week := byStage[models.LifecycleOneWeek]
	checkIntEqual(t, "OneWeek.UserCount", week.UserCount, 1)
	checkFloatNear(t, "OneWeek.AvgViews", week.AvgViews, 3)
	checkRateNear(t, "OneWeek.AvgCompletionRate", week.AvgCompletionRate, 80)

	// Empty stages still appear, zero-valued
	month := byStage[models.LifecycleOneMonth]
	checkIntEqual(t, "OneMonth.UserCount", month.UserCount, 0)
	checkRateNil(t, "OneMonth.AvgCompletionRate", month.AvgCompletionRate)

	long := byStage[models.LifecycleLongTerm]
	checkIntEqual(t, "LongTerm.UserCount", long.UserCount, 1)
	checkFloatNear(t, "LongTerm.AvgViews", long.AvgViews, 6)
	checkRateNear(t, "LongTerm.AvgCompletionRate", long.AvgCompletionRate, 440.0/6.0)

	// Canonical order: Single Day, 1 Week, 1 Month, 3 Months, 3+ Months
	checkStringEqual(t, "stats[0].Stage", string(stats[0].Stage), "Single Day")
	checkStringEqual(t, "stats[4].Stage", string(stats[4].Stage), "3+ Months")
}

func TestGetEngagementLevels(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	levels, err := db.GetEngagementLevels(context.Background(), EventFilter{})
	checkNoError(t, err)
	checkSliceLen(t, "levels", len(levels), 3)

	want := []struct {
		level string
		count int
	}{
		{"High", 0},
		{"Medium", 1},
		{"Low", 3},
	}
	for i, w := range want {
		checkStringEqual(t, "level", levels[i].Level, w.level)
		checkIntEqual(t, "user_count", levels[i].UserCount, w.count)
	}
}

func TestGetUsersByState(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	stats, err := db.GetUsersByState(context.Background(), EventFilter{})
	checkNoError(t, err)
	checkSliceLen(t, "stats", len(stats), 3)

	// CA has 2 users; NY and TX tie at 1 and sort alphabetically
	checkStringEqual(t, "stats[0].State", stats[0].State, "CA")
	checkStringEqual(t, "stats[1].State", stats[1].State, "NY")
	checkStringEqual(t, "stats[2].State", stats[2].State, "TX")

	ca := stats[0]
	checkIntEqual(t, "CA.UserCount", ca.UserCount, 2)
	checkFloatNear(t, "CA.AvgViewsPerUser", ca.AvgViewsPerUser, 2)
	// User 4 has no defined rate, so only user 1's 80 contributes
	checkRateNear(t, "CA.AvgCompletionRate", ca.AvgCompletionRate, 80)
	checkFloatNear(t, "CA.AvgWatchHours", ca.AvgWatchHours, (7440.0+300.0)/2/3600.0)
}
