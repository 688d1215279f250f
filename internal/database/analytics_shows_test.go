// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package database

import (
	"context"
	"testing"
)

func TestGetShowSummaries(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	summaries, err := db.GetShowSummaries(context.Background(), EventFilter{})
	checkNoError(t, err)
	checkSliceLen(t, "summaries", len(summaries), 4)

	// Most viewed first; the 3-view tie between shows 20 and 40 breaks on id
	for i, wantID := range []int{10, 20, 40, 30} {
		checkIntEqual(t, "show_id", summaries[i].ShowID, wantID)
	}

	starfall := summaries[0]
	checkStringEqual(t, "ShowName", starfall.ShowName, "Starfall")
	checkStringEqual(t, "ShowType", starfall.ShowType, "series")
	checkStringEqual(t, "ShowGenre", starfall.ShowGenre, "Sci-Fi")
	checkStringEqual(t, "ShowRating", starfall.ShowRating, "TV-14")
	checkIntEqual(t, "TotalViews", starfall.TotalViews, 4)
	checkIntEqual(t, "UniqueViewers", starfall.UniqueViewers, 2)
	checkRateNear(t, "AvgCompletionRate", starfall.AvgCompletionRate, 78.75)
	checkFloatNear(t, "AvgWatchDurationSeconds", starfall.AvgWatchDurationSeconds, 2835)
	checkFloatNear(t, "TotalWatchHours", starfall.TotalWatchHours, 3.15)
}

func TestGetShowSummaries_ZeroDurationViewsStillCount(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	summaries, err := db.GetShowSummaries(context.Background(), EventFilter{})
	checkNoError(t, err)

	idx := -1
	for i := range summaries {
		if summaries[i].ShowID == 40 {
			idx = i
			break
		}
	}
	if idx == -1 {
		t.Fatal("show 40 missing from summaries")
	}

	s := summaries[idx]
	// Two of the three views have no defined rate; they count as views but
	// only the 100% rewatch feeds the average.
	checkIntEqual(t, "TotalViews", s.TotalViews, 3)
	checkIntEqual(t, "UniqueViewers", s.UniqueViewers, 3)
	checkRateNear(t, "AvgCompletionRate", s.AvgCompletionRate, 100)
}

func TestGetTopShowsByCompletion(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	top, err := db.GetTopShowsByCompletion(context.Background(), EventFilter{}, 10, 3)
	checkNoError(t, err)
	checkSliceLen(t, "top", len(top), 2)

	// Show 30 (2 rated views) and show 40 (1 rated view, 100%) miss the
	// threshold; the rest rank by rate
	checkIntEqual(t, "top[0].ShowID", top[0].ShowID, 10)
	checkRateNear(t, "top[0].AvgCompletionRate", top[0].AvgCompletionRate, 78.75)
	checkIntEqual(t, "top[1].ShowID", top[1].ShowID, 20)
	checkRateNear(t, "top[1].AvgCompletionRate", top[1].AvgCompletionRate, 230.0/3.0)
}

func TestGetTopShowsByCompletion_ThresholdExcludesEverything(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	top, err := db.GetTopShowsByCompletion(context.Background(), EventFilter{}, 10, 5)
	checkNoError(t, err)
	checkSliceEmpty(t, "top", len(top))
}

func TestGetTopShowsByCompletion_Limit(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	top, err := db.GetTopShowsByCompletion(context.Background(), EventFilter{}, 1, 1)
	checkNoError(t, err)
	checkSliceLen(t, "top", len(top), 1)
	checkIntEqual(t, "top[0].ShowID", top[0].ShowID, 40)
}

func TestGetShowCompletionStats(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	stats, err := db.GetShowCompletionStats(context.Background(), EventFilter{})
	checkNoError(t, err)

	// Per-show averages: 78.75, 76.67, 42.5, 100
	checkIntEqual(t, "ShowCount", stats.ShowCount, 4)
	checkFloatNear(t, "Mean", stats.Mean, (78.75+230.0/3.0+42.5+100)/4)
	checkFloatNear(t, "Median", stats.Median, (230.0/3.0+78.75)/2)
	checkFloatNear(t, "Max", stats.Max, 100)
	checkFloatNear(t, "Min", stats.Min, 42.5)
}

func TestGetShowCompletionStats_Filtered(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	stats, err := db.GetShowCompletionStats(context.Background(), EventFilter{Genres: []string{"Drama"}})
	checkNoError(t, err)

	// Only show 20 survives; all four statistics collapse onto its average
	checkIntEqual(t, "ShowCount", stats.ShowCount, 1)
	checkFloatNear(t, "Mean", stats.Mean, 230.0/3.0)
	checkFloatNear(t, "Median", stats.Median, 230.0/3.0)
	checkFloatNear(t, "Max", stats.Max, 230.0/3.0)
	checkFloatNear(t, "Min", stats.Min, 230.0/3.0)
}

func TestGetShowCompletionStats_EmptyPopulation(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	stats, err := db.GetShowCompletionStats(context.Background(), EventFilter{States: []string{"WA"}})
	checkNoError(t, err)
	checkIntEqual(t, "ShowCount", stats.ShowCount, 0)
	checkFloatNear(t, "Mean", stats.Mean, 0)
}
