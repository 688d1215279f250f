// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package database

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestEventFilter_IsZero(t *testing.T) {
	tests := []struct {
		name   string
		filter EventFilter
		want   bool
	}{
		{"empty", EventFilter{}, true},
		{"min_views_one_is_noop", EventFilter{MinViews: 1}, true},
		{"min_views_two", EventFilter{MinViews: 2}, false},
		{"start_date", EventFilter{StartDate: timePtr(time.Now())}, false},
		{"end_date", EventFilter{EndDate: timePtr(time.Now())}, false},
		{"states", EventFilter{States: []string{"CA"}}, false},
		{"genres", EventFilter{Genres: []string{"Drama"}}, false},
		{"show_types", EventFilter{ShowTypes: []string{"movie"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsZero(); got != tt.want {
				t.Errorf("IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildFilterWhereClause_Empty(t *testing.T) {
	whereClause, args := buildFilterWhereClause(EventFilter{})

	checkStringEqual(t, "whereClause", whereClause, "1=1")
	checkSliceEmpty(t, "args", len(args))
}

func TestBuildFilterWhereClause_AllDimensions(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)
	filter := EventFilter{
		StartDate: &start,
		EndDate:   &end,
		States:    []string{"CA", "TX"},
		Genres:    []string{"Drama"},
		ShowTypes: []string{"series", "movie"},
	}

	whereClause, args := buildFilterWhereClause(filter)

	for _, want := range []string{
		"created_at >= ?",
		"created_at <= ?",
		"state IN (?, ?)",
		"show_genre IN (?)",
		"show_type IN (?, ?)",
	} {
		if !strings.Contains(whereClause, want) {
			t.Errorf("whereClause missing %q:\n%s", want, whereClause)
		}
	}

	// 2 dates + 2 states + 1 genre + 2 show types
	checkSliceLen(t, "args", len(args), 7)
}

func TestBuildFilterWhereClause_MinViewsSubquery(t *testing.T) {
	filter := EventFilter{
		States:   []string{"CA"},
		MinViews: 3,
	}

	whereClause, args := buildFilterWhereClause(filter)

	if !strings.Contains(whereClause, "user_id IN (SELECT user_id FROM viewing_events") {
		t.Errorf("whereClause missing min-views subquery:\n%s", whereClause)
	}
	if !strings.Contains(whereClause, "HAVING COUNT(*) >= ?") {
		t.Errorf("whereClause missing HAVING clause:\n%s", whereClause)
	}
	// The state condition must appear inside the subquery too, so the
	// activity threshold counts only events that survive the other
	// dimensions.
	if strings.Count(whereClause, "state IN (?)") != 2 {
		t.Errorf("state condition should appear in outer query and subquery:\n%s", whereClause)
	}

	// outer state + inner state + threshold
	checkSliceLen(t, "args", len(args), 3)
}

func TestBuildFilterWhereClause_MinViewsOneSkipsSubquery(t *testing.T) {
	whereClause, args := buildFilterWhereClause(EventFilter{MinViews: 1})

	checkStringEqual(t, "whereClause", whereClause, "1=1")
	checkSliceEmpty(t, "args", len(args))
}

func TestCountEvents_FilterDimensions(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	ctx := context.Background()
	marchFirst := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	febLast := time.Date(2025, time.February, 28, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name   string
		filter EventFilter
		want   int64
	}{
		{"unfiltered", EventFilter{}, 12},
		{"state_ca", EventFilter{States: []string{"CA"}}, 4},
		{"state_ca_or_tx", EventFilter{States: []string{"CA", "TX"}}, 6},
		{"genre_drama", EventFilter{Genres: []string{"Drama"}}, 3},
		{"show_type_movie", EventFilter{ShowTypes: []string{"movie"}}, 3},
		{"from_march", EventFilter{StartDate: &marchFirst}, 9},
		{"through_february", EventFilter{EndDate: &febLast}, 3},
		{"no_match", EventFilter{States: []string{"WA"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := db.CountEvents(ctx, tt.filter)
			checkNoError(t, err)
			if count != tt.want {
				t.Errorf("CountEvents() = %d, want %d", count, tt.want)
			}
		})
	}
}

func TestCountEvents_MinViewsKeepsActiveUsers(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	ctx := context.Background()

	// Users 1 (3 events) and 3 (6 events) meet the threshold; users 2 and 4
	// drop out along with their events.
	count, err := db.CountEvents(ctx, EventFilter{MinViews: 3})
	checkNoError(t, err)
	if count != 9 {
		t.Errorf("CountEvents(min_views=3) = %d, want 9", count)
	}
}

func TestCountEvents_MinViewsCountsInsideFilteredWindow(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	ctx := context.Background()

	// Within CA, user 1 has 3 events and user 4 has 1: the threshold must be
	// evaluated against the state-filtered counts, not the whole dataset.
	filter := EventFilter{States: []string{"CA"}, MinViews: 2}
	count, err := db.CountEvents(ctx, filter)
	checkNoError(t, err)
	if count != 3 {
		t.Errorf("CountEvents(CA, min_views=2) = %d, want 3", count)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	db := setupTestDBWithData(t)
	defer db.Close()

	ctx := context.Background()
	filter := EventFilter{Genres: []string{"Drama"}, MinViews: 2}

	first, err := db.CountEvents(ctx, filter)
	checkNoError(t, err)
	second, err := db.CountEvents(ctx, filter)
	checkNoError(t, err)

	if first != second {
		t.Errorf("repeated filter changed result: %d then %d", first, second)
	}
}
