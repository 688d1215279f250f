// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package database

import (
	"fmt"
	"time"
)

// EventFilter contains filter parameters for viewing-event analytics queries.
// Every analytics method accepts one; the filter narrows the event set BEFORE
// any aggregation runs, so a filtered user summary is computed only from the
// events that survive the filter.
//
// All fields are optional and combine using AND logic. Multi-select fields
// (slices) use OR logic within the field (e.g., States: ["CA", "TX"] matches
// events from California OR Texas).
//
// Filter Dimensions:
//
//  1. Temporal:
//     - StartDate: Events on or after this timestamp (nil = no lower bound)
//     - EndDate: Events on or before this timestamp (nil = no upper bound)
//
//  2. Geographic:
//     - States: Viewer state codes (multi-select OR)
//
//  3. Content:
//     - Genres: Show genres (multi-select OR)
//     - ShowTypes: Show formats, e.g. "series", "documentary" (multi-select OR)
//
//  4. Activity:
//     - MinViews: Keep only events of users with at least this many events
//       AFTER the other four dimensions are applied. A threshold of 0 or 1
//       matches every user.
//
// Filtering is stateless: the same filter against the same dataset always
// yields the same result, and filters never modify stored events.
//
// Example - last 30 days of drama viewing by active Texans:
//
//	now := time.Now()
//	thirtyDaysAgo := now.AddDate(0, 0, -30)
//	filter := EventFilter{
//	    StartDate: &thirtyDaysAgo,
//	    EndDate:   &now,
//	    States:    []string{"TX"},
//	    Genres:    []string{"Drama"},
//	    MinViews:  5,
//	}
//
// SQL Generation:
// The filter generates parameterized WHERE clauses via buildFilterWhereClause:
//
//	WHERE 1=1 AND created_at >= ? AND created_at <= ?
//	  AND state IN (?)
//	  AND show_genre IN (?)
//	  AND user_id IN (SELECT user_id FROM viewing_events
//	                  WHERE ... GROUP BY user_id HAVING COUNT(*) >= ?)
//
// Thread Safety:
// EventFilter is immutable after creation and safe for concurrent read access.
type EventFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	States    []string
	Genres    []string
	ShowTypes []string
	MinViews  int
}

// IsZero reports whether the filter has no active dimensions.
// Used by the cache layer to key unfiltered responses cheaply.
func (f EventFilter) IsZero() bool {
	return f.StartDate == nil && f.EndDate == nil &&
		len(f.States) == 0 && len(f.Genres) == 0 && len(f.ShowTypes) == 0 &&
		f.MinViews <= 1
}

// appendInClause is a generic helper for building SQL IN clauses
func appendInClause(columnName string, values []string, whereClauses *[]string, args *[]interface{}) {
	if len(values) == 0 {
		return
	}

	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		*args = append(*args, v)
	}

	*whereClauses = append(*whereClauses, fmt.Sprintf("%s IN (%s)", columnName, join(placeholders, ", ")))
}

// buildFilterConditions builds WHERE clause conditions and args for the four
// row-level filter dimensions. MinViews is handled by buildFilterWhereClause
// because it needs a subquery over the same conditions.
func buildFilterConditions(filter EventFilter) ([]string, []interface{}) {
	whereClauses := []string{}
	args := []interface{}{}

	// Date range filters
	if filter.StartDate != nil {
		whereClauses = append(whereClauses, "created_at >= ?")
		args = append(args, *filter.StartDate)
	}

	if filter.EndDate != nil {
		whereClauses = append(whereClauses, "created_at <= ?")
		args = append(args, *filter.EndDate)
	}

	// Multi-value filters
	appendInClause("state", filter.States, &whereClauses, &args)
	appendInClause("show_genre", filter.Genres, &whereClauses, &args)
	appendInClause("show_type", filter.ShowTypes, &whereClauses, &args)

	return whereClauses, args
}

// buildFilterWhereClause builds a WHERE clause string with "1=1" base for safe
// concatenation, including the MinViews user subquery when set.
//
// Returns: WHERE clause string and query arguments
//
// Example:
//
//	whereClause, args := buildFilterWhereClause(filter)
//	query := fmt.Sprintf("SELECT * FROM viewing_events WHERE %s", whereClause)
//	rows, err := db.conn.QueryContext(ctx, query, args...)
func buildFilterWhereClause(filter EventFilter) (string, []interface{}) {
	clauses, args := buildFilterConditions(filter)

	whereClause := "1=1"
	if len(clauses) > 0 {
		whereClause = "1=1 AND " + join(clauses, " AND ")
	}

	// MinViews keeps only events of users with enough activity inside the
	// already-filtered window, so the subquery repeats the row-level
	// conditions. A threshold of 1 matches every user and is skipped.
	if filter.MinViews > 1 {
		innerClauses, innerArgs := buildFilterConditions(filter)
		innerWhere := "1=1"
		if len(innerClauses) > 0 {
			innerWhere = "1=1 AND " + join(innerClauses, " AND ")
		}

		whereClause += fmt.Sprintf(
			" AND user_id IN (SELECT user_id FROM viewing_events WHERE %s GROUP BY user_id HAVING COUNT(*) >= ?)",
			innerWhere)
		args = append(args, innerArgs...)
		args = append(args, filter.MinViews)
	}

	return whereClause, args
}
