// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/viewlens/viewlens/internal/metrics"
	"github.com/viewlens/viewlens/internal/models"
)

// GetOverviewTotals computes the headline numbers for the filtered
// population. An empty population yields zero totals, not an error.
func (db *DB) GetOverviewTotals(ctx context.Context, filter EventFilter) (models.OverviewTotals, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total_views,
			COUNT(DISTINCT user_id) AS unique_users,
			COUNT(DISTINCT show_id) AS unique_shows,
			AVG(completion_rate) AS avg_completion_rate,
			COALESCE(SUM(user_watch_duration_seconds), 0) / 3600.0 AS total_watch_hours
		FROM viewing_events
		WHERE %s`, whereClause)

	var totals models.OverviewTotals
	var avgRate sql.NullFloat64
	start := time.Now()
	err := db.queryRowWithContext(ctx, query, args,
		&totals.TotalViews, &totals.UniqueUsers, &totals.UniqueShows,
		&avgRate, &totals.TotalWatchHours)
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return models.OverviewTotals{}, fmt.Errorf("failed to query overview totals: %w", err)
	}

	if avgRate.Valid {
		rate := avgRate.Float64
		totals.AvgCompletionRate = &rate
	}
	return totals, nil
}
