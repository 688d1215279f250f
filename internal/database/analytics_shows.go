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

// showSummarySQL aggregates one row per show. Show metadata is taken from the
// show's earliest event so repeated metadata never has to be reconciled.
const showSummarySQL = `
	SELECT
		show_id,
		arg_min(show_name, created_at) AS show_name,
		arg_min(show_type, created_at) AS show_type,
		arg_min(show_genre, created_at) AS show_genre,
		arg_min(show_rating, created_at) AS show_rating,
		COUNT(*) AS total_views,
		COUNT(DISTINCT user_id) AS unique_viewers,
		AVG(completion_rate) AS avg_completion_rate,
		AVG(user_watch_duration_seconds) AS avg_watch_duration_seconds,
		SUM(user_watch_duration_seconds) / 3600.0 AS total_watch_hours
	FROM viewing_events
	WHERE %s
	GROUP BY show_id`

// GetShowSummaries computes one summary row per show from the filtered
// events, ordered by total views descending with show_id as a tiebreaker.
func (db *DB) GetShowSummaries(ctx context.Context, filter EventFilter) ([]models.ShowSummary, error) {
	return db.queryShowSummaries(ctx, filter, "ORDER BY total_views DESC, show_id", 0, 0)
}

// GetTopShowsByCompletion ranks shows by average completion rate, highest
// first. Shows with fewer than minViews rated events are excluded so a show
// seen once at 100% cannot outrank a widely watched one; shows whose rate is
// undefined for every event are excluded entirely.
func (db *DB) GetTopShowsByCompletion(ctx context.Context, filter EventFilter, limit, minViews int) ([]models.ShowSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if minViews < 1 {
		minViews = 1
	}
	return db.queryShowSummaries(ctx, filter, "ORDER BY avg_completion_rate DESC, show_id", limit, minViews)
}

func (db *DB) queryShowSummaries(ctx context.Context, filter EventFilter, orderBy string, limit, minViews int) ([]models.ShowSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(showSummarySQL, whereClause)
	if minViews > 1 {
		// COUNT over the rate skips NULLs, so the floor counts rated
		// events only.
		query += "\n\tHAVING COUNT(completion_rate) >= ?"
		args = append(args, minViews)
	} else if minViews == 1 {
		query += "\n\tHAVING AVG(completion_rate) IS NOT NULL"
	}
	query += "\n\t" + orderBy
	if limit > 0 {
		query += "\n\tLIMIT ?"
		args = append(args, limit)
	}

	start := time.Now()
	summaries := []models.ShowSummary{}
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var s models.ShowSummary
		var avgRate sql.NullFloat64
		if err := rows.Scan(
			&s.ShowID, &s.ShowName, &s.ShowType, &s.ShowGenre, &s.ShowRating,
			&s.TotalViews, &s.UniqueViewers, &avgRate,
			&s.AvgWatchDurationSeconds, &s.TotalWatchHours,
		); err != nil {
			return err
		}
		if avgRate.Valid {
			rate := avgRate.Float64
			s.AvgCompletionRate = &rate
		}
		summaries = append(summaries, s)
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query show summaries: %w", err)
	}

	return summaries, nil
}

// GetShowCompletionStats summarizes the distribution of per-show average
// completion rates. Shows with no defined rate contribute nothing; when no
// show has one, the zero-value stats are returned with ShowCount 0.
func (db *DB) GetShowCompletionStats(ctx context.Context, filter EventFilter) (models.ShowCompletionStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`
		SELECT AVG(completion_rate) AS avg_rate
		FROM viewing_events
		WHERE %s
		GROUP BY show_id`, whereClause)

	start := time.Now()
	var rates []float64
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var avgRate sql.NullFloat64
		if err := rows.Scan(&avgRate); err != nil {
			return err
		}
		if avgRate.Valid {
			rates = append(rates, avgRate.Float64)
		}
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return models.ShowCompletionStats{}, fmt.Errorf("failed to query show completion rates: %w", err)
	}

	if len(rates) == 0 {
		return models.ShowCompletionStats{}, nil
	}

	stats := models.ShowCompletionStats{
		Mean:      average(rates),
		Median:    median(rates),
		Max:       rates[0],
		Min:       rates[0],
		ShowCount: len(rates),
	}
	for _, r := range rates[1:] {
		if r > stats.Max {
			stats.Max = r
		}
		if r < stats.Min {
			stats.Min = r
		}
	}
	return stats, nil
}
