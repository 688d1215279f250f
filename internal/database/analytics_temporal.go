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

// GetDailyTrends returns per-day view counts, unique viewers, and average
// completion rate, oldest day first. Gaps are zero-filled: every day between
// the range bounds (the filter's dates when set, otherwise the observed
// min/max) gets a point, so charts never interpolate across missing days.
func (db *DB) GetDailyTrends(ctx context.Context, filter EventFilter) ([]models.DailyTrendPoint, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`
		SELECT
			created_date,
			COUNT(*) AS views,
			COUNT(DISTINCT user_id) AS unique_viewers,
			AVG(completion_rate) AS avg_completion_rate
		FROM viewing_events
		WHERE %s
		GROUP BY created_date
		ORDER BY created_date`, whereClause)

	start := time.Now()
	byDay := make(map[time.Time]models.DailyTrendPoint)
	var minDay, maxDay time.Time
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var p models.DailyTrendPoint
		var avgRate sql.NullFloat64
		if err := rows.Scan(&p.Date, &p.Views, &p.UniqueViewers, &avgRate); err != nil {
			return err
		}
		if avgRate.Valid {
			rate := avgRate.Float64
			p.AvgCompletionRate = &rate
		}
		day := truncateToDay(p.Date)
		p.Date = day
		byDay[day] = p
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if day.After(maxDay) {
			maxDay = day
		}
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily trends: %w", err)
	}

	if filter.StartDate != nil {
		d := truncateToDay(*filter.StartDate)
		if minDay.IsZero() || d.Before(minDay) {
			minDay = d
		}
	}
	if filter.EndDate != nil {
		d := truncateToDay(*filter.EndDate)
		if d.After(maxDay) {
			maxDay = d
		}
	}
	if minDay.IsZero() {
		return []models.DailyTrendPoint{}, nil
	}

	points := make([]models.DailyTrendPoint, 0, int(maxDay.Sub(minDay).Hours()/24)+1)
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		if p, ok := byDay[day]; ok {
			points = append(points, p)
		} else {
			points = append(points, models.DailyTrendPoint{Date: day})
		}
	}
	return points, nil
}

// GetHourlyActivity returns the hour-of-day histogram. All 24 hours are
// present, zero-filled, in 0-23 order.
func (db *DB) GetHourlyActivity(ctx context.Context, filter EventFilter) ([]models.HourlyActivityPoint, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`
		SELECT
			EXTRACT(HOUR FROM created_at) AS hour,
			COUNT(*) AS views,
			COUNT(DISTINCT user_id) AS active_users
		FROM viewing_events
		WHERE %s
		GROUP BY hour
		ORDER BY hour`, whereClause)

	start := time.Now()
	points := make([]models.HourlyActivityPoint, 24)
	for h := range points {
		points[h].Hour = h
	}
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var hour, views, users int
		if err := rows.Scan(&hour, &views, &users); err != nil {
			return err
		}
		if hour >= 0 && hour < 24 {
			points[hour].Views = views
			points[hour].ActiveUsers = users
		}
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly activity: %w", err)
	}

	return points, nil
}

// GetWeeklyTrends returns per-ISO-week aggregates, oldest week first.
// Weeks are labeled "YYYY-Wnn" using the ISO year, which can differ from
// the calendar year at year boundaries.
func (db *DB) GetWeeklyTrends(ctx context.Context, filter EventFilter) ([]models.WeeklyTrendPoint, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`
		SELECT
			DATE_TRUNC('week', created_date) AS week_start,
			COUNT(*) AS views,
			COUNT(DISTINCT user_id) AS unique_viewers,
			AVG(completion_rate) AS avg_completion_rate
		FROM viewing_events
		WHERE %s
		GROUP BY week_start
		ORDER BY week_start`, whereClause)

	start := time.Now()
	points := []models.WeeklyTrendPoint{}
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var weekStart time.Time
		var p models.WeeklyTrendPoint
		var avgRate sql.NullFloat64
		if err := rows.Scan(&weekStart, &p.Views, &p.UniqueViewers, &avgRate); err != nil {
			return err
		}
		if avgRate.Valid {
			rate := avgRate.Float64
			p.AvgCompletionRate = &rate
		}
		isoYear, isoWeek := weekStart.ISOWeek()
		p.Week = fmt.Sprintf("%d-W%02d", isoYear, isoWeek)
		points = append(points, p)
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly trends: %w", err)
	}

	return points, nil
}

// truncateToDay drops the time-of-day component, keeping the location.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
