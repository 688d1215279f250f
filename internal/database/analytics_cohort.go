// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package database provides data access and analytics functionality for Viewlens.
// This file contains cohort analytics: users are grouped by the calendar month
// of their first viewing event, then tracked month over month.
//
// Cohort retention helps answer:
// - When do viewers typically stop watching (churn points)
// - Which signup periods produced the stickiest audiences
// - Whether retention is improving across successive cohorts
//
// Cohort assignment and the per-month activity cells are computed in SQL;
// zero-filling and the aggregate curve are assembled in Go, where the
// observable-horizon rules are easier to state and test.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/viewlens/viewlens/internal/metrics"
	"github.com/viewlens/viewlens/internal/models"
)

// GetCohortSummaries groups users into cohorts by the calendar month of their
// first event, oldest cohort first. A user's lifetime is the day span between
// their first and last event within the filtered population.
func (db *DB) GetCohortSummaries(ctx context.Context, filter EventFilter) ([]models.CohortSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`
		WITH user_first_event AS (
			SELECT
				user_id,
				DATE_TRUNC('month', MIN(created_date)) AS cohort_month,
				DATE_DIFF('day', MIN(created_date), MAX(created_date)) AS lifetime_days
			FROM viewing_events
			WHERE %s
			GROUP BY user_id
		)
		SELECT
			cohort_month,
			COUNT(*) AS total_users,
			AVG(lifetime_days) AS avg_lifetime_days
		FROM user_first_event
		GROUP BY cohort_month
		ORDER BY cohort_month`, whereClause)

	start := time.Now()
	cohorts := []models.CohortSummary{}
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var month time.Time
		var c models.CohortSummary
		if err := rows.Scan(&month, &c.TotalUsers, &c.AvgLifetimeDays); err != nil {
			return err
		}
		c.CohortMonth = month.Format("2006-01")
		cohorts = append(cohorts, c)
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query cohort summaries: %w", err)
	}

	return cohorts, nil
}

// cohortActivityRow is one (cohort, month offset) cell from the retention query.
type cohortActivityRow struct {
	cohortMonth time.Time
	cohortSize  int
	monthOffset int
	activeUsers int
}

// GetCohortRetention computes month-over-month retention per cohort plus the
// aggregate retention curve. A user counts as retained at offset k when they
// have at least one event during their cohort month plus k months. Offsets
// run 0..maxMonths; cohorts smaller than minCohortSize are dropped because
// their rates are mostly noise.
//
// Rows are zero-filled up to each cohort's observable horizon (the dataset's
// last month), so a cohort that went quiet still shows 0% rather than a gap,
// while young cohorts are never blamed for months that have not happened yet.
func (db *DB) GetCohortRetention(ctx context.Context, filter EventFilter, maxMonths, minCohortSize int) (*models.CohortRetentionAnalytics, error) {
	if maxMonths < 1 {
		maxMonths = 12
	}
	if minCohortSize < 1 {
		minCohortSize = 1
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	lastMonth, err := db.lastEventMonth(ctx, filter)
	if err != nil {
		return nil, err
	}
	if lastMonth.IsZero() {
		return &models.CohortRetentionAnalytics{
			Cohorts:        []models.CohortRetentionRow{},
			RetentionCurve: []models.RetentionPoint{},
		}, nil
	}

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`
		WITH user_first_event AS (
			SELECT
				user_id,
				DATE_TRUNC('month', MIN(created_date)) AS cohort_month
			FROM viewing_events
			WHERE %s
			GROUP BY user_id
		),
		user_monthly_activity AS (
			SELECT DISTINCT
				user_id,
				DATE_TRUNC('month', created_date) AS activity_month
			FROM viewing_events
			WHERE %s
		),
		cohort_sizes AS (
			SELECT cohort_month, COUNT(*) AS cohort_size
			FROM user_first_event
			GROUP BY cohort_month
		)
		SELECT
			f.cohort_month,
			s.cohort_size,
			DATE_DIFF('month', f.cohort_month, a.activity_month) AS month_offset,
			COUNT(DISTINCT a.user_id) AS active_users
		FROM user_first_event f
		JOIN user_monthly_activity a ON f.user_id = a.user_id
		JOIN cohort_sizes s ON f.cohort_month = s.cohort_month
		WHERE DATE_DIFF('month', f.cohort_month, a.activity_month) BETWEEN 0 AND ?
		  AND s.cohort_size >= ?
		GROUP BY f.cohort_month, s.cohort_size, month_offset
		ORDER BY f.cohort_month, month_offset`, whereClause, whereClause)

	// The filter conditions appear in two CTEs, so the args are bound twice.
	queryArgs := make([]interface{}, 0, len(args)*2+2)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, maxMonths, minCohortSize)

	start := time.Now()
	var activity []cohortActivityRow
	err = db.queryAndScan(ctx, query, queryArgs, func(rows *sql.Rows) error {
		var r cohortActivityRow
		if err := rows.Scan(&r.cohortMonth, &r.cohortSize, &r.monthOffset, &r.activeUsers); err != nil {
			return err
		}
		activity = append(activity, r)
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query cohort retention: %w", err)
	}

	return buildRetentionAnalytics(activity, lastMonth, maxMonths), nil
}

// lastEventMonth returns the first day of the filtered population's latest
// event month, or the zero time when no events match.
func (db *DB) lastEventMonth(ctx context.Context, filter EventFilter) (time.Time, error) {
	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`SELECT DATE_TRUNC('month', MAX(created_date)) FROM viewing_events WHERE %s`, whereClause)

	var month sql.NullTime
	start := time.Now()
	err := db.queryRowWithContext(ctx, query, args, &month)
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query last event month: %w", err)
	}
	if !month.Valid {
		return time.Time{}, nil
	}
	return month.Time, nil
}

// buildRetentionAnalytics assembles the per-cohort rows and the aggregate
// curve from the raw (cohort, offset) activity cells.
func buildRetentionAnalytics(activity []cohortActivityRow, lastMonth time.Time, maxMonths int) *models.CohortRetentionAnalytics {
	type cohortData struct {
		month   time.Time
		size    int
		offsets map[int]int
	}

	byMonth := make(map[time.Time]*cohortData)
	for _, r := range activity {
		c, ok := byMonth[r.cohortMonth]
		if !ok {
			c = &cohortData{month: r.cohortMonth, size: r.cohortSize, offsets: make(map[int]int)}
			byMonth[r.cohortMonth] = c
		}
		c.offsets[r.monthOffset] = r.activeUsers
	}

	cohorts := make([]*cohortData, 0, len(byMonth))
	for _, c := range byMonth {
		cohorts = append(cohorts, c)
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].month.Before(cohorts[j].month) })

	result := &models.CohortRetentionAnalytics{
		Cohorts:        make([]models.CohortRetentionRow, 0, len(cohorts)),
		RetentionCurve: []models.RetentionPoint{},
	}

	type curveAccum struct {
		sum     float64
		cohorts int
	}
	curve := make(map[int]*curveAccum)

	for _, c := range cohorts {
		horizon := monthsBetween(c.month, lastMonth)
		if horizon > maxMonths {
			horizon = maxMonths
		}
		if horizon > result.MaxMonthOffset {
			result.MaxMonthOffset = horizon
		}

		row := models.CohortRetentionRow{
			CohortMonth: c.month.Format("2006-01"),
			CohortSize:  c.size,
			Retention:   make([]models.MonthRetention, 0, horizon+1),
		}
		for offset := 0; offset <= horizon; offset++ {
			active := c.offsets[offset]
			rate := float64(active) / float64(c.size) * 100
			row.Retention = append(row.Retention, models.MonthRetention{
				MonthOffset:   offset,
				ActiveUsers:   active,
				RetentionRate: rate,
			})

			acc, ok := curve[offset]
			if !ok {
				acc = &curveAccum{}
				curve[offset] = acc
			}
			acc.sum += rate
			acc.cohorts++
		}
		result.Cohorts = append(result.Cohorts, row)
	}

	for offset := 0; offset <= result.MaxMonthOffset; offset++ {
		acc, ok := curve[offset]
		if !ok {
			continue
		}
		result.RetentionCurve = append(result.RetentionCurve, models.RetentionPoint{
			MonthOffset:     offset,
			AvgRetention:    acc.sum / float64(acc.cohorts),
			CohortsWithData: acc.cohorts,
		})
	}

	return result
}

// monthsBetween returns the whole-month offset from a to b, matching SQL
// DATE_DIFF('month', ...) on month-truncated dates.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
