// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// This file contains cohort analytics models. Users are grouped into cohorts
// by the calendar month of their first viewing event.

package models

// CohortSummary represents one cohort: all users whose first viewing event
// falls in the same calendar month.
type CohortSummary struct {
	// CohortMonth is the month of first view in YYYY-MM format.
	CohortMonth string `json:"cohort_month"`

	// TotalUsers is the count of users in this cohort.
	TotalUsers int `json:"total_users"`

	// AvgLifetimeDays is the mean days-active span of the cohort's users.
	AvgLifetimeDays float64 `json:"avg_lifetime_days"`
}

// CohortRetentionAnalytics represents month-over-month retention for all
// cohorts, plus an aggregate retention curve.
type CohortRetentionAnalytics struct {
	// Cohorts contains per-cohort retention rows, oldest first.
	Cohorts []CohortRetentionRow `json:"cohorts"`

	// RetentionCurve provides the average retention per month offset
	// across all cohorts that have data for that offset.
	RetentionCurve []RetentionPoint `json:"retention_curve"`

	// MaxMonthOffset is the largest month offset tracked.
	MaxMonthOffset int `json:"max_month_offset"`
}

// CohortRetentionRow represents retention for a single cohort.
type CohortRetentionRow struct {
	// CohortMonth is the cohort's first-view month (YYYY-MM).
	CohortMonth string `json:"cohort_month"`

	// CohortSize is the number of users in the cohort.
	CohortSize int `json:"cohort_size"`

	// Retention maps month offsets to retention data. A user is retained at
	// offset k when they have at least one event during cohort month + k.
	// Offset 0 is 100% by construction.
	Retention []MonthRetention `json:"retention"`
}

// MonthRetention represents retention data for a specific month offset.
type MonthRetention struct {
	// MonthOffset is the number of months since cohort formation (0 = same month).
	MonthOffset int `json:"month_offset"`

	// ActiveUsers is the count of cohort users with at least one event in this month.
	ActiveUsers int `json:"active_users"`

	// RetentionRate is (ActiveUsers / CohortSize) * 100.
	RetentionRate float64 `json:"retention_rate"`
}

// RetentionPoint represents a single point on the aggregate retention curve.
type RetentionPoint struct {
	// MonthOffset is the number of months since cohort formation.
	MonthOffset int `json:"month_offset"`

	// AvgRetention is the mean retention rate across cohorts at this offset.
	AvgRetention float64 `json:"avg_retention"`

	// CohortsWithData is the number of cohorts old enough to have data here.
	CohortsWithData int `json:"cohorts_with_data"`
}
