// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package database provides data access and analytics functionality for Viewlens.
// This file contains per-user aggregation: summary rows, top users, segment
// distributions, the engagement x completion matrix, and lifecycle stages.
//
// Aggregation runs in SQL (one GROUP BY user_id pass); segment classification
// runs in Go so the thresholds live in exactly one place (the models package)
// and stay consistent between summaries and distributions.
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

// userSummarySQL is the shared per-user aggregation query body.
// AVG(completion_rate) skips NULL rates, so users whose every event has an
// undefined rate get a NULL average, surfaced as a nil pointer.
const userSummarySQL = `
	SELECT
		user_id,
		arg_min(state, created_at) AS state,
		COUNT(*) AS total_views,
		AVG(completion_rate) AS avg_completion_rate,
		MIN(created_at) AS first_view,
		MAX(created_at) AS last_view,
		DATE_DIFF('day', MIN(created_date), MAX(created_date)) AS days_active,
		AVG(user_watch_duration_seconds) AS avg_watch_duration_seconds,
		CAST(SUM(user_watch_duration_seconds) AS BIGINT) AS total_watch_seconds,
		COUNT(DISTINCT show_id) AS unique_shows,
		COUNT(DISTINCT show_genre) AS unique_genres
	FROM viewing_events
	WHERE %s
	GROUP BY user_id`

// GetUserSummaries computes one summary row per user from the filtered events,
// ordered by user_id. Users with no surviving events have no row.
func (db *DB) GetUserSummaries(ctx context.Context, filter EventFilter) ([]models.UserSummary, error) {
	return db.queryUserSummaries(ctx, filter, "ORDER BY user_id", 0)
}

// GetTopUsers returns the limit most active users by total view count.
// Ties break on user_id so the ranking is stable.
func (db *DB) GetTopUsers(ctx context.Context, filter EventFilter, limit int) ([]models.UserSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	return db.queryUserSummaries(ctx, filter, "ORDER BY total_views DESC, user_id", limit)
}

// queryUserSummaries runs the shared aggregation with the given ordering and
// optional limit, then classifies each user into segments.
func (db *DB) queryUserSummaries(ctx context.Context, filter EventFilter, orderBy string, limit int) ([]models.UserSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(userSummarySQL, whereClause) + "\n\t" + orderBy
	if limit > 0 {
		query += "\n\tLIMIT ?"
		args = append(args, limit)
	}

	start := time.Now()
	summaries := []models.UserSummary{}
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var s models.UserSummary
		var avgRate sql.NullFloat64
		if err := rows.Scan(
			&s.UserID, &s.State, &s.TotalViews, &avgRate,
			&s.FirstView, &s.LastView, &s.DaysActive,
			&s.AvgWatchDurationSeconds, &s.TotalWatchSeconds,
			&s.UniqueShows, &s.UniqueGenres,
		); err != nil {
			return err
		}

		if avgRate.Valid {
			rate := avgRate.Float64
			s.AvgCompletionRate = &rate
		}
		s.WatchHours = float64(s.TotalWatchSeconds) / 3600.0

		s.EngagementSegment = models.EngagementSegmentFor(s.TotalViews)
		if s.AvgCompletionRate != nil {
			s.CompletionSegment = models.CompletionSegmentFor(*s.AvgCompletionRate)
		}
		s.LifecycleStage = models.LifecycleStageFor(s.DaysActive)

		summaries = append(summaries, s)
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query user summaries: %w", err)
	}

	return summaries, nil
}

// GetEngagementSegments counts users per engagement segment. All four
// segments appear in Heavy-to-Light order, including empty ones, so the
// response is chart-ready without client-side padding.
func (db *DB) GetEngagementSegments(ctx context.Context, filter EventFilter) ([]models.SegmentCount, error) {
	summaries, err := db.GetUserSummaries(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.EngagementSegment]int)
	for _, s := range summaries {
		counts[s.EngagementSegment]++
	}

	segments := []models.EngagementSegment{
		models.EngagementHeavy,
		models.EngagementRegular,
		models.EngagementCasual,
		models.EngagementLight,
	}

	result := make([]models.SegmentCount, 0, len(segments))
	for _, seg := range segments {
		result = append(result, models.SegmentCount{
			Segment:   string(seg),
			UserCount: counts[seg],
		})
	}
	return result, nil
}

// GetCompletionSegments counts users per completion segment in
// Completionist-to-Browser order. Users whose average rate is undefined
// (no event with a known show duration) are not classified and do not
// appear in any bucket.
func (db *DB) GetCompletionSegments(ctx context.Context, filter EventFilter) ([]models.SegmentCount, error) {
	summaries, err := db.GetUserSummaries(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.CompletionSegment]int)
	for _, s := range summaries {
		if s.CompletionSegment != "" {
			counts[s.CompletionSegment]++
		}
	}

	segments := []models.CompletionSegment{
		models.CompletionCompletionist,
		models.CompletionEngaged,
		models.CompletionSelective,
		models.CompletionBrowser,
	}

	result := make([]models.SegmentCount, 0, len(segments))
	for _, seg := range segments {
		result = append(result, models.SegmentCount{
			Segment:   string(seg),
			UserCount: counts[seg],
		})
	}
	return result, nil
}

// GetSegmentMatrix builds the engagement x completion grid. Only populated
// cells appear; users without a completion segment are excluded. Cells are
// ordered by engagement segment first (Heavy..Light), then completion
// segment (Completionist..Browser).
func (db *DB) GetSegmentMatrix(ctx context.Context, filter EventFilter) ([]models.SegmentMatrixCell, error) {
	summaries, err := db.GetUserSummaries(ctx, filter)
	if err != nil {
		return nil, err
	}

	type cellKey struct {
		engagement models.EngagementSegment
		completion models.CompletionSegment
	}
	type cellAccum struct {
		users       int
		watchHours  float64
		uniqueShows int
	}

	cells := make(map[cellKey]*cellAccum)
	for _, s := range summaries {
		if s.CompletionSegment == "" {
			continue
		}
		key := cellKey{s.EngagementSegment, s.CompletionSegment}
		acc, ok := cells[key]
		if !ok {
			acc = &cellAccum{}
			cells[key] = acc
		}
		acc.users++
		acc.watchHours += s.WatchHours
		acc.uniqueShows += s.UniqueShows
	}

	engagementOrder := map[models.EngagementSegment]int{
		models.EngagementHeavy:   0,
		models.EngagementRegular: 1,
		models.EngagementCasual:  2,
		models.EngagementLight:   3,
	}
	completionOrder := map[models.CompletionSegment]int{
		models.CompletionCompletionist: 0,
		models.CompletionEngaged:       1,
		models.CompletionSelective:     2,
		models.CompletionBrowser:       3,
	}

	result := make([]models.SegmentMatrixCell, 0, len(cells))
	for key, acc := range cells {
		result = append(result, models.SegmentMatrixCell{
			EngagementSegment: key.engagement,
			CompletionSegment: key.completion,
			UserCount:         acc.users,
			AvgWatchHours:     acc.watchHours / float64(acc.users),
			AvgUniqueShows:    float64(acc.uniqueShows) / float64(acc.users),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if engagementOrder[result[i].EngagementSegment] != engagementOrder[result[j].EngagementSegment] {
			return engagementOrder[result[i].EngagementSegment] < engagementOrder[result[j].EngagementSegment]
		}
		return completionOrder[result[i].CompletionSegment] < completionOrder[result[j].CompletionSegment]
	})

	return result, nil
}

// GetLifecycleStats aggregates user behavior per lifecycle stage. All five
// stages appear in Single Day-to-3+ Months order, including empty ones.
// AvgCompletionRate is the mean of the stage's defined per-user averages,
// nil when no user in the stage has one.
func (db *DB) GetLifecycleStats(ctx context.Context, filter EventFilter) ([]models.LifecycleStageStats, error) {
	summaries, err := db.GetUserSummaries(ctx, filter)
	if err != nil {
		return nil, err
	}

	type stageAccum struct {
		users int
		views int
		rates []float64
	}

	stages := make(map[models.LifecycleStage]*stageAccum)
	for _, s := range summaries {
		acc, ok := stages[s.LifecycleStage]
		if !ok {
			acc = &stageAccum{}
			stages[s.LifecycleStage] = acc
		}
		acc.users++
		acc.views += s.TotalViews
		if s.AvgCompletionRate != nil {
			acc.rates = append(acc.rates, *s.AvgCompletionRate)
		}
	}

	order := []models.LifecycleStage{
		models.LifecycleSingleDay,
		models.LifecycleOneWeek,
		models.LifecycleOneMonth,
		models.LifecycleThreeMonths,
		models.LifecycleLongTerm,
	}

	result := make([]models.LifecycleStageStats, 0, len(order))
	for _, stage := range order {
		stats := models.LifecycleStageStats{Stage: stage}
		if acc, ok := stages[stage]; ok {
			stats.UserCount = acc.users
			stats.AvgViews = float64(acc.views) / float64(acc.users)
			if len(acc.rates) > 0 {
				rate := average(acc.rates)
				stats.AvgCompletionRate = &rate
			}
		}
		result = append(result, stats)
	}

	return result, nil
}

// GetEngagementLevels counts users per coarse engagement level
// (High/Medium/Low), in that order, including empty levels.
func (db *DB) GetEngagementLevels(ctx context.Context, filter EventFilter) ([]models.EngagementLevelCount, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`
		SELECT COUNT(*) AS total_views
		FROM viewing_events
		WHERE %s
		GROUP BY user_id`, whereClause)

	start := time.Now()
	counts := make(map[string]int)
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var views int
		if err := rows.Scan(&views); err != nil {
			return err
		}
		counts[models.EngagementLevelFor(views)]++
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query engagement levels: %w", err)
	}

	levels := []string{
		models.EngagementLevelHigh,
		models.EngagementLevelMedium,
		models.EngagementLevelLow,
	}

	result := make([]models.EngagementLevelCount, 0, len(levels))
	for _, level := range levels {
		result = append(result, models.EngagementLevelCount{
			Level:     level,
			UserCount: counts[level],
		})
	}
	return result, nil
}

// GetUsersByState groups user summaries by home state (the state of each
// user's first event), ordered by user count descending with state as a
// tiebreaker. AvgCompletionRate averages the defined per-user rates.
func (db *DB) GetUsersByState(ctx context.Context, filter EventFilter) ([]models.StateUserStats, error) {
	summaries, err := db.GetUserSummaries(ctx, filter)
	if err != nil {
		return nil, err
	}

	type stateAccum struct {
		users      int
		views      int
		watchHours float64
		rates      []float64
	}

	states := make(map[string]*stateAccum)
	for _, s := range summaries {
		acc, ok := states[s.State]
		if !ok {
			acc = &stateAccum{}
			states[s.State] = acc
		}
		acc.users++
		acc.views += s.TotalViews
		acc.watchHours += s.WatchHours
		if s.AvgCompletionRate != nil {
			acc.rates = append(acc.rates, *s.AvgCompletionRate)
		}
	}

	result := make([]models.StateUserStats, 0, len(states))
	for state, acc := range states {
		stats := models.StateUserStats{
			State:           state,
			UserCount:       acc.users,
			AvgViewsPerUser: float64(acc.views) / float64(acc.users),
			AvgWatchHours:   acc.watchHours / float64(acc.users),
		}
		if len(acc.rates) > 0 {
			rate := average(acc.rates)
			stats.AvgCompletionRate = &rate
		}
		result = append(result, stats)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UserCount != result[j].UserCount {
			return result[i].UserCount > result[j].UserCount
		}
		return result[i].State < result[j].State
	})

	return result, nil
}
