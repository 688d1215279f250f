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

// GetStateStats aggregates events per state, busiest state first with state
// name as a tiebreaker. Each event counts toward the state it was recorded
// in, so a user who watched from two states appears in both unique-user
// counts and the per-state view counts sum to the filtered total.
func (db *DB) GetStateStats(ctx context.Context, filter EventFilter) ([]models.StateStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf(`
		SELECT
			state,
			COUNT(*) AS views,
			COUNT(DISTINCT user_id) AS unique_users,
			AVG(completion_rate) AS avg_completion_rate
		FROM viewing_events
		WHERE %s
		GROUP BY state
		ORDER BY views DESC, state`, whereClause)

	start := time.Now()
	stats := []models.StateStats{}
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var s models.StateStats
		var avgRate sql.NullFloat64
		if err := rows.Scan(&s.State, &s.Views, &s.UniqueUsers, &avgRate); err != nil {
			return err
		}
		if avgRate.Valid {
			rate := avgRate.Float64
			s.AvgCompletionRate = &rate
		}
		if s.UniqueUsers > 0 {
			s.ViewsPerUser = float64(s.Views) / float64(s.UniqueUsers)
		}
		stats = append(stats, s)
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query state stats: %w", err)
	}

	return stats, nil
}
