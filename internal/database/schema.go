// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

/*
schema.go - Database Schema Management

This file manages the DuckDB database schema including table creation
and index management for optimal query performance.

Tables:
  - viewing_events: Core table storing all viewing activity, one row per
    play event with denormalized show metadata and the derived completion
    rate (NULL when the show duration is zero)

Schema Strategy:
All columns are defined in the initial CREATE TABLE statement. The dataset
is rebuilt from source on every load, so there is no migration machinery;
schema changes ship as changes to the CREATE TABLE statement itself.

Index Strategy:
Indexes are created for:
  - Frequently filtered columns (state, show_genre, show_type)
  - Composite indexes for common query patterns (user + time, paginated listing)
  - Aggregation drivers (user_id, show_id, created_date)
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS viewing_events (
			-- ============================================
			-- Identity
			-- ============================================
			id UUID PRIMARY KEY,
			user_id INTEGER NOT NULL,

			-- ============================================
			-- Viewer context
			-- ============================================
			state TEXT NOT NULL,
			timezone TEXT,
			created_date DATE NOT NULL,
			created_at TIMESTAMP NOT NULL,

			-- ============================================
			-- Show metadata (denormalized per event)
			-- ============================================
			show_id INTEGER NOT NULL,
			show_name TEXT NOT NULL,
			show_type TEXT,
			show_genre TEXT,
			show_rating TEXT,
			show_description TEXT,

			-- ============================================
			-- Durations and derived metrics
			-- ============================================
			show_duration_seconds INTEGER NOT NULL,
			user_watch_duration_seconds INTEGER NOT NULL,
			-- NULL when show_duration_seconds is zero: the rate is undefined,
			-- and SQL aggregates then skip the row without special casing
			completion_rate DOUBLE
		)`,
	}

	return queries
}

// createIndexes creates all database indexes.
// Skipped when cfg.SkipIndexes is set; tests use that for fast setup.
func (db *DB) createIndexes() error {
	if db.cfg != nil && db.cfg.SkipIndexes {
		return nil
	}

	ctx, cancel := schemaContext()
	defer cancel()

	indexes := db.getIndexQueries()

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}

	return nil
}

// getIndexQueries returns index creation SQL statements
func (db *DB) getIndexQueries() []string {
	return []string{
		// Aggregation drivers
		`CREATE INDEX IF NOT EXISTS idx_events_user_id ON viewing_events(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_show_id ON viewing_events(show_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_created_date ON viewing_events(created_date);`,

		// Filter dimensions
		`CREATE INDEX IF NOT EXISTS idx_events_state ON viewing_events(state);`,
		`CREATE INDEX IF NOT EXISTS idx_events_genre ON viewing_events(show_genre);`,
		`CREATE INDEX IF NOT EXISTS idx_events_show_type ON viewing_events(show_type);`,

		// Composite indexes for query performance
		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON viewing_events(created_at DESC, id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_created ON viewing_events(user_id, created_at);`,
	}
}
