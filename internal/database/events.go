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

	"github.com/google/uuid"

	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/metrics"
	"github.com/viewlens/viewlens/internal/models"
)

// insertEventSQL is shared by batch insert and replace-all.
// ON CONFLICT DO NOTHING makes re-delivery of an already-loaded event a no-op
// instead of a transaction abort.
const insertEventSQL = `INSERT INTO viewing_events (
	id, user_id,
	state, timezone, created_date, created_at,
	show_id, show_name, show_type, show_genre, show_rating, show_description,
	show_duration_seconds, user_watch_duration_seconds, completion_rate
) VALUES (
	?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
) ON CONFLICT DO NOTHING`

// execInsertEvent binds one event to the prepared insert statement
func execInsertEvent(ctx context.Context, stmt *sql.Stmt, event *models.ViewingEvent) (sql.Result, error) {
	return stmt.ExecContext(ctx,
		event.ID, event.UserID,
		event.State, event.Timezone, event.CreatedDate, event.CreatedAt,
		event.ShowID, event.ShowName, event.ShowType, event.ShowGenre, event.ShowRating, event.ShowDescription,
		event.ShowDurationSeconds, event.UserWatchDurationSeconds, event.CompletionRate,
	)
}

// InsertViewingEventsBatch inserts multiple viewing events in a single transaction.
//
// Returns:
//   - inserted: number of events successfully inserted
//   - duplicates: number of events skipped due to primary key conflicts
//   - err: error if the transaction failed (all events are rolled back)
//
// Events without an ID are assigned a fresh UUID before insert.
func (db *DB) InsertViewingEventsBatch(ctx context.Context, events []*models.ViewingEvent) (inserted int, duplicates int, err error) {
	if len(events) == 0 {
		return 0, 0, nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("INSERT", "viewing_events", time.Since(start), err)
	}()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertEventSQL)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close prepared statement")
		}
	}()

	inserted, duplicates, err = insertEventsWithStmt(ctx, stmt, events)
	if err != nil {
		return 0, 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logging.Debug().
		Int("inserted", inserted).
		Int("duplicates", duplicates).
		Int("total", len(events)).
		Msg("Batch transaction committed")

	return inserted, duplicates, nil
}

// insertEventsWithStmt runs the prepared insert for each event and tallies results
func insertEventsWithStmt(ctx context.Context, stmt *sql.Stmt, events []*models.ViewingEvent) (inserted int, duplicates int, err error) {
	for i, event := range events {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}

		result, execErr := execInsertEvent(ctx, stmt, event)
		if execErr != nil {
			return 0, 0, fmt.Errorf("failed to insert event %d (user=%d, show=%d): %w", i, event.UserID, event.ShowID, execErr)
		}

		rowsAffected, rowsErr := result.RowsAffected()
		if rowsErr != nil {
			return 0, 0, fmt.Errorf("failed to get rows affected for event %d: %w", i, rowsErr)
		}

		if rowsAffected > 0 {
			inserted++
		} else {
			duplicates++
			logging.Debug().
				Str("id", event.ID.String()).
				Int("user_id", event.UserID).
				Int("show_id", event.ShowID).
				Msg("Batch duplicate detected")
		}
	}

	return inserted, duplicates, nil
}

// ReplaceAllEvents swaps the full event set in one transaction: existing rows
// are deleted and the new events inserted in batches of batchSize. Readers see
// either the old dataset or the new one, never a partially loaded mix.
//
// Returns the number of events inserted.
func (db *DB) ReplaceAllEvents(ctx context.Context, events []*models.ViewingEvent, batchSize int) (inserted int, err error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("REPLACE", "viewing_events", time.Since(start), err)
	}()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Replace rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM viewing_events"); err != nil {
		return 0, fmt.Errorf("failed to clear events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertEventSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close prepared statement")
		}
	}()

	for batchStart := 0; batchStart < len(events); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(events) {
			batchEnd = len(events)
		}

		batchInserted, _, batchErr := insertEventsWithStmt(ctx, stmt, events[batchStart:batchEnd])
		if batchErr != nil {
			err = batchErr
			return 0, err
		}
		inserted += batchInserted
		metrics.LoadBatchSize.Observe(float64(batchEnd - batchStart))
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit replace transaction: %w", err)
	}

	logging.Info().
		Int("inserted", inserted).
		Int("total", len(events)).
		Msg("Event set replaced")

	return inserted, nil
}

// GetEvents retrieves filtered viewing events with pagination, ordered by
// created_at DESC with id as a tiebreaker so pages are stable across requests.
func (db *DB) GetEvents(ctx context.Context, filter EventFilter, limit, offset int) ([]models.ViewingEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildFilterWhereClause(filter)

	query := fmt.Sprintf(`
		SELECT
			id, user_id,
			state, timezone, created_date, created_at,
			show_id, show_name, show_type, show_genre, show_rating, show_description,
			show_duration_seconds, user_watch_duration_seconds, completion_rate
		FROM viewing_events
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`, whereClause)

	args = append(args, limit, offset)

	start := time.Now()
	events := []models.ViewingEvent{}
	err := db.queryAndScan(ctx, query, args, func(rows *sql.Rows) error {
		var e models.ViewingEvent
		if err := rows.Scan(
			&e.ID, &e.UserID,
			&e.State, &e.Timezone, &e.CreatedDate, &e.CreatedAt,
			&e.ShowID, &e.ShowName, &e.ShowType, &e.ShowGenre, &e.ShowRating, &e.ShowDescription,
			&e.ShowDurationSeconds, &e.UserWatchDurationSeconds, &e.CompletionRate,
		); err != nil {
			return err
		}
		events = append(events, e)
		return nil
	})
	metrics.RecordDBQuery("SELECT", "viewing_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return events, nil
}

// CountEvents returns the number of events matching the filter
func (db *DB) CountEvents(ctx context.Context, filter EventFilter) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64

	// The unfiltered count is the hot path for pagination metadata, so it
	// runs through the prepared statement cache.
	if filter.IsZero() {
		stmt, err := db.preparedStmt(ctx, "count_events", "SELECT COUNT(*) FROM viewing_events")
		if err != nil {
			return 0, err
		}
		if err := stmt.QueryRowContext(ctx).Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to count events: %w", err)
		}
		return count, nil
	}

	whereClause, args := buildFilterWhereClause(filter)
	query := fmt.Sprintf("SELECT COUNT(*) FROM viewing_events WHERE %s", whereClause)

	if err := db.queryRowWithContext(ctx, query, args, &count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	return count, nil
}

// GetLastEventTime retrieves the timestamp of the most recent viewing event.
// Returns nil if the dataset is empty.
func (db *DB) GetLastEventTime(ctx context.Context) (*time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var last *time.Time
	err := db.conn.QueryRowContext(ctx, `SELECT MAX(created_at) FROM viewing_events`).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to get last event time: %w", err)
	}
	return last, nil
}
