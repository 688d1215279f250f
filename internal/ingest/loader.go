// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/viewlens/viewlens/internal/config"
	"github.com/viewlens/viewlens/internal/database"
	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/metrics"
	"github.com/viewlens/viewlens/internal/models"
)

// ErrLoadInProgress is returned when a load or reload is requested while
// another one is still running.
var ErrLoadInProgress = errors.New("dataset load already in progress")

// defaultBatchSize is used when the configuration leaves BatchSize unset.
const defaultBatchSize = 5000

// Loader orchestrates dataset loads: fetch, decode, validate, insert.
//
// Load streams the initial dataset into the database in batches. Reload
// buffers a replacement dataset fully before swapping it in, so a failed
// reload never leaves the database half-populated.
type Loader struct {
	db      *database.DB
	source  Source
	cfg     *config.DatasetConfig
	capRate bool

	// State
	mu      sync.RWMutex
	running bool
	stats   *LoadStats
}

// NewLoader creates a dataset loader.
func NewLoader(db *database.DB, source Source, cfg *config.DatasetConfig, analytics *config.AnalyticsConfig) *Loader {
	return &Loader{
		db:      db,
		source:  source,
		cfg:     cfg,
		capRate: analytics.CapCompletionRate,
	}
}

// Load performs the initial dataset load, inserting events as they decode.
func (l *Loader) Load(ctx context.Context) (*LoadStats, error) {
	return l.load(ctx, false)
}

// Reload replaces the current dataset with a fresh copy from the source.
func (l *Loader) Reload(ctx context.Context) (*LoadStats, error) {
	return l.load(ctx, true)
}

func (l *Loader) load(ctx context.Context, reload bool) (*LoadStats, error) {
	if err := l.begin(reload); err != nil {
		return nil, err
	}

	var err error
	if reload {
		err = l.runReload(ctx)
	} else {
		err = l.runInitial(ctx)
	}
	l.finish(err)

	stats := l.Stats()
	if err != nil {
		return stats, err
	}

	logging.Info().
		Bool("reload", reload).
		Str("source", stats.Source).
		Int64("records_read", stats.RecordsRead).
		Int64("records_loaded", stats.RecordsLoaded).
		Int64("records_skipped", stats.RecordsSkipped).
		Dur("elapsed", stats.Duration()).
		Msg("Dataset load complete")

	return stats, nil
}

// begin claims the loader for a single load operation.
func (l *Loader) begin(reload bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrLoadInProgress
	}
	l.running = true
	l.stats = &LoadStats{
		Source:      l.source.Describe(),
		SkipReasons: make(map[string]int64),
		StartTime:   time.Now(),
		Reload:      reload,
	}
	return nil
}

// finish releases the loader and records the load outcome.
func (l *Loader) finish(err error) {
	l.mu.Lock()
	l.running = false
	l.stats.EndTime = time.Now()
	stats := l.stats.Clone()
	l.mu.Unlock()

	metrics.RecordDatasetLoad(stats.Duration(), stats.RecordsLoaded, err)
}

// runInitial streams the dataset into the database batch by batch.
func (l *Loader) runInitial(ctx context.Context) error {
	rc, err := l.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("source fetch: %w", err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Error closing dataset source")
		}
	}()

	dec, err := newEventDecoder(rc)
	if err != nil {
		return err
	}

	batchSize := l.batchSize()
	batch := make([]*models.ViewingEvent, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, _, err := l.db.InsertViewingEventsBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		l.addLoaded(int64(inserted))
		metrics.LoadBatchSize.Observe(float64(len(batch)))
		logging.Debug().Int("batch_size", len(batch)).Int("inserted", inserted).Msg("Loaded event batch")
		batch = batch[:0]
		return nil
	}

	if err := l.decodeAll(ctx, dec, func(event *models.ViewingEvent) error {
		batch = append(batch, event)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	}); err != nil {
		return err
	}

	return flush()
}

// runReload buffers the replacement dataset before touching the database so
// a fetch or decode failure leaves the previous dataset intact.
func (l *Loader) runReload(ctx context.Context) error {
	rc, err := l.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("source fetch: %w", err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Error closing dataset source")
		}
	}()

	dec, err := newEventDecoder(rc)
	if err != nil {
		return err
	}

	var events []*models.ViewingEvent
	if err := l.decodeAll(ctx, dec, func(event *models.ViewingEvent) error {
		events = append(events, event)
		return nil
	}); err != nil {
		return err
	}

	inserted, err := l.db.ReplaceAllEvents(ctx, events, l.batchSize())
	if err != nil {
		return fmt.Errorf("replace dataset: %w", err)
	}
	l.addLoaded(int64(inserted))
	return nil
}

// decodeAll drains the decoder, tallying skips and handing valid events to
// emit. Malformed records never abort the load; stream-level errors do.
func (l *Loader) decodeAll(ctx context.Context, dec *eventDecoder, emit func(*models.ViewingEvent) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := dec.next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, errBadRecord) {
			l.addRead(1)
			l.recordSkip(skipReasonDecode)
			continue
		}
		if err != nil {
			return err
		}

		l.addRead(1)
		event, reason := mapRawEvent(raw, l.capRate)
		if reason != "" {
			l.recordSkip(reason)
			continue
		}

		if err := emit(event); err != nil {
			return err
		}
	}
}

// Stats returns a copy of the most recent load statistics, or nil when no
// load has started yet.
func (l *Loader) Stats() *LoadStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats.Clone()
}

// Summary returns the most recent load statistics shaped for the API, or
// nil when no load has started yet.
func (l *Loader) Summary() *LoadSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stats == nil {
		return nil
	}
	return l.stats.Clone().ToSummary(l.running)
}

// IsRunning reports whether a load or reload is currently in progress.
func (l *Loader) IsRunning() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.running
}

func (l *Loader) batchSize() int {
	if l.cfg.BatchSize > 0 {
		return l.cfg.BatchSize
	}
	return defaultBatchSize
}

func (l *Loader) addRead(n int64) {
	l.mu.Lock()
	l.stats.RecordsRead += n
	l.mu.Unlock()
	metrics.LoadRecordsRead.Add(float64(n))
}

func (l *Loader) addLoaded(n int64) {
	l.mu.Lock()
	l.stats.RecordsLoaded += n
	l.mu.Unlock()
}

func (l *Loader) recordSkip(reason string) {
	l.mu.Lock()
	l.stats.RecordsSkipped++
	l.stats.SkipReasons[reason]++
	l.mu.Unlock()
	metrics.RecordSkippedRecord(reason)
}
