// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package ingest

import (
	"time"
)

// Skip reasons tallied in LoadStats.SkipReasons. The same strings label the
// viewlens_load_records_skipped_total metric.
const (
	skipReasonDecode           = "decode"
	skipReasonMissingField     = "missing_field"
	skipReasonBadTimestamp     = "bad_timestamp"
	skipReasonNegativeDuration = "negative_duration"
)

// LoadStats holds statistics about a dataset load operation.
type LoadStats struct {
	// Source describes where the dataset came from (file path or URL).
	Source string

	// RecordsRead is the number of records encountered in the source,
	// including ones skipped during decode or validation. On a clean load
	// RecordsRead == RecordsLoaded + RecordsSkipped.
	RecordsRead int64

	// RecordsLoaded is the number of events inserted into the database.
	RecordsLoaded int64

	// RecordsSkipped is the number of records rejected during decode or
	// validation.
	RecordsSkipped int64

	// SkipReasons tallies rejected records by reason.
	SkipReasons map[string]int64

	// StartTime is when the load started.
	StartTime time.Time

	// EndTime is when the load completed (zero if still running).
	EndTime time.Time

	// Reload indicates an atomic dataset replacement rather than the
	// initial load.
	Reload bool
}

// Duration returns the duration of the load operation.
func (s *LoadStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// RecordsPerSecond returns the decode rate.
func (s *LoadStats) RecordsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.RecordsRead) / duration
}

// Clone returns a deep copy safe to hand out while a load is running.
func (s *LoadStats) Clone() *LoadStats {
	if s == nil {
		return nil
	}
	clone := *s
	if s.SkipReasons != nil {
		clone.SkipReasons = make(map[string]int64, len(s.SkipReasons))
		for reason, count := range s.SkipReasons {
			clone.SkipReasons[reason] = count
		}
	}
	return &clone
}

// LoadSummary provides a human-readable summary of a load operation.
type LoadSummary struct {
	Status         string           `json:"status"`
	Source         string           `json:"source"`
	Reload         bool             `json:"reload"`
	RecordsRead    int64            `json:"records_read"`
	RecordsLoaded  int64            `json:"records_loaded"`
	RecordsSkipped int64            `json:"records_skipped"`
	SkipReasons    map[string]int64 `json:"skip_reasons,omitempty"`
	RecordsPerSec  float64          `json:"records_per_second"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        *time.Time       `json:"end_time,omitempty"`
}

// ToSummary converts LoadStats to a LoadSummary with calculated fields.
func (s *LoadStats) ToSummary(running bool) *LoadSummary {
	summary := &LoadSummary{
		Source:         s.Source,
		Reload:         s.Reload,
		RecordsRead:    s.RecordsRead,
		RecordsLoaded:  s.RecordsLoaded,
		RecordsSkipped: s.RecordsSkipped,
		SkipReasons:    s.SkipReasons,
		RecordsPerSec:  s.RecordsPerSecond(),
		ElapsedSeconds: s.Duration().Seconds(),
		StartTime:      s.StartTime,
	}

	if !s.EndTime.IsZero() {
		endTime := s.EndTime
		summary.EndTime = &endTime
	}

	switch {
	case running:
		summary.Status = "running"
	case s.EndTime.IsZero():
		summary.Status = "pending"
	default:
		summary.Status = "completed"
	}

	return summary
}
