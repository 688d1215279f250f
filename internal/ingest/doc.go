// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package ingest loads the viewing-event dataset into DuckDB.
//
// The dataset is a JSON export of viewing events, either a JSON array or
// JSON Lines (one object per line). It can live on the local filesystem or
// behind an HTTP endpoint; both are abstracted behind the Source interface.
//
// # Architecture
//
// The load pipeline is a straight line:
//
//	Source (file or HTTP)
//	       ↓
//	eventDecoder (streaming JSON, format auto-detected)
//	       ↓
//	mapRawEvent (validation + completion-rate computation)
//	       ↓
//	DuckDB (internal/database, batched inserts)
//
// The decoder never materializes the whole dataset for the initial load;
// events are inserted in configurable batches as they are decoded. Reloads
// buffer the replacement dataset first so the swap is atomic: a reload that
// fails mid-decode leaves the previous dataset untouched.
//
// # Malformed Records
//
// A malformed record is skipped, tallied by reason, and never aborts the
// load. The reasons are:
//
//   - decode: the record is not a well-formed JSON object
//   - missing_field: a required field (user_id, show_id, timestamps) is absent
//   - bad_timestamp: created_date or created_at does not parse
//   - negative_duration: a duration field is negative
//
// A show_duration_seconds of zero is NOT malformed: the event is kept with
// an undefined completion rate, so it still counts toward view totals while
// staying out of completion averages.
//
// # Resilience
//
// HTTP fetches go through a circuit breaker (sony/gobreaker). Reloads are
// rare, so the breaker trips on consecutive failures rather than a failure
// rate that would never accumulate enough samples to be meaningful.
package ingest
