// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package models defines data structures used throughout the Viewlens application.
// These models represent viewing events, derived summaries, analytics results,
// and API responses.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ViewingEvent represents a single viewing session of a show by a user.
//
// This is the core data model. Events are immutable once loaded: the dataset
// is read in full at startup (or on explicit reload) and never mutated by
// the analytics layer.
//
// Key Fields:
//   - ID: Unique UUID assigned to each event at load time
//   - UserID: User identifier; many events share one user
//   - CreatedDate/CreatedAt: Calendar date and timestamp of the session
//   - State/Timezone: User locale captured with the event
//   - ShowID and the Show* descriptors: Content metadata, many-to-one with a
//     show; descriptors are assumed constant per show and are not validated
//   - ShowDurationSeconds: Total content length
//   - UserWatchDurationSeconds: Time actually watched; may exceed the show
//     duration when the user replays content
//   - CompletionRate: Derived percentage, nil when ShowDurationSeconds is 0
//     (the rate is undefined; such events still count as views)
type ViewingEvent struct {
	ID uuid.UUID `json:"id"`

	// User identification and locale
	UserID   int    `json:"user_id"`
	State    string `json:"state"`
	Timezone string `json:"timezone"`

	// Session timing
	CreatedDate time.Time `json:"created_date"`
	CreatedAt   time.Time `json:"created_at"`

	// Content descriptors
	ShowID          int    `json:"show_id"`
	ShowName        string `json:"show_name"`
	ShowType        string `json:"show_type"`
	ShowGenre       string `json:"show_genre"`
	ShowRating      string `json:"show_rating"`
	ShowDescription string `json:"show_description,omitempty"`

	// Durations
	ShowDurationSeconds      int `json:"show_duration_seconds"`
	UserWatchDurationSeconds int `json:"user_watch_duration_seconds"`

	// Derived at load time
	CompletionRate *float64 `json:"completion_rate,omitempty"`
}

// ComputeCompletionRate returns the completion percentage for a watch/show
// duration pair, or nil when showSeconds is 0 (undefined, not zero).
// When capped is true, rates above 100 are clamped to 100; otherwise replays
// report their true rate.
func ComputeCompletionRate(watchSeconds, showSeconds int, capped bool) *float64 {
	if showSeconds == 0 {
		return nil
	}
	rate := float64(watchSeconds) / float64(showSeconds) * 100
	if capped && rate > 100 {
		rate = 100
	}
	return &rate
}
