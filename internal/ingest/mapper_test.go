// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package ingest

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func intPtr(v int) *int {
	return &v
}

// validRaw returns a fully-populated record; tests knock out single fields.
func validRaw() *rawEvent {
	return &rawEvent{
		UserID:                   intPtr(42),
		State:                    "CA",
		Timezone:                 "America/Los_Angeles",
		CreatedDate:              "2025-03-10",
		CreatedAt:                "2025-03-10T08:15:00",
		ShowID:                   intPtr(10),
		ShowName:                 "Starfall",
		ShowType:                 "series",
		ShowGenre:                "Sci-Fi",
		ShowRating:               "TV-14",
		ShowDescription:          "A crew adrift past the heliopause.",
		ShowDurationSeconds:      intPtr(3600),
		UserWatchDurationSeconds: intPtr(2700),
	}
}

func TestMapRawEvent_ConvertsAllFields(t *testing.T) {
	event, reason := mapRawEvent(validRaw(), false)
	if reason != "" {
		t.Fatalf("mapRawEvent() skip reason = %q, want none", reason)
	}

	if event.UserID != 42 {
		t.Errorf("UserID = %d, want 42", event.UserID)
	}
	if event.State != "CA" {
		t.Errorf("State = %s, want CA", event.State)
	}
	if event.Timezone != "America/Los_Angeles" {
		t.Errorf("Timezone = %s, want America/Los_Angeles", event.Timezone)
	}
	wantDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !event.CreatedDate.Equal(wantDate) {
		t.Errorf("CreatedDate = %v, want %v", event.CreatedDate, wantDate)
	}
	wantAt := time.Date(2025, 3, 10, 8, 15, 0, 0, time.UTC)
	if !event.CreatedAt.Equal(wantAt) {
		t.Errorf("CreatedAt = %v, want %v", event.CreatedAt, wantAt)
	}
	if event.ShowID != 10 {
		t.Errorf("ShowID = %d, want 10", event.ShowID)
	}
	if event.ShowName != "Starfall" || event.ShowType != "series" || event.ShowGenre != "Sci-Fi" {
		t.Errorf("show descriptors = %s/%s/%s, want Starfall/series/Sci-Fi", event.ShowName, event.ShowType, event.ShowGenre)
	}
	if event.ShowRating != "TV-14" {
		t.Errorf("ShowRating = %s, want TV-14", event.ShowRating)
	}
	if event.ShowDurationSeconds != 3600 || event.UserWatchDurationSeconds != 2700 {
		t.Errorf("durations = %d/%d, want 3600/2700", event.ShowDurationSeconds, event.UserWatchDurationSeconds)
	}
	if event.CompletionRate == nil || *event.CompletionRate != 75 {
		t.Errorf("CompletionRate = %v, want 75", event.CompletionRate)
	}
	if event.ID != uuid.Nil {
		t.Errorf("ID = %v, want unset until insert", event.ID)
	}
}

func TestMapRawEvent_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*rawEvent)
	}{
		{"no user_id", func(r *rawEvent) { r.UserID = nil }},
		{"no show_id", func(r *rawEvent) { r.ShowID = nil }},
		{"no watch duration", func(r *rawEvent) { r.UserWatchDurationSeconds = nil }},
		{"no created_date", func(r *rawEvent) { r.CreatedDate = "" }},
		{"no created_at", func(r *rawEvent) { r.CreatedAt = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(raw)

			event, reason := mapRawEvent(raw, false)
			if event != nil {
				t.Errorf("mapRawEvent() returned an event, want nil")
			}
			if reason != skipReasonMissingField {
				t.Errorf("skip reason = %q, want %q", reason, skipReasonMissingField)
			}
		})
	}
}

func TestMapRawEvent_BadTimestamps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*rawEvent)
	}{
		{"garbage date", func(r *rawEvent) { r.CreatedDate = "03/10/2025" }},
		{"garbage timestamp", func(r *rawEvent) { r.CreatedAt = "yesterday" }},
		{"date in timestamp field only", func(r *rawEvent) { r.CreatedAt = "2025-03-10" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(raw)

			if _, reason := mapRawEvent(raw, false); reason != skipReasonBadTimestamp {
				t.Errorf("skip reason = %q, want %q", reason, skipReasonBadTimestamp)
			}
		})
	}
}

func TestMapRawEvent_AcceptsRFC3339Timestamp(t *testing.T) {
	raw := validRaw()
	raw.CreatedAt = "2025-03-10T08:15:00Z"

	event, reason := mapRawEvent(raw, false)
	if reason != "" {
		t.Fatalf("skip reason = %q, want none", reason)
	}
	want := time.Date(2025, 3, 10, 8, 15, 0, 0, time.UTC)
	if !event.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", event.CreatedAt, want)
	}
}

func TestMapRawEvent_NegativeDurations(t *testing.T) {
	raw := validRaw()
	raw.ShowDurationSeconds = intPtr(-1)
	if _, reason := mapRawEvent(raw, false); reason != skipReasonNegativeDuration {
		t.Errorf("skip reason = %q, want %q", reason, skipReasonNegativeDuration)
	}

	raw = validRaw()
	raw.UserWatchDurationSeconds = intPtr(-600)
	if _, reason := mapRawEvent(raw, false); reason != skipReasonNegativeDuration {
		t.Errorf("skip reason = %q, want %q", reason, skipReasonNegativeDuration)
	}
}

func TestMapRawEvent_ZeroShowDurationKeptWithUndefinedRate(t *testing.T) {
	raw := validRaw()
	raw.ShowDurationSeconds = intPtr(0)

	event, reason := mapRawEvent(raw, false)
	if reason != "" {
		t.Fatalf("skip reason = %q, want none", reason)
	}
	if event.CompletionRate != nil {
		t.Errorf("CompletionRate = %v, want nil for zero show duration", *event.CompletionRate)
	}

	// An absent show_duration_seconds behaves the same as zero.
	raw = validRaw()
	raw.ShowDurationSeconds = nil

	event, reason = mapRawEvent(raw, false)
	if reason != "" {
		t.Fatalf("skip reason = %q, want none", reason)
	}
	if event.ShowDurationSeconds != 0 {
		t.Errorf("ShowDurationSeconds = %d, want 0", event.ShowDurationSeconds)
	}
	if event.CompletionRate != nil {
		t.Errorf("CompletionRate = %v, want nil", *event.CompletionRate)
	}
}

func TestMapRawEvent_RateAboveHundred(t *testing.T) {
	raw := validRaw()
	raw.ShowDurationSeconds = intPtr(3600)
	raw.UserWatchDurationSeconds = intPtr(4500)

	event, reason := mapRawEvent(raw, false)
	if reason != "" {
		t.Fatalf("skip reason = %q, want none", reason)
	}
	if event.CompletionRate == nil || *event.CompletionRate != 125 {
		t.Errorf("CompletionRate = %v, want 125 uncapped", event.CompletionRate)
	}

	event, reason = mapRawEvent(raw, true)
	if reason != "" {
		t.Fatalf("skip reason = %q, want none", reason)
	}
	if event.CompletionRate == nil || *event.CompletionRate != 100 {
		t.Errorf("CompletionRate = %v, want 100 capped", event.CompletionRate)
	}
}
