// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package ingest

import (
	"time"

	"github.com/viewlens/viewlens/internal/models"
)

// Timestamp layouts accepted by the dataset. created_at carries no zone
// suffix in the canonical export, but RFC 3339 variants appear in exports
// from other tooling, so both parse.
const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02T15:04:05"
)

// mapRawEvent validates a decoded record and converts it to a ViewingEvent.
// The second return value is the skip reason, empty when the event is valid.
//
// A zero show_duration_seconds is valid: the completion rate comes back
// undefined and the event still counts toward view totals. The event ID is
// left unset; the database assigns one at insert.
func mapRawEvent(raw *rawEvent, capRate bool) (*models.ViewingEvent, string) {
	if raw.UserID == nil || raw.ShowID == nil || raw.UserWatchDurationSeconds == nil {
		return nil, skipReasonMissingField
	}
	if raw.CreatedDate == "" || raw.CreatedAt == "" {
		return nil, skipReasonMissingField
	}

	createdDate, err := time.Parse(layoutDate, raw.CreatedDate)
	if err != nil {
		return nil, skipReasonBadTimestamp
	}
	createdAt, err := parseCreatedAt(raw.CreatedAt)
	if err != nil {
		return nil, skipReasonBadTimestamp
	}

	showSeconds := 0
	if raw.ShowDurationSeconds != nil {
		showSeconds = *raw.ShowDurationSeconds
	}
	watchSeconds := *raw.UserWatchDurationSeconds
	if showSeconds < 0 || watchSeconds < 0 {
		return nil, skipReasonNegativeDuration
	}

	event := &models.ViewingEvent{
		UserID:                   *raw.UserID,
		State:                    raw.State,
		Timezone:                 raw.Timezone,
		CreatedDate:              createdDate,
		CreatedAt:                createdAt,
		ShowID:                   *raw.ShowID,
		ShowName:                 raw.ShowName,
		ShowType:                 raw.ShowType,
		ShowGenre:                raw.ShowGenre,
		ShowRating:               raw.ShowRating,
		ShowDescription:          raw.ShowDescription,
		ShowDurationSeconds:      showSeconds,
		UserWatchDurationSeconds: watchSeconds,
	}
	event.CompletionRate = models.ComputeCompletionRate(watchSeconds, showSeconds, capRate)

	return event, ""
}

func parseCreatedAt(s string) (time.Time, error) {
	if t, err := time.Parse(layoutDateTime, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
