// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/viewlens/viewlens/internal/database"
	"github.com/viewlens/viewlens/internal/models"
	"github.com/viewlens/viewlens/internal/validation"
)

// filterDateLayout is the calendar-date format of start_date and end_date.
const filterDateLayout = "2006-01-02"

// AnalyticsRequest carries the filter query parameters shared by every
// analytics endpoint. Dates are inclusive calendar dates.
type AnalyticsRequest struct {
	StartDate string `validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `validate:"omitempty,datetime=2006-01-02"`
	States    string // comma-separated, free-form
	Genres    string // comma-separated, free-form
	ShowTypes string // comma-separated, free-form
	MinViews  int    `validate:"min=0"`
}

// EventsRequest carries pagination parameters for the raw event listing.
type EventsRequest struct {
	Limit  int `validate:"min=1,max=1000"`
	Offset int `validate:"min=0,max=100000000"`
}

// TopRequest carries the limit parameter for top-N endpoints.
type TopRequest struct {
	Limit int `validate:"min=1,max=500"`
}

// validateRequest runs struct validation and converts failures into the
// API error format.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// parseEventFilter builds the event filter from query parameters. Returns a
// VALIDATION_ERROR when any parameter is malformed; an absent parameter
// leaves its dimension inactive.
func parseEventFilter(r *http.Request) (database.EventFilter, *models.APIError) {
	q := r.URL.Query()

	minViews := 0
	if raw := q.Get("min_views"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return database.EventFilter{}, &models.APIError{
				Code:    errCodeValidation,
				Message: "min_views must be an integer",
				Details: map[string]interface{}{"field": "min_views", "value": raw},
			}
		}
		minViews = parsed
	}

	req := AnalyticsRequest{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		States:    q.Get("states"),
		Genres:    q.Get("genres"),
		ShowTypes: q.Get("show_types"),
		MinViews:  minViews,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		return database.EventFilter{}, apiErr
	}

	filter := database.EventFilter{
		States:    parseCommaSeparated(req.States),
		Genres:    parseCommaSeparated(req.Genres),
		ShowTypes: parseCommaSeparated(req.ShowTypes),
		MinViews:  req.MinViews,
	}

	if req.StartDate != "" {
		start, _ := time.Parse(filterDateLayout, req.StartDate)
		filter.StartDate = &start
	}
	if req.EndDate != "" {
		end, _ := time.Parse(filterDateLayout, req.EndDate)
		// Inclusive calendar date: cover the whole day. Event timestamps
		// have second granularity.
		end = end.Add(24*time.Hour - time.Second)
		filter.EndDate = &end
	}

	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return database.EventFilter{}, &models.APIError{
			Code:    errCodeValidation,
			Message: "start_date must not be after end_date",
			Details: map[string]interface{}{
				"start_date": req.StartDate,
				"end_date":   req.EndDate,
			},
		}
	}

	return filter, nil
}

// parseLimit reads a limit query parameter, defaulting when absent and
// clamping to the validated range via TopRequest.
func parseLimit(r *http.Request, defaultLimit int) (int, *models.APIError) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.APIError{
			Code:    errCodeValidation,
			Message: "limit must be an integer",
			Details: map[string]interface{}{"field": "limit", "value": raw},
		}
	}

	req := TopRequest{Limit: parsed}
	if apiErr := validateRequest(&req); apiErr != nil {
		return 0, apiErr
	}
	return parsed, nil
}

// getIntParam extracts an integer query parameter with a default value.
// Non-integer input is reported instead of defaulted so typos do not
// silently change result pages.
func getIntParam(r *http.Request, key string, defaultValue int) (int, *models.APIError) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &models.APIError{
			Code:    errCodeValidation,
			Message: key + " must be an integer",
			Details: map[string]interface{}{"field": key, "value": raw},
		}
	}
	return parsed, nil
}

// parseCommaSeparated splits a comma-separated parameter into a slice,
// trimming whitespace and dropping empty entries.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
