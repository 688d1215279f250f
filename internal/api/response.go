// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/models"
)

// Error codes used in API error envelopes.
const (
	errCodeValidation         = "VALIDATION_ERROR"
	errCodeDatabase           = "DATABASE_ERROR"
	errCodeSource             = "SOURCE_ERROR"
	errCodeNotFound           = "NOT_FOUND"
	errCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	errCodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	errCodeReloadInProgress   = "RELOAD_IN_PROGRESS"
	errCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	errCodeInternal           = "INTERNAL_ERROR"
)

// sanitizeLogValue replaces control characters so attacker-supplied strings
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends an envelope response with caching headers. When the
// client presents a matching If-None-Match the body is skipped entirely and
// a 304 goes out instead; error responses never short-circuit this way.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")
	if status == http.StatusOK {
		w.Header().Set("Cache-Control", "public, max-age=60")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// The tag covers the data payload only. Metadata carries a
	// per-response timestamp, so a tag over the full envelope would never
	// match a conditional request.
	etagSource := data
	if response.Error == nil && response.Data != nil {
		if payload, perr := json.Marshal(response.Data); perr == nil {
			etagSource = payload
		}
	}
	etag := generateETag(etagSource)
	w.Header().Set("ETag", etag)

	if status == http.StatusOK && r != nil && r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates an ETag from the response bytes using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}

// respondError sends an error envelope. The error itself is logged, not
// exposed; clients get the code and message only.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, r, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidationError sends a 400 with field-level details.
func respondValidationError(w http.ResponseWriter, r *http.Request, apiErr *models.APIError) {
	respondJSON(w, r, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: apiErr,
	})
}
