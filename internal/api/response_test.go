// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/viewlens/viewlens/internal/models"
)

func successEnvelope(data interface{}) *models.APIResponse {
	return &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now(), QueryTimeMS: 5},
	}
}

func TestRespondJSON_Headers(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/overview/totals", nil)

	respondJSON(w, r, http.StatusOK, successEnvelope(map[string]int{"total_views": 12}))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("ETag header missing")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}

	var env apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if env.Status != "success" {
		t.Errorf("envelope status = %q", env.Status)
	}
}

func TestRespondJSON_ETagStableAcrossTimestamps(t *testing.T) {
	t.Parallel()

	// Two responses for the same data, generated at different times, must
	// carry the same ETag or conditional requests could never match.
	first := httptest.NewRecorder()
	respondJSON(first, httptest.NewRequest(http.MethodGet, "/x", nil), http.StatusOK,
		&models.APIResponse{Status: "success", Data: map[string]int{"v": 1}, Metadata: models.Metadata{Timestamp: time.Unix(100, 0)}})

	second := httptest.NewRecorder()
	respondJSON(second, httptest.NewRequest(http.MethodGet, "/x", nil), http.StatusOK,
		&models.APIResponse{Status: "success", Data: map[string]int{"v": 1}, Metadata: models.Metadata{Timestamp: time.Unix(200, 0)}})

	firstTag := first.Header().Get("ETag")
	if firstTag == "" || firstTag != second.Header().Get("ETag") {
		t.Errorf("ETags differ: %q vs %q", firstTag, second.Header().Get("ETag"))
	}
}

func TestRespondJSON_NotModified(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	respondJSON(w, r, http.StatusOK, successEnvelope(map[string]int{"v": 1}))

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag on first response")
	}

	conditional := httptest.NewRequest(http.MethodGet, "/x", nil)
	conditional.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	respondJSON(w2, conditional, http.StatusOK, successEnvelope(map[string]int{"v": 1}))

	if w2.Code != http.StatusNotModified {
		t.Fatalf("status = %d, want %d", w2.Code, http.StatusNotModified)
	}
	if w2.Body.Len() != 0 {
		t.Errorf("304 must have no body, got %d bytes", w2.Body.Len())
	}
}

func TestRespondJSON_ChangedDataMisses(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, httptest.NewRequest(http.MethodGet, "/x", nil), http.StatusOK,
		successEnvelope(map[string]int{"v": 1}))

	conditional := httptest.NewRequest(http.MethodGet, "/x", nil)
	conditional.Header.Set("If-None-Match", w.Header().Get("ETag"))
	w2 := httptest.NewRecorder()
	respondJSON(w2, conditional, http.StatusOK, successEnvelope(map[string]int{"v": 2}))

	if w2.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d for changed data", w2.Code, http.StatusOK)
	}
}

func TestRespondError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	respondError(w, r, http.StatusInternalServerError, errCodeDatabase, "Failed to execute query", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store for errors", cc)
	}

	var env apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if env.Status != "error" {
		t.Errorf("envelope status = %q", env.Status)
	}
	if env.Error == nil || env.Error.Code != errCodeDatabase {
		t.Errorf("error = %+v", env.Error)
	}
	if env.Error.Message != "Failed to execute query" {
		t.Errorf("message = %q", env.Error.Message)
	}
}

func TestRespondValidationError_KeepsDetails(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x", nil)

	respondValidationError(w, r, &models.APIError{
		Code:    errCodeValidation,
		Message: "min_views must be an integer",
		Details: map[string]interface{}{"field": "min_views", "value": "many"},
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}

	var env apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if env.Error == nil {
		t.Fatal("error missing")
	}
	if env.Error.Details["field"] != "min_views" {
		t.Errorf("details = %v", env.Error.Details)
	}
}

func TestGenerateETag(t *testing.T) {
	t.Parallel()

	a := generateETag([]byte("payload"))
	b := generateETag([]byte("payload"))
	c := generateETag([]byte("different"))

	if a != b {
		t.Error("same input must produce the same tag")
	}
	if a == c {
		t.Error("different input must produce a different tag")
	}
	if !strings.HasPrefix(a, `"`) || !strings.HasSuffix(a, `"`) {
		t.Errorf("ETag %q is not quoted", a)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"with\nnewline", `with\x0anewline`},
		{"tab\there", `tab\x09here`},
		{"del\x7f", `del\x7f`},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeLogValue(tt.in); got != tt.want {
			t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
