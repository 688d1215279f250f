// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/viewlens/viewlens/internal/config"
	"github.com/viewlens/viewlens/internal/ingest"
	"github.com/viewlens/viewlens/internal/models"
)

// reloadFixtureJSONL is the replacement dataset served to reload tests:
// three events across two users, distinct from the pre-inserted fixture.
const reloadFixtureJSONL = `{"user_id": 7, "state": "WA", "timezone": "America/Los_Angeles", "created_date": "2025-05-01", "created_at": "2025-05-01T10:00:00", "show_id": 50, "show_name": "Night Shift", "show_type": "series", "show_genre": "Thriller", "show_rating": "TV-MA", "show_duration_seconds": 2700, "user_watch_duration_seconds": 2700}
{"user_id": 7, "state": "WA", "timezone": "America/Los_Angeles", "created_date": "2025-05-02", "created_at": "2025-05-02T11:00:00", "show_id": 50, "show_name": "Night Shift", "show_type": "series", "show_genre": "Thriller", "show_rating": "TV-MA", "show_duration_seconds": 2700, "user_watch_duration_seconds": 1350}
{"user_id": 8, "state": "OR", "timezone": "America/Los_Angeles", "created_date": "2025-05-03", "created_at": "2025-05-03T20:00:00", "show_id": 60, "show_name": "Trailhead", "show_type": "documentary", "show_genre": "Nature", "show_rating": "TV-G", "show_duration_seconds": 1800, "user_watch_duration_seconds": 900}
`

// setupLoaderServer runs the full router with a loader wired to a temp
// JSONL file, so reload and readiness paths behave as in production.
func setupLoaderServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()

	db := setupTestDB(t)
	insertFixtureEvents(t, db)

	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte(reloadFixtureJSONL), 0o644); err != nil {
		t.Fatalf("writing reload fixture: %v", err)
	}
	loader := ingest.NewLoader(
		db,
		ingest.NewFileSource(path),
		&config.DatasetConfig{BatchSize: 500},
		&config.AnalyticsConfig{},
	)

	handler := NewHandler(db, loader, testConfig(), newTestHub(t), newTestCache(t))
	router := NewRouter(handler, handler.config)
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv, handler
}

// waitForLoadCompletion blocks until the loader reports a completed load.
// Reload tests must call this before returning, or the detached reload
// goroutine would outlive the test database.
func waitForLoadCompletion(t *testing.T, loader *ingest.Loader) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if s := loader.Summary(); s != nil && s.Status == "completed" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for dataset load to complete")
}

func TestTriggerReload(t *testing.T) {
	srv, handler := setupLoaderServer(t)

	// Prime the cache with the pre-reload dataset.
	status, env := getJSON(t, srv, "/api/v1/overview/totals")
	requireSuccess(t, status, env)
	var totals models.OverviewTotals
	decodeData(t, env, &totals)
	if totals.TotalViews != 12 {
		t.Fatalf("pre-reload views: expected 12, got %d", totals.TotalViews)
	}
	status, env = getJSON(t, srv, "/api/v1/overview/totals")
	requireSuccess(t, status, env)
	if !env.Metadata.Cached {
		t.Fatal("second read should come from cache")
	}

	status, env = postJSON(t, srv, "/api/v1/admin/reload")
	if status != http.StatusAccepted {
		t.Fatalf("reload status = %d, want %d (error: %+v)", status, http.StatusAccepted, env.Error)
	}
	var ack map[string]string
	decodeData(t, env, &ack)
	if ack["message"] != "Dataset reload triggered" {
		t.Errorf("ack message = %q", ack["message"])
	}

	waitForLoadCompletion(t, handler.loader)

	// The cache clear runs just after the load completes, so poll until the
	// replacement dataset shows through.
	deadline := time.Now().Add(10 * time.Second)
	for {
		status, env = getJSON(t, srv, "/api/v1/overview/totals")
		requireSuccess(t, status, env)
		decodeData(t, env, &totals)
		if totals.TotalViews == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("post-reload views: expected 3, still %d", totals.TotalViews)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if totals.UniqueUsers != 2 {
		t.Errorf("post-reload users: expected 2, got %d", totals.UniqueUsers)
	}

	status, env = getJSON(t, srv, "/api/v1/events/stats")
	requireSuccess(t, status, env)
	var stats struct {
		TotalEvents int64               `json:"total_events"`
		LastLoad    *ingest.LoadSummary `json:"last_load"`
	}
	decodeData(t, env, &stats)
	if stats.TotalEvents != 3 {
		t.Errorf("total_events after reload: expected 3, got %d", stats.TotalEvents)
	}
	if stats.LastLoad == nil {
		t.Fatal("last_load should be present after a reload")
	}
	if !stats.LastLoad.Reload || stats.LastLoad.Status != "completed" {
		t.Errorf("last_load: expected completed reload, got %+v", stats.LastLoad)
	}
	if stats.LastLoad.RecordsLoaded != 3 {
		t.Errorf("records_loaded: expected 3, got %d", stats.LastLoad.RecordsLoaded)
	}
}

func TestTriggerReload_RateLimited(t *testing.T) {
	srv, handler := setupLoaderServer(t)

	status, env := postJSON(t, srv, "/api/v1/admin/reload")
	if status != http.StatusAccepted {
		t.Fatalf("first reload status = %d, want %d (error: %+v)", status, http.StatusAccepted, env.Error)
	}

	// The token bucket holds a single reload per interval; the second
	// trigger bounces before the loader is even consulted.
	status, env = postJSON(t, srv, "/api/v1/admin/reload")
	requireErrorCode(t, status, http.StatusTooManyRequests, env, errCodeRateLimit)

	waitForLoadCompletion(t, handler.loader)
}

func TestTriggerReload_NoLoader(t *testing.T) {
	srv := setupTestServer(t)

	status, env := postJSON(t, srv, "/api/v1/admin/reload")
	requireErrorCode(t, status, http.StatusServiceUnavailable, env, errCodeServiceUnavailable)
}
