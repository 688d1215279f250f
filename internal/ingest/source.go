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
	"net/http"
	"os"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/viewlens/viewlens/internal/config"
	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/metrics"
)

// Source provides access to the raw viewing-event dataset.
type Source interface {
	// Fetch opens the dataset for reading. The caller must close the
	// returned reader.
	Fetch(ctx context.Context) (io.ReadCloser, error)

	// Describe returns where the dataset comes from, for logs and the
	// load-stats endpoint.
	Describe() string
}

// NewSource builds a Source from the dataset configuration. Config
// validation guarantees exactly one of Path and URL is set.
func NewSource(cfg *config.DatasetConfig) (Source, error) {
	switch {
	case cfg.URL != "":
		return NewHTTPSource(cfg), nil
	case cfg.Path != "":
		return NewFileSource(cfg.Path), nil
	default:
		return nil, fmt.Errorf("dataset source: neither path nor url configured")
	}
}

// FileSource reads the dataset from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource creates a Source backed by a local file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch opens the dataset file.
func (s *FileSource) Fetch(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	return f, nil
}

// Describe returns the dataset file path.
func (s *FileSource) Describe() string {
	return s.path
}

// HTTPSource fetches the dataset from an HTTP endpoint with circuit breaker
// protection.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via sony/gobreaker)
// for its interval and timeout calculations. This is intentional: the timing
// governs when to retry a broken endpoint, not data integrity. Tests should
// exercise the fetch path directly rather than the breaker timing.
type HTTPSource struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[io.ReadCloser]
	name   string
}

// NewHTTPSource creates a Source backed by an HTTP endpoint.
// Circuit breaker configuration:
// - 1 trial request in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 3 consecutive failures
func NewHTTPSource(cfg *config.DatasetConfig) *HTTPSource {
	cbName := "dataset-fetch"

	// Initialize circuit breaker state metrics
	metrics.SetBreakerState(cbName, 0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[io.ReadCloser](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,               // Allow 1 trial request in half-open state
		Interval:    time.Minute,     // Reset counts after 1 minute in closed state
		Timeout:     2 * time.Minute, // Wait 2 minutes before transitioning from open to half-open

		// Fetches happen once at startup and then only on reloads, so a
		// failure-rate threshold would never see enough requests. Trip on
		// consecutive failures instead.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= 3

			if shouldTrip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		// OnStateChange is called whenever the circuit breaker changes state
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.SetBreakerState(name, stateToFloat(to))
			metrics.RecordBreakerTransition(name, fromStr, toStr)
		},
	})

	return &HTTPSource{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.FetchTimeout},
		cb:     cb,
		name:   cbName,
	}
}

// Fetch requests the dataset through the circuit breaker. The response body
// is returned unread so the decoder can stream it.
func (s *HTTPSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	start := time.Now()
	body, err := s.cb.Execute(func() (io.ReadCloser, error) {
		return s.fetch(ctx)
	})
	metrics.SourceFetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordBreakerRequest(s.name, "rejected")
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Dataset fetch rejected")
		} else {
			metrics.RecordBreakerRequest(s.name, "failure")
		}
		return nil, err
	}

	metrics.RecordBreakerRequest(s.name, "success")
	return body, nil
}

// fetch performs the HTTP request without breaker bookkeeping.
func (s *HTTPSource) fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Error closing dataset response body")
		}
		return nil, fmt.Errorf("fetch dataset: unexpected status %d from %s", resp.StatusCode, s.url)
	}

	return resp.Body, nil
}

// Describe returns the dataset URL.
func (s *HTTPSource) Describe() string {
	return s.url
}

// stateToFloat converts circuit breaker state to a metric value
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
