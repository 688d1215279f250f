// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Data:
//     - Dataset: Viewing-event source (local file or remote URL) and load behavior
//     - Database: DuckDB configuration (path, memory, threads)
//
//  2. Analytics:
//     - Analytics: Completion-rate capping, top-N limits, cohort retention bounds
//
//  3. Serving:
//     - Server: HTTP server configuration (port, host, timeout, environment)
//     - API: Pagination and response limits
//     - Cache: Response cache TTL and garbage collection
//     - Security: Rate limiting and CORS
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Dataset   DatasetConfig   `koanf:"dataset"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Cache     CacheConfig     `koanf:"cache"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatasetConfig holds viewing-event source settings.
//
// Path and URL are mutually exclusive; the loader requires one of them at
// startup. Path points to a local JSON Lines or JSON array file; URL fetches
// the same formats over HTTP as a single static snapshot per load. There is no streaming or scheduled
// ingestion: the dataset is read in full at startup and again only when an
// explicit reload is requested.
//
// Environment Variables:
//   - DATASET_PATH: Local dataset file path
//   - DATASET_URL: Remote dataset URL (mutually exclusive with DATASET_PATH)
//   - DATASET_FETCH_TIMEOUT: HTTP fetch timeout for remote sources (default: 60s)
//   - DATASET_BATCH_SIZE: Insert batch size during load (default: 1000)
//   - DATASET_RELOAD_INTERVAL: Minimum spacing between reloads (default: 30s)
//   - DATASET_RELOAD_BURST: Reload token bucket burst (default: 1)
type DatasetConfig struct {
	Path           string        `koanf:"path"`
	URL            string        `koanf:"url"`
	FetchTimeout   time.Duration `koanf:"fetch_timeout"`
	BatchSize      int           `koanf:"batch_size"`
	ReloadInterval time.Duration `koanf:"reload_interval"`
	ReloadBurst    int           `koanf:"reload_burst"`
}

// AnalyticsConfig holds metric computation settings.
//
// CapCompletionRate controls how watch durations exceeding the show duration
// are reported: when false (the default) per-event completion rates above 100
// are kept as-is, when true they are capped at 100. Replays legitimately
// produce rates above 100, so capping is opt-in.
type AnalyticsConfig struct {
	CapCompletionRate      bool `koanf:"cap_completion_rate"`
	TopUsersLimit          int  `koanf:"top_users_limit"`
	TopShowsLimit          int  `koanf:"top_shows_limit"`
	MinShowViews           int  `koanf:"min_show_views"`
	RetentionMaxMonths     int  `koanf:"retention_max_months"`
	RetentionMinCohortSize int  `koanf:"retention_min_cohort_size"`
}

// DatabaseConfig holds DuckDB settings. An empty Path opens an in-memory
// database, which is the default: derived tables are recomputed from the
// dataset on every start.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"` // Number of DuckDB threads (0 = use NumCPU)
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"`
	SkipIndexes            bool   `koanf:"skip_indexes"` // Skip index creation, used by tests for fast setup
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production"
}

// APIConfig holds API pagination and response settings
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// CacheConfig holds response cache settings. The cache is in-memory only;
// entries expire after TTL and a background loop discards expired value log
// space every GCInterval.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// SecurityConfig holds rate limiting and CORS settings
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, the optional config file, and
// environment variables, then validates the result.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// validEnvironments lists accepted server.environment values.
var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

// Validate checks the configuration for invalid or inconsistent values.
// It is called by Load(); call it directly when constructing a Config by hand.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in range 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("server.environment must be development, staging, or production, got %q", c.Server.Environment)
	}

	if c.Dataset.Path != "" && c.Dataset.URL != "" {
		return fmt.Errorf("dataset.path and dataset.url are mutually exclusive")
	}
	if c.Dataset.URL != "" && !strings.HasPrefix(c.Dataset.URL, "http://") && !strings.HasPrefix(c.Dataset.URL, "https://") {
		return fmt.Errorf("dataset.url must be an http(s) URL, got %q", c.Dataset.URL)
	}
	if c.Dataset.BatchSize < 1 {
		return fmt.Errorf("dataset.batch_size must be at least 1, got %d", c.Dataset.BatchSize)
	}
	if c.Dataset.FetchTimeout <= 0 {
		return fmt.Errorf("dataset.fetch_timeout must be positive, got %v", c.Dataset.FetchTimeout)
	}
	if c.Dataset.ReloadInterval <= 0 {
		return fmt.Errorf("dataset.reload_interval must be positive, got %v", c.Dataset.ReloadInterval)
	}
	if c.Dataset.ReloadBurst < 1 {
		return fmt.Errorf("dataset.reload_burst must be at least 1, got %d", c.Dataset.ReloadBurst)
	}

	if c.Analytics.TopUsersLimit < 1 {
		return fmt.Errorf("analytics.top_users_limit must be at least 1, got %d", c.Analytics.TopUsersLimit)
	}
	if c.Analytics.TopShowsLimit < 1 {
		return fmt.Errorf("analytics.top_shows_limit must be at least 1, got %d", c.Analytics.TopShowsLimit)
	}
	if c.Analytics.MinShowViews < 0 {
		return fmt.Errorf("analytics.min_show_views must be non-negative, got %d", c.Analytics.MinShowViews)
	}
	if c.Analytics.RetentionMaxMonths < 1 {
		return fmt.Errorf("analytics.retention_max_months must be at least 1, got %d", c.Analytics.RetentionMaxMonths)
	}
	if c.Analytics.RetentionMinCohortSize < 1 {
		return fmt.Errorf("analytics.retention_min_cohort_size must be at least 1, got %d", c.Analytics.RetentionMinCohortSize)
	}

	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must be non-negative, got %d", c.Database.Threads)
	}

	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be >= api.default_page_size (%d)", c.API.MaxPageSize, c.API.DefaultPageSize)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive when cache is enabled, got %v", c.Cache.TTL)
		}
		if c.Cache.GCInterval <= 0 {
			return fmt.Errorf("cache.gc_interval must be positive when cache is enabled, got %v", c.Cache.GCInterval)
		}
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %v", c.Security.RateLimitWindow)
		}
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Addr returns the host:port listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
