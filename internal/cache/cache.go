// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package cache provides a TTL response cache for the analytics API.
//
// Cached values are serialized response bodies, keyed by route and filter
// parameters. The store is an in-memory BadgerDB: entries carry a TTL and
// expire server-side, and Clear drops everything at once after a dataset
// reload so clients never see stale aggregates.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/viewlens/viewlens/internal/config"
	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/metrics"
)

// cacheType labels cache metrics; there is a single response cache today.
const cacheType = "response"

// Cache is a thread-safe TTL cache for serialized API responses.
type Cache struct {
	db  *badger.DB
	ttl time.Duration

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// Stats is a snapshot of cache performance counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Keys      int64 `json:"keys"`
}

// New creates an in-memory response cache with the configured default TTL.
func New(cfg *config.CacheConfig) (*Cache, error) {
	opts := badger.DefaultOptions("")
	opts.InMemory = true

	// Response payloads are small; shrink the memtables accordingly.
	opts.MemTableSize = 16 << 20

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	logging.Info().Dur("ttl", cfg.TTL).Msg("Response cache opened")

	return &Cache{
		db:  db,
		ttl: cfg.TTL,
	}, nil
}

// Get retrieves a cached response body. Expired entries read as misses.
func (c *Cache) Get(key string) ([]byte, bool) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		c.misses.Add(1)
		metrics.RecordCacheMiss(cacheType)
		return nil, false
	}

	c.hits.Add(1)
	metrics.RecordCacheHit(cacheType)
	return value, true
}

// Set stores a response body with the default TTL.
func (c *Cache) Set(key string, value []byte) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a response body with a custom TTL.
func (c *Cache) SetWithTTL(key string, value []byte, ttl time.Duration) {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		// A failed write only costs a future cache miss.
		logging.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Delete removes a single cache entry.
func (c *Cache) Delete(key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Cache delete failed")
		return
	}
	c.evictions.Add(1)
	metrics.RecordCacheEviction(cacheType)
}

// Clear drops every cache entry. Called after a dataset reload so all
// aggregates recompute against the new data.
func (c *Cache) Clear() error {
	dropped := c.Len()
	if err := c.db.DropAll(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	c.evictions.Add(dropped)
	metrics.CacheEvictions.WithLabelValues(cacheType).Add(float64(dropped))
	metrics.SetCacheSize(cacheType, 0)

	logging.Info().Int64("entries", dropped).Msg("Response cache cleared")
	return nil
}

// Len counts live entries. Expired keys are skipped by the iterator.
func (c *Cache) Len() int64 {
	var count int64
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		logging.Warn().Err(err).Msg("Cache entry count failed")
	}
	return count
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Keys:      c.Len(),
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

// RunGC keeps the size gauge fresh until ctx is cancelled. BadgerDB drops
// expired entries on its own; this loop only does the bookkeeping.
func (c *Cache) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries := c.Len()
			metrics.SetCacheSize(cacheType, entries)
			logging.Debug().Int64("entries", entries).Float64("hit_rate", c.HitRate()).Msg("Cache sweep")
		}
	}
}

// Close releases the cache store.
func (c *Cache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close cache store: %w", err)
	}
	return nil
}

// GenerateKey creates a cache key from a route name and its parameters.
func GenerateKey(route string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", route, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", route, hash[:16])
}
