// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package services

import (
	"context"
	"time"
)

// GCRunner matches the response cache's RunGC method. Satisfied by
// *cache.Cache.
type GCRunner interface {
	RunGC(ctx context.Context, interval time.Duration)
}

// CacheGCService runs the response cache's periodic sweep under
// supervision. RunGC blocks until cancellation, so Serve simply delegates
// and reports the context error back to suture.
type CacheGCService struct {
	cache    GCRunner
	interval time.Duration
	name     string
}

// NewCacheGCService wraps the cache sweep as a supervised service.
func NewCacheGCService(cache GCRunner, interval time.Duration) *CacheGCService {
	return &CacheGCService{
		cache:    cache,
		interval: interval,
		name:     "cache-gc",
	}
}

// Serve implements suture.Service.
func (s *CacheGCService) Serve(ctx context.Context) error {
	s.cache.RunGC(ctx, s.interval)
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it to name the service in
// supervision events.
func (s *CacheGCService) String() string {
	return s.name
}
