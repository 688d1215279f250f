// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package services wraps Viewlens's long-running components as
// suture.Service implementations. Each wrapper accepts a small interface
// rather than the concrete type, so the supervised component stays mockable
// and the package free of heavy imports.
//
// Wrappers provided:
//   - HTTPServerService: http.Server with graceful shutdown
//   - WebSocketHubService: the notification hub's RunWithContext loop
//   - CacheGCService: the response cache's periodic GC
package services
