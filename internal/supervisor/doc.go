// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

/*
Package supervisor provides process supervision for Viewlens using suture v4.

The supervisor tree organizes the long-running services into two layers for
failure isolation:

	RootSupervisor ("viewlens")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   └── CacheGCService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the messaging layer (a hub panic, a cache GC failure) never takes
down the HTTP server, and vice versa. Crashed services restart with suture's
exponential backoff; each layer counts failures independently.

Supervision events are logged through sutureslog, bridged into the zerolog
pipeline by the logging package's slog adapter:

	slogger := slog.New(logging.NewSlogHandler())
	tree, err := supervisor.NewTree(slogger, supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewCacheGCService(respCache, time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err = tree.Serve(ctx)

Serve blocks until the context is cancelled, then shuts the tree down
leaf-first within the configured timeout. UnstoppedServiceReport names any
service that failed to stop in time.
*/
package supervisor
