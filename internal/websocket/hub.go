// Viewlens - Streaming Viewing-Event Analytics
// Copyright 2026 Viewlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

// Package websocket pushes dataset lifecycle notifications to connected
// dashboards. Clients receive a dataset_reloaded message when an admin
// reload swaps the dataset and stats_updated messages when headline totals
// change; they are expected to refetch whatever views they display.
package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/viewlens/viewlens/internal/logging"
	"github.com/viewlens/viewlens/internal/metrics"
)

// Message types pushed to clients.
const (
	MessageTypeDatasetReloaded = "dataset_reloaded"
	MessageTypeStatsUpdated    = "stats_updated"
	MessageTypePing            = "ping"
	MessageTypePong            = "pong"
)

// Message represents a WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until ctx is cancelled, then closes every
// client and returns ctx.Err(). Designed to run under suture supervision.
//
// Selection is priority-ordered: shutdown first, then client lifecycle,
// then broadcasts. Client state is consistent before any message delivery
// and shutdown never loses to a full broadcast queue.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check).
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle events (non-blocking check).
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: block until any event arrives.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients fans a message out to every connected client. Clients
// are visited in ID order so delivery order is reproducible; a client whose
// send buffer is full is dropped rather than allowed to stall the rest.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
		logging.Warn().Int("dropped", len(toRemove)).Msg("dropped slow websocket clients during broadcast")
	}
}

// shutdown closes all clients and logs the reason. Context cancellation is
// the expected path, so it is not logged as an error.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// DatasetReloadedData is sent with dataset_reloaded messages.
type DatasetReloadedData struct {
	Timestamp     string `json:"timestamp"`
	Source        string `json:"source"`
	RecordsLoaded int64  `json:"records_loaded"`
	DurationMs    int64  `json:"duration_ms"`
}

// BroadcastDatasetReloaded notifies all clients that the dataset was
// replaced and cached aggregates are stale.
func (h *Hub) BroadcastDatasetReloaded(source string, recordsLoaded int64, duration time.Duration) {
	message := Message{
		Type: MessageTypeDatasetReloaded,
		Data: DatasetReloadedData{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			Source:        source,
			RecordsLoaded: recordsLoaded,
			DurationMs:    duration.Milliseconds(),
		},
	}

	select {
	case h.broadcast <- message:
		logging.Info().Int("clients", h.GetClientCount()).Int64("records_loaded", recordsLoaded).Msg("broadcast dataset_reloaded")
	default:
		logging.Warn().Msg("broadcast channel full, dropping dataset_reloaded message")
	}
}

// StatsUpdatedData is sent with stats_updated messages.
type StatsUpdatedData struct {
	Timestamp   string `json:"timestamp"`
	TotalEvents int64  `json:"total_events"`
	LastEvent   string `json:"last_event,omitempty"`
}

// BroadcastStatsUpdated notifies all clients that headline totals changed.
func (h *Hub) BroadcastStatsUpdated(totalEvents int64, lastEvent string) {
	message := Message{
		Type: MessageTypeStatsUpdated,
		Data: StatsUpdatedData{
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			TotalEvents: totalEvents,
			LastEvent:   lastEvent,
		},
	}

	select {
	case h.broadcast <- message:
		logging.Debug().Int("clients", h.GetClientCount()).Int64("total_events", totalEvents).Msg("broadcast stats_updated")
	default:
		logging.Warn().Msg("broadcast channel full, dropping stats_updated message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
