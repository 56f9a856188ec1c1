// Package ws pushes full-state snapshots to connected browser
// clients and accepts their selection and checkout commands.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lotsaero/rifa-backend/internal/models"
)

// Hub fans snapshot payloads out to every connected client. Clients
// that cannot keep up are dropped rather than allowed to block the
// broadcast.
type Hub struct {
	mu      sync.Mutex
	clients map[string]chan []byte
	logger  zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]chan []byte),
		logger:  logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register adds a client and returns its outbox. The outbox is closed
// by Unregister or when the client is dropped for being slow.
func (h *Hub) Register(id string) chan []byte {
	out := make(chan []byte, 8)
	h.mu.Lock()
	h.clients[id] = out
	h.mu.Unlock()
	h.logger.Debug().Str("client_id", id).Msg("client registered")
	return out
}

// Unregister removes a client and closes its outbox.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if out, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(out)
	}
}

// BroadcastState marshals the view once and delivers it to every
// client.
func (h *Hub) BroadcastState(view models.StateView) {
	payload, err := json.Marshal(serverMessage{Type: "state", State: &view})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal state snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, out := range h.clients {
		select {
		case out <- payload:
		default:
			// Slow client: drop it instead of stalling everyone else.
			delete(h.clients, id)
			close(out)
			h.logger.Warn().Str("client_id", id).Msg("dropped slow client")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
