// Package live pushes change notifications to connected WebSocket clients so
// open screens can refresh without polling.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Entities that appear in change notifications.
const (
	EntityItem     = "item"
	EntityMember   = "member"
	EntityEvent    = "event"
	EntityCheckout = "checkout"
	EntityPhoto    = "photo"
	EntityReminder = "reminder"
)

// Actions that appear in change notifications.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionReturned      = "returned"
	ActionStatusChanged = "status_changed"
	ActionRosterChanged = "roster_changed"
)

// Message is a change notification.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message typed "<entity>_<action>".
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   entity + "_" + action,
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger

	dropped       atomic.Uint64
	evicted       atomic.Uint64
	writeFailures atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends msg to every client. Clients whose buffer is full miss it.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.offer(data) {
			h.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many messages were not delivered to slow clients.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Evicted returns how many clients were disconnected for falling behind.
func (h *Hub) Evicted() uint64 {
	return h.evicted.Load()
}

// WriteFailures returns how many client connections ended on a failed write
// or ping.
func (h *Hub) WriteFailures() uint64 {
	return h.writeFailures.Load()
}

func (h *Hub) writeFailed(c *Client, err error) {
	h.writeFailures.Add(1)
	h.logger.Debug("live client write failed", "remote", c.remote, "error", err)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
