package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/larder/internal/model"
)

const typeHello = "hello"

// Message is one frame pushed to a client: a hello carrying the client's id,
// or a checkout change hint for the list the client watches.
type Message struct {
	Type           string `json:"type"`
	ClientID       string `json:"client_id,omitempty"`
	ShoppingListID int64  `json:"shopping_list_id,omitempty"`
	ItemID         *int64 `json:"item_id,omitempty"`
	Selected       *bool  `json:"is_selected,omitempty"`
}

// NewMessage converts a checkout event into the frame sent to clients.
func NewMessage(ev model.Event) Message {
	return Message{
		Type:           string(ev.Kind),
		ShoppingListID: ev.ShoppingListID,
		ItemID:         ev.ItemID,
		Selected:       ev.Selected,
	}
}

func helloMessage(clientID string) Message {
	return Message{Type: typeHello, ClientID: clientID}
}

// Hub maintains the set of active WebSocket clients and fans checkout events
// out to the clients watching the affected list.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
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

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Notify delivers ev to the local clients. It never blocks on a slow client.
func (h *Hub) Notify(ctx context.Context, ev model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := h.Deliver(ev)
	return err
}

// Deliver sends ev to every client of the event's subscription watching the
// event's list, except the client that caused it. It returns the number of
// clients the frame was queued for.
func (h *Hub) Deliver(ev model.Event) (int, error) {
	data, err := json.Marshal(NewMessage(ev))
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.clients {
		if !c.watches(ev) {
			continue
		}
		select {
		case c.send <- data:
			sent++
		default:
			// Client buffer full, drop; the client recovers with a sync.
			h.logger.Debug("dropped event", "client_id", c.id, "kind", ev.Kind)
		}
	}
	return sent, nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
