package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/dukerupert/larder/internal/model"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client represents a single WebSocket connection watching one shopping list.
type Client struct {
	id             string
	subscriptionID int64
	listID         int64

	hub  *Hub
	conn *ws.Conn
	send chan []byte
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn, subscriptionID, listID int64) *Client {
	return &Client{
		id:             uuid.NewString(),
		subscriptionID: subscriptionID,
		listID:         listID,
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
	}
}

// ID identifies the connection. Writers send it as X-Client-ID so their own
// changes are not echoed back.
func (c *Client) ID() string { return c.id }

func (c *Client) watches(ev model.Event) bool {
	return c.subscriptionID == ev.SubscriptionID &&
		c.listID == ev.ShoppingListID &&
		ev.Origin != c.id
}

// Run queues the hello frame, registers the client, starts the write pump,
// and runs the read pump. It blocks until the connection is closed, then
// unregisters. The hello is queued while the buffer is still empty so it is
// always the first frame.
func (c *Client) Run(ctx context.Context) {
	c.queueHello()
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// queueHello puts the hello frame on the send buffer without blocking.
func (c *Client) queueHello() bool {
	hello, err := json.Marshal(helloMessage(c.id))
	if err != nil {
		return false
	}
	select {
	case c.send <- hello:
		return true
	default:
		return false
	}
}

// readPump reads and discards all incoming messages. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
