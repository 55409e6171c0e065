package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/model"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, id string, subscriptionID, listID int64) *Client {
	return &Client{
		id:             id,
		subscriptionID: subscriptionID,
		listID:         listID,
		hub:            hub,
		conn:           nil,
		send:           make(chan []byte, sendBufferSize),
	}
}

func selectionEvent(subscriptionID, listID, itemID int64, origin string) model.Event {
	selected := true
	return model.Event{
		Kind:           model.EventSelectionChanged,
		SubscriptionID: subscriptionID,
		ShoppingListID: listID,
		ItemID:         &itemID,
		Selected:       &selected,
		Origin:         origin,
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "a", 1, 9)
	c2 := mockClient(hub, "b", 1, 9)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "a", 1, 9)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDeliverFiltersByListAndOrigin(t *testing.T) {
	hub := NewHub(slog.Default())

	writer := mockClient(hub, "writer", 1, 9)
	peer := mockClient(hub, "peer", 1, 9)
	otherList := mockClient(hub, "other-list", 1, 10)
	otherSub := mockClient(hub, "other-sub", 2, 9)
	for _, c := range []*Client{writer, peer, otherList, otherSub} {
		hub.Register(c)
	}

	n, err := hub.Deliver(selectionEvent(1, 9, 12, "writer"))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if n != 1 {
		t.Errorf("delivered to %d clients, want 1", n)
	}

	select {
	case data := <-peer.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "selection_changed" {
			t.Errorf("expected type selection_changed, got %s", got.Type)
		}
		if got.ShoppingListID != 9 {
			t.Errorf("expected list 9, got %d", got.ShoppingListID)
		}
		if got.ItemID == nil || *got.ItemID != 12 {
			t.Errorf("expected item 12, got %v", got.ItemID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}

	for _, c := range []*Client{writer, otherList, otherSub} {
		select {
		case <-c.send:
			t.Errorf("client %s should not receive the event", c.id)
		default:
		}
	}
}

func TestDeliverWithoutOrigin(t *testing.T) {
	hub := NewHub(slog.Default())
	c1 := mockClient(hub, "a", 1, 9)
	c2 := mockClient(hub, "b", 1, 9)
	hub.Register(c1)
	hub.Register(c2)

	n, _ := hub.Deliver(model.Event{Kind: model.EventCheckoutCommitted, SubscriptionID: 1, ShoppingListID: 9})
	if n != 2 {
		t.Errorf("delivered to %d clients, want 2", n)
	}
}

func TestNotifyEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	if err := hub.Notify(context.Background(), selectionEvent(1, 9, 12, "")); err != nil {
		t.Errorf("notify: %v", err)
	}
}

func TestNotifyCancelledContext(t *testing.T) {
	hub := NewHub(slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := hub.Notify(ctx, selectionEvent(1, 9, 12, "")); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

func TestDeliverFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, "a", 1, 9)
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Deliver(selectionEvent(1, 9, int64(i), ""))
	}

	// This should drop the message, not panic or block
	if n, _ := hub.Deliver(selectionEvent(1, 9, 999, "")); n != 0 {
		t.Errorf("expected the event to be dropped, delivered to %d", n)
	}

	// Drain to verify buffer was full
	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestHelloQueuedBeforeEvents(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "a", 1, 9)

	if !c.queueHello() {
		t.Fatal("hello not queued on an empty buffer")
	}
	hub.Register(c)
	defer hub.Unregister(c)

	// A burst larger than the buffer must not block the hub.
	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBufferSize+5; i++ {
			hub.Deliver(selectionEvent(1, 9, int64(i), ""))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deliver blocked on a full buffer")
	}

	if len(c.send) != sendBufferSize {
		t.Errorf("buffer holds %d frames, want %d", len(c.send), sendBufferSize)
	}
	var first Message
	if err := json.Unmarshal(<-c.send, &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.Type != "hello" || first.ClientID != "a" {
		t.Errorf("first frame = %+v, want hello", first)
	}

	// With the buffer full a second hello is dropped rather than blocking.
	for len(c.send) < sendBufferSize {
		c.send <- []byte("{}")
	}
	if c.queueHello() {
		t.Error("queueHello on a full buffer should report false")
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(model.Event{Kind: model.EventCheckoutCommitted, ShoppingListID: 5, Origin: "x"})
	if msg.Type != "checkout_committed" {
		t.Errorf("expected type checkout_committed, got %s", msg.Type)
	}
	if msg.ShoppingListID != 5 {
		t.Errorf("expected list 5, got %d", msg.ShoppingListID)
	}
	if msg.ItemID != nil || msg.Selected != nil {
		t.Errorf("expected no item fields, got %+v", msg)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(slog.Default())
	var wg sync.WaitGroup

	// Spawn goroutines that register, deliver, and unregister concurrently
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub, "", 1, 9)
			hub.Register(c)
			hub.Deliver(selectionEvent(1, 9, 1, ""))
			// Drain any messages
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocket(t *testing.T) {
	hub := NewHub(slog.Default())
	withAuth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), auth.AuthContext{SubscriptionID: 1})))
		})
	}
	srv := httptest.NewServer(withAuth(HandleWebSocket(hub, slog.Default())))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?list_id=9"
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var hello Message
	readJSON(t, ctx, conn, &hello)
	if hello.Type != "hello" || hello.ClientID == "" {
		t.Fatalf("unexpected hello %+v", hello)
	}

	// The hello is written only after Register, so the client is watching now.
	if _, err := hub.Deliver(selectionEvent(1, 9, 12, "someone-else")); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	var got Message
	readJSON(t, ctx, conn, &got)
	if got.Type != "selection_changed" || got.ItemID == nil || *got.ItemID != 12 {
		t.Errorf("unexpected frame %+v", got)
	}
}

func TestHandleWebSocketRejectsBadRequests(t *testing.T) {
	hub := NewHub(slog.Default())
	h := HandleWebSocket(hub, slog.Default())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?list_id=9", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no auth: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws?list_id=abc", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{SubscriptionID: 1}))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad list id: status = %d, want 400", rec.Code)
	}
}

func readJSON(t *testing.T, ctx context.Context, conn *ws.Conn, v any) {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
}
