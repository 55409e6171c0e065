package bus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/larder/internal/model"
)

func TestEventRoundTrip(t *testing.T) {
	item := int64(12)
	selected := false
	ev := model.Event{
		Kind:           model.EventSelectionChanged,
		SubscriptionID: 1,
		ShoppingListID: 9,
		ItemID:         &item,
		Selected:       &selected,
		Origin:         "client-a",
	}

	raw, err := encodeEvent(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeEvent(string(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != ev.Kind || got.ShoppingListID != 9 || got.Origin != "client-a" {
		t.Errorf("decoded %+v", got)
	}
	if got.Selected == nil || *got.Selected {
		t.Errorf("selected = %v, want explicit false", got.Selected)
	}
}

func TestDecodeEventRejectsBadPayloads(t *testing.T) {
	for _, payload := range []string{"", "{", `{"kind":"selection_changed"}`, `{"shopping_list_id":9}`} {
		if _, err := decodeEvent(payload); err == nil {
			t.Errorf("decodeEvent(%q) should fail", payload)
		}
	}
}

func TestNilNotifier(t *testing.T) {
	var n *RedisNotifier
	if err := n.Notify(context.Background(), model.Event{}); err == nil {
		t.Error("expected error from nil notifier")
	}
	if err := n.StartForwarder(context.Background(), func(model.Event) {}); err == nil {
		t.Error("expected error from nil notifier")
	}
	if err := n.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestNewRedisNotifierUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := NewRedisNotifier(ctx, "127.0.0.1:1", "", slog.Default()); err == nil {
		t.Error("expected error for an unreachable redis")
	}
	if _, err := NewRedisNotifier(ctx, "", "", slog.Default()); err == nil {
		t.Error("expected error for a missing address")
	}
}
