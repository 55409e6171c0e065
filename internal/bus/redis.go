// Package bus relays checkout events between server instances over Redis
// pub/sub so every instance's websocket clients see every write.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dukerupert/larder/internal/model"
)

const DefaultChannel = "larder:checkout"

var errNotInitialized = errors.New("redis notifier not initialized")

// RedisNotifier publishes checkout events on a Redis channel. Each instance
// runs a forwarder that hands received events to its local hub.
type RedisNotifier struct {
	logger  *slog.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisNotifier connects to addr and checks the connection with a ping.
func NewRedisNotifier(ctx context.Context, addr, channel string, logger *slog.Logger) (*RedisNotifier, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisNotifier{logger: logger, rdb: rdb, channel: channel}, nil
}

func encodeEvent(ev model.Event) ([]byte, error) {
	return json.Marshal(ev)
}

func decodeEvent(payload string) (model.Event, error) {
	var ev model.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, err
	}
	if ev.Kind == "" || ev.ShoppingListID == 0 {
		return ev, fmt.Errorf("incomplete event %q", payload)
	}
	return ev, nil
}

// Notify publishes ev. Delivery to the other instances is best-effort.
func (n *RedisNotifier) Notify(ctx context.Context, ev model.Event) error {
	if n == nil || n.rdb == nil {
		return errNotInitialized
	}
	raw, err := encodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the channel and calls onEvent for every event
// received, including the ones this instance published. It returns once the
// subscription is live; forwarding stops when ctx is done.
func (n *RedisNotifier) StartForwarder(ctx context.Context, onEvent func(model.Event)) error {
	if n == nil || n.rdb == nil {
		return errNotInitialized
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := n.rdb.Subscribe(ctx, n.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				ev, err := decodeEvent(m.Payload)
				if err != nil {
					n.logger.Warn("bad redis event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}

func (n *RedisNotifier) Close() error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Close()
}
