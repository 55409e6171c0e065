// Package checkout coordinates the shared checkout of a shopping list between
// several clients. The store holds the only state; the coordinator validates
// batches, writes through the Gateway and pushes change hints to the other
// clients once a write has succeeded.
package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/larder/internal/model"
)

// DefaultNotifyTimeout bounds one broadcast when no timeout is configured.
const DefaultNotifyTimeout = 5 * time.Second

// Gateway is the persistence the coordinator writes through.
type Gateway interface {
	InitCheckout(ctx context.Context, subscriptionID int64, rows []model.CheckoutRow) ([]model.CheckoutRow, error)
	UpdateSelection(ctx context.Context, subscriptionID, listID, itemID int64, selected bool) (*model.CheckoutRow, error)
	SyncCheckout(ctx context.Context, subscriptionID, listID int64) ([]model.CheckoutRow, error)
	CommitCheckout(ctx context.Context, subscriptionID int64, rows []model.CheckoutRow) error
}

// Notifier pushes a change hint to the clients watching a list. Delivery is
// best-effort; an error is only logged.
type Notifier interface {
	Notify(ctx context.Context, ev model.Event) error
}

type Coordinator struct {
	gw            Gateway
	notifier      Notifier
	logger        *slog.Logger
	notifyTimeout time.Duration
}

// NewCoordinator returns a Coordinator. A nil notifier disables broadcasts.
func NewCoordinator(gw Gateway, notifier Notifier, logger *slog.Logger, notifyTimeout time.Duration) *Coordinator {
	if notifyTimeout <= 0 {
		notifyTimeout = DefaultNotifyTimeout
	}
	return &Coordinator{gw: gw, notifier: notifier, logger: logger, notifyTimeout: notifyTimeout}
}

// InitCheckout puts the batch into checkout and returns the rows as stored.
// The stored selection wins over the batch for rows already in a checkout.
func (c *Coordinator) InitCheckout(ctx context.Context, subscriptionID int64, rows []model.CheckoutRow) model.Response[[]model.CheckoutRow] {
	if len(rows) == 0 {
		return model.Failed[[]model.CheckoutRow]()
	}
	stored, err := c.gw.InitCheckout(ctx, subscriptionID, rows)
	if err != nil {
		c.logger.Error("init checkout", "subscription_id", subscriptionID, "rows", len(rows), "error", err)
		return model.Failed[[]model.CheckoutRow]()
	}
	return model.OK(nonNil(stored))
}

// UpdateItemSelection checks or unchecks one item of a list and returns the
// stored row. An item that is not on the list yields an empty success and no
// broadcast. origin is the websocket client id of the caller, if any.
func (c *Coordinator) UpdateItemSelection(ctx context.Context, subscriptionID, listID, itemID int64, selected bool, origin string) model.Response[[]model.CheckoutRow] {
	row, err := c.gw.UpdateSelection(ctx, subscriptionID, listID, itemID, selected)
	if err != nil {
		c.logger.Error("update checkout selection", "shopping_list_id", listID, "item_id", itemID, "error", err)
		return model.Failed[[]model.CheckoutRow]()
	}
	if row == nil {
		return model.OK([]model.CheckoutRow{})
	}

	c.notify(ctx, model.Event{
		Kind:           model.EventSelectionChanged,
		SubscriptionID: subscriptionID,
		ShoppingListID: listID,
		ItemID:         &row.ItemID,
		Selected:       &row.Selected,
		Origin:         origin,
	})
	return model.OK([]model.CheckoutRow{*row})
}

// SyncAll returns every row of the list's current checkout. Clients call it
// after connecting and whenever they may have missed a hint.
func (c *Coordinator) SyncAll(ctx context.Context, subscriptionID, listID int64) model.Response[[]model.CheckoutRow] {
	rows, err := c.gw.SyncCheckout(ctx, subscriptionID, listID)
	if err != nil {
		c.logger.Error("sync checkout", "shopping_list_id", listID, "error", err)
		return model.Failed[[]model.CheckoutRow]()
	}
	return model.OK(nonNil(rows))
}

// Commit applies the final selection and ends the checkout of every list in
// the batch, then tells each list's watchers.
func (c *Coordinator) Commit(ctx context.Context, subscriptionID int64, rows []model.CheckoutRow, origin string) model.Response[bool] {
	if len(rows) == 0 {
		return model.Failed[bool]()
	}
	if err := c.gw.CommitCheckout(ctx, subscriptionID, rows); err != nil {
		c.logger.Error("commit checkout", "subscription_id", subscriptionID, "rows", len(rows), "error", err)
		return model.Failed[bool]()
	}

	for _, listID := range model.ListIDs(rows) {
		c.notify(ctx, model.Event{
			Kind:           model.EventCheckoutCommitted,
			SubscriptionID: subscriptionID,
			ShoppingListID: listID,
			Origin:         origin,
		})
	}
	return model.OK(true)
}

// notify sends ev in its own goroutine. The send outlives the request but not
// notifyTimeout.
func (c *Coordinator) notify(ctx context.Context, ev model.Event) {
	if c.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, c.notifyTimeout)
		defer cancel()
		if err := c.notifier.Notify(ctx, ev); err != nil {
			c.logger.Warn("broadcast checkout event",
				"kind", ev.Kind,
				"shopping_list_id", ev.ShoppingListID,
				"error", err,
			)
		}
	}()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
