package model

type EventKind string

const (
	EventSelectionChanged  EventKind = "selection_changed"
	EventCheckoutCommitted EventKind = "checkout_committed"
)

// Event is the small change notification pushed to other clients watching a
// shopping list. Delivery is best-effort; clients reconcile with a sync.
type Event struct {
	Kind           EventKind `json:"kind"`
	SubscriptionID int64     `json:"subscription_id"`
	ShoppingListID int64     `json:"shopping_list_id"`
	ItemID         *int64    `json:"item_id,omitempty"`
	Selected       *bool     `json:"is_selected,omitempty"`
	// Origin is the websocket client id of the writer, if known. The writer's
	// own connection does not receive the event.
	Origin string `json:"origin,omitempty"`
}
