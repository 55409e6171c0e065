package model

// Session is what a client loads before its first catalog read: the tag,
// group and shopping-list catalogs of its subscription.
type Session struct {
	SubscriptionID int64          `json:"subscription_id"`
	Tags           []Tag          `json:"tags"`
	Groups         []Group        `json:"groups"`
	ShoppingLists  []ShoppingList `json:"shopping_lists"`
}
