package store

import "database/sql"

// Gateway bundles the SQLite stores behind the catalog and checkout
// services.
type Gateway struct {
	*ItemStore
	*AttributeStore
	*ShoppingListStore
	*SearchStore
	*CheckoutStore
}

func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{
		ItemStore:         NewItemStore(db),
		AttributeStore:    NewAttributeStore(db),
		ShoppingListStore: NewShoppingListStore(db),
		SearchStore:       NewSearchStore(db),
		CheckoutStore:     NewCheckoutStore(db),
	}
}
