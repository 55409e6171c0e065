package model

import "time"

type ShoppingList struct {
	ID             int64     `json:"id"`
	SubscriptionID int64     `json:"subscription_id"`
	Name           string    `json:"name"`
	Active         bool      `json:"is_active"`
	IsSelected     bool      `json:"is_selected"`
	ItemCount      int       `json:"item_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ShoppingListItem is an item's membership in a shopping list. IsSelected is
// the checked state during a checkout.
type ShoppingListItem struct {
	ID             int64   `json:"id"`
	SubscriptionID int64   `json:"subscription_id"`
	ShoppingListID int64   `json:"shopping_list_id"`
	ItemID         int64   `json:"item_id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Amount         int     `json:"amount_value"`
	ItemActive     bool    `json:"item_is_active"`
	ListActive     bool    `json:"shopping_list_is_active"`
	IsSelected     bool    `json:"is_selected"`
	IsRetrieved    bool    `json:"is_retrieved"`
	Tags           []Tag   `json:"tags"`
	Groups         []Group `json:"groups"`
}

// ShoppingListItemPage holds list items and the junction rows of their items.
type ShoppingListItemPage struct {
	Items      []ShoppingListItem
	ItemTags   []ItemAttribute
	ItemGroups []ItemAttribute
}

// CheckoutRow is one bulk change row: the target state of a list/item pair.
type CheckoutRow struct {
	ShoppingListID int64 `json:"shopping_list_id"`
	ItemID         int64 `json:"item_id"`
	SubscriptionID int64 `json:"subscription_id"`
	Active         bool  `json:"is_active"`
	Selected       bool  `json:"is_selected"`
}

// ListIDs returns the distinct shopping list ids of rows in first-seen order.
func ListIDs(rows []CheckoutRow) []int64 {
	seen := make(map[int64]struct{}, len(rows))
	var ids []int64
	for _, r := range rows {
		if _, ok := seen[r.ShoppingListID]; ok {
			continue
		}
		seen[r.ShoppingListID] = struct{}{}
		ids = append(ids, r.ShoppingListID)
	}
	return ids
}
