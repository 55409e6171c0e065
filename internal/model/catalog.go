package model

import "time"

// Attribute is a named classifier (a tag or a group) associated many-to-many
// with items. IsSelected is contextual and only set when the attribute is
// returned alongside a specific item.
type Attribute struct {
	ID             int64     `json:"id"`
	SubscriptionID int64     `json:"subscription_id"`
	Name           string    `json:"name"`
	Active         bool      `json:"is_active"`
	AttributeCount int       `json:"attribute_count"`
	IsSelected     bool      `json:"is_selected"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type (
	Tag   = Attribute
	Group = Attribute
)

// ItemAttribute is one flat item-attribute junction row carrying the
// denormalized attribute name.
type ItemAttribute struct {
	ID            int64     `json:"id"`
	ItemID        int64     `json:"item_id"`
	AttributeID   int64     `json:"attribute_id"`
	AttributeName string    `json:"attribute_name"`
	Active        bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Item struct {
	ID             int64          `json:"id"`
	SubscriptionID int64          `json:"subscription_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Amount         int            `json:"amount_value"`
	Active         bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Tags           []Tag          `json:"tags"`
	Groups         []Group        `json:"groups"`
	ShoppingLists  []ShoppingList `json:"shopping_lists"`
}

// ItemPage is one page of items together with every junction row that
// references an item on the page.
type ItemPage struct {
	Items      []Item
	ItemTags   []ItemAttribute
	ItemGroups []ItemAttribute
	Total      int
}

// AttributeSearchPage is an ItemPage plus the tag and group catalogs the
// junction rows are joined against.
type AttributeSearchPage struct {
	ItemPage
	Tags   []Tag
	Groups []Group
}
