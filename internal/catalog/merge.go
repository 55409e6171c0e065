package catalog

import "github.com/dukerupert/larder/internal/model"

// MergeSelection returns a copy of catalog in which every entry whose key
// appears in associated has IsSelected set to true and every other entry has
// it set to false. The result always has the catalog's length and order.
func MergeSelection[T any](catalog, associated []T, key func(T) int64, mark func(*T, bool)) []T {
	selected := make(map[int64]struct{}, len(associated))
	for _, a := range associated {
		selected[key(a)] = struct{}{}
	}

	out := make([]T, len(catalog))
	for i, entry := range catalog {
		_, ok := selected[key(entry)]
		mark(&entry, ok)
		out[i] = entry
	}
	return out
}

func attributeKey(a model.Attribute) int64       { return a.ID }
func markAttribute(a *model.Attribute, sel bool) { a.IsSelected = sel }

func listKey(l model.ShoppingList) int64       { return l.ID }
func markList(l *model.ShoppingList, sel bool) { l.IsSelected = sel }

// MergeAttributes flags the attributes of catalog that item is associated with.
func MergeAttributes(catalog, associated []model.Attribute) []model.Attribute {
	return MergeSelection(catalog, associated, attributeKey, markAttribute)
}

// MergeShoppingLists flags the shopping lists of catalog that contain the item.
func MergeShoppingLists(catalog, associated []model.ShoppingList) []model.ShoppingList {
	return MergeSelection(catalog, associated, listKey, markList)
}
