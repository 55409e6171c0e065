// Package catalog rebuilds nested item/attribute structures from flat
// junction rows and serves the catalog read operations.
package catalog

import "github.com/dukerupert/larder/internal/model"

// rowsByItem indexes junction rows by item id, keeping row order within each
// item. The returned slices are views into a fresh backing array per item.
func rowsByItem(rows []model.ItemAttribute) map[int64][]model.ItemAttribute {
	idx := make(map[int64][]model.ItemAttribute)
	for _, r := range rows {
		idx[r.ItemID] = append(idx[r.ItemID], r)
	}
	return idx
}

// project builds the attribute list of one item from its junction rows,
// keeping the first occurrence of each attribute id. It allocates a new slice
// on every call; callers must never share the result between items.
func project(rows []model.ItemAttribute, subscriptionID int64) []model.Attribute {
	out := make([]model.Attribute, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.AttributeID]; dup {
			continue
		}
		seen[r.AttributeID] = struct{}{}
		out = append(out, model.Attribute{
			ID:             r.AttributeID,
			SubscriptionID: subscriptionID,
			Name:           r.AttributeName,
			Active:         true,
		})
	}
	return out
}

// enrich is project for the catalog join: only rows whose attribute exists in
// the catalog match, and the attribute is copied from the catalog entry.
func enrich(rows []model.ItemAttribute, catalog map[int64]model.Attribute) []model.Attribute {
	out := make([]model.Attribute, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	for _, r := range rows {
		attr, ok := catalog[r.AttributeID]
		if !ok {
			continue
		}
		if _, dup := seen[attr.ID]; dup {
			continue
		}
		seen[attr.ID] = struct{}{}
		attr.IsSelected = false
		out = append(out, attr)
	}
	return out
}

func catalogByID(attrs []model.Attribute) map[int64]model.Attribute {
	idx := make(map[int64]model.Attribute, len(attrs))
	for _, a := range attrs {
		if _, ok := idx[a.ID]; !ok {
			idx[a.ID] = a
		}
	}
	return idx
}

// AttachAttributes returns copies of items with Tags and Groups built from the
// junction rows of each item. Rows that reference no item on the page are
// ignored. The input slices are not modified.
func AttachAttributes(items []model.Item, tagRows, groupRows []model.ItemAttribute, subscriptionID int64) []model.Item {
	tagsByItem := rowsByItem(tagRows)
	groupsByItem := rowsByItem(groupRows)

	out := make([]model.Item, len(items))
	for i, item := range items {
		item.Tags = project(tagsByItem[item.ID], subscriptionID)
		item.Groups = project(groupsByItem[item.ID], subscriptionID)
		out[i] = item
	}
	return out
}

// AttachCatalogAttributes is AttachAttributes joined against the full tag and
// group catalogs: attributes carry the catalog's name, timestamps, active flag,
// subscription and count. Junction rows whose attribute is missing from the
// catalog produce no match.
func AttachCatalogAttributes(items []model.Item, tagRows, groupRows []model.ItemAttribute, tags, groups []model.Attribute) []model.Item {
	tagsByItem := rowsByItem(tagRows)
	groupsByItem := rowsByItem(groupRows)
	tagCatalog := catalogByID(tags)
	groupCatalog := catalogByID(groups)

	out := make([]model.Item, len(items))
	for i, item := range items {
		item.Tags = enrich(tagsByItem[item.ID], tagCatalog)
		item.Groups = enrich(groupsByItem[item.ID], groupCatalog)
		out[i] = item
	}
	return out
}

// ItemResults converts catalog-joined items into item search results.
func ItemResults(items []model.Item) []model.SearchResult {
	out := make([]model.SearchResult, len(items))
	for i, item := range items {
		out[i] = model.SearchResult{
			Kind:        model.ResultItem,
			ID:          item.ID,
			ResultID:    item.ID,
			Name:        item.Name,
			Description: item.Description,
			Amount:      item.Amount,
			Tags:        item.Tags,
			Groups:      item.Groups,
		}
	}
	return out
}

// AttachSearchAttributes attaches catalog-joined Tags and Groups to the item
// hits of a search. Every other result kind passes through with no
// attributes.
func AttachSearchAttributes(results []model.SearchResult, tagRows, groupRows []model.ItemAttribute, tags, groups []model.Attribute) []model.SearchResult {
	tagsByItem := rowsByItem(tagRows)
	groupsByItem := rowsByItem(groupRows)
	tagCatalog := catalogByID(tags)
	groupCatalog := catalogByID(groups)

	out := make([]model.SearchResult, len(results))
	for i, r := range results {
		if r.Kind == model.ResultItem {
			r.Tags = enrich(tagsByItem[r.ID], tagCatalog)
			r.Groups = enrich(groupsByItem[r.ID], groupCatalog)
		} else {
			r.Tags = nil
			r.Groups = nil
		}
		out[i] = r
	}
	return out
}

// AttachListItemAttributes attaches Tags and Groups to shopping-list items,
// joining junction rows on the list item's ItemID.
func AttachListItemAttributes(items []model.ShoppingListItem, tagRows, groupRows []model.ItemAttribute, subscriptionID int64) []model.ShoppingListItem {
	tagsByItem := rowsByItem(tagRows)
	groupsByItem := rowsByItem(groupRows)

	out := make([]model.ShoppingListItem, len(items))
	for i, item := range items {
		item.Tags = project(tagsByItem[item.ItemID], subscriptionID)
		item.Groups = project(groupsByItem[item.ItemID], subscriptionID)
		out[i] = item
	}
	return out
}
