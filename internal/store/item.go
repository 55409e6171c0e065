package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/larder/internal/model"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	var active int
	err := scanner.Scan(
		&item.ID, &item.SubscriptionID, &item.Name, &item.Description,
		&item.Amount, &active, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Active = active != 0
	return &item, nil
}

const itemCols = `i.id, i.subscription_id, i.name, i.description, i.amount, i.is_active, i.created_at, i.updated_at`

var itemSortColumns = map[string]string{
	"id":          "i.id",
	"name":        "i.name",
	"description": "i.description",
	"amount":      "i.amount",
	"created_at":  "i.created_at",
	"updated_at":  "i.updated_at",
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	defer rows.Close()
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func itemIDs(items []model.Item) []int64 {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

// GetItem returns one item with the tags, groups and shopping lists it is
// actively associated with.
func (s *ItemStore) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemCols+` FROM items i WHERE i.id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if item.Tags, err = linkedAttributes(ctx, s.db, tagTable, id); err != nil {
		return nil, err
	}
	if item.Groups, err = linkedAttributes(ctx, s.db, groupTable, id); err != nil {
		return nil, err
	}
	if item.ShoppingLists, err = s.linkedLists(ctx, id); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemStore) linkedLists(ctx context.Context, itemID int64) ([]model.ShoppingList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listCols+` FROM shopping_lists l
		 JOIN shopping_list_items sli ON sli.shopping_list_id = l.id
		 WHERE sli.item_id = ? AND sli.is_active = 1
		 ORDER BY l.name ASC, l.id ASC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list item shopping lists: %w", err)
	}
	return scanLists(rows)
}

// ListItems returns one page of a subscription's items and the junction rows
// of the items on that page.
func (s *ItemStore) ListItems(ctx context.Context, subscriptionID int64, q model.Query) (model.ItemPage, error) {
	return s.page(ctx, `i.subscription_id = ?`, []any{subscriptionID}, q)
}

// ListLowQuantityItems returns one page of the active items whose amount is
// at or below threshold.
func (s *ItemStore) ListLowQuantityItems(ctx context.Context, subscriptionID int64, threshold int, q model.Query) (model.ItemPage, error) {
	return s.page(ctx, `i.subscription_id = ? AND i.is_active = 1 AND i.amount <= ?`, []any{subscriptionID, threshold}, q)
}

// ListItemsByID returns the requested items with the full tag and group
// catalogs to join against.
func (s *ItemStore) ListItemsByID(ctx context.Context, subscriptionID int64, q model.Query) (model.AttributeSearchPage, error) {
	in, args := inClause(q.IDs)
	return s.searchPage(ctx, subscriptionID, `i.subscription_id = ? AND i.id IN (`+in+`)`, append([]any{subscriptionID}, args...), q)
}

// ListItemsByTag returns the items actively tagged with any of q.IDs.
func (s *ItemStore) ListItemsByTag(ctx context.Context, subscriptionID int64, q model.Query) (model.AttributeSearchPage, error) {
	return s.byAttribute(ctx, tagTable, subscriptionID, q)
}

// ListItemsByGroup returns the items actively in any of the groups q.IDs.
func (s *ItemStore) ListItemsByGroup(ctx context.Context, subscriptionID int64, q model.Query) (model.AttributeSearchPage, error) {
	return s.byAttribute(ctx, groupTable, subscriptionID, q)
}

func (s *ItemStore) byAttribute(ctx context.Context, t attributeTable, subscriptionID int64, q model.Query) (model.AttributeSearchPage, error) {
	in, args := inClause(q.IDs)
	where := `i.subscription_id = ? AND i.id IN (SELECT j.item_id FROM ` + t.junction + ` j WHERE j.is_active = 1 AND j.` + t.column + ` IN (` + in + `))`
	return s.searchPage(ctx, subscriptionID, where, append([]any{subscriptionID}, args...), q)
}

func (s *ItemStore) searchPage(ctx context.Context, subscriptionID int64, where string, args []any, q model.Query) (model.AttributeSearchPage, error) {
	var out model.AttributeSearchPage
	if len(q.IDs) == 0 {
		return out, nil
	}
	page, err := s.page(ctx, where, args, q)
	if err != nil {
		return out, err
	}
	out.ItemPage = page
	if out.Tags, err = listAttributes(ctx, s.db, tagTable, subscriptionID); err != nil {
		return out, err
	}
	if out.Groups, err = listAttributes(ctx, s.db, groupTable, subscriptionID); err != nil {
		return out, err
	}
	return out, nil
}

func (s *ItemStore) page(ctx context.Context, where string, args []any, q model.Query) (model.ItemPage, error) {
	var out model.ItemPage

	total, err := count(ctx, s.db, `SELECT COUNT(*) FROM items i WHERE `+where, args...)
	if err != nil {
		return out, fmt.Errorf("count items: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemCols+` FROM items i WHERE `+where+
			` ORDER BY `+orderBy(q, itemSortColumns, "name")+`, i.id ASC LIMIT ? OFFSET ?`,
		append(append([]any{}, args...), limitOffset(q.Page)...)...,
	)
	if err != nil {
		return out, fmt.Errorf("list items: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return out, err
	}

	ids := itemIDs(items)
	if out.ItemTags, err = junctionRows(ctx, s.db, tagTable, ids); err != nil {
		return out, err
	}
	if out.ItemGroups, err = junctionRows(ctx, s.db, groupTable, ids); err != nil {
		return out, err
	}
	out.Items = items
	out.Total = total
	return out, nil
}

// UpsertItem creates the item when item.ID is zero and otherwise updates it,
// then applies its associations in the same transaction: every tag, group and
// shopping list listed on the item is linked when IsSelected and unlinked
// otherwise. Each shopping-list row is scoped by that list's own id.
func (s *ItemStore) UpsertItem(ctx context.Context, item model.Item) (int64, error) {
	id := item.ID
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if id > 0 {
			_, err := tx.ExecContext(ctx,
				`UPDATE items SET name = ?, description = ?, amount = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
				 WHERE id = ? AND subscription_id = ?`,
				item.Name, item.Description, item.Amount, boolInt(item.Active), id, item.SubscriptionID,
			)
			if err != nil {
				return fmt.Errorf("update item: %w", err)
			}
		} else {
			result, err := tx.ExecContext(ctx,
				`INSERT INTO items (subscription_id, name, description, amount, is_active) VALUES (?, ?, ?, ?, ?)`,
				item.SubscriptionID, item.Name, item.Description, item.Amount, boolInt(item.Active),
			)
			if err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
			if id, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("last insert id: %w", err)
			}
		}

		for _, tag := range item.Tags {
			if err := linkItem(ctx, tx, tagTable, item.SubscriptionID, id, tag.ID, tag.IsSelected); err != nil {
				return err
			}
		}
		for _, group := range item.Groups {
			if err := linkItem(ctx, tx, groupTable, item.SubscriptionID, id, group.ID, group.IsSelected); err != nil {
				return err
			}
		}
		for _, list := range item.ShoppingLists {
			row := model.CheckoutRow{ShoppingListID: list.ID, ItemID: id, SubscriptionID: item.SubscriptionID, Active: list.IsSelected}
			if err := upsertListItem(ctx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}
