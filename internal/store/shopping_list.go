package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/larder/internal/model"
)

type ShoppingListStore struct {
	db *sql.DB
}

func NewShoppingListStore(db *sql.DB) *ShoppingListStore {
	return &ShoppingListStore{db: db}
}

const listCols = `l.id, l.subscription_id, l.name, l.is_active,
	(SELECT COUNT(*) FROM shopping_list_items x WHERE x.shopping_list_id = l.id AND x.is_active = 1) AS item_count,
	l.created_at, l.updated_at`

var listSortColumns = map[string]string{
	"id":         "l.id",
	"name":       "l.name",
	"item_count": "item_count",
	"created_at": "l.created_at",
	"updated_at": "l.updated_at",
}

func scanList(scanner interface{ Scan(...any) error }) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var active int
	err := scanner.Scan(&l.ID, &l.SubscriptionID, &l.Name, &active, &l.ItemCount, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Active = active != 0
	return &l, nil
}

func scanLists(rows *sql.Rows) ([]model.ShoppingList, error) {
	defer rows.Close()
	var lists []model.ShoppingList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// ListShoppingLists returns one page of a subscription's lists with their
// active item counts, and the total number of lists.
func (s *ShoppingListStore) ListShoppingLists(ctx context.Context, subscriptionID int64, q model.Query) ([]model.ShoppingList, int, error) {
	total, err := count(ctx, s.db, `SELECT COUNT(*) FROM shopping_lists WHERE subscription_id = ?`, subscriptionID)
	if err != nil {
		return nil, 0, fmt.Errorf("count shopping lists: %w", err)
	}

	args := append([]any{subscriptionID}, limitOffset(q.Page)...)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listCols+` FROM shopping_lists l WHERE l.subscription_id = ?
		 ORDER BY `+orderBy(q, listSortColumns, "name")+`, l.id ASC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list shopping lists: %w", err)
	}
	lists, err := scanLists(rows)
	if err != nil {
		return nil, 0, err
	}
	return lists, total, nil
}

func (s *ShoppingListStore) GetShoppingList(ctx context.Context, id int64) (*model.ShoppingList, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listCols+` FROM shopping_lists l WHERE l.id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	return l, nil
}

// UpsertShoppingList creates the list when list.ID is zero and otherwise
// renames or (de)activates it. Updating a list the subscription does not own
// returns nil.
func (s *ShoppingListStore) UpsertShoppingList(ctx context.Context, list model.ShoppingList) (*model.ShoppingList, error) {
	if list.ID == 0 {
		result, err := s.db.ExecContext(ctx,
			`INSERT INTO shopping_lists (subscription_id, name, is_active) VALUES (?, ?, ?)`,
			list.SubscriptionID, list.Name, boolInt(list.Active),
		)
		if err != nil {
			return nil, fmt.Errorf("insert shopping list: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return s.GetShoppingList(ctx, id)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE shopping_lists SET name = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND subscription_id = ?`,
		list.Name, boolInt(list.Active), list.ID, list.SubscriptionID,
	)
	if err != nil {
		return nil, fmt.Errorf("update shopping list: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetShoppingList(ctx, list.ID)
}

const listItemCols = `sli.id, sli.subscription_id, sli.shopping_list_id, sli.item_id,
	i.name, i.description, i.amount, i.is_active, l.is_active, sli.is_selected, sli.is_retrieved`

var listItemSortColumns = map[string]string{
	"id":          "sli.id",
	"name":        "i.name",
	"amount":      "i.amount",
	"is_selected": "sli.is_selected",
	"created_at":  "sli.created_at",
}

func scanListItem(scanner interface{ Scan(...any) error }) (*model.ShoppingListItem, error) {
	var li model.ShoppingListItem
	var itemActive, listActive, selected, retrieved int
	err := scanner.Scan(
		&li.ID, &li.SubscriptionID, &li.ShoppingListID, &li.ItemID,
		&li.Name, &li.Description, &li.Amount, &itemActive, &listActive, &selected, &retrieved,
	)
	if err != nil {
		return nil, err
	}
	li.ItemActive = itemActive != 0
	li.ListActive = listActive != 0
	li.IsSelected = selected != 0
	li.IsRetrieved = retrieved != 0
	return &li, nil
}

// ListShoppingListItems returns the active items of one list with the
// junction rows of those items. A zero page size returns every item.
func (s *ShoppingListStore) ListShoppingListItems(ctx context.Context, subscriptionID, listID int64, q model.Query) (model.ShoppingListItemPage, error) {
	var out model.ShoppingListItemPage

	query := `SELECT ` + listItemCols + ` FROM shopping_list_items sli
		JOIN items i ON i.id = sli.item_id
		JOIN shopping_lists l ON l.id = sli.shopping_list_id
		WHERE sli.subscription_id = ? AND sli.shopping_list_id = ? AND sli.is_active = 1
		ORDER BY ` + orderBy(q, listItemSortColumns, "name") + `, sli.id ASC`
	args := []any{subscriptionID, listID}
	if q.Page.Size > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limitOffset(q.Page)...)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return out, fmt.Errorf("list shopping list items: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		li, err := scanListItem(rows)
		if err != nil {
			return out, fmt.Errorf("scan shopping list item: %w", err)
		}
		out.Items = append(out.Items, *li)
		ids = append(ids, li.ItemID)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	rows.Close()

	if out.ItemTags, err = junctionRows(ctx, s.db, tagTable, ids); err != nil {
		return out, err
	}
	if out.ItemGroups, err = junctionRows(ctx, s.db, groupTable, ids); err != nil {
		return out, err
	}
	return out, nil
}

// UpsertShoppingListItems applies list membership rows in one transaction.
func (s *ShoppingListStore) UpsertShoppingListItems(ctx context.Context, subscriptionID int64, rows []model.CheckoutRow) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, r := range rows {
			r.SubscriptionID = subscriptionID
			if err := upsertListItem(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// upsertListItem sets whether an item is on a list. The row is written only
// when both the list and the item belong to r.SubscriptionID.
func upsertListItem(ctx context.Context, q querier, r model.CheckoutRow) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO shopping_list_items (subscription_id, shopping_list_id, item_id, is_active)
		 SELECT l.subscription_id, l.id, i.id, ? FROM shopping_lists l, items i
		 WHERE l.id = ? AND i.id = ? AND l.subscription_id = ? AND i.subscription_id = l.subscription_id
		 ON CONFLICT(shopping_list_id, item_id) DO UPDATE SET is_active = excluded.is_active, updated_at = CURRENT_TIMESTAMP`,
		boolInt(r.Active), r.ShoppingListID, r.ItemID, r.SubscriptionID,
	)
	if err != nil {
		return fmt.Errorf("upsert shopping list %d item %d: %w", r.ShoppingListID, r.ItemID, err)
	}
	return nil
}
