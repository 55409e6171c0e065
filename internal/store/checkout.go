package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/larder/internal/model"
)

// CheckoutStore persists the shared checkout state of shopping lists. A row
// takes part in a checkout while in_checkout is set; is_selected is the
// checked flag every client reconciles to.
type CheckoutStore struct {
	db *sql.DB
}

func NewCheckoutStore(db *sql.DB) *CheckoutStore {
	return &CheckoutStore{db: db}
}

const checkoutCols = `shopping_list_id, item_id, subscription_id, is_active, is_selected`

func scanCheckoutRow(scanner interface{ Scan(...any) error }) (*model.CheckoutRow, error) {
	var r model.CheckoutRow
	var active, selected int
	err := scanner.Scan(&r.ShoppingListID, &r.ItemID, &r.SubscriptionID, &active, &selected)
	if err != nil {
		return nil, err
	}
	r.Active = active != 0
	r.Selected = selected != 0
	return &r, nil
}

// checkoutRows returns the rows of the given lists that are in a checkout.
// Items removed from a list are not part of its checkout.
func checkoutRows(ctx context.Context, q querier, subscriptionID int64, listIDs []int64) ([]model.CheckoutRow, error) {
	if len(listIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(listIDs)
	rows, err := q.QueryContext(ctx,
		`SELECT `+checkoutCols+` FROM shopping_list_items
		 WHERE subscription_id = ? AND in_checkout = 1 AND is_active = 1 AND shopping_list_id IN (`+in+`)
		 ORDER BY shopping_list_id ASC, item_id ASC`,
		append([]any{subscriptionID}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkout rows: %w", err)
	}
	defer rows.Close()

	var out []model.CheckoutRow
	for rows.Next() {
		r, err := scanCheckoutRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkout row: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// InitCheckout puts every row into its list's checkout in one transaction
// and returns the resulting state of the touched lists. Rows already in a
// checkout keep their stored selection; the rest take the row's selection.
// An item that had been removed from the list is put back on it. Rows naming
// a list or item outside the subscription are skipped.
func (s *CheckoutStore) InitCheckout(ctx context.Context, subscriptionID int64, rows []model.CheckoutRow) ([]model.CheckoutRow, error) {
	var out []model.CheckoutRow
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, r := range rows {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO shopping_list_items (subscription_id, shopping_list_id, item_id, is_active, is_selected, in_checkout)
				 SELECT l.subscription_id, l.id, i.id, 1, ?, 1 FROM shopping_lists l, items i
				 WHERE l.id = ? AND i.id = ? AND l.subscription_id = ? AND i.subscription_id = l.subscription_id
				 ON CONFLICT(shopping_list_id, item_id) DO UPDATE SET
				   is_selected = CASE WHEN shopping_list_items.in_checkout = 1 AND shopping_list_items.is_active = 1
				                      THEN shopping_list_items.is_selected
				                      ELSE excluded.is_selected END,
				   is_active = 1,
				   in_checkout = 1,
				   updated_at = CURRENT_TIMESTAMP`,
				boolInt(r.Selected), r.ShoppingListID, r.ItemID, subscriptionID,
			)
			if err != nil {
				return fmt.Errorf("init checkout list %d item %d: %w", r.ShoppingListID, r.ItemID, err)
			}
		}

		var err error
		out, err = checkoutRows(ctx, tx, subscriptionID, model.ListIDs(rows))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSelection sets the checked flag of one list item and returns the
// stored row, or nil when the list has no such item or the item was removed
// from it. Writing the same value twice leaves the same state.
func (s *CheckoutStore) UpdateSelection(ctx context.Context, subscriptionID, listID, itemID int64, selected bool) (*model.CheckoutRow, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE shopping_list_items SET is_selected = ?, in_checkout = 1, updated_at = CURRENT_TIMESTAMP
		 WHERE subscription_id = ? AND shopping_list_id = ? AND item_id = ? AND is_active = 1`,
		boolInt(selected), subscriptionID, listID, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("update checkout selection: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+checkoutCols+` FROM shopping_list_items
		 WHERE subscription_id = ? AND shopping_list_id = ? AND item_id = ? AND is_active = 1`,
		subscriptionID, listID, itemID,
	)
	r, err := scanCheckoutRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkout row: %w", err)
	}
	return r, nil
}

// SyncCheckout returns every row of the list's current checkout.
func (s *CheckoutStore) SyncCheckout(ctx context.Context, subscriptionID, listID int64) ([]model.CheckoutRow, error) {
	return checkoutRows(ctx, s.db, subscriptionID, []int64{listID})
}

// CommitCheckout applies the final selection of rows, marks the selected
// rows of every touched list retrieved and ends those checkouts, all in one
// transaction.
func (s *CheckoutStore) CommitCheckout(ctx context.Context, subscriptionID int64, rows []model.CheckoutRow) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, r := range rows {
			_, err := tx.ExecContext(ctx,
				`UPDATE shopping_list_items SET is_selected = ?, in_checkout = 1, updated_at = CURRENT_TIMESTAMP
				 WHERE subscription_id = ? AND shopping_list_id = ? AND item_id = ? AND is_active = 1`,
				boolInt(r.Selected), subscriptionID, r.ShoppingListID, r.ItemID,
			)
			if err != nil {
				return fmt.Errorf("commit selection list %d item %d: %w", r.ShoppingListID, r.ItemID, err)
			}
		}

		for _, listID := range model.ListIDs(rows) {
			_, err := tx.ExecContext(ctx,
				`UPDATE shopping_list_items SET is_retrieved = 1, retrieved_at = CURRENT_TIMESTAMP
				 WHERE subscription_id = ? AND shopping_list_id = ? AND in_checkout = 1 AND is_selected = 1 AND is_active = 1`,
				subscriptionID, listID,
			)
			if err != nil {
				return fmt.Errorf("mark retrieved list %d: %w", listID, err)
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE shopping_list_items SET in_checkout = 0, is_selected = 0, updated_at = CURRENT_TIMESTAMP
				 WHERE subscription_id = ? AND shopping_list_id = ? AND in_checkout = 1`,
				subscriptionID, listID,
			)
			if err != nil {
				return fmt.Errorf("end checkout list %d: %w", listID, err)
			}
		}
		return nil
	})
}
