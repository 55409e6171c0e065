package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/larder/internal/model"
)

// attributeTable names the tables behind one attribute kind. Tags and groups
// share a shape and differ only in where they live.
type attributeTable struct {
	table    string
	junction string
	column   string
}

var (
	tagTable   = attributeTable{table: "tags", junction: "item_tags", column: "tag_id"}
	groupTable = attributeTable{table: "attribute_groups", junction: "item_groups", column: "group_id"}
)

// cols selects an attribute with the number of items actively linked to it.
func (t attributeTable) cols() string {
	return fmt.Sprintf(`a.id, a.subscription_id, a.name, a.is_active,
		(SELECT COUNT(*) FROM %s j WHERE j.%s = a.id AND j.is_active = 1) AS attribute_count,
		a.created_at, a.updated_at`, t.junction, t.column)
}

var attributeSortColumns = map[string]string{
	"id":              "a.id",
	"name":            "a.name",
	"attribute_count": "attribute_count",
	"created_at":      "a.created_at",
	"updated_at":      "a.updated_at",
}

func scanAttribute(scanner interface{ Scan(...any) error }) (*model.Attribute, error) {
	var a model.Attribute
	var active int
	err := scanner.Scan(&a.ID, &a.SubscriptionID, &a.Name, &active, &a.AttributeCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Active = active != 0
	return &a, nil
}

func scanAttributes(rows *sql.Rows) ([]model.Attribute, error) {
	defer rows.Close()
	var attrs []model.Attribute
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		attrs = append(attrs, *a)
	}
	return attrs, rows.Err()
}

func scanItemAttribute(scanner interface{ Scan(...any) error }) (*model.ItemAttribute, error) {
	var ia model.ItemAttribute
	var active int
	err := scanner.Scan(&ia.ID, &ia.ItemID, &ia.AttributeID, &ia.AttributeName, &active, &ia.CreatedAt, &ia.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ia.Active = active != 0
	return &ia, nil
}

// listAttributes returns the whole catalog of one attribute kind.
func listAttributes(ctx context.Context, q querier, t attributeTable, subscriptionID int64) ([]model.Attribute, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+t.cols()+` FROM `+t.table+` a WHERE a.subscription_id = ? ORDER BY a.name ASC, a.id ASC`,
		subscriptionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.table, err)
	}
	return scanAttributes(rows)
}

// linkedAttributes returns the attributes actively linked to one item.
func linkedAttributes(ctx context.Context, q querier, t attributeTable, itemID int64) ([]model.Attribute, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+t.cols()+` FROM `+t.table+` a
		 JOIN `+t.junction+` j ON j.`+t.column+` = a.id
		 WHERE j.item_id = ? AND j.is_active = 1
		 ORDER BY a.name ASC, a.id ASC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list item %s: %w", t.table, err)
	}
	return scanAttributes(rows)
}

// junctionRows returns the active junction rows of the given items, with the
// attribute name denormalized onto each row.
func junctionRows(ctx context.Context, q querier, t attributeTable, itemIDs []int64) ([]model.ItemAttribute, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(itemIDs)
	rows, err := q.QueryContext(ctx,
		`SELECT j.id, j.item_id, j.`+t.column+`, a.name, j.is_active, j.created_at, j.updated_at
		 FROM `+t.junction+` j
		 JOIN `+t.table+` a ON a.id = j.`+t.column+`
		 WHERE j.is_active = 1 AND j.item_id IN (`+in+`)
		 ORDER BY j.item_id ASC, a.name ASC, a.id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s rows: %w", t.junction, err)
	}
	defer rows.Close()

	var out []model.ItemAttribute
	for rows.Next() {
		ia, err := scanItemAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", t.junction, err)
		}
		out = append(out, *ia)
	}
	return out, rows.Err()
}

// linkItem sets the association between an item and an attribute. The row is
// written only when both belong to subscriptionID.
func linkItem(ctx context.Context, q querier, t attributeTable, subscriptionID, itemID, attributeID int64, active bool) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO `+t.junction+` (item_id, `+t.column+`, is_active)
		 SELECT i.id, a.id, ? FROM items i, `+t.table+` a
		 WHERE i.id = ? AND a.id = ? AND a.subscription_id = ? AND i.subscription_id = a.subscription_id
		 ON CONFLICT(item_id, `+t.column+`) DO UPDATE SET is_active = excluded.is_active, updated_at = CURRENT_TIMESTAMP`,
		boolInt(active), itemID, attributeID, subscriptionID,
	)
	if err != nil {
		return fmt.Errorf("link item %d to %s %d: %w", itemID, t.table, attributeID, err)
	}
	return nil
}

// itemLinks returns the active junction rows of one item of the
// subscription.
func itemLinks(ctx context.Context, q querier, t attributeTable, subscriptionID, itemID int64) ([]model.ItemAttribute, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT j.id, j.item_id, j.`+t.column+`, a.name, j.is_active, j.created_at, j.updated_at
		 FROM `+t.junction+` j
		 JOIN `+t.table+` a ON a.id = j.`+t.column+`
		 JOIN items i ON i.id = j.item_id
		 WHERE j.item_id = ? AND j.is_active = 1 AND i.subscription_id = ?
		 ORDER BY a.name ASC, a.id ASC`,
		itemID, subscriptionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list item %s: %w", t.junction, err)
	}
	defer rows.Close()

	var out []model.ItemAttribute
	for rows.Next() {
		ia, err := scanItemAttribute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", t.junction, err)
		}
		out = append(out, *ia)
	}
	return out, rows.Err()
}

// AttributeStore persists the tag and group catalogs.
type AttributeStore struct {
	db *sql.DB
}

func NewAttributeStore(db *sql.DB) *AttributeStore {
	return &AttributeStore{db: db}
}

func (s *AttributeStore) ListTags(ctx context.Context, subscriptionID int64) ([]model.Tag, error) {
	return listAttributes(ctx, s.db, tagTable, subscriptionID)
}

func (s *AttributeStore) ListGroups(ctx context.Context, subscriptionID int64) ([]model.Group, error) {
	return listAttributes(ctx, s.db, groupTable, subscriptionID)
}

func (s *AttributeStore) ListTagsWithCounts(ctx context.Context, subscriptionID int64, q model.Query) ([]model.Tag, int, error) {
	return s.page(ctx, tagTable, subscriptionID, q)
}

func (s *AttributeStore) ListGroupsWithCounts(ctx context.Context, subscriptionID int64, q model.Query) ([]model.Group, int, error) {
	return s.page(ctx, groupTable, subscriptionID, q)
}

func (s *AttributeStore) UpsertTag(ctx context.Context, tag model.Tag) (*model.Tag, error) {
	return s.upsert(ctx, tagTable, tag)
}

func (s *AttributeStore) UpsertGroup(ctx context.Context, group model.Group) (*model.Group, error) {
	return s.upsert(ctx, groupTable, group)
}

// ListItemTags returns the tags linked to one item.
func (s *AttributeStore) ListItemTags(ctx context.Context, subscriptionID, itemID int64) ([]model.ItemAttribute, error) {
	return itemLinks(ctx, s.db, tagTable, subscriptionID, itemID)
}

func (s *AttributeStore) ListItemGroups(ctx context.Context, subscriptionID, itemID int64) ([]model.ItemAttribute, error) {
	return itemLinks(ctx, s.db, groupTable, subscriptionID, itemID)
}

// UpsertItemTags links or unlinks item/tag pairs in one transaction. Rows
// whose item or tag is outside the subscription are skipped.
func (s *AttributeStore) UpsertItemTags(ctx context.Context, subscriptionID int64, rows []model.ItemAttribute) error {
	return s.link(ctx, tagTable, subscriptionID, rows)
}

func (s *AttributeStore) UpsertItemGroups(ctx context.Context, subscriptionID int64, rows []model.ItemAttribute) error {
	return s.link(ctx, groupTable, subscriptionID, rows)
}

func (s *AttributeStore) link(ctx context.Context, t attributeTable, subscriptionID int64, rows []model.ItemAttribute) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, r := range rows {
			if err := linkItem(ctx, tx, t, subscriptionID, r.ItemID, r.AttributeID, r.Active); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *AttributeStore) page(ctx context.Context, t attributeTable, subscriptionID int64, q model.Query) ([]model.Attribute, int, error) {
	where := ` WHERE a.subscription_id = ?`
	args := []any{subscriptionID}
	if q.Term != "" {
		where += ` AND a.name LIKE ?` + likeEscape
		args = append(args, likePattern(q.Term))
	}

	total, err := count(ctx, s.db, `SELECT COUNT(*) FROM `+t.table+` a`+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.table, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+t.cols()+` FROM `+t.table+` a`+where+
			` ORDER BY `+orderBy(q, attributeSortColumns, "name")+`, a.id ASC LIMIT ? OFFSET ?`,
		append(args, limitOffset(q.Page)...)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("page %s: %w", t.table, err)
	}
	attrs, err := scanAttributes(rows)
	if err != nil {
		return nil, 0, err
	}
	return attrs, total, nil
}

// upsert creates the attribute when a.ID is zero and otherwise updates it.
// Updating an attribute that does not exist in a.SubscriptionID returns nil.
func (s *AttributeStore) upsert(ctx context.Context, t attributeTable, a model.Attribute) (*model.Attribute, error) {
	id := a.ID
	if id > 0 {
		result, err := s.db.ExecContext(ctx,
			`UPDATE `+t.table+` SET name = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND subscription_id = ?`,
			a.Name, boolInt(a.Active), a.ID, a.SubscriptionID,
		)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", t.table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return nil, nil
		}
	} else {
		result, err := s.db.ExecContext(ctx,
			`INSERT INTO `+t.table+` (subscription_id, name, is_active) VALUES (?, ?, ?)`,
			a.SubscriptionID, a.Name, boolInt(a.Active),
		)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", t.table, err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+t.cols()+` FROM `+t.table+` a WHERE a.id = ?`, id)
	saved, err := scanAttribute(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.table, err)
	}
	return saved, nil
}
