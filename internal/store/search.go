package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/larder/internal/model"
)

// Result weights order hits by kind: items first, then groups, tags and
// lists.
const (
	weightItem  = 1
	weightGroup = 2
	weightTag   = 3
	weightList  = 4
)

type SearchStore struct {
	db *sql.DB
}

func NewSearchStore(db *sql.DB) *SearchStore {
	return &SearchStore{db: db}
}

var searchUnion = fmt.Sprintf(`
	SELECT 'item' AS result_type, id, name, description, amount, %d AS weight
	  FROM items WHERE subscription_id = ? AND is_active = 1 AND (name LIKE ?%[5]s OR description LIKE ?%[5]s)
	UNION ALL
	SELECT 'group', id, name, '', 0, %[2]d
	  FROM attribute_groups WHERE subscription_id = ? AND is_active = 1 AND name LIKE ?%[5]s
	UNION ALL
	SELECT 'tag', id, name, '', 0, %[3]d
	  FROM tags WHERE subscription_id = ? AND is_active = 1 AND name LIKE ?%[5]s
	UNION ALL
	SELECT 'list', id, name, '', 0, %[4]d
	  FROM shopping_lists WHERE subscription_id = ? AND is_active = 1 AND name LIKE ?%[5]s`,
	weightItem, weightGroup, weightTag, weightList, likeEscape)

func scanSearchResult(scanner interface{ Scan(...any) error }) (*model.SearchResult, error) {
	var r model.SearchResult
	var kind string
	err := scanner.Scan(&kind, &r.ID, &r.Name, &r.Description, &r.Amount, &r.Weight)
	if err != nil {
		return nil, err
	}
	r.Kind = model.ResultKind(kind)
	r.ResultID = r.ID
	return &r, nil
}

// Search matches q.Term against item names and descriptions and against
// group, tag and list names. Results are ordered by weight, then name. The
// page carries the junction rows of the item hits and both attribute
// catalogs.
func (s *SearchStore) Search(ctx context.Context, subscriptionID int64, q model.Query) (model.SearchPage, error) {
	var out model.SearchPage
	term := strings.TrimSpace(q.Term)
	if term == "" {
		return out, nil
	}
	like := likePattern(term)
	args := []any{
		subscriptionID, like, like,
		subscriptionID, like,
		subscriptionID, like,
		subscriptionID, like,
	}

	total, err := count(ctx, s.db, `SELECT COUNT(*) FROM (`+searchUnion+`)`, args...)
	if err != nil {
		return out, fmt.Errorf("count search results: %w", err)
	}

	return s.page(ctx, subscriptionID, total,
		`SELECT result_type, id, name, description, amount, weight FROM (`+searchUnion+`)
		 ORDER BY weight ASC, name ASC, id ASC LIMIT ? OFFSET ?`,
		append(args, limitOffset(q.Page)...),
	)
}

var lowQuantitySortColumns = map[string]string{
	"name":   "name",
	"amount": "amount",
	"id":     "id",
}

// SearchLowQuantity returns the active items whose amount is at or below
// threshold as item results, lowest amount first unless q sorts otherwise.
func (s *SearchStore) SearchLowQuantity(ctx context.Context, subscriptionID int64, threshold int, q model.Query) (model.SearchPage, error) {
	const where = ` FROM items WHERE subscription_id = ? AND is_active = 1 AND amount <= ?`
	args := []any{subscriptionID, threshold}

	total, err := count(ctx, s.db, `SELECT COUNT(*)`+where, args...)
	if err != nil {
		return model.SearchPage{}, fmt.Errorf("count low quantity items: %w", err)
	}
	if q.SortBy == "" {
		q.SortBy, q.SortAsc = "amount", true
	}
	return s.page(ctx, subscriptionID, total,
		fmt.Sprintf(`SELECT 'item', id, name, description, amount, %d`, weightItem)+where+
			` ORDER BY `+orderBy(q, lowQuantitySortColumns, "amount")+`, id ASC LIMIT ? OFFSET ?`,
		append(args, limitOffset(q.Page)...),
	)
}

// page runs a result query and loads the junction rows of its item hits and
// both attribute catalogs.
func (s *SearchStore) page(ctx context.Context, subscriptionID int64, total int, query string, args []any) (model.SearchPage, error) {
	out := model.SearchPage{Total: total}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return out, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var itemHits []int64
	for rows.Next() {
		r, err := scanSearchResult(rows)
		if err != nil {
			return out, fmt.Errorf("scan search result: %w", err)
		}
		out.Results = append(out.Results, *r)
		if r.Kind == model.ResultItem {
			itemHits = append(itemHits, r.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	rows.Close()

	if len(itemHits) == 0 {
		return out, nil
	}
	if out.ItemTags, err = junctionRows(ctx, s.db, tagTable, itemHits); err != nil {
		return out, err
	}
	if out.ItemGroups, err = junctionRows(ctx, s.db, groupTable, itemHits); err != nil {
		return out, err
	}
	if out.Tags, err = listAttributes(ctx, s.db, tagTable, subscriptionID); err != nil {
		return out, err
	}
	if out.Groups, err = listAttributes(ctx, s.db, groupTable, subscriptionID); err != nil {
		return out, err
	}
	return out, nil
}
