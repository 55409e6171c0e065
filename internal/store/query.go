package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/larder/internal/model"
)

// querier is satisfied by *sql.DB and *sql.Tx. The pool holds one
// connection, so reads issued inside a transaction must use the tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// orderBy maps q.SortBy through a whitelist of sortable columns. Unknown
// names fall back to def.
func orderBy(q model.Query, columns map[string]string, def string) string {
	col, ok := columns[q.SortBy]
	if !ok {
		col = columns[def]
	}
	dir := "DESC"
	if q.SortAsc {
		dir = "ASC"
	}
	return col + " " + dir
}

// inClause returns "?, ?, ?" for ids and the ids as query args.
func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

// likePattern turns a search term into a LIKE pattern matching it anywhere.
// Wildcards in the term match literally; use it with likeEscape.
func likePattern(term string) string {
	term = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + term + "%"
}

const likeEscape = ` ESCAPE '\'`

// limitOffset returns the LIMIT/OFFSET args of a normalized page.
func limitOffset(p model.Page) []any {
	p = p.Normalize()
	return []any{p.Size, p.Offset()}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func count(ctx context.Context, q querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
