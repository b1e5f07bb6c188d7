package sqlvars

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Record is one result row. It keeps the column order of the result
// set, so the same row serves both the associative and the positional
// fetch shapes.
type Record struct {
	cols []string
	vals []any
}

// Columns returns the column names in result-set order.
func (r Record) Columns() []string { return r.cols }

// Get returns the value of the named column.
func (r Record) Get(col string) (any, bool) {
	for i, c := range r.cols {
		if c == col {
			return r.vals[i], true
		}
	}
	return nil, false
}

// Index returns the value at position i, or nil when out of range.
func (r Record) Index(i int) any {
	if i < 0 || i >= len(r.vals) {
		return nil
	}
	return r.vals[i]
}

// Map returns the row in associative shape.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.cols))
	for i, c := range r.cols {
		m[c] = r.vals[i]
	}
	return m
}

// Values returns the row in positional shape.
func (r Record) Values() []any { return r.vals }

// FetchAll substitutes vars into query, executes it (prepared when
// bind args are present) and returns every row. Zero rows return
// sql.ErrNoRows.
func (db *DB) FetchAll(ctx context.Context, query string, vars Vars, args ...any) ([]Record, error) {
	rows, err := db.Query(ctx, query, vars, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, db.queryErr(query, err)
	}

	var out []Record
	for rows.Next() {
		vals := make([]any, len(cols))
		targets := make([]any, len(cols))
		for i := range vals {
			targets[i] = &vals[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, db.queryErr(query, err)
		}
		out = append(out, Record{cols: cols, vals: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, db.queryErr(query, err)
	}
	if len(out) == 0 {
		return nil, sql.ErrNoRows
	}
	return out, nil
}

var limitRe = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+|\?)`)

// FetchRecord is FetchAll restricted to a single row. It appends a
// LIMIT 1 clause unless the query already carries one, and returns
// sql.ErrNoRows when the query matched nothing.
func (db *DB) FetchRecord(ctx context.Context, query string, vars Vars, args ...any) (Record, error) {
	q := query
	if !limitRe.MatchString(q) {
		q = strings.TrimRight(q, " \t\r\n") + " LIMIT 1"
	}
	recs, err := db.FetchAll(ctx, q, vars, args...)
	if err != nil {
		return Record{}, err
	}
	return recs[0], nil
}

// FetchScalar returns the first column of the first row, or def when
// the query matched nothing.
func (db *DB) FetchScalar(ctx context.Context, query string, vars Vars, def any, args ...any) (any, error) {
	rec, err := db.FetchRecord(ctx, query, vars, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return def, nil
		}
		return nil, err
	}
	return rec.Index(0), nil
}

// Count returns the number of rows in table matching where. A nil
// spec counts the whole table. The table name is interpolated
// verbatim, same trust boundary as Cond.Column.
func (db *DB) Count(ctx context.Context, table string, where WhereSpec) (int64, error) {
	q := "SELECT COUNT(*) AS cnt FROM " + table + db.whereClause(where)
	v, err := db.FetchScalar(ctx, q, nil, int64(0))
	if err != nil {
		return 0, err
	}
	return toInt64(v), nil
}

// toInt64 coerces the scalar shapes drivers hand back for COUNT.
func toInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint64:
		return int64(x)
	case float64:
		return int64(x)
	case []byte:
		n, _ := strconv.ParseInt(string(x), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	default:
		return 0
	}
}
