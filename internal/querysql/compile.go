// Package querysql compiles queryir queries and row mutations to
// parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/queryir"
)

// NaturalOrder is the ordering column used when a Select names none.
// It is SQLite's insertion order for rowid tables.
const NaturalOrder = "rowid"

// SQLCompiler compiles queryir to parameterized SQL for SQLite.
//
// Every SELECT carries an ORDER BY so results are deterministic.
// Values are always parameterized, never interpolated. Identifiers are
// validated by queryir.Validate before they reach the SQL text.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, errs.Configf("querysql.compile", "unsupported query type: %T", q)
	}
}

// compileSelect compiles a top-level Select, including ORDER BY and LIMIT.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	sql, params, err := c.compileSelectCore(q)
	if err != nil {
		return "", nil, err
	}

	order := q.OrderBy
	if order == "" {
		order = NaturalOrder
	}
	sql += " ORDER BY " + order + " ASC"

	if q.Limit > 0 {
		sql += " LIMIT " + strconv.Itoa(q.Limit)
	}

	return sql, params, nil
}

// compileSelectCore compiles SELECT ... FROM ... WHERE ... without ordering.
// Sub-selects use it directly since IN ignores row order.
func (c *SQLCompiler) compileSelectCore(q queryir.Select) (string, []any, error) {
	columns := "*"
	if len(q.Columns) > 0 {
		columns = strings.Join(q.Columns, ", ")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", columns, q.From)

	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sql += " WHERE " + filterSQL
		params = filterParams
	}

	return sql, params, nil
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		param, err := ir.ToParam(pred.Value)
		if err != nil {
			return "", nil, fmt.Errorf("field %s: %w", pred.Field, err)
		}
		return pred.Field + " = ?", []any{param}, nil
	case queryir.In:
		return c.compileIn(pred)
	case queryir.InSelect:
		sub, params, err := c.compileSelectCore(pred.Sub)
		if err != nil {
			return "", nil, fmt.Errorf("sub-select on %s: %w", pred.Sub.From, err)
		}
		return fmt.Sprintf("%s IN (%s)", pred.Field, sub), params, nil
	case queryir.IsNull:
		return pred.Field + " IS NULL", nil, nil
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, errs.Configf("querysql.compile", "unsupported predicate type: %T", p)
	}
}

// compileIn compiles an In predicate. An empty list matches nothing.
func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "0 = 1", nil, nil
	}

	placeholders := make([]string, len(in.Values))
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		param, err := ir.ToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("field %s[%d]: %w", in.Field, i, err)
		}
		placeholders[i] = "?"
		params[i] = param
	}

	return fmt.Sprintf("%s IN (%s)", in.Field, strings.Join(placeholders, ", ")), params, nil
}

// compileAnd compiles a conjunction. Empty means always true.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(parts, " AND "), allParams, nil
}
