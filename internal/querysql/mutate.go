package querysql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
)

// CompileInsert builds an INSERT for one row. Columns are emitted in sorted
// order. An empty row inserts DEFAULT VALUES.
func (c *SQLCompiler) CompileInsert(table string, values ir.IRObject) (string, []any, error) {
	if err := checkIdents(table, values); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table), nil, nil
	}

	cols, params, err := columnsAndParams(values)
	if err != nil {
		return "", nil, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)
	return sql, params, nil
}

// CompileUpdate builds an UPDATE of the row whose keyField equals key.
func (c *SQLCompiler) CompileUpdate(table, keyField string, key ir.IRValue, values ir.IRObject) (string, []any, error) {
	if err := checkIdents(table, values, keyField); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, errs.Configf("querysql.update", "no columns to update on %s", table)
	}

	cols, params, err := columnsAndParams(values)
	if err != nil {
		return "", nil, err
	}

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}

	keyParam, err := ir.ToParam(key)
	if err != nil {
		return "", nil, fmt.Errorf("key %s: %w", keyField, err)
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(sets, ", "), keyField)
	return sql, append(params, keyParam), nil
}

// CompileDelete builds a DELETE of the row whose keyField equals key.
func (c *SQLCompiler) CompileDelete(table, keyField string, key ir.IRValue) (string, []any, error) {
	if err := checkIdents(table, nil, keyField); err != nil {
		return "", nil, err
	}

	keyParam, err := ir.ToParam(key)
	if err != nil {
		return "", nil, fmt.Errorf("key %s: %w", keyField, err)
	}

	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, keyField), []any{keyParam}, nil
}

func checkIdents(table string, values ir.IRObject, extra ...string) error {
	if !entity.ValidIdentifier(table) {
		return errs.Configf("querysql.mutate", "invalid table %q", table)
	}
	for col := range values {
		if !entity.ValidIdentifier(col) {
			return errs.Configf("querysql.mutate", "invalid column %q on %s", col, table)
		}
	}
	for _, col := range extra {
		if !entity.ValidIdentifier(col) {
			return errs.Configf("querysql.mutate", "invalid key column %q on %s", col, table)
		}
	}
	return nil
}

func columnsAndParams(values ir.IRObject) ([]string, []any, error) {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	params := make([]any, len(cols))
	for i, col := range cols {
		p, err := ir.ToParam(values[col])
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", col, err)
		}
		params[i] = p
	}
	return cols, params, nil
}
