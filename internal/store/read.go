package store

import (
	"context"
	"fmt"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/queryir"
)

// Select runs a selection and returns each row as an attribute object.
// Row order is the ORDER BY the compiler emits.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Select(ctx context.Context, q queryir.Select) ([]ir.IRObject, error) {
	query, params, err := s.compiler.Compile(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, query, params...)
	if err != nil {
		return nil, errs.Store("store.select", fmt.Errorf("query %s: %w", q.From, err))
	}
	defer rows.Close()

	result := []ir.IRObject{}
	for rows.Next() {
		raw := make(map[string]any)
		if err := rows.MapScan(raw); err != nil {
			return nil, errs.Store("store.select", fmt.Errorf("scan %s: %w", q.From, err))
		}
		obj, err := rowToObject(raw)
		if err != nil {
			return nil, errs.Store("store.select", fmt.Errorf("decode %s: %w", q.From, err))
		}
		result = append(result, obj)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Store("store.select", fmt.Errorf("iterate %s: %w", q.From, err))
	}

	return result, nil
}

// rowToObject converts driver values of one scanned row.
func rowToObject(raw map[string]any) (ir.IRObject, error) {
	obj := make(ir.IRObject, len(raw))
	for col, v := range raw {
		val, err := ir.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		obj[col] = val
	}
	return obj, nil
}
