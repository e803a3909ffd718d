package store

import (
	"context"
	"fmt"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
)

// Insert writes one row and returns the new rowid.
func (s *Store) Insert(ctx context.Context, table string, values ir.IRObject) (int64, error) {
	query, params, err := s.compiler.CompileInsert(table, values)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, errs.Store("store.insert", fmt.Errorf("insert %s: %w", table, err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.Store("store.insert", err)
	}
	return id, nil
}

// Update writes values to the row whose keyField equals key and returns
// the number of rows affected.
func (s *Store) Update(ctx context.Context, table, keyField string, key ir.IRValue, values ir.IRObject) (int64, error) {
	query, params, err := s.compiler.CompileUpdate(table, keyField, key, values)
	if err != nil {
		return 0, err
	}
	return s.execAffected(ctx, "store.update", table, query, params)
}

// Delete removes the row whose keyField equals key and returns the number
// of rows affected.
func (s *Store) Delete(ctx context.Context, table, keyField string, key ir.IRValue) (int64, error) {
	query, params, err := s.compiler.CompileDelete(table, keyField, key)
	if err != nil {
		return 0, err
	}
	return s.execAffected(ctx, "store.delete", table, query, params)
}

func (s *Store) execAffected(ctx context.Context, op, table, query string, params []any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, errs.Store(op, fmt.Errorf("%s: %w", table, err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Store(op, err)
	}
	return n, nil
}
