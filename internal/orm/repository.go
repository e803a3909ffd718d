package orm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/metrics"
	"github.com/bowphp/framework-sub003/internal/queryir"
	"github.com/bowphp/framework-sub003/internal/relation"
)

// Storage is the query and mutation contract a Repository needs.
// *store.Store implements it.
type Storage interface {
	relation.Executor
	Insert(ctx context.Context, table string, values ir.IRObject) (int64, error)
	Update(ctx context.Context, table, keyField string, key ir.IRValue, values ir.IRObject) (int64, error)
	Delete(ctx context.Context, table, keyField string, key ir.IRValue) (int64, error)
}

// Repository loads and persists entities of the tables in its catalog.
type Repository struct {
	store   Storage
	catalog *Catalog
	metrics *metrics.Collector
	now     func() time.Time
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithMetrics passes c to every relation the repository creates.
func WithMetrics(c *metrics.Collector) RepositoryOption {
	return func(r *Repository) {
		r.metrics = c
	}
}

// WithClock sets the time source used for soft delete timestamps.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) {
		r.now = now
	}
}

// NewRepository creates a repository over store and catalog.
func NewRepository(store Storage, catalog *Catalog, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:   store,
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the repository catalog.
func (r *Repository) Catalog() *Catalog {
	return r.catalog
}

// Find loads the entity of table whose primary key equals key.
// Soft-deleted rows are not returned. Returns a NotFound error when no row
// matches.
func (r *Repository) Find(ctx context.Context, table string, key ir.IRValue) (*entity.Entity, error) {
	schema, err := r.catalog.Schema(table)
	if err != nil {
		return nil, err
	}

	sel := r.scoped(schema, queryir.Equals{Field: schema.Key(), Value: key})
	sel.Limit = 1

	rows, err := r.store.Select(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, errs.NotFoundf("orm.find", "%s#%s", table, ir.Format(key))
	}
	return entity.Hydrate(schema, rows[0]), nil
}

// Where loads every entity of table matching all preds, ordered by
// primary key. Soft-deleted rows are not returned.
func (r *Repository) Where(ctx context.Context, table string, preds ...queryir.Predicate) ([]*entity.Entity, error) {
	schema, err := r.catalog.Schema(table)
	if err != nil {
		return nil, err
	}

	rows, err := r.store.Select(ctx, r.scoped(schema, preds...))
	if err != nil {
		return nil, fmt.Errorf("where %s: %w", table, err)
	}

	out := make([]*entity.Entity, len(rows))
	for i, row := range rows {
		out[i] = entity.Hydrate(schema, row)
	}
	return out, nil
}

// Create inserts e. When e has no primary key value, the storage rowid is
// assigned to it. On success e is persisted and clean.
func (r *Repository) Create(ctx context.Context, e *entity.Entity) error {
	if e.Exists() {
		return errs.Configf("orm.create", "%s is already persisted", e)
	}

	schema := e.Schema()
	id, err := r.store.Insert(ctx, schema.Table, e.Attributes().Object())
	if err != nil {
		return fmt.Errorf("create %s: %w", schema.Table, err)
	}

	if ir.IsNull(e.Key()) {
		if err := e.Set(schema.Key(), ir.IRInt(id)); err != nil {
			return err
		}
	}
	e.MarkPersisted()

	slog.Debug("entity created", "entity", e.String())
	return nil
}

// Save writes the dirty attributes of a persisted entity, or creates it
// when it has never been persisted. Saving a clean entity is a no-op.
func (r *Repository) Save(ctx context.Context, e *entity.Entity) error {
	if !e.Exists() {
		return r.Create(ctx, e)
	}

	dirty := e.Attributes().Dirty()
	if len(dirty) == 0 {
		return nil
	}

	schema := e.Schema()
	n, err := r.store.Update(ctx, schema.Table, schema.Key(), e.Key(), dirty)
	if err != nil {
		return fmt.Errorf("save %s: %w", e, err)
	}
	if n == 0 {
		return errs.NotFoundf("orm.save", "%s", e)
	}
	e.MarkPersisted()

	slog.Debug("entity saved", "entity", e.String(), "fields", len(dirty))
	return nil
}

// Delete removes e. Soft-deleting schemas set deleted_at instead of
// removing the row.
func (r *Repository) Delete(ctx context.Context, e *entity.Entity) error {
	if !e.Exists() {
		return errs.Configf("orm.delete", "%s is not persisted", e)
	}

	schema := e.Schema()
	if schema.SoftDelete {
		deletedAt := ir.IRString(r.now().UTC().Format(time.RFC3339Nano))
		n, err := r.store.Update(ctx, schema.Table, schema.Key(), e.Key(),
			ir.IRObject{entity.DeletedAtField: deletedAt})
		if err != nil {
			return fmt.Errorf("soft delete %s: %w", e, err)
		}
		if n == 0 {
			return errs.NotFoundf("orm.delete", "%s", e)
		}
		if err := e.Set(entity.DeletedAtField, deletedAt); err != nil {
			return err
		}
		e.MarkPersisted()
		slog.Debug("entity soft deleted", "entity", e.String())
		return nil
	}

	n, err := r.store.Delete(ctx, schema.Table, schema.Key(), e.Key())
	if err != nil {
		return fmt.Errorf("delete %s: %w", e, err)
	}
	if n == 0 {
		return errs.NotFoundf("orm.delete", "%s", e)
	}
	slog.Debug("entity deleted", "entity", e.String())
	return nil
}

// Related returns the named relation of parent. Each call takes a fresh
// snapshot of parent and builds a new query.
func (r *Repository) Related(parent *entity.Entity, name string) (*relation.Relation, error) {
	d, err := r.catalog.Relation(parent.Table(), name)
	if err != nil {
		return nil, err
	}
	return relation.New(r.store, parent, d, relation.WithMetrics(r.metrics))
}

// scoped builds a selection on schema ordered by primary key, excluding
// soft-deleted rows.
func (r *Repository) scoped(schema entity.Schema, preds ...queryir.Predicate) queryir.Select {
	sel := queryir.Where(queryir.Select{From: schema.Table, OrderBy: schema.Key()}, preds...)
	if schema.SoftDelete {
		sel = queryir.Where(sel, queryir.IsNull{Field: entity.DeletedAtField})
	}
	return sel
}
