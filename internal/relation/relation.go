package relation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/metrics"
	"github.com/bowphp/framework-sub003/internal/queryir"
)

// Executor runs a selection against storage. *store.Store implements it.
type Executor interface {
	Select(ctx context.Context, q queryir.Select) ([]ir.IRObject, error)
}

// Relation is a resolved descriptor bound to a snapshot of its parent.
// The query is built once, in New, and executed on every Results call.
type Relation struct {
	exec    Executor
	desc    Descriptor
	parent  entity.Snapshot
	query   queryir.Select
	metrics *metrics.Collector
}

// Option configures a Relation.
type Option func(*Relation)

// WithMetrics records each resolution on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Relation) {
		r.metrics = c
	}
}

// New resolves d against the parent schema, snapshots the parent and
// builds the constrained query.
//
// Changes made to parent after New returns do not affect the relation.
func New(exec Executor, parent *entity.Entity, d Descriptor, opts ...Option) (*Relation, error) {
	resolved, err := d.Resolve(parent.Schema())
	if err != nil {
		return nil, err
	}

	snap := parent.Snapshot()
	query, err := Build(snap, resolved)
	if err != nil {
		return nil, err
	}

	r := &Relation{
		exec:   exec,
		desc:   resolved,
		parent: snap,
		query:  query,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Descriptor returns the resolved descriptor.
func (r *Relation) Descriptor() Descriptor {
	return r.desc
}

// Query returns the constrained query that Results executes.
func (r *Relation) Query() queryir.Select {
	return r.query
}

// Where returns a copy of r with extra constraints appended.
func (r *Relation) Where(preds ...queryir.Predicate) *Relation {
	cp := *r
	cp.query = queryir.Where(r.query, preds...)
	return &cp
}

// Results executes the query and hydrates the related entities.
//
// Zero matches is not an error. Storage errors are returned wrapped, with
// the driver error still reachable through errors.As.
func (r *Relation) Results(ctx context.Context) (Result, error) {
	start := time.Now()
	result, err := r.results(ctx)
	r.metrics.RecordRelation(r.desc.Kind.String(), time.Since(start), err)
	return result, err
}

func (r *Relation) results(ctx context.Context) (Result, error) {
	result := Result{Kind: r.desc.Kind}

	if queryir.MatchesNothing(r.query) {
		slog.Debug("relation key is null, skipping storage",
			"kind", r.desc.Kind.String(),
			"parent", r.parent.Schema.Table,
			"related", r.desc.Related.Table,
		)
		return result, nil
	}

	rows, err := r.exec.Select(ctx, r.query)
	if err != nil {
		return Result{}, fmt.Errorf("resolve %s %s -> %s: %w",
			r.desc.Kind, r.parent.Schema.Table, r.desc.Related.Table, err)
	}

	if r.desc.Kind.Single() && len(rows) > 1 {
		rows = rows[:1]
	}

	result.Entities = make([]*entity.Entity, len(rows))
	for i, row := range rows {
		result.Entities[i] = entity.Hydrate(r.desc.Related, row)
	}

	slog.Debug("relation resolved",
		"kind", r.desc.Kind.String(),
		"parent", r.parent.Schema.Table,
		"related", r.desc.Related.Table,
		"rows", len(rows),
	)
	return result, nil
}

// First resolves the relation and returns the first entity, or nil.
func (r *Relation) First(ctx context.Context) (*entity.Entity, error) {
	result, err := r.Results(ctx)
	if err != nil {
		return nil, err
	}
	return result.One(), nil
}

// Get resolves the relation and returns every entity.
func (r *Relation) Get(ctx context.Context) ([]*entity.Entity, error) {
	result, err := r.Results(ctx)
	if err != nil {
		return nil, err
	}
	return result.All(), nil
}
