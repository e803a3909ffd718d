package relation

import (
	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/queryir"
)

// Build returns the constrained query for d against the parent state in
// snap. d must already be resolved against the parent schema.
//
// The key read from the parent is ForeignKey for BelongsTo and LocalKey
// otherwise. A parent without that attribute is a Configuration error. A
// NULL key yields a query for which queryir.MatchesNothing is true.
//
// Build is a pure function: the same snapshot and descriptor always
// produce the same query.
func Build(snap entity.Snapshot, d Descriptor) (queryir.Select, error) {
	parentField := d.LocalKey
	if d.Kind == BelongsTo {
		parentField = d.ForeignKey
	}
	if parentField == "" {
		return queryir.Select{}, errs.Configf("relation.build",
			"%s -> %s: descriptor is not resolved", snap.Schema.Table, d.Related.Table)
	}

	key, ok := snap.Value(parentField)
	if !ok {
		return queryir.Select{}, errs.Configf("relation.build",
			"%s -> %s: parent has no attribute %q: %w", snap.Schema.Table, d.Related.Table, parentField, errs.ErrMissingKey)
	}

	relatedKey := d.Related.Key()
	if ir.IsNull(key) {
		return queryir.Nothing(d.Related.Table, relatedKey), nil
	}

	sel := queryir.Select{
		From:    d.Related.Table,
		OrderBy: relatedKey,
	}

	switch d.Kind {
	case BelongsTo:
		sel = queryir.Where(sel, queryir.Equals{Field: d.LocalKey, Value: key})
		sel.Limit = 1
	case HasOne:
		sel = queryir.Where(sel, queryir.Equals{Field: d.ForeignKey, Value: key})
		sel.Limit = 1
	case HasMany:
		sel = queryir.Where(sel, queryir.Equals{Field: d.ForeignKey, Value: key})
	case BelongsToMany:
		sel = queryir.Where(sel, queryir.InSelect{
			Field: d.ForeignKey,
			Sub: queryir.Select{
				From:    d.JoinTable,
				Columns: []string{d.RelatedPivotKey},
				Filter:  queryir.Equals{Field: d.ParentPivotKey, Value: key},
			},
		})
	default:
		return queryir.Select{}, errs.Configf("relation.build", "unknown kind %d", int(d.Kind))
	}

	if d.Related.SoftDelete {
		sel = queryir.Where(sel, queryir.IsNull{Field: entity.DeletedAtField})
	}
	return sel, nil
}
