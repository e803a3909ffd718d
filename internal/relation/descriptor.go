package relation

import (
	"fmt"
	"strings"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
)

// Descriptor declares a relation from a parent schema to a related schema.
//
// Column placement depends on Kind:
//   - BelongsTo: ForeignKey is on the parent, LocalKey on the related table
//   - HasOne, HasMany: ForeignKey is on the related table, LocalKey on the parent
//   - BelongsToMany: LocalKey is on the parent, ForeignKey is the related
//     column matched against RelatedPivotKey; both pivots live in JoinTable
type Descriptor struct {
	Kind            Kind          `yaml:"kind" json:"kind"`
	Related         entity.Schema `yaml:"related" json:"related"`
	ForeignKey      string        `yaml:"foreign_key,omitempty" json:"foreign_key,omitempty"`
	LocalKey        string        `yaml:"local_key,omitempty" json:"local_key,omitempty"`
	JoinTable       string        `yaml:"join_table,omitempty" json:"join_table,omitempty"`
	ParentPivotKey  string        `yaml:"parent_pivot_key,omitempty" json:"parent_pivot_key,omitempty"`
	RelatedPivotKey string        `yaml:"related_pivot_key,omitempty" json:"related_pivot_key,omitempty"`
}

// Resolve returns a copy of d with every omitted key filled by convention
// for the given parent schema. Explicit keys are kept.
//
// After a successful Resolve, ForeignKey and LocalKey are non-empty and
// every key is a valid identifier.
func (d Descriptor) Resolve(parent entity.Schema) (Descriptor, error) {
	if err := parent.Validate(); err != nil {
		return Descriptor{}, err
	}
	if err := d.Related.Validate(); err != nil {
		return Descriptor{}, err
	}

	switch d.Kind {
	case BelongsTo:
		d.ForeignKey = orDefault(d.ForeignKey, entity.ForeignKeyFor(d.Related.Table))
		d.LocalKey = orDefault(d.LocalKey, d.Related.Key())
	case HasOne, HasMany:
		d.ForeignKey = orDefault(d.ForeignKey, entity.ForeignKeyFor(parent.Table))
		d.LocalKey = orDefault(d.LocalKey, parent.Key())
	case BelongsToMany:
		d.JoinTable = orDefault(d.JoinTable, entity.JoinTableFor(parent.Table, d.Related.Table))
		d.ParentPivotKey = orDefault(d.ParentPivotKey, entity.ForeignKeyFor(parent.Table))
		d.RelatedPivotKey = orDefault(d.RelatedPivotKey, entity.ForeignKeyFor(d.Related.Table))
		d.LocalKey = orDefault(d.LocalKey, parent.Key())
		d.ForeignKey = orDefault(d.ForeignKey, d.Related.Key())
	default:
		return Descriptor{}, errs.Configf("relation.resolve", "%s -> %s: unknown kind %d", parent.Table, d.Related.Table, int(d.Kind))
	}

	if err := d.check(parent); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

type keyField struct{ label, name string }

func (d Descriptor) check(parent entity.Schema) error {
	keys := []keyField{
		{"foreign key", d.ForeignKey},
		{"local key", d.LocalKey},
	}
	if d.Kind == BelongsToMany {
		keys = append(keys,
			keyField{"join table", d.JoinTable},
			keyField{"parent pivot key", d.ParentPivotKey},
			keyField{"related pivot key", d.RelatedPivotKey},
		)
	}

	var problems []string
	for _, k := range keys {
		if !entity.ValidIdentifier(k.name) {
			problems = append(problems, fmt.Sprintf("%s %q", k.label, k.name))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return errs.Configf("relation.resolve", "%s -> %s: invalid %s",
		parent.Table, d.Related.Table, strings.Join(problems, ", "))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
