package entity

import (
	"fmt"
	"regexp"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
)

// DefaultPrimaryKey is used when a schema does not name its primary key.
const DefaultPrimaryKey = "id"

// DeletedAtField is the column set by soft deletes.
const DeletedAtField = "deleted_at"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as a table or column
// name in generated SQL.
func ValidIdentifier(name string) bool {
	return identRe.MatchString(name)
}

// Schema describes a named storage collection.
type Schema struct {
	Table      string `yaml:"table" json:"table"`
	PrimaryKey string `yaml:"primary_key" json:"primary_key"`
	SoftDelete bool   `yaml:"soft_delete" json:"soft_delete"`
}

// Key returns the primary key column, falling back to DefaultPrimaryKey.
func (s Schema) Key() string {
	if s.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return s.PrimaryKey
}

// Validate checks that the schema can be used to build queries.
func (s Schema) Validate() error {
	if s.Table == "" {
		return errs.Configf("schema.validate", "empty table name: %w", errs.ErrInvalidSchema)
	}
	if !ValidIdentifier(s.Table) {
		return errs.Configf("schema.validate", "invalid table name %q: %w", s.Table, errs.ErrInvalidSchema)
	}
	if !ValidIdentifier(s.Key()) {
		return errs.Configf("schema.validate", "invalid primary key %q on %s: %w", s.Key(), s.Table, errs.ErrInvalidSchema)
	}
	return nil
}

// Entity is a single record of a named collection.
type Entity struct {
	schema    Schema
	attrs     *AttributeStore
	persisted bool
}

// New creates an entity that has not been persisted yet.
func New(schema Schema, attrs ir.IRObject) *Entity {
	return &Entity{
		schema: schema,
		attrs:  NewAttributeStore(attrs),
	}
}

// Hydrate creates an entity from a row loaded from storage. The result is
// persisted and clean.
func Hydrate(schema Schema, row ir.IRObject) *Entity {
	e := New(schema, row)
	e.MarkPersisted()
	return e
}

// Schema returns the entity schema.
func (e *Entity) Schema() Schema {
	return e.schema
}

// Table returns the collection name.
func (e *Entity) Table() string {
	return e.schema.Table
}

// Attributes exposes the attribute store.
func (e *Entity) Attributes() *AttributeStore {
	return e.attrs
}

// Get returns the value of field, or IRNull when unset.
func (e *Entity) Get(field string) ir.IRValue {
	v, ok := e.attrs.Get(field)
	if !ok {
		return ir.IRNull{}
	}
	return v
}

// Lookup returns the value of field and whether it is set.
func (e *Entity) Lookup(field string) (ir.IRValue, bool) {
	return e.attrs.Get(field)
}

// Set assigns field. Changing the primary key of a persisted entity fails
// with errs.ErrImmutableKey.
func (e *Entity) Set(field string, value ir.IRValue) error {
	if e.persisted && field == e.schema.Key() {
		current, _ := e.attrs.Get(field)
		if !ir.Equal(current, value) {
			return errs.Configf("entity.set", "%s.%s: %w", e.schema.Table, field, errs.ErrImmutableKey)
		}
	}
	e.attrs.Set(field, value)
	return nil
}

// Key returns the primary key value, or IRNull when unset.
func (e *Entity) Key() ir.IRValue {
	return e.Get(e.schema.Key())
}

// Exists reports whether the entity has been persisted.
func (e *Entity) Exists() bool {
	return e.persisted
}

// MarkPersisted flags the entity as stored and syncs its attributes.
func (e *Entity) MarkPersisted() {
	e.persisted = true
	e.attrs.Sync()
}

// String returns "table#key" for logs.
func (e *Entity) String() string {
	return fmt.Sprintf("%s#%s", e.schema.Table, ir.Format(e.Key()))
}

// Snapshot captures the entity state at this moment.
func (e *Entity) Snapshot() Snapshot {
	return Snapshot{
		Schema:     e.schema,
		Attributes: e.attrs.Object(),
	}
}

// Snapshot is an immutable copy of an entity's schema and attributes.
type Snapshot struct {
	Schema     Schema
	Attributes ir.IRObject
}

// Value returns the value of field and whether it was set when the
// snapshot was taken.
func (s Snapshot) Value(field string) (ir.IRValue, bool) {
	v, ok := s.Attributes[field]
	return v, ok
}
