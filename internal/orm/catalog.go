package orm

import (
	"sort"
	"sync"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/relation"
)

// Catalog is the registry of schemas and named relations.
//
// Registration is expected to finish during boot; after Freeze every
// Define fails with errs.ErrFrozen. Lookups are safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	frozen    bool
	schemas   map[string]entity.Schema
	relations map[string]map[string]relation.Descriptor
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		schemas:   make(map[string]entity.Schema),
		relations: make(map[string]map[string]relation.Descriptor),
	}
}

// Define registers a schema and its relations, replacing any previous
// definition of the same table.
func (c *Catalog) Define(schema entity.Schema, relations map[string]relation.Descriptor) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return errs.Configf("catalog.define", "%s: %w", schema.Table, errs.ErrFrozen)
	}

	rels := make(map[string]relation.Descriptor, len(relations))
	for name, d := range relations {
		if name == "" {
			return errs.Configf("catalog.define", "%s: relation with empty name", schema.Table)
		}
		rels[name] = d
	}

	c.schemas[schema.Table] = schema
	c.relations[schema.Table] = rels
	return nil
}

// Schema returns the schema of table.
func (c *Catalog) Schema(table string) (entity.Schema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	schema, ok := c.schemas[table]
	if !ok {
		return entity.Schema{}, errs.Configf("catalog.schema", "unknown table %q", table)
	}
	return schema, nil
}

// Relation returns the named relation of table, resolved against the
// table schema. When the related table is also defined in the catalog,
// its schema (primary key, soft delete) replaces the declared one.
func (c *Catalog) Relation(table, name string) (relation.Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relation(table, name)
}

func (c *Catalog) relation(table, name string) (relation.Descriptor, error) {
	schema, ok := c.schemas[table]
	if !ok {
		return relation.Descriptor{}, errs.Configf("catalog.relation", "unknown table %q", table)
	}
	d, ok := c.relations[table][name]
	if !ok {
		return relation.Descriptor{}, errs.Configf("catalog.relation", "%s has no relation %q", table, name)
	}
	if related, ok := c.schemas[d.Related.Table]; ok {
		d.Related = related
	}
	return d.Resolve(schema)
}

// Tables returns every defined table, sorted.
func (c *Catalog) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return sortedKeys(c.schemas)
}

// Relations returns the relation names of table, sorted.
func (c *Catalog) Relations(table string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return sortedKeys(c.relations[table])
}

// Validate resolves every relation and returns the first failure.
func (c *Catalog) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, table := range sortedKeys(c.schemas) {
		for _, name := range sortedKeys(c.relations[table]) {
			if _, err := c.relation(table, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Freeze validates the catalog and rejects further definitions.
func (c *Catalog) Freeze() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.frozen = true
	c.mu.Unlock()
	return nil
}

// Frozen reports whether Freeze has been called.
func (c *Catalog) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
