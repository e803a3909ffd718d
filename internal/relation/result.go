package relation

import "github.com/bowphp/framework-sub003/internal/entity"

// Result holds the entities a relation resolved to.
type Result struct {
	Kind     Kind
	Entities []*entity.Entity
}

// One returns the first entity, or nil when nothing matched.
// Used for BelongsTo and HasOne.
func (r Result) One() *entity.Entity {
	if len(r.Entities) == 0 {
		return nil
	}
	return r.Entities[0]
}

// All returns every entity. Never nil.
// Used for HasMany and BelongsToMany.
func (r Result) All() []*entity.Entity {
	if r.Entities == nil {
		return []*entity.Entity{}
	}
	return r.Entities
}

// Len returns the number of entities.
func (r Result) Len() int {
	return len(r.Entities)
}
