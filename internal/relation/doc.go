// Package relation resolves links between entities.
//
// A relation is a Descriptor plus a parent entity. Four kinds exist:
//
//	BelongsTo      parent.fk -> related.pk             (zero or one)
//	HasOne         related.fk -> parent.pk             (zero or one)
//	HasMany        related.fk -> parent.pk             (collection)
//	BelongsToMany  parent.pk <- join table -> related.pk (collection)
//
// Keys omitted from a Descriptor are filled by convention in Resolve:
// foreign keys are the singular table name followed by "_id" and join
// tables are both table names in alphabetical order.
//
// Query construction is the pure function Build over a parent Snapshot.
// New takes that snapshot when the relation is obtained, so later changes
// to the parent do not alter an existing Relation. Results are not cached
// unless the caller wraps the relation with Cached.
package relation
