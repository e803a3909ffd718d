// Package entity provides records of a named storage collection.
//
// An Entity pairs a Schema (table name, primary key, soft-delete flag) with
// an AttributeStore holding its field values. Entities are created either
// explicitly with New or by hydrating a row loaded from storage.
//
// INVARIANTS:
//   - The primary key value is immutable once the entity is persisted.
//   - A Snapshot never changes after it is taken; relation queries are built
//     from snapshots, never from live entities.
package entity
