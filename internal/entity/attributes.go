package entity

import (
	"sort"

	"github.com/bowphp/framework-sub003/internal/ir"
)

// AttributeStore is the mutable field state of one entity.
//
// It tracks which fields changed since the last Sync so that updates only
// write what was modified. Insertion order is irrelevant; Keys returns
// fields sorted by name.
type AttributeStore struct {
	values   ir.IRObject
	original ir.IRObject
}

// NewAttributeStore creates a store seeded with values. The values are
// copied; later changes to the argument do not affect the store.
// All seeded fields count as dirty until Sync is called.
func NewAttributeStore(values ir.IRObject) *AttributeStore {
	s := &AttributeStore{
		values:   make(ir.IRObject, len(values)),
		original: ir.IRObject{},
	}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get returns the value of field and whether it is set.
func (s *AttributeStore) Get(field string) (ir.IRValue, bool) {
	v, ok := s.values[field]
	return v, ok
}

// Set assigns value to field. A nil value is stored as IRNull.
func (s *AttributeStore) Set(field string, value ir.IRValue) {
	if value == nil {
		value = ir.IRNull{}
	}
	s.values[field] = value
}

// Has reports whether field is set (a NULL value counts as set).
func (s *AttributeStore) Has(field string) bool {
	_, ok := s.values[field]
	return ok
}

// Unset removes field.
func (s *AttributeStore) Unset(field string) {
	delete(s.values, field)
}

// Keys returns the set fields sorted by name.
func (s *AttributeStore) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of set fields.
func (s *AttributeStore) Len() int {
	return len(s.values)
}

// Dirty returns the fields whose value differs from the last synced state,
// including fields that did not exist then.
func (s *AttributeStore) Dirty() ir.IRObject {
	dirty := ir.IRObject{}
	for k, v := range s.values {
		orig, ok := s.original[k]
		if !ok || !ir.Equal(orig, v) {
			dirty[k] = v
		}
	}
	return dirty
}

// IsDirty reports whether any field changed since the last Sync.
func (s *AttributeStore) IsDirty() bool {
	return len(s.Dirty()) > 0
}

// Sync marks the current values as persisted.
func (s *AttributeStore) Sync() {
	s.original = s.values.Clone()
}

// Object returns a deep copy of all values.
func (s *AttributeStore) Object() ir.IRObject {
	return s.values.Clone()
}

// Clone returns an independent copy, including the synced state.
func (s *AttributeStore) Clone() *AttributeStore {
	return &AttributeStore{
		values:   s.values.Clone(),
		original: s.original.Clone(),
	}
}
