// Package queryir provides the abstract query representation built by
// relations and repositories and executed by the storage collaborator.
//
// ARCHITECTURE:
//
//	[relation / orm] → [Query IR] → [querysql compiler] → [store]
//
// Relations never produce SQL text. They produce a Select whose Filter is a
// tree of predicates; the storage side compiles and executes it. This keeps
// constraint building a pure function of (parent snapshot, descriptor) and
// keeps dialect concerns in one place.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package implement them, which lets compilers use
// exhaustive type switches:
//
//	switch p := pred.(type) {
//	case Equals:
//	case In:
//	case InSelect:
//	case IsNull:
//	case And:
//	}
//
// A Query is mutable until executed and is consumed once per resolution:
// nothing caches constraints between calls.
//
// All literal values are ir.IRValue, so no floats reach the storage layer.
package queryir
