package queryir

import "github.com/bowphp/framework-sub003/internal/ir"

// Query represents an abstract query.
// Sealed - only Select implements it.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition.
// Sealed - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select reads rows from one table.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order_by> LIMIT <limit>
//
// Example:
//
//	Select{
//	  From:    "posts",
//	  Filter:  Equals{Field: "user_id", Value: ir.IRInt(7)},
//	  OrderBy: "id",
//	}
//
// An empty Columns list selects every column. An empty OrderBy means the
// storage natural order. Limit 0 means unlimited.
type Select struct {
	From    string
	Columns []string
	Filter  Predicate
	OrderBy string
	Limit   int
}

func (Select) queryNode() {}

// Equals is <field> = <value>.
// Comparing with IRNull never matches; use IsNull instead.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// In is <field> IN (<values>). An empty Values list matches nothing.
type In struct {
	Field  string
	Values []ir.IRValue
}

func (In) predicateNode() {}

// InSelect is <field> IN (<sub>). Sub must project exactly one column.
//
// Example (the many-to-many constraint):
//
//	InSelect{
//	  Field: "id",
//	  Sub: Select{
//	    From:    "posts_tags",
//	    Columns: []string{"tag_id"},
//	    Filter:  Equals{Field: "post_id", Value: ir.IRInt(3)},
//	  },
//	}
type InSelect struct {
	Field string
	Sub   Select
}

func (InSelect) predicateNode() {}

// IsNull is <field> IS NULL.
type IsNull struct {
	Field string
}

func (IsNull) predicateNode() {}

// And is a conjunction. Empty Predicates means always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where returns a copy of sel with preds appended to its filter.
// Predicates keep their order; an existing And is flattened.
func Where(sel Select, preds ...Predicate) Select {
	if len(preds) == 0 {
		return sel
	}

	var all []Predicate
	switch f := sel.Filter.(type) {
	case nil:
	case And:
		all = append(all, f.Predicates...)
	default:
		all = append(all, f)
	}
	all = append(all, preds...)

	if len(all) == 1 {
		sel.Filter = all[0]
	} else {
		sel.Filter = And{Predicates: all}
	}
	return sel
}

// Flatten returns the predicates of p as an ordered list, expanding nested
// And nodes.
func Flatten(p Predicate) []Predicate {
	switch pred := p.(type) {
	case nil:
		return nil
	case And:
		var out []Predicate
		for _, sub := range pred.Predicates {
			out = append(out, Flatten(sub)...)
		}
		return out
	default:
		return []Predicate{p}
	}
}

// Nothing returns a selection on table that matches no rows.
func Nothing(table, field string) Select {
	return Select{From: table, Filter: In{Field: field}, OrderBy: field}
}

// MatchesNothing reports whether sel is statically known to match no rows,
// so it can be answered without a storage round trip.
func MatchesNothing(sel Select) bool {
	for _, p := range Flatten(sel.Filter) {
		if in, ok := p.(In); ok && len(in.Values) == 0 {
			return true
		}
	}
	return false
}
