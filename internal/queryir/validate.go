package queryir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
)

// Validate checks that a query can be compiled safely.
//
// Rules:
//  1. Table and column names are plain identifiers ([A-Za-z_][A-Za-z0-9_]*)
//  2. Limit is not negative
//  3. An InSelect sub-query projects exactly one column
//
// All violations are collected and returned as one Configuration error.
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q)
	if len(v.problems) == 0 {
		return nil
	}
	return errs.Config("queryir.validate", errors.New(strings.Join(v.problems, "; ")))
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) ident(kind, name string) {
	if !entity.ValidIdentifier(name) {
		v.addProblem("invalid %s %q", kind, name)
	}
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.ident("table", sel.From)
	for _, col := range sel.Columns {
		v.ident("column", col)
	}
	if sel.OrderBy != "" {
		v.ident("order column", sel.OrderBy)
	}
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.ident("field", pred.Field)
	case In:
		v.ident("field", pred.Field)
	case InSelect:
		v.ident("field", pred.Field)
		if len(pred.Sub.Columns) != 1 {
			v.addProblem("sub-select on %q must project exactly one column, got %d", pred.Sub.From, len(pred.Sub.Columns))
		}
		v.validateSelect(pred.Sub)
	case IsNull:
		v.ident("field", pred.Field)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}
