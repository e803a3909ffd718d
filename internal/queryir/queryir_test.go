package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
)

func TestSealedInterfaces(t *testing.T) {
	var _ Query = Select{}
	var _ Predicate = Equals{}
	var _ Predicate = In{}
	var _ Predicate = InSelect{}
	var _ Predicate = IsNull{}
	var _ Predicate = And{}
}

func TestWhere_OnEmptyFilter(t *testing.T) {
	sel := Where(Select{From: "posts"}, Equals{Field: "user_id", Value: ir.IRInt(1)})
	assert.Equal(t, Equals{Field: "user_id", Value: ir.IRInt(1)}, sel.Filter)
}

func TestWhere_AppendsInOrder(t *testing.T) {
	first := Equals{Field: "user_id", Value: ir.IRInt(1)}
	second := IsNull{Field: "deleted_at"}
	third := Equals{Field: "status", Value: ir.IRString("draft")}

	sel := Where(Select{From: "posts"}, first)
	sel = Where(sel, second)
	sel = Where(sel, third)

	assert.Equal(t, And{Predicates: []Predicate{first, second, third}}, sel.Filter)
}

func TestWhere_DoesNotMutateInput(t *testing.T) {
	base := Select{From: "posts", Filter: And{Predicates: []Predicate{IsNull{Field: "a"}}}}
	_ = Where(base, IsNull{Field: "b"})
	assert.Len(t, base.Filter.(And).Predicates, 1)
}

func TestWhere_NoPredicates(t *testing.T) {
	sel := Select{From: "posts"}
	assert.Equal(t, sel, Where(sel))
}

func TestFlatten(t *testing.T) {
	a := Equals{Field: "a", Value: ir.IRInt(1)}
	b := IsNull{Field: "b"}
	c := In{Field: "c", Values: []ir.IRValue{ir.IRInt(2)}}

	got := Flatten(And{Predicates: []Predicate{a, And{Predicates: []Predicate{b, c}}}})
	assert.Equal(t, []Predicate{a, b, c}, got)
	assert.Nil(t, Flatten(nil))
}

func TestValidate_Valid(t *testing.T) {
	q := Select{
		From:    "tags",
		OrderBy: "id",
		Filter: And{Predicates: []Predicate{
			InSelect{
				Field: "id",
				Sub: Select{
					From:    "posts_tags",
					Columns: []string{"tag_id"},
					Filter:  Equals{Field: "post_id", Value: ir.IRInt(3)},
				},
			},
			IsNull{Field: "deleted_at"},
		}},
	}
	assert.NoError(t, Validate(q))
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"nil", nil, "nil query"},
		{"bad table", Select{From: "posts;"}, `invalid table "posts;"`},
		{"bad column", Select{From: "posts", Columns: []string{"a b"}}, `invalid column "a b"`},
		{"bad order", Select{From: "posts", OrderBy: "1"}, `invalid order column "1"`},
		{"negative limit", Select{From: "posts", Limit: -1}, "negative limit -1"},
		{"bad field", Select{From: "posts", Filter: Equals{Field: ""}}, `invalid field ""`},
		{
			"multi column sub-select",
			Select{From: "tags", Filter: InSelect{Field: "id", Sub: Select{From: "posts_tags", Columns: []string{"a", "b"}}}},
			"must project exactly one column, got 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			require.Error(t, err)
			assert.True(t, errs.IsConfiguration(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	err := Validate(Select{From: "", Columns: []string{"-"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table")
	assert.Contains(t, err.Error(), "invalid column")
}

func TestNothing(t *testing.T) {
	sel := Nothing("users", "id")
	assert.True(t, MatchesNothing(sel))
	assert.NoError(t, Validate(sel))

	narrowed := Where(sel, IsNull{Field: "deleted_at"})
	assert.True(t, MatchesNothing(narrowed))
}

func TestMatchesNothing_RegularQueries(t *testing.T) {
	assert.False(t, MatchesNothing(Select{From: "users"}))
	assert.False(t, MatchesNothing(Select{
		From:   "users",
		Filter: In{Field: "id", Values: []ir.IRValue{ir.IRInt(1)}},
	}))
}
