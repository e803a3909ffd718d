package relation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/queryir"
)

func resolve(t *testing.T, parent entity.Schema, d Descriptor) Descriptor {
	t.Helper()
	got, err := d.Resolve(parent)
	require.NoError(t, err)
	return got
}

func TestBuild_BelongsTo(t *testing.T) {
	d := resolve(t, posts, Descriptor{Kind: BelongsTo, Related: users})
	post := entity.Hydrate(posts, ir.IRObject{"id": ir.IRInt(3), "user_id": ir.IRInt(7)})

	sel, err := Build(post.Snapshot(), d)
	require.NoError(t, err)
	assert.Equal(t, queryir.Select{
		From:    "users",
		Filter:  queryir.Equals{Field: "id", Value: ir.IRInt(7)},
		OrderBy: "id",
		Limit:   1,
	}, sel)
}

func TestBuild_HasOne(t *testing.T) {
	d := resolve(t, users, Descriptor{Kind: HasOne, Related: profiles})
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(3)})

	sel, err := Build(user.Snapshot(), d)
	require.NoError(t, err)
	assert.Equal(t, queryir.Select{
		From:    "profiles",
		Filter:  queryir.Equals{Field: "user_id", Value: ir.IRInt(3)},
		OrderBy: "id",
		Limit:   1,
	}, sel)
}

func TestBuild_HasMany(t *testing.T) {
	d := resolve(t, users, Descriptor{Kind: HasMany, Related: posts})
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(3)})

	sel, err := Build(user.Snapshot(), d)
	require.NoError(t, err)
	assert.Equal(t, queryir.Select{
		From:    "posts",
		Filter:  queryir.Equals{Field: "user_id", Value: ir.IRInt(3)},
		OrderBy: "id",
	}, sel)
}

func TestBuild_BelongsToManyWithSoftDelete(t *testing.T) {
	d := resolve(t, posts, Descriptor{Kind: BelongsToMany, Related: tags})
	post := entity.Hydrate(posts, ir.IRObject{"id": ir.IRInt(3)})

	sel, err := Build(post.Snapshot(), d)
	require.NoError(t, err)
	assert.Equal(t, queryir.Select{
		From: "tags",
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.InSelect{Field: "id", Sub: queryir.Select{
				From:    "posts_tags",
				Columns: []string{"tag_id"},
				Filter:  queryir.Equals{Field: "post_id", Value: ir.IRInt(3)},
			}},
			queryir.IsNull{Field: "deleted_at"},
		}},
		OrderBy: "id",
	}, sel)
	assert.NoError(t, queryir.Validate(sel))
}

func TestBuild_MissingKeyAttribute(t *testing.T) {
	d := resolve(t, posts, Descriptor{Kind: BelongsTo, Related: users})
	post := entity.New(posts, ir.IRObject{"title": ir.IRString("draft")})

	_, err := Build(post.Snapshot(), d)
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.True(t, errors.Is(err, errs.ErrMissingKey))
}

func TestBuild_NullKeyMatchesNothing(t *testing.T) {
	d := resolve(t, posts, Descriptor{Kind: BelongsTo, Related: users})
	post := entity.New(posts, ir.IRObject{"user_id": ir.IRNull{}})

	sel, err := Build(post.Snapshot(), d)
	require.NoError(t, err)
	assert.True(t, queryir.MatchesNothing(sel))
}

func TestBuild_UnresolvedDescriptor(t *testing.T) {
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(1)})

	_, err := Build(user.Snapshot(), Descriptor{Kind: HasMany, Related: posts})
	assert.True(t, errs.IsConfiguration(err))
}

func TestBuild_IsPure(t *testing.T) {
	d := resolve(t, users, Descriptor{Kind: HasMany, Related: posts})
	snap := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(5)}).Snapshot()

	first, err := Build(snap, d)
	require.NoError(t, err)
	second, err := Build(snap, d)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
