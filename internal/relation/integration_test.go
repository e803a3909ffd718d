package relation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/store"
)

const blogSchema = `
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE profiles (id INTEGER PRIMARY KEY, user_id INTEGER, bio TEXT);
CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER, title TEXT NOT NULL);
CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT NOT NULL, deleted_at TEXT);
CREATE TABLE posts_tags (post_id INTEGER NOT NULL, tag_id INTEGER NOT NULL);

INSERT INTO users (id, name) VALUES (1, 'ada'), (2, 'grace');
INSERT INTO profiles (id, user_id, bio) VALUES (1, 2, 'admiral');
INSERT INTO posts (id, user_id, title) VALUES
	(1, 1, 'first'), (2, 2, 'other'), (3, 1, 'second'), (4, 1, 'third');
INSERT INTO tags (id, name, deleted_at) VALUES
	(1, 'go', NULL), (2, 'sql', NULL), (3, 'old', '2026-01-01T00:00:00Z');
INSERT INTO posts_tags (post_id, tag_id) VALUES (1, 2), (1, 1), (1, 3), (2, 2);
`

func openBlog(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Exec(context.Background(), blogSchema))
	return s
}

func titles(es []*entity.Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = ir.Format(e.Get("title"))
	}
	return out
}

func TestIntegration_HasManyReturnsExactlyMatchingRows(t *testing.T) {
	s := openBlog(t)
	ada := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(1), "name": ir.IRString("ada")})

	rel, err := New(s, ada, Descriptor{Kind: HasMany, Related: posts})
	require.NoError(t, err)

	got, err := rel.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, titles(got))
	for _, p := range got {
		assert.Equal(t, ir.IRInt(1), p.Get("user_id"))
	}
}

func TestIntegration_BelongsToAtMostOne(t *testing.T) {
	s := openBlog(t)
	ctx := context.Background()

	post := entity.Hydrate(posts, ir.IRObject{"id": ir.IRInt(2), "user_id": ir.IRInt(2)})
	rel, err := New(s, post, Descriptor{Kind: BelongsTo, Related: users})
	require.NoError(t, err)

	author, err := rel.First(ctx)
	require.NoError(t, err)
	require.NotNil(t, author)
	assert.Equal(t, ir.IRString("grace"), author.Get("name"))

	orphan := entity.Hydrate(posts, ir.IRObject{"id": ir.IRInt(9), "user_id": ir.IRInt(404)})
	rel, err = New(s, orphan, Descriptor{Kind: BelongsTo, Related: users})
	require.NoError(t, err)

	result, err := rel.Results(ctx)
	require.NoError(t, err)
	assert.Nil(t, result.One())
	assert.Equal(t, 0, result.Len())
}

func TestIntegration_HasOne(t *testing.T) {
	s := openBlog(t)
	ctx := context.Background()

	grace := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(2)})
	rel, err := New(s, grace, Descriptor{Kind: HasOne, Related: profiles})
	require.NoError(t, err)

	profile, err := rel.First(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, ir.IRString("admiral"), profile.Get("bio"))

	ada := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(1)})
	rel, err = New(s, ada, Descriptor{Kind: HasOne, Related: profiles})
	require.NoError(t, err)

	none, err := rel.First(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestIntegration_BelongsToManyThroughJoinTable(t *testing.T) {
	s := openBlog(t)

	post := entity.Hydrate(posts, ir.IRObject{"id": ir.IRInt(1)})
	rel, err := New(s, post, Descriptor{Kind: BelongsToMany, Related: tags})
	require.NoError(t, err)

	got, err := rel.Get(context.Background())
	require.NoError(t, err)

	var names []string
	for _, tag := range got {
		names = append(names, ir.Format(tag.Get("name")))
	}
	// ordered by tags.id; the soft-deleted tag is excluded
	assert.Equal(t, []string{"go", "sql"}, names)
}

func TestIntegration_UnknownColumnIsStorageError(t *testing.T) {
	s := openBlog(t)
	ada := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(1)})

	rel, err := New(s, ada, Descriptor{Kind: HasMany, Related: posts, ForeignKey: "author_id"})
	require.NoError(t, err)

	_, err = rel.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))

	var sqliteErr sqlite3.Error
	assert.True(t, errors.As(err, &sqliteErr))
}
