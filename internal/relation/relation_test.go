package relation

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/metrics"
	"github.com/bowphp/framework-sub003/internal/queryir"
)

// fakeExecutor records queries and returns canned rows.
type fakeExecutor struct {
	rows    []ir.IRObject
	err     error
	queries []queryir.Select
}

func (f *fakeExecutor) Select(_ context.Context, q queryir.Select) ([]ir.IRObject, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func TestNew_SnapshotsParentAtAccessTime(t *testing.T) {
	exec := &fakeExecutor{}
	post := entity.New(posts, ir.IRObject{"user_id": ir.IRInt(1)})

	rel, err := New(exec, post, Descriptor{Kind: BelongsTo, Related: users})
	require.NoError(t, err)

	require.NoError(t, post.Set("user_id", ir.IRInt(2)))

	_, err = rel.Results(context.Background())
	require.NoError(t, err)
	require.Len(t, exec.queries, 1)
	assert.Equal(t, queryir.Equals{Field: "id", Value: ir.IRInt(1)}, exec.queries[0].Filter)

	// A new accessor call sees the new state.
	again, err := New(exec, post, Descriptor{Kind: BelongsTo, Related: users})
	require.NoError(t, err)
	assert.Equal(t, queryir.Equals{Field: "id", Value: ir.IRInt(2)}, again.Query().Filter)
}

func TestResults_NoCachingWithoutWrapper(t *testing.T) {
	exec := &fakeExecutor{rows: []ir.IRObject{{"id": ir.IRInt(1)}}}
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(3)})

	rel, err := New(exec, user, Descriptor{Kind: HasMany, Related: posts})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := rel.Get(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, exec.queries, 3)
}

func TestResults_NullKeySkipsStorage(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("must not be called")}
	post := entity.New(posts, ir.IRObject{"user_id": ir.IRNull{}})

	rel, err := New(exec, post, Descriptor{Kind: BelongsTo, Related: users})
	require.NoError(t, err)

	got, err := rel.First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, exec.queries)
}

func TestResults_SingleKindsKeepFirstRow(t *testing.T) {
	exec := &fakeExecutor{rows: []ir.IRObject{
		{"id": ir.IRInt(10), "user_id": ir.IRInt(3)},
		{"id": ir.IRInt(11), "user_id": ir.IRInt(3)},
	}}
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(3)})

	rel, err := New(exec, user, Descriptor{Kind: HasOne, Related: profiles})
	require.NoError(t, err)

	result, err := rel.Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Len())

	profile := result.One()
	require.NotNil(t, profile)
	assert.Equal(t, ir.IRInt(10), profile.Key())
	assert.True(t, profile.Exists())
	assert.Equal(t, "profiles", profile.Table())
}

func TestResults_StorageErrorPropagates(t *testing.T) {
	storageErr := errors.New("no such column: user_id")
	exec := &fakeExecutor{err: storageErr}
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(3)})

	rel, err := New(exec, user, Descriptor{Kind: HasMany, Related: posts})
	require.NoError(t, err)

	_, err = rel.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storageErr)
}

func TestNew_MissingKeyIsConfigurationError(t *testing.T) {
	user := entity.New(users, ir.IRObject{"name": ir.IRString("Ada")})

	_, err := New(&fakeExecutor{}, user, Descriptor{Kind: HasMany, Related: posts})
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}

func TestWhere_AddsConstraintsWithoutTouchingOriginal(t *testing.T) {
	exec := &fakeExecutor{}
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(3)})

	rel, err := New(exec, user, Descriptor{Kind: HasMany, Related: posts})
	require.NoError(t, err)

	published := rel.Where(queryir.Equals{Field: "published", Value: ir.IRBool(true)})
	assert.Len(t, queryir.Flatten(published.Query().Filter), 2)
	assert.Len(t, queryir.Flatten(rel.Query().Filter), 1)
}

func TestCached_ResolvesOnce(t *testing.T) {
	exec := &fakeExecutor{rows: []ir.IRObject{{"id": ir.IRInt(1)}}}
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(3)})

	rel, err := New(exec, user, Descriptor{Kind: HasMany, Related: posts})
	require.NoError(t, err)
	cached := Cached(rel)

	for i := 0; i < 3; i++ {
		result, err := cached.Results(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Len())
	}
	assert.Len(t, exec.queries, 1)

	cached.Reset()
	_, err = cached.Results(context.Background())
	require.NoError(t, err)
	assert.Len(t, exec.queries, 2)
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("locked")}
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(3)})

	rel, err := New(exec, user, Descriptor{Kind: HasMany, Related: posts})
	require.NoError(t, err)
	cached := Cached(rel)

	_, err = cached.Results(context.Background())
	require.Error(t, err)

	exec.err = nil
	_, err = cached.Results(context.Background())
	require.NoError(t, err)
	assert.Len(t, exec.queries, 2)
}

func TestResults_RecordsMetrics(t *testing.T) {
	c := metrics.NewCollector("test")
	exec := &fakeExecutor{}
	user := entity.Hydrate(users, ir.IRObject{"id": ir.IRInt(3)})

	rel, err := New(exec, user, Descriptor{Kind: HasMany, Related: posts}, WithMetrics(c))
	require.NoError(t, err)
	_, err = rel.Results(context.Background())
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(c.Registry(), "test_relation_resolutions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestResult_AllNeverNil(t *testing.T) {
	assert.NotNil(t, Result{}.All())
	assert.Nil(t, Result{}.One())
}
