package cqrs

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bowphp/framework-sub003/internal/container"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/metrics"
)

type CreateUser struct {
	CommandMessage
	Name string
}

type DeleteUser struct {
	CommandMessage
	ID int64
}

type CountUsers struct {
	QueryMessage
}

type recordingHandler struct {
	name  string
	calls *[]string
}

func (h *recordingHandler) Process(_ context.Context, cmd Command) error {
	*h.calls = append(*h.calls, h.name+":"+cmd.(*CreateUser).Name)
	return nil
}

type countHandler struct{ n int }

func (h countHandler) Process(context.Context, Query) (any, error) {
	return h.n, nil
}

func newTestRegistry(t *testing.T) (*Registry, *container.Container, *[]string) {
	t.Helper()
	calls := &[]string{}
	c := container.New()
	c.Bind("first", func(container.Resolver) (any, error) {
		return &recordingHandler{name: "first", calls: calls}, nil
	})
	c.Bind("second", func(container.Resolver) (any, error) {
		return &recordingHandler{name: "second", calls: calls}, nil
	})
	c.Instance("count", countHandler{n: 42})
	c.Instance("not-a-handler", struct{}{})
	return NewRegistry(c), c, calls
}

func TestTypeOf_NormalizesPointers(t *testing.T) {
	assert.Equal(t, TypeOf[CreateUser](), TypeOf[*CreateUser]())
	assert.Equal(t, TypeOf[CreateUser](), MessageType(&CreateUser{}))
	assert.Equal(t, TypeOf[CreateUser](), MessageType(CreateUser{}))
}

func TestCategoryOf(t *testing.T) {
	cat, ok := CategoryOf(&CreateUser{})
	assert.True(t, ok)
	assert.Equal(t, CategoryCommand, cat)

	cat, ok = CategoryOf(CountUsers{})
	assert.True(t, ok)
	assert.Equal(t, CategoryQuery, cat)

	_, ok = CategoryOf("plain string")
	assert.False(t, ok)
}

func TestRegisterCommand_LastWriteWins(t *testing.T) {
	reg, _, calls := newTestRegistry(t)
	bus := NewCommandBus(reg)

	require.NoError(t, reg.RegisterCommand(TypeOf[CreateUser](), "first"))
	require.NoError(t, reg.RegisterCommand(TypeOf[CreateUser](), "second"))

	require.NoError(t, bus.Execute(context.Background(), &CreateUser{Name: "ada"}))
	assert.Equal(t, []string{"second:ada"}, *calls)
}

func TestRegisterCommands_ReplacesWholeMapping(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	require.NoError(t, reg.RegisterCommands(map[reflect.Type]string{
		TypeOf[CreateUser](): "first",
		TypeOf[DeleteUser](): "first",
	}))
	require.NoError(t, reg.RegisterCommands(map[reflect.Type]string{
		TypeOf[CreateUser](): "second",
	}))

	_, name, err := reg.Lookup(&CreateUser{})
	require.NoError(t, err)
	assert.Equal(t, "second", name)

	_, _, err = reg.Lookup(&DeleteUser{})
	assert.True(t, errs.IsConfiguration(err))
}

func TestExecute_UnregisteredCommand(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	err := NewCommandBus(reg).Execute(context.Background(), &DeleteUser{ID: 1})
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.Contains(t, err.Error(), "cqrs.DeleteUser")

	var notFound *HandlerNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, TypeOf[DeleteUser](), notFound.MessageType)
	assert.Equal(t, CategoryCommand, notFound.Category)
}

func TestExecute_UnregisteredQuery(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	_, err := NewQueryBus(reg).Execute(context.Background(), CountUsers{})
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))

	var notFound *HandlerNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, CategoryQuery, notFound.Category)
	assert.Contains(t, err.Error(), "cqrs.CountUsers")
}

func TestQueryBus_ReturnsHandlerResult(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	require.NoError(t, reg.RegisterQueries(map[reflect.Type]string{TypeOf[CountUsers](): "count"}))
	bus := NewQueryBus(reg)

	n, err := Ask[int](context.Background(), bus, CountUsers{})
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = Ask[string](context.Background(), bus, CountUsers{})
	assert.True(t, errs.IsConfiguration(err))
}

func TestExecute_HandlerOfWrongShape(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	require.NoError(t, reg.RegisterCommand(TypeOf[CreateUser](), "not-a-handler"))

	err := NewCommandBus(reg).Execute(context.Background(), &CreateUser{})
	assert.True(t, errs.IsConfiguration(err))
}

func TestExecute_UnknownHandlerName(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	require.NoError(t, reg.RegisterCommand(TypeOf[CreateUser](), "ghost"))

	err := NewCommandBus(reg).Execute(context.Background(), &CreateUser{})
	assert.True(t, errs.IsConfiguration(err))
}

func TestFreeze_RejectsRegistration(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	reg.Freeze()

	err := reg.RegisterCommand(TypeOf[CreateUser](), "first")
	assert.ErrorIs(t, err, errs.ErrFrozen)
	err = reg.RegisterQueries(map[reflect.Type]string{TypeOf[CountUsers](): "count"})
	assert.ErrorIs(t, err, errs.ErrFrozen)
}

func TestRegister_RejectsEmptyEntries(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	assert.True(t, errs.IsConfiguration(reg.RegisterCommand(nil, "first")))
	assert.True(t, errs.IsConfiguration(reg.RegisterQuery(TypeOf[CountUsers](), "")))
}

func TestBus_RecordsMetrics(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	require.NoError(t, reg.RegisterCommand(TypeOf[CreateUser](), "first"))
	c := metrics.NewCollector("test")

	bus := NewCommandBus(reg, WithMetrics(c))
	require.NoError(t, bus.Execute(context.Background(), &CreateUser{Name: "ada"}))
	_ = bus.Execute(context.Background(), &DeleteUser{})

	n, err := testutil.GatherAndCount(c.Registry(), "test_bus_dispatch_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
