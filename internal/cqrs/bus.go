package cqrs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/metrics"
)

// BusOption configures a bus.
type BusOption func(*bus)

// WithMetrics records every dispatch on c.
func WithMetrics(c *metrics.Collector) BusOption {
	return func(b *bus) {
		b.metrics = c
	}
}

type bus struct {
	registry *Registry
	metrics  *metrics.Collector
}

func newBus(registry *Registry, opts []BusOption) bus {
	b := bus{registry: registry}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// CommandBus executes commands. Each Execute resolves the handler and
// calls it once. Nothing is retried.
type CommandBus struct {
	bus
}

// NewCommandBus creates a command bus over registry.
func NewCommandBus(registry *Registry, opts ...BusOption) *CommandBus {
	return &CommandBus{bus: newBus(registry, opts)}
}

// Execute dispatches cmd to its handler.
func (b *CommandBus) Execute(ctx context.Context, cmd Command) error {
	start := time.Now()
	err := b.execute(ctx, cmd)
	b.metrics.RecordDispatch(string(CategoryCommand), typeName(MessageType(cmd)), time.Since(start), err)
	return err
}

func (b *CommandBus) execute(ctx context.Context, cmd Command) error {
	h, err := b.registry.ResolveHandler(cmd)
	if err != nil {
		return err
	}

	handler, ok := h.(CommandHandler)
	if !ok {
		return errs.Configf("cqrs.execute", "handler %T for %s is not a CommandHandler", h, typeName(MessageType(cmd)))
	}

	slog.Debug("dispatching command", "message", typeName(MessageType(cmd)), "handler", fmt.Sprintf("%T", h))
	return handler.Process(ctx, cmd)
}

// QueryBus executes queries. Each Execute resolves the handler and calls
// it once. Nothing is retried.
type QueryBus struct {
	bus
}

// NewQueryBus creates a query bus over registry.
func NewQueryBus(registry *Registry, opts ...BusOption) *QueryBus {
	return &QueryBus{bus: newBus(registry, opts)}
}

// Execute dispatches q to its handler and returns the handler result.
func (b *QueryBus) Execute(ctx context.Context, q Query) (any, error) {
	start := time.Now()
	result, err := b.execute(ctx, q)
	b.metrics.RecordDispatch(string(CategoryQuery), typeName(MessageType(q)), time.Since(start), err)
	return result, err
}

func (b *QueryBus) execute(ctx context.Context, q Query) (any, error) {
	h, err := b.registry.ResolveHandler(q)
	if err != nil {
		return nil, err
	}

	handler, ok := h.(QueryHandler)
	if !ok {
		return nil, errs.Configf("cqrs.execute", "handler %T for %s is not a QueryHandler", h, typeName(MessageType(q)))
	}

	slog.Debug("dispatching query", "message", typeName(MessageType(q)), "handler", fmt.Sprintf("%T", h))
	return handler.Process(ctx, q)
}

// Ask executes q and returns its result as R.
// A result of another type is a Configuration error.
func Ask[R any](ctx context.Context, b *QueryBus, q Query) (R, error) {
	var zero R

	result, err := b.Execute(ctx, q)
	if err != nil {
		return zero, err
	}

	typed, ok := result.(R)
	if !ok {
		return zero, errs.Configf("cqrs.ask", "%s returned %T, want %T", typeName(MessageType(q)), result, zero)
	}
	return typed, nil
}
