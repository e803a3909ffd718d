package cqrs

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/bowphp/framework-sub003/internal/container"
	"github.com/bowphp/framework-sub003/internal/errs"
)

// HandlerNotFoundError is returned when a message type has no handler.
// It is wrapped as a Configuration error.
type HandlerNotFoundError struct {
	MessageType reflect.Type
	Category    Category
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("no %s handler registered for %s", e.Category, typeName(e.MessageType))
}

// Registry maps message types to handler names.
//
// Registration is expected to finish during boot; after Freeze every
// Register call fails with errs.ErrFrozen. Resolution is safe for
// concurrent use.
type Registry struct {
	resolver container.Resolver

	mu       sync.RWMutex
	frozen   bool
	commands map[reflect.Type]string
	queries  map[reflect.Type]string
}

// NewRegistry creates an empty registry that obtains handler instances
// from resolver.
func NewRegistry(resolver container.Resolver) *Registry {
	return &Registry{
		resolver: resolver,
		commands: make(map[reflect.Type]string),
		queries:  make(map[reflect.Type]string),
	}
}

// RegisterCommands replaces the whole command mapping.
func (r *Registry) RegisterCommands(mapping map[reflect.Type]string) error {
	return r.replace(CategoryCommand, mapping)
}

// RegisterQueries replaces the whole query mapping.
func (r *Registry) RegisterQueries(mapping map[reflect.Type]string) error {
	return r.replace(CategoryQuery, mapping)
}

// RegisterCommand maps one command type to a handler name, replacing any
// previous handler.
func (r *Registry) RegisterCommand(t reflect.Type, handler string) error {
	return r.register(CategoryCommand, t, handler)
}

// RegisterQuery maps one query type to a handler name, replacing any
// previous handler.
func (r *Registry) RegisterQuery(t reflect.Type, handler string) error {
	return r.register(CategoryQuery, t, handler)
}

// Freeze rejects further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) replace(cat Category, mapping map[reflect.Type]string) error {
	m := make(map[reflect.Type]string, len(mapping))
	for t, handler := range mapping {
		if t == nil || handler == "" {
			return errs.Configf("cqrs.register", "%s mapping has an empty type or handler", cat)
		}
		m[normalize(t)] = handler
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errs.Configf("cqrs.register", "%s mapping: %w", cat, errs.ErrFrozen)
	}
	if cat == CategoryCommand {
		r.commands = m
	} else {
		r.queries = m
	}
	slog.Debug("handler mapping replaced", "category", string(cat), "entries", len(m))
	return nil
}

func (r *Registry) register(cat Category, t reflect.Type, handler string) error {
	if t == nil || handler == "" {
		return errs.Configf("cqrs.register", "%s registration needs a type and a handler", cat)
	}
	t = normalize(t)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errs.Configf("cqrs.register", "%s %s: %w", cat, typeName(t), errs.ErrFrozen)
	}

	m := r.commands
	if cat == CategoryQuery {
		m = r.queries
	}
	if prev, ok := m[t]; ok && prev != handler {
		slog.Debug("handler replaced",
			"category", string(cat),
			"message", typeName(t),
			"previous", prev,
			"handler", handler,
		)
	}
	m[t] = handler
	return nil
}

// Lookup returns the category and handler name registered for msg.
func (r *Registry) Lookup(msg any) (Category, string, error) {
	cat, ok := CategoryOf(msg)
	if !ok {
		return "", "", errs.Configf("cqrs.lookup", "%s is neither a command nor a query", typeName(MessageType(msg)))
	}
	t := MessageType(msg)

	r.mu.RLock()
	defer r.mu.RUnlock()

	m := r.commands
	if cat == CategoryQuery {
		m = r.queries
	}
	handler, ok := m[t]
	if !ok {
		return cat, "", errs.Config("cqrs.lookup", &HandlerNotFoundError{MessageType: t, Category: cat})
	}
	return cat, handler, nil
}

// ResolveHandler returns the handler instance for msg.
func (r *Registry) ResolveHandler(msg any) (any, error) {
	_, name, err := r.Lookup(msg)
	if err != nil {
		return nil, err
	}

	h, err := r.resolver.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("resolve handler for %s: %w", typeName(MessageType(msg)), err)
	}
	return h, nil
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
