// Package container resolves named dependencies from registered factories.
package container

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bowphp/framework-sub003/internal/errs"
)

// Factory builds one instance of a dependency.
type Factory func(r Resolver) (any, error)

// Resolver returns an instance for a registered name.
type Resolver interface {
	Resolve(name string) (any, error)
}

type binding struct {
	factory   Factory
	singleton bool

	once     sync.Once
	instance any
	err      error
}

// Container maps names to factories. It is safe for concurrent use.
type Container struct {
	mu       sync.RWMutex
	bindings map[string]*binding
}

var _ Resolver = (*Container)(nil)

// New creates an empty container.
func New() *Container {
	return &Container{bindings: make(map[string]*binding)}
}

// Bind registers a factory called on every Resolve.
func (c *Container) Bind(name string, factory Factory) {
	c.set(name, &binding{factory: factory})
}

// Singleton registers a factory called once, on first Resolve. Its result,
// including a failure, is returned for every later Resolve.
func (c *Container) Singleton(name string, factory Factory) {
	c.set(name, &binding{factory: factory, singleton: true})
}

// Instance registers an existing value.
func (c *Container) Instance(name string, v any) {
	c.Singleton(name, func(Resolver) (any, error) { return v, nil })
}

func (c *Container) set(name string, b *binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[name] = b
}

// Has reports whether name is registered.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[name]
	return ok
}

// Names returns every registered name, sorted.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.bindings))
	for name := range c.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds or returns the instance registered under name.
// An unknown name is a Configuration error.
func (c *Container) Resolve(name string) (any, error) {
	c.mu.RLock()
	b, ok := c.bindings[name]
	c.mu.RUnlock()

	if !ok {
		return nil, errs.Configf("container.resolve", "no binding for %q", name)
	}

	if !b.singleton {
		return build(c, name, b.factory)
	}

	b.once.Do(func() {
		b.instance, b.err = build(c, name, b.factory)
	})
	return b.instance, b.err
}

func build(r Resolver, name string, factory Factory) (any, error) {
	v, err := factory(r)
	if err != nil {
		return nil, fmt.Errorf("build %q: %w", name, err)
	}
	return v, nil
}
