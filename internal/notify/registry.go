package notify

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/bowphp/framework-sub003/internal/errs"
)

// Registry maps channel names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ChannelFactory
	frozen    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ChannelFactory)}
}

// PushChannels adds channels to the registry. Existing names are
// replaced; other entries are kept.
func (r *Registry) PushChannels(channels map[string]ChannelFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errs.Config("notify.push_channels", errs.ErrFrozen)
	}
	for name, factory := range channels {
		if name == "" || factory == nil {
			return errs.Configf("notify.push_channels", "invalid channel %q", name)
		}
	}
	for name, factory := range channels {
		if _, ok := r.factories[name]; ok {
			slog.Debug("notification channel replaced", "channel", name)
		}
		r.factories[name] = factory
	}
	return nil
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (ChannelFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered channel names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Freeze rejects further PushChannels calls.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// String implements fmt.Stringer.
func (r *Registry) String() string {
	return fmt.Sprintf("notify.Registry%v", r.Names())
}
