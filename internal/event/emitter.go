// Package event is a name-keyed, priority-ordered publish/subscribe
// emitter.
package event

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/metrics"
)

// Listener handles one emitted event. A returned error is logged and
// does not stop the remaining listeners.
type Listener func(ctx context.Context, args ...any) error

type registration struct {
	listener Listener
	priority int
	seq      uint64
}

// Emitter holds listeners per event name, highest priority first and in
// registration order among equal priorities.
//
// Registration is expected to finish during boot; after Freeze, On and
// Off fail with errs.ErrFrozen. Emit is safe for concurrent use.
type Emitter struct {
	metrics *metrics.Collector

	mu        sync.RWMutex
	frozen    bool
	seq       uint64
	listeners map[string][]registration
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithMetrics records emits and listener errors on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Emitter) {
		e.metrics = c
	}
}

// NewEmitter creates an emitter with no listeners.
func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{listeners: make(map[string][]registration)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// On registers listener for name with the given priority.
func (e *Emitter) On(name string, listener Listener, priority int) error {
	if name == "" || listener == nil {
		return errs.Configf("event.on", "listener registration needs a name and a function")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.frozen {
		return errs.Configf("event.on", "%s: %w", name, errs.ErrFrozen)
	}

	e.seq++
	regs := append(e.listeners[name], registration{
		listener: listener,
		priority: priority,
		seq:      e.seq,
	})
	sort.SliceStable(regs, func(i, j int) bool {
		// Primary: Higher priority first
		if regs[i].priority != regs[j].priority {
			return regs[i].priority > regs[j].priority
		}
		// Secondary: Registration order
		return regs[i].seq < regs[j].seq
	})
	e.listeners[name] = regs
	return nil
}

// Emit calls every listener of name in order with args. It returns false
// when name has no listeners, and true otherwise regardless of listener
// errors.
func (e *Emitter) Emit(ctx context.Context, name string, args ...any) bool {
	e.mu.RLock()
	regs := make([]registration, len(e.listeners[name]))
	copy(regs, e.listeners[name])
	e.mu.RUnlock()

	if len(regs) == 0 {
		e.metrics.RecordEmit(name, false)
		return false
	}

	for _, reg := range regs {
		if err := reg.listener(ctx, args...); err != nil {
			e.metrics.RecordListenerError(name)
			slog.Warn("event listener failed",
				"event", name,
				"priority", reg.priority,
				"error", err,
			)
		}
	}

	e.metrics.RecordEmit(name, true)
	return true
}

// Off removes every listener of name.
func (e *Emitter) Off(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.frozen {
		return errs.Configf("event.off", "%s: %w", name, errs.ErrFrozen)
	}
	delete(e.listeners, name)
	return nil
}

// Listeners returns the number of listeners registered for name.
func (e *Emitter) Listeners(name string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[name])
}

// Names returns every event name with at least one listener, sorted.
func (e *Emitter) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.listeners))
	for name := range e.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Freeze rejects further On and Off calls.
func (e *Emitter) Freeze() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frozen = true
}
