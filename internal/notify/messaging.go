package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/metrics"
	"github.com/bowphp/framework-sub003/internal/queue"
)

// Job is a queued delivery.
type Job struct {
	ID         string
	Notifiable Notifiable
	Message    Message
	QueuedAt   time.Time
}

// Messaging fans a message out over its declared channels.
type Messaging struct {
	registry *Registry
	jobs     *queue.Queue[Job]
	ids      IDGenerator
	now      func() time.Time
	metrics  *metrics.Collector
}

// Option configures a Messaging.
type Option func(*Messaging)

// WithMetrics records sends and queue depth on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Messaging) { m.metrics = c }
}

// WithIDGenerator sets the job ID generator. Default: UUIDv7.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Messaging) { m.ids = g }
}

// WithClock sets the clock used to stamp queued jobs.
func WithClock(now func() time.Time) Option {
	return func(m *Messaging) { m.now = now }
}

// WithQueue uses q as the job queue instead of a private one.
func WithQueue(q *queue.Queue[Job]) Option {
	return func(m *Messaging) { m.jobs = q }
}

// NewMessaging creates a Messaging over reg.
func NewMessaging(reg *Registry, opts ...Option) *Messaging {
	m := &Messaging{
		registry: reg,
		ids:      UUIDv7Generator{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.jobs == nil {
		m.jobs = queue.New[Job]()
	}
	return m
}

// Registry returns the channel registry.
func (m *Messaging) Registry() *Registry {
	return m.registry
}

// Jobs returns the queue that Queue feeds.
func (m *Messaging) Jobs() *queue.Queue[Job] {
	return m.jobs
}

// Process delivers msg to n through each declared channel, in declaration
// order. Unregistered names are skipped. A failing channel does not stop
// the others; all failures are returned joined.
func (m *Messaging) Process(ctx context.Context, n Notifiable, msg Message) error {
	var failures []error
	for _, name := range msg.Channels(n) {
		factory, ok := m.registry.Lookup(name)
		if !ok {
			slog.Debug("notification channel not registered, skipping",
				"channel", name,
				"message", MessageName(msg))
			continue
		}

		err := m.send(ctx, factory, n, msg)
		m.metrics.RecordSend(name, err)
		if err != nil {
			slog.Warn("notification channel failed",
				"channel", name,
				"message", MessageName(msg),
				"notifiable", n.NotifiableType()+":"+n.NotifiableID(),
				"error", err)
			failures = append(failures, fmt.Errorf("channel %s: %w", name, err))
		}
	}
	return errors.Join(failures...)
}

func (m *Messaging) send(ctx context.Context, factory ChannelFactory, n Notifiable, msg Message) error {
	ch, err := factory()
	if err != nil {
		return err
	}
	return ch.Send(ctx, n, msg)
}

// Queue defers Process for msg to a Worker and returns the job ID.
func (m *Messaging) Queue(n Notifiable, msg Message) (string, error) {
	job := Job{
		ID:         m.ids.Generate(),
		Notifiable: n,
		Message:    msg,
		QueuedAt:   m.now(),
	}
	if !m.jobs.Enqueue(job) {
		return "", errs.Configf("notify.queue", "job queue is closed")
	}
	m.metrics.RecordQueueDepth(m.jobs.Len())
	return job.ID, nil
}
