// Package metrics provides Prometheus collectors for dispatch, relation
// resolution and notification delivery.
//
// Every Record method is safe on a nil *Collector, so components take an
// optional collector without guarding each call.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name when none is given.
const DefaultNamespace = "barry"

// Collector holds the framework metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	dispatchTotal   *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec

	eventsEmitted  *prometheus.CounterVec
	listenerErrors *prometheus.CounterVec

	notificationsSent *prometheus.CounterVec
	jobsProcessed     *prometheus.CounterVec
	queueDepth        prometheus.Gauge

	relationsResolved *prometheus.CounterVec
	relationLatency   *prometheus.HistogramVec
}

// NewCollector creates a collector registered on a fresh registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "dispatch_total",
			Help:      "Total number of command and query dispatches",
		},
		[]string{"bus", "message", "result"},
	)

	c.dispatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent resolving and running a handler",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"bus", "message"},
	)

	c.eventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "event",
			Name:      "emitted_total",
			Help:      "Total number of emits, by whether any listener was registered",
		},
		[]string{"event", "handled"},
	)

	c.listenerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "event",
			Name:      "listener_errors_total",
			Help:      "Total number of listener invocations that returned an error",
		},
		[]string{"event"},
	)

	c.notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "sends_total",
			Help:      "Total number of channel sends",
		},
		[]string{"channel", "result"},
	)

	c.jobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "jobs_total",
			Help:      "Total number of queued notification jobs processed",
		},
		[]string{"status"},
	)

	c.queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "queue_depth",
			Help:      "Number of notification jobs waiting",
		},
	)

	c.relationsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relation",
			Name:      "resolutions_total",
			Help:      "Total number of relation resolutions",
		},
		[]string{"kind", "result"},
	)

	c.relationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relation",
			Name:      "resolution_duration_seconds",
			Help:      "Time spent resolving a relation",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"kind"},
	)

	c.registry.MustRegister(
		c.dispatchTotal,
		c.dispatchLatency,
		c.eventsEmitted,
		c.listenerErrors,
		c.notificationsSent,
		c.jobsProcessed,
		c.queueDepth,
		c.relationsResolved,
		c.relationLatency,
	)

	return c
}

// Registry returns the registry holding every collector metric.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordDispatch records one command or query bus dispatch.
func (c *Collector) RecordDispatch(bus, message string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.dispatchTotal.WithLabelValues(bus, message, result(err)).Inc()
	c.dispatchLatency.WithLabelValues(bus, message).Observe(duration.Seconds())
}

// RecordEmit records one emit call.
func (c *Collector) RecordEmit(event string, handled bool) {
	if c == nil {
		return
	}
	label := "false"
	if handled {
		label = "true"
	}
	c.eventsEmitted.WithLabelValues(event, label).Inc()
}

// RecordListenerError records a listener that returned an error.
func (c *Collector) RecordListenerError(event string) {
	if c == nil {
		return
	}
	c.listenerErrors.WithLabelValues(event).Inc()
}

// RecordSend records one channel send.
func (c *Collector) RecordSend(channel string, err error) {
	if c == nil {
		return
	}
	c.notificationsSent.WithLabelValues(channel, result(err)).Inc()
}

// RecordJob records a processed notification job by final status.
func (c *Collector) RecordJob(status string) {
	if c == nil {
		return
	}
	c.jobsProcessed.WithLabelValues(status).Inc()
}

// RecordQueueDepth records the number of waiting notification jobs.
func (c *Collector) RecordQueueDepth(depth int) {
	if c == nil {
		return
	}
	c.queueDepth.Set(float64(depth))
}

// RecordRelation records one relation resolution.
func (c *Collector) RecordRelation(kind string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.relationsResolved.WithLabelValues(kind, result(err)).Inc()
	c.relationLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
