package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/bowphp/framework-sub003/internal/ir"
	"github.com/bowphp/framework-sub003/internal/queue"
	"github.com/bowphp/framework-sub003/internal/store"
)

// DefaultQueueName is recorded on jobs when no name is configured.
const DefaultQueueName = "notifications"

// JobRecorder persists the audit trail of queued deliveries.
// *store.Store implements it.
type JobRecorder interface {
	WriteJob(ctx context.Context, job store.Job) error
	FinishJob(ctx context.Context, id, status, errMsg string, at time.Time) error
}

var _ JobRecorder = (*store.Store)(nil)

// Worker drains the job queue of a Messaging. Failed jobs are recorded
// and dropped.
type Worker struct {
	messaging *Messaging
	limiter   *rate.Limiter
	recorder  JobRecorder
	queueName string
	now       func() time.Time
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithRateLimit caps deliveries at r jobs per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) WorkerOption {
	return func(w *Worker) { w.limiter = rate.NewLimiter(r, burst) }
}

// WithRecorder records every job through rec.
func WithRecorder(rec JobRecorder) WorkerOption {
	return func(w *Worker) { w.recorder = rec }
}

// WithQueueName sets the queue name stored on job records.
func WithQueueName(name string) WorkerOption {
	return func(w *Worker) { w.queueName = name }
}

// WithWorkerClock sets the clock used for job records.
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *Worker) { w.now = now }
}

// NewWorker creates a worker for m.
func NewWorker(m *Messaging, opts ...WorkerOption) *Worker {
	w := &Worker{
		messaging: m,
		queueName: DefaultQueueName,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes jobs until the queue is closed and drained (returns nil)
// or ctx is done (returns ctx.Err()).
func (w *Worker) Run(ctx context.Context) error {
	jobs := w.messaging.Jobs()
	for {
		job, err := jobs.Next(ctx)
		if errors.Is(err, queue.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.process(ctx, job); err != nil {
			return err
		}
	}
}

// Drain processes the jobs already queued without waiting for more.
// Returns the number of jobs processed.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	jobs := w.messaging.Jobs()
	processed := 0
	for {
		job, ok := jobs.TryDequeue()
		if !ok {
			return processed, nil
		}
		if err := w.process(ctx, job); err != nil {
			return processed, err
		}
		processed++
	}
}

// process delivers one job. Only context errors are returned; delivery
// failures end up in the job record.
func (w *Worker) process(ctx context.Context, job Job) error {
	m := w.messaging
	m.metrics.RecordQueueDepth(m.Jobs().Len())

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	w.recordStart(ctx, job)

	status, errMsg := store.JobDone, ""
	if err := m.Process(ctx, job.Notifiable, job.Message); err != nil {
		status, errMsg = store.JobFailed, err.Error()
		slog.Warn("notification job failed", "job", job.ID, "error", err)
	} else {
		slog.Debug("notification job done", "job", job.ID)
	}
	m.metrics.RecordJob(status)

	w.recordFinish(ctx, job, status, errMsg)
	return nil
}

func (w *Worker) recordStart(ctx context.Context, job Job) {
	if w.recorder == nil {
		return
	}
	err := w.recorder.WriteJob(ctx, store.Job{
		ID:        job.ID,
		Queue:     w.queueName,
		Payload:   jobPayload(job),
		Status:    store.JobPending,
		CreatedAt: job.QueuedAt,
	})
	if err != nil {
		slog.Error("failed to record job", "job", job.ID, "error", err)
	}
}

func (w *Worker) recordFinish(ctx context.Context, job Job, status, errMsg string) {
	if w.recorder == nil {
		return
	}
	if err := w.recorder.FinishJob(ctx, job.ID, status, errMsg, w.now()); err != nil {
		slog.Error("failed to finish job", "job", job.ID, "status", status, "error", err)
	}
}

func jobPayload(job Job) ir.IRObject {
	channels := job.Message.Channels(job.Notifiable)
	names := make(ir.IRArray, len(channels))
	for i, c := range channels {
		names[i] = ir.IRString(c)
	}
	return ir.IRObject{
		"message":         ir.IRString(MessageName(job.Message)),
		"notifiable_type": ir.IRString(job.Notifiable.NotifiableType()),
		"notifiable_id":   ir.IRString(job.Notifiable.NotifiableID()),
		"channels":        names,
	}
}
