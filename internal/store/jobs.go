package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/ir"
)

// Job statuses.
const (
	JobPending = "pending"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job is one row of the delivery audit trail.
type Job struct {
	ID         string
	Queue      string
	Payload    ir.IRObject
	Status     string
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

type jobRow struct {
	ID         string         `db:"id"`
	Queue      string         `db:"queue"`
	Payload    string         `db:"payload"`
	Status     string         `db:"status"`
	Error      sql.NullString `db:"error"`
	CreatedAt  string         `db:"created_at"`
	FinishedAt sql.NullString `db:"finished_at"`
}

// WriteJob records a job. An empty status is stored as JobPending.
// Uses ON CONFLICT(id) DO NOTHING - duplicate IDs are silently ignored.
func (s *Store) WriteJob(ctx context.Context, job Job) error {
	payload, err := marshalObject(job.Payload)
	if err != nil {
		return errs.Store("store.write_job", err)
	}
	status := job.Status
	if status == "" {
		status = JobPending
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO jobs (id, queue, payload, status, created_at)
		VALUES (:id, :queue, :payload, :status, :created_at)
		ON CONFLICT(id) DO NOTHING
	`, jobRow{
		ID:        job.ID,
		Queue:     job.Queue,
		Payload:   payload,
		Status:    status,
		CreatedAt: formatTime(job.CreatedAt),
	})
	if err != nil {
		return errs.Store("store.write_job", err)
	}
	return nil
}

// FinishJob sets the terminal status of a job. An empty errMsg stores NULL.
// Returns a NotFound error if the ID does not exist.
func (s *Store) FinishJob(ctx context.Context, id, status, errMsg string, at time.Time) error {
	var errCol sql.NullString
	if errMsg != "" {
		errCol = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errCol, formatTime(at), id)
	if err != nil {
		return errs.Store("store.finish_job", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Store("store.finish_job", err)
	}
	if n == 0 {
		return errs.NotFoundf("store.finish_job", "job %s", id)
	}
	return nil
}

// ReadJobs returns jobs with the given status in insertion order.
// An empty status returns every job.
func (s *Store) ReadJobs(ctx context.Context, status string) ([]Job, error) {
	query := `SELECT id, queue, payload, status, error, created_at, finished_at FROM jobs`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY rowid ASC`

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errs.Store("store.read_jobs", err)
	}

	result := make([]Job, 0, len(rows))
	for _, row := range rows {
		job, err := row.toJob()
		if err != nil {
			return nil, errs.Store("store.read_jobs", err)
		}
		result = append(result, job)
	}
	return result, nil
}

func (r jobRow) toJob() (Job, error) {
	payload, err := unmarshalObject(r.Payload)
	if err != nil {
		return Job{}, err
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return Job{}, err
	}

	job := Job{
		ID:        r.ID,
		Queue:     r.Queue,
		Payload:   payload,
		Status:    r.Status,
		Error:     r.Error.String,
		CreatedAt: created,
	}
	if r.FinishedAt.Valid {
		finished, err := parseTime(r.FinishedAt.String)
		if err != nil {
			return Job{}, err
		}
		job.FinishedAt = &finished
	}
	return job, nil
}
