package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// RenderJobsChannel is the LISTEN/NOTIFY channel that wakes encoder
// workers when a job is inserted or retried.
const RenderJobsChannel = "render_jobs"

// ActiveClipConstraint is the partial unique index that allows at most one
// pending or processing job per clip.
const ActiveClipConstraint = "render_jobs_active_clip_uniq"

const renderJobColumns = `id, job_type, status, progress, clip_id, profile_id, data, error, pid, created_at, updated_at, started_at, finished_at`

func scanRenderJob(row pgx.Row) (*RenderJob, error) {
	var j RenderJob
	err := row.Scan(
		&j.ID, &j.JobType, &j.Status, &j.Progress, &j.ClipID, &j.ProfileID,
		&j.Data, &j.Error, &j.PID,
		&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// InsertRenderJobParams contains the parameters for creating a render job.
type InsertRenderJobParams struct {
	ClipID    string
	ProfileID string
	JobType   string
	Data      JobData
}

// InsertRenderJob creates a pending job. The active-clip unique index
// rejects the insert while another job for the same clip is pending or
// processing; detect that with IsUniqueViolation.
func (q *Queries) InsertRenderJob(ctx context.Context, params InsertRenderJobParams) (*RenderJob, error) {
	jobType := params.JobType
	if jobType == "" {
		jobType = JobTypeRender
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO render_jobs (clip_id, profile_id, job_type, data)
		VALUES ($1, $2, $3, $4)
		RETURNING `+renderJobColumns,
		params.ClipID, params.ProfileID, jobType, params.Data)
	return scanRenderJob(row)
}

// GetRenderJob fetches one job. A non-empty profileID additionally scopes
// the lookup to that profile; jobs owned by others come back as
// pgx.ErrNoRows.
func (q *Queries) GetRenderJob(ctx context.Context, id pgtype.UUID, profileID string) (*RenderJob, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+renderJobColumns+`
		FROM render_jobs
		WHERE id = $1 AND ($2 = '' OR profile_id = $2)`,
		id, profileID)
	return scanRenderJob(row)
}

// ListRenderJobs returns the most recent jobs, newest first, optionally
// scoped to a profile.
func (q *Queries) ListRenderJobs(ctx context.Context, profileID string, limit int32) ([]*RenderJob, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+renderJobColumns+`
		FROM render_jobs
		WHERE ($1 = '' OR profile_id = $1)
		ORDER BY created_at DESC
		LIMIT $2`,
		profileID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*RenderJob
	for rows.Next() {
		job, err := scanRenderJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// FindAndLockPendingRenderJob claims the oldest pending job, marking it
// processing. SKIP LOCKED keeps concurrent workers from fighting over the
// same row. Returns nil when the queue is empty.
func (q *Queries) FindAndLockPendingRenderJob(ctx context.Context) (*RenderJob, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE render_jobs
		SET status = 'processing', started_at = now(), updated_at = now()
		WHERE id = (
			SELECT id FROM render_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+renderJobColumns)
	job, err := scanRenderJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// UpdateRenderJobProgress records progress for a processing job. The
// false return means the job is no longer processing (canceled or reset);
// the worker should stop its encode.
func (q *Queries) UpdateRenderJobProgress(ctx context.Context, id pgtype.UUID, progress int32) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE render_jobs
		SET progress = $2, updated_at = now()
		WHERE id = $1 AND status = 'processing'`,
		id, progress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetRenderJobPID records the encoder process ID for cancellation.
func (q *Queries) SetRenderJobPID(ctx context.Context, id pgtype.UUID, pid int32) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE render_jobs
		SET pid = $2, updated_at = now()
		WHERE id = $1 AND status = 'processing'`,
		id, pid)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FinishRenderJobCompleted marks a processing job completed and merges the
// result descriptor into its data. The guard keeps terminal states
// immutable: a job canceled mid-encode stays failed.
func (q *Queries) FinishRenderJobCompleted(ctx context.Context, id pgtype.UUID, result JobData) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE render_jobs
		SET status = 'completed', progress = 100, data = data || $2,
		    pid = NULL, error = NULL, finished_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'processing'`,
		id, result)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FinishRenderJobFailed marks a processing job failed with a reason.
func (q *Queries) FinishRenderJobFailed(ctx context.Context, id pgtype.UUID, reason string) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE render_jobs
		SET status = 'failed', error = $2,
		    pid = NULL, finished_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'processing'`,
		id, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CancelRenderJob fails a pending or processing job with the given
// reason. Terminal jobs are untouched and report false.
func (q *Queries) CancelRenderJob(ctx context.Context, id pgtype.UUID, profileID, reason string) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE render_jobs
		SET status = 'failed', error = $3,
		    pid = NULL, finished_at = now(), updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'processing')
		  AND ($2 = '' OR profile_id = $2)`,
		id, profileID, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ResetStuckRenderJobs requeues jobs left processing by a previous encoder
// run. Called once at encoder startup, before workers start claiming.
func (q *Queries) ResetStuckRenderJobs(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE render_jobs
		SET status = 'pending', progress = 0, pid = NULL,
		    started_at = NULL, updated_at = now()
		WHERE status = 'processing'`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// NotifyRenderJob wakes listening workers after an insert.
func (q *Queries) NotifyRenderJob(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `SELECT pg_notify($1, $2::text)`, RenderJobsChannel, id)
	return err
}
