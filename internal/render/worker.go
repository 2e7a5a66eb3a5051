package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"thirdcoast.systems/clipforge/internal/config"
	"thirdcoast.systems/clipforge/internal/db"
	"thirdcoast.systems/clipforge/pkg/utils/format"
)

// Error column cap; keeps multi-kilobyte ffmpeg stderr dumps out of the
// jobs table.
const failureReasonLimit = 500

// Runner drives the render worker pool: it claims pending jobs, executes
// them, and records the outcome. Workers wake on pg_notify and fall back
// to polling.
type Runner struct {
	dbc  *db.DatabaseConnection
	conf config.Config
	exec *Executor
}

// NewRunner creates a runner with its own executor.
func NewRunner(dbc *db.DatabaseConnection, conf config.Config) *Runner {
	return &Runner{dbc: dbc, conf: conf, exec: NewExecutor(dbc, conf)}
}

// Run recovers stuck jobs, then blocks processing the queue until ctx is
// canceled and every worker has drained.
func (r *Runner) Run(ctx context.Context) error {
	// Jobs left processing by a previous instance go back to pending so
	// they get picked up again.
	reset, err := r.dbc.Queries(ctx).ResetStuckRenderJobs(ctx)
	if err != nil {
		slog.Error("failed to recover stuck render jobs", "error", err)
	} else if reset > 0 {
		slog.Info("recovered stuck render jobs", "count", reset)
	}

	wake := make(chan struct{}, 1)
	go listenForJobs(ctx, r.conf.DatabaseDSN, wake)

	workers := r.conf.RenderWorkers
	if workers <= 0 {
		workers = 2
	}
	slog.Info("render workers started", "workers", workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.workerLoop(ctx, wake)
		}()
	}
	wg.Wait()
	slog.Info("render workers stopped")
	return nil
}

func (r *Runner) workerLoop(ctx context.Context, wake <-chan struct{}) {
	q := r.dbc.Queries(ctx)
	for {
		if ctx.Err() != nil {
			return
		}

		// Claim jobs until the queue runs dry.
		for {
			job, err := q.FindAndLockPendingRenderJob(ctx)
			if err != nil {
				slog.Error("failed to claim pending render job", "error", err)
				time.Sleep(2 * time.Second)
				break
			}
			if job == nil {
				break
			}
			r.process(ctx, job)
		}

		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-time.After(5 * time.Second):
			// Poll as well; notifications are lost while the listener
			// reconnects.
		}
	}
}

func (r *Runner) process(ctx context.Context, job *db.RenderJob) {
	jobID := db.UUIDString(job.ID)

	err := r.exec.Execute(ctx, job)
	if err == nil {
		return
	}
	if errors.Is(err, errCanceled) {
		// The cancel path already wrote the terminal state.
		slog.Info("render job canceled mid-flight", "job_id", jobID)
		return
	}

	slog.Error("render job failed", "job_id", jobID, "error", err)
	reason := format.Truncate(err.Error(), failureReasonLimit)
	ok, ferr := r.dbc.Queries(ctx).FinishRenderJobFailed(ctx, job.ID, reason)
	if ferr != nil {
		slog.Error("failed to record render failure", "job_id", jobID, "error", ferr)
	} else if !ok {
		slog.Info("render job already terminal, skipping failure update", "job_id", jobID)
	}
}

func listenForJobs(ctx context.Context, dsn string, wake chan<- struct{}) {
	for ctx.Err() == nil {
		if err := listenOnce(ctx, dsn, wake); err != nil && ctx.Err() == nil {
			slog.Error("job notification listener failed, reconnecting", "channel", db.RenderJobsChannel, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// listenOnce holds one dedicated connection on LISTEN and forwards each
// notification as a wake signal. The send never blocks; a full channel
// means the workers are already awake.
func listenOnce(ctx context.Context, dsn string, wake chan<- struct{}) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+db.RenderJobsChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	slog.Info("listening for render job notifications", "channel", db.RenderJobsChannel)

	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			return err
		}
		select {
		case wake <- struct{}{}:
		default:
		}
	}
}
