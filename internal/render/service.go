// Package render is the pipeline orchestrator: it accepts render requests,
// tracks them through the pending/processing/completed/failed lifecycle,
// and runs the encodes on a worker pool.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"thirdcoast.systems/clipforge/internal/config"
	"thirdcoast.systems/clipforge/internal/db"
	"thirdcoast.systems/clipforge/pkg/filters"
	"thirdcoast.systems/clipforge/pkg/preset"
)

var (
	// ErrSourceNotFound means a referenced input file does not exist.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrClipBusy means the clip already has a pending or processing render.
	ErrClipBusy = errors.New("clip already has an active render")
	// ErrJobNotFound means the job id is unknown within the caller's scope.
	ErrJobNotFound = errors.New("render job not found")
	// ErrJobFinished means the job is already terminal and can't be canceled.
	ErrJobFinished = errors.New("render job already finished")
	// ErrJobNotRetryable means retry was requested for a non-failed job.
	ErrJobNotRetryable = errors.New("only failed render jobs can be retried")
)

// Request is one render submission. It is stored verbatim as the job's
// data payload so the executor (and a later retry) can rebuild it.
type Request struct {
	ClipID    string `json:"clip_id" validate:"required"`
	ProfileID string `json:"profile_id,omitempty"`
	Preset    string `json:"preset" validate:"required"`

	SourcePath    string `json:"source_path" validate:"required"`
	VoiceOverPath string `json:"voice_over_path,omitempty"`
	SubtitlePath  string `json:"subtitle_path,omitempty"`

	Filters filters.VideoFilters   `json:"filters"`
	Style   *filters.SubtitleStyle `json:"style,omitempty"`

	// UploadDir is the directory holding inputs uploaded with the request,
	// recorded so an operator (or retention sweep) can find them.
	UploadDir string `json:"upload_dir,omitempty"`
}

// Data encodes the request as a job data payload.
func (r Request) Data() (db.JobData, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}
	var d db.JobData
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}
	return d, nil
}

// RequestFromData rebuilds a request from a stored job payload. Extra keys
// (like the result descriptor) are ignored.
func RequestFromData(d db.JobData) (Request, error) {
	b, err := json.Marshal(map[string]any(d))
	if err != nil {
		return Request{}, fmt.Errorf("decode job payload: %w", err)
	}
	var r Request
	if err := json.Unmarshal(b, &r); err != nil {
		return Request{}, fmt.Errorf("decode job payload: %w", err)
	}
	return r, nil
}

// Service exposes the orchestrator operations consumed by the HTTP layer
// and the CLI: submit, status, list, cancel, retry. Execution itself runs
// on the encoder's worker pool, never on the caller's path.
type Service struct {
	dbc      *db.DatabaseConnection
	conf     config.Config
	validate *validator.Validate
}

// NewService creates the orchestrator service.
func NewService(dbc *db.DatabaseConnection, conf config.Config) *Service {
	return &Service{
		dbc:      dbc,
		conf:     conf,
		validate: validator.New(),
	}
}

// Submit validates the request, creates a pending job, and wakes the
// workers. It returns without waiting for the encode. Unknown presets and
// missing inputs are rejected before any row is written.
func (s *Service) Submit(ctx context.Context, req Request) (*db.RenderJob, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid render request: %w", err)
	}

	if _, err := preset.Lookup(req.Preset); err != nil {
		return nil, err
	}

	for _, path := range []string{req.SourcePath, req.VoiceOverPath, req.SubtitlePath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
	}

	data, err := req.Data()
	if err != nil {
		return nil, err
	}

	q := s.dbc.Queries(ctx)
	job, err := q.InsertRenderJob(ctx, db.InsertRenderJobParams{
		ClipID:    req.ClipID,
		ProfileID: req.ProfileID,
		Data:      data,
	})
	if err != nil {
		if db.IsUniqueViolation(err, db.ActiveClipConstraint) {
			return nil, fmt.Errorf("%w: clip %s", ErrClipBusy, req.ClipID)
		}
		return nil, fmt.Errorf("insert render job: %w", err)
	}

	if err := q.NotifyRenderJob(ctx, job.ID); err != nil {
		// Workers poll every few seconds anyway; the job is not lost.
		slog.Warn("failed to notify render workers", "job_id", db.UUIDString(job.ID), "error", err)
	}

	slog.Info("render job submitted",
		"job_id", db.UUIDString(job.ID), "clip_id", req.ClipID, "preset", req.Preset)
	return job, nil
}

// Status returns the job visible within the profile scope.
func (s *Service) Status(ctx context.Context, id pgtype.UUID, profileID string) (*db.RenderJob, error) {
	job, err := s.dbc.Queries(ctx).GetRenderJob(ctx, id, profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get render job: %w", err)
	}
	return job, nil
}

// Jobs lists recent jobs for the profile scope, newest first.
func (s *Service) Jobs(ctx context.Context, profileID string, limit int32) ([]*db.RenderJob, error) {
	if limit <= 0 {
		limit = 50
	}
	jobs, err := s.dbc.Queries(ctx).ListRenderJobs(ctx, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("list render jobs: %w", err)
	}
	return jobs, nil
}

// Cancel fails a pending or processing job with a user-cancellation
// reason. For processing jobs the recorded encoder PID gets SIGTERM; the
// worker notices the terminal state on its next progress write and stops.
func (s *Service) Cancel(ctx context.Context, id pgtype.UUID, profileID string) error {
	q := s.dbc.Queries(ctx)

	job, err := q.GetRenderJob(ctx, id, profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("get render job: %w", err)
	}
	if job.Status.Terminal() {
		return ErrJobFinished
	}

	if job.Status == db.JobStatusProcessing && job.PID != nil && *job.PID > 0 {
		if proc, err := os.FindProcess(int(*job.PID)); err == nil {
			if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
				slog.Warn("failed to signal render process",
					"job_id", db.UUIDString(id), "pid", *job.PID, "error", err)
			}
		}
	}

	ok, err := q.CancelRenderJob(ctx, id, profileID, "canceled by user")
	if err != nil {
		return fmt.Errorf("cancel render job: %w", err)
	}
	if !ok {
		// Finished between the read and the update.
		return ErrJobFinished
	}

	slog.Info("render job canceled", "job_id", db.UUIDString(id))
	return nil
}

// Retry clones a failed job's request into a new pending job. The failed
// row stays untouched; terminal states are never rewritten.
func (s *Service) Retry(ctx context.Context, id pgtype.UUID, profileID string) (*db.RenderJob, error) {
	job, err := s.dbc.Queries(ctx).GetRenderJob(ctx, id, profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get render job: %w", err)
	}
	if job.Status != db.JobStatusFailed {
		return nil, ErrJobNotRetryable
	}

	req, err := RequestFromData(job.Data)
	if err != nil {
		return nil, err
	}

	// Submit re-validates everything: the preset could have been removed
	// or the source cleaned up since the original request.
	retried, err := s.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	slog.Info("render job retried",
		"job_id", db.UUIDString(retried.ID), "failed_job_id", db.UUIDString(id))
	return retried, nil
}
