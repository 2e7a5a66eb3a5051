package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5/pgtype"

	"thirdcoast.systems/clipforge/internal/config"
	"thirdcoast.systems/clipforge/internal/db"
	"thirdcoast.systems/clipforge/pkg/ffmpeg"
	"thirdcoast.systems/clipforge/pkg/filters"
	"thirdcoast.systems/clipforge/pkg/preset"
	"thirdcoast.systems/clipforge/pkg/subtitles"
	"thirdcoast.systems/clipforge/pkg/utils/filename"
)

// Progress checkpoints. The encode itself fills the band between
// progressMeasured and progressEncodeCap; 100 is set by the completion
// update.
const (
	progressProbed    = 5
	progressMeasured  = 10
	progressEncodeCap = 99
)

// errCanceled means the job turned terminal underneath the executor, so
// its work was discarded. The follow-up failure update is a no-op.
var errCanceled = errors.New("render canceled")

// Executor runs one claimed render job end to end: probe, loudness
// measurement, filter chain, encode, output validation.
type Executor struct {
	dbc  *db.DatabaseConnection
	conf config.Config
}

// NewExecutor creates an executor bound to the database and config.
func NewExecutor(dbc *db.DatabaseConnection, conf config.Config) *Executor {
	return &Executor{dbc: dbc, conf: conf}
}

// Execute processes a job already claimed as processing. A nil return
// means the job was marked completed; any error leaves the failure update
// to the caller. Scratch files are removed on every path.
func (e *Executor) Execute(ctx context.Context, job *db.RenderJob) error {
	jobID := db.UUIDString(job.ID)
	q := e.dbc.Queries(ctx)

	req, err := RequestFromData(job.Data)
	if err != nil {
		return err
	}

	p, err := preset.Lookup(req.Preset)
	if err != nil {
		return err
	}

	slog.Info("processing render", "job_id", jobID, "clip_id", req.ClipID, "preset", p.Name)

	if _, err := os.Stat(req.SourcePath); err != nil {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, req.SourcePath)
	}

	// Job-scoped scratch space, removed on success and failure alike.
	workDir := filepath.Join(e.conf.WorkRoot, jobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	src, err := ffmpeg.Probe(ctx, req.SourcePath)
	if err != nil {
		return fmt.Errorf("probe source: %w", err)
	}
	if src.VideoStreams == 0 {
		return fmt.Errorf("source has no video stream: %s", req.SourcePath)
	}
	slog.Debug("probed source",
		"job_id", jobID, "width", src.Width, "height", src.Height,
		"duration", src.Duration, "video_codec", src.VideoCodec,
		"audio_streams", src.AudioStreams)
	if !e.reportProgress(ctx, job.ID, progressProbed) {
		return errCanceled
	}

	audioFilter, err := e.loudnessFilter(ctx, jobID, p, req, src)
	if err != nil {
		return err
	}
	if !e.reportProgress(ctx, job.ID, progressMeasured) {
		return errCanceled
	}

	var track *subtitles.Track
	if req.SubtitlePath != "" {
		if _, err := os.Stat(req.SubtitlePath); err != nil {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, req.SubtitlePath)
		}
		track, err = subtitles.LoadTrack(req.SubtitlePath)
		if err != nil {
			// Burn-in still works from the raw file; only adaptive sizing
			// needs the parsed track.
			slog.Warn("failed to parse subtitle track", "job_id", jobID, "error", err)
			track = nil
		}
	}

	chain := filters.Build(filters.ChainInput{
		Width:        p.Width,
		Height:       p.Height,
		Filters:      req.Filters.WithDefaults(p.Filters),
		SubtitlePath: req.SubtitlePath,
		Style:        req.Style,
		Track:        track,
	})

	outDir := filepath.Join(e.conf.OutputRoot, jobID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	outputPath := filepath.Join(outDir, outputName(req.ClipID, p))

	opts := buildEncodeOptions(p, chain, audioFilter, req.VoiceOverPath, e.conf.HardwareEncoding)

	progressCh := make(chan ffmpeg.Progress, 100)
	cmd := ffmpeg.NewCommand(req.SourcePath, outputPath, opts...)
	proc, err := cmd.StartWithProgress(ctx, progressCh)
	if err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	// Store the PID so Cancel can signal the encode directly.
	if ok, err := q.SetRenderJobPID(ctx, job.ID, int32(proc.PID())); err != nil {
		slog.Warn("failed to store ffmpeg PID", "job_id", jobID, "pid", proc.PID(), "error", err)
	} else if !ok {
		_ = proc.Kill()
		<-proc.Done()
		return errCanceled
	}

	canceled := e.trackProgress(ctx, job.ID, proc, progressCh, src.Duration)

	if err := proc.Wait(); err != nil {
		_ = os.Remove(outputPath)
		if canceled {
			return errCanceled
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	if canceled {
		_ = os.Remove(outputPath)
		return errCanceled
	}

	st, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("output file missing: %w", err)
	}
	if st.Size() == 0 {
		_ = os.Remove(outputPath)
		return fmt.Errorf("output validation failed: empty file")
	}

	out, err := ffmpeg.Probe(ctx, outputPath)
	if err != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("output validation failed (ffprobe): %w", err)
	}
	if out.Duration < 0.5 {
		_ = os.Remove(outputPath)
		return fmt.Errorf("output validation failed: duration too short (%.2fs)", out.Duration)
	}

	warnPlatformLimits(jobID, p, out.Duration, st.Size())

	result := map[string]any{
		"output_path": outputPath,
		"size_bytes":  st.Size(),
		"size":        humanize.Bytes(uint64(st.Size())),
		"duration":    out.Duration,
	}
	if thumb := e.extractThumbnail(ctx, jobID, outputPath, outDir, out.Duration); thumb != "" {
		result["thumbnail_path"] = thumb
	}

	ok, err := q.FinishRenderJobCompleted(ctx, job.ID, db.JobData{"result": result})
	if err != nil {
		return fmt.Errorf("mark render completed: %w", err)
	}
	if !ok {
		// Canceled during the final probe; the output is unwanted.
		_ = os.RemoveAll(outDir)
		return errCanceled
	}

	slog.Info("render complete",
		"job_id", jobID, "clip_id", req.ClipID, "output", outputPath,
		"size", humanize.Bytes(uint64(st.Size())), "duration", out.Duration)
	return nil
}

// loudnessFilter returns the -af value implementing the preset's loudness
// normalization: a measure pass feeding a linear apply pass, falling back
// to one-pass dynamic mode when measurement fails.
func (e *Executor) loudnessFilter(ctx context.Context, jobID string, p preset.Preset, req Request, src *ffmpeg.ProbeResult) (string, error) {
	if !p.NormalizeAudio {
		return "", nil
	}

	measureInput := req.SourcePath
	if req.VoiceOverPath != "" {
		measureInput = req.VoiceOverPath
	} else if src.AudioStreams == 0 {
		return "", nil
	}

	targets := ffmpeg.LoudnormTargets{
		Integrated: p.LoudnessTarget,
		TruePeak:   p.LoudnessTruePeak,
		Range:      p.LoudnessRange,
	}

	stats, err := ffmpeg.MeasureLoudness(ctx, measureInput, targets)
	if err != nil {
		slog.Warn("loudness measurement failed, falling back to one-pass",
			"job_id", jobID, "error", err)
		return ffmpeg.LoudnormFilter(targets), nil
	}
	return stats.ApplyFilter(targets), nil
}

// trackProgress drains the progress channel into throttled database
// updates mapped onto the encode band. A zero-row update means the job
// was canceled: the process is killed and true is returned.
func (e *Executor) trackProgress(ctx context.Context, id pgtype.UUID, proc *ffmpeg.Process, progressCh <-chan ffmpeg.Progress, durationSec float64) bool {
	q := e.dbc.Queries(ctx)
	jobID := db.UUIDString(id)

	canceled := false
	lastPct := int32(-1)
	lastUpdate := time.Time{}
	for progress := range progressCh {
		if canceled || durationSec <= 0 {
			continue
		}
		pct := encodeProgressPct(progress.OutTime(), durationSec)
		now := time.Now()
		if pct == lastPct || now.Sub(lastUpdate) < time.Second {
			continue
		}
		lastPct = pct
		lastUpdate = now

		ok, err := q.UpdateRenderJobProgress(ctx, id, pct)
		if err != nil {
			slog.Warn("failed to update render progress", "job_id", jobID, "error", err)
			continue
		}
		if !ok {
			slog.Info("render canceled, stopping encode", "job_id", jobID)
			_ = proc.Kill()
			canceled = true
		}
	}
	return canceled
}

// reportProgress records a checkpoint. False means the job is no longer
// processing and the executor must stop.
func (e *Executor) reportProgress(ctx context.Context, id pgtype.UUID, pct int32) bool {
	ok, err := e.dbc.Queries(ctx).UpdateRenderJobProgress(ctx, id, pct)
	if err != nil {
		// Transient database trouble shouldn't kill a running encode.
		slog.Warn("failed to update render progress", "job_id", db.UUIDString(id), "error", err)
		return true
	}
	return ok
}

// extractThumbnail grabs a poster frame next to the output. Failures only
// cost the thumbnail, never the render.
func (e *Executor) extractThumbnail(ctx context.Context, jobID, outputPath, outDir string, durationSec float64) string {
	offset := 5 * time.Second
	if half := time.Duration(durationSec / 2 * float64(time.Second)); half < offset {
		offset = half
	}

	thumbPath := filepath.Join(outDir, "thumbnail.jpg")
	err := ffmpeg.ExtractThumbnail(ctx, outputPath, thumbPath, &ffmpeg.ThumbnailOptions{Offset: offset})
	if err != nil {
		slog.Warn("thumbnail extraction failed", "job_id", jobID, "error", err)
		return ""
	}
	return thumbPath
}

// encodeProgressPct maps ffmpeg's out_time against the source duration
// into the encode stage's progress band.
func encodeProgressPct(outTime time.Duration, durationSec float64) int32 {
	pct := progressMeasured + int32(outTime.Seconds()/durationSec*float64(progressEncodeCap-progressMeasured))
	return min(max(pct, progressMeasured), progressEncodeCap)
}

// buildEncodeOptions assembles the ffmpeg options for the final encode.
// Hardware encoding is allowed only when enabled AND the chain applies no
// enhancement filters; mixing CPU filters into a hardware pipeline forces
// frame transfers that cost more than they save.
func buildEncodeOptions(p preset.Preset, chain filters.Chain, audioFilter, voiceOverPath string, hardware bool) []ffmpeg.Option {
	var video []ffmpeg.Option
	if hardware && p.HardwareCodec != "" && !chain.HasEnhancements() {
		video = ffmpeg.PresetHardware(p.HardwareCodec, p.CRF, p.PixelFormat)
	} else {
		video = ffmpeg.PresetX264(p.CRF, p.Speed, p.PixelFormat)
	}

	opts := ffmpeg.Flatten(
		video,
		ffmpeg.PresetAudio(p.AudioCodec, p.AudioBitrate, p.AudioSampleRate),
	)
	opts = append(opts,
		ffmpeg.FrameRate(p.FrameRate),
		ffmpeg.GOPSize(p.GOPSize),
		ffmpeg.Filter(chain.Join()),
	)
	if audioFilter != "" {
		opts = append(opts, ffmpeg.AudioFilter(audioFilter))
	}
	if voiceOverPath != "" {
		// Video from the source, audio from the voice-over.
		opts = append(opts,
			ffmpeg.ExtraInput(voiceOverPath),
			ffmpeg.MapStream("0:v:0"),
			ffmpeg.MapStream("1:a:0"),
			ffmpeg.Shortest,
		)
	}
	return opts
}

// outputName builds the output filename from the clip id and preset.
func outputName(clipID string, p preset.Preset) string {
	base := filename.Sanitize(clipID+"_"+p.Name, 0)
	if base == "" {
		base = "render"
	}
	return base + "." + p.Container
}

// warnPlatformLimits logs when the output exceeds the platform's
// documented upload limits. Advisory only: the render still completes.
func warnPlatformLimits(jobID string, p preset.Preset, durationSec float64, sizeBytes int64) {
	if p.MaxDuration > 0 && durationSec > p.MaxDuration.Seconds() {
		slog.Warn("output exceeds platform duration limit",
			"job_id", jobID, "preset", p.Name,
			"duration", durationSec, "limit_seconds", p.MaxDuration.Seconds())
	}
	if p.MaxFileSize > 0 && sizeBytes > p.MaxFileSize {
		slog.Warn("output exceeds platform size limit",
			"job_id", jobID, "preset", p.Name,
			"size", humanize.Bytes(uint64(sizeBytes)), "limit", humanize.Bytes(uint64(p.MaxFileSize)))
	}
}
