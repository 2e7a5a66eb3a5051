package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandBuild(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
		opts   []Option
		want   []string
	}{
		{
			name:   "stream copy",
			input:  "in.mkv",
			output: "out.mp4",
			opts:   []Option{CopyAll},
			want: []string{
				"-hide_banner", "-y",
				"-i", "in.mkv",
				"-c", "copy",
				"-movflags", "+faststart",
				"out.mp4",
			},
		},
		{
			name:   "input seeking",
			input:  "in.mp4",
			output: "out.mp4",
			opts: []Option{
				Seek(7500 * time.Millisecond),
				CopyAll,
			},
			want: []string{
				"-hide_banner", "-y",
				"-ss", "7.500",
				"-i", "in.mp4",
				"-c", "copy",
				"-movflags", "+faststart",
				"out.mp4",
			},
		},
		{
			name:   "software encode bundle",
			input:  "in.mp4",
			output: "out.mp4",
			opts:   Flatten(PresetX264(23, "veryfast", "yuv420p"), PresetAudio("aac", "128k", 44100)),
			want: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-c:v", "libx264",
				"-crf", "23",
				"-preset", "veryfast",
				"-pix_fmt", "yuv420p",
				"-c:a", "aac",
				"-b:a", "128k",
				"-ar", "44100",
				"-ac", "2",
				"-movflags", "+faststart",
				"out.mp4",
			},
		},
		{
			name:   "hardware encode bundle",
			input:  "in.mp4",
			output: "out.mp4",
			opts:   PresetHardware("h264_nvenc", 23, "yuv420p"),
			want: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-c:v", "h264_nvenc",
				"-cq", "23",
				"-pix_fmt", "yuv420p",
				"-movflags", "+faststart",
				"out.mp4",
			},
		},
		{
			name:   "video filters are combined",
			input:  "in.mp4",
			output: "out.mp4",
			opts: []Option{
				Scale(1080, 1920),
				Filter("crop=1080:1920"),
				AudioCodec("aac"),
			},
			want: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-c:a", "aac",
				"-vf", "scale=1080:1920,crop=1080:1920",
				"-movflags", "+faststart",
				"out.mp4",
			},
		},
		{
			name:   "audio filters separate from video",
			input:  "in.mp4",
			output: "out.mp4",
			opts: []Option{
				Filter("crop=1080:1920"),
				AudioFilter("loudnorm=I=-14:TP=-1.5:LRA=11"),
			},
			want: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-vf", "crop=1080:1920",
				"-af", "loudnorm=I=-14:TP=-1.5:LRA=11",
				"-movflags", "+faststart",
				"out.mp4",
			},
		},
		{
			name:   "rate control",
			input:  "in.mp4",
			output: "out.mp4",
			opts: []Option{
				VideoCodec("libx264"),
				GOPSize(60),
				FrameRate(30),
			},
			want: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-c:v", "libx264",
				"-g", "60",
				"-r", "30",
				"-movflags", "+faststart",
				"out.mp4",
			},
		},
		{
			name:   "thumbnail frame",
			input:  "in.mp4",
			output: "frame.jpg",
			opts: []Option{
				Seek(3 * time.Second),
				ScaleWidth(540),
				Frames(1),
				Quality(4),
			},
			want: []string{
				"-hide_banner", "-y",
				"-ss", "3.000",
				"-i", "in.mp4",
				"-frames:v", "1",
				"-q:v", "4",
				"-vf", "scale=540:-2",
				"frame.jpg",
			},
		},
		{
			name:   "voice-over replaces audio",
			input:  "in.mp4",
			output: "out.mp4",
			opts: []Option{
				VideoCodec("libx264"),
				AudioCodec("aac"),
				ExtraInput("voice.m4a"),
				MapStream("0:v:0"),
				MapStream("1:a:0"),
				Shortest,
			},
			want: []string{
				"-hide_banner", "-y",
				"-i", "in.mp4",
				"-i", "voice.m4a",
				"-c:v", "libx264",
				"-c:a", "aac",
				"-map", "0:v:0",
				"-map", "1:a:0",
				"-shortest",
				"-movflags", "+faststart",
				"out.mp4",
			},
		},
		{
			name:   "webm output skips faststart",
			input:  "in.mkv",
			output: "out.webm",
			opts:   []Option{CopyAll},
			want: []string{
				"-hide_banner", "-y",
				"-i", "in.mkv",
				"-c", "copy",
				"out.webm",
			},
		},
		{
			name:   "full vertical render",
			input:  "source.mp4",
			output: "clip_tiktok.mp4",
			opts: append(
				Flatten(PresetX264(23, "veryfast", "yuv420p"), PresetAudio("aac", "128k", 44100)),
				FrameRate(30),
				GOPSize(60),
				Filter("scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920"),
				AudioFilter("loudnorm=I=-14:TP=-1.5:LRA=11"),
			),
			want: []string{
				"-hide_banner", "-y",
				"-i", "source.mp4",
				"-c:v", "libx264",
				"-crf", "23",
				"-preset", "veryfast",
				"-pix_fmt", "yuv420p",
				"-c:a", "aac",
				"-b:a", "128k",
				"-ar", "44100",
				"-ac", "2",
				"-r", "30",
				"-g", "60",
				"-vf", "scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920",
				"-af", "loudnorm=I=-14:TP=-1.5:LRA=11",
				"-movflags", "+faststart",
				"clip_tiktok.mp4",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCommand(tt.input, tt.output, tt.opts...)
			assert.Equal(t, tt.want, cmd.Build())
		})
	}
}

func TestReadProgress(t *testing.T) {
	input := strings.Join([]string{
		"frame=218",
		"fps=29.97",
		"bitrate=2216.3kbits/s",
		"total_size=8425712",
		"out_time_us=7640000",
		"speed=1.9x",
		"progress=continue",
		"frame=451",
		"out_time_us=15080000",
		"progress=end",
	}, "\n")

	ch := make(chan Progress, 4)
	readProgress(strings.NewReader(input), ch)
	close(ch)

	var got []Progress
	for p := range ch {
		got = append(got, p)
	}
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, int64(218), first.Frame)
	assert.Equal(t, 29.97, first.FPS)
	assert.Equal(t, "2216.3kbits/s", first.Bitrate)
	assert.Equal(t, int64(8425712), first.TotalSize)
	assert.Equal(t, 7640*time.Millisecond, first.OutTime())
	assert.Equal(t, "1.9x", first.Speed)
	assert.Equal(t, "continue", first.Progress)

	last := got[1]
	assert.Equal(t, int64(451), last.Frame)
	assert.Equal(t, 15080*time.Millisecond, last.OutTime())
	assert.Equal(t, "end", last.Progress)
	// Fields absent from the final block carry over.
	assert.Equal(t, 29.97, last.FPS)
}

func TestReadProgressIgnoresNoise(t *testing.T) {
	input := "garbage line\n\nframe=1\nprogress=end\n"
	ch := make(chan Progress, 1)
	readProgress(strings.NewReader(input), ch)
	close(ch)

	p, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, int64(1), p.Frame)
	assert.Equal(t, "end", p.Progress)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want string
	}{
		{0, "0.000"},
		{750 * time.Millisecond, "0.750"},
		{3 * time.Second, "3.000"},
		{90 * time.Second, "90.000"},
		{time.Hour + 30*time.Minute + 45*time.Second + 500*time.Millisecond, "5445.500"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.dur))
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{
		Args:   []string{"-i", "in.mp4", "out.mp4"},
		Stderr: "config line\nstream line\nframe line\nError opening output\nConversion failed!",
		Err:    errors.New("exit status 1"),
	}

	msg := err.Error()
	assert.Contains(t, msg, "exit status 1")
	assert.Contains(t, msg, "Conversion failed!")
	assert.NotContains(t, msg, "config line")

	assert.Equal(t, "ffmpeg -i in.mp4 out.mp4", err.Command())
	assert.EqualError(t, errors.Unwrap(err), "exit status 1")
}

const loudnormStderr = `[aac @ 0x5590] Qavg: 236.000
[Parsed_loudnorm_0 @ 0x5591]
{
	"input_i" : "-27.61",
	"input_tp" : "-4.47",
	"input_lra" : "18.06",
	"input_thresh" : "-39.20",
	"output_i" : "-14.47",
	"output_tp" : "-1.50",
	"output_lra" : "11.30",
	"output_thresh" : "-25.90",
	"normalization_type" : "dynamic",
	"target_offset" : "0.47"
}
`

func TestParseLoudnormStats(t *testing.T) {
	stats, err := ParseLoudnormStats(loudnormStderr)
	require.NoError(t, err)

	assert.Equal(t, "-27.61", stats.InputI)
	assert.Equal(t, "-4.47", stats.InputTP)
	assert.Equal(t, "18.06", stats.InputLRA)
	assert.Equal(t, "-39.20", stats.InputThresh)
	assert.Equal(t, "0.47", stats.TargetOffset)
}

func TestParseLoudnormStatsErrors(t *testing.T) {
	_, err := ParseLoudnormStats("frame=100\nspeed=2x\n")
	assert.Error(t, err)

	_, err = ParseLoudnormStats("[Parsed_loudnorm_0 @ 0x1] no json here")
	assert.Error(t, err)

	_, err = ParseLoudnormStats(`[Parsed_loudnorm_0 @ 0x1] {"output_i": "-14"}`)
	assert.Error(t, err)
}

func TestLoudnormFilters(t *testing.T) {
	targets := LoudnormTargets{Integrated: -14, TruePeak: -1.5, Range: 11}
	assert.Equal(t, "loudnorm=I=-14:TP=-1.5:LRA=11", LoudnormFilter(targets))

	stats, err := ParseLoudnormStats(loudnormStderr)
	require.NoError(t, err)

	want := "loudnorm=I=-14:TP=-1.5:LRA=11" +
		":measured_I=-27.61:measured_TP=-4.47:measured_LRA=18.06" +
		":measured_thresh=-39.20:offset=0.47:linear=true"
	assert.Equal(t, want, stats.ApplyFilter(targets))
}

// =============================================================================
// Integration tests - require ffmpeg and ffprobe on PATH
// =============================================================================

// makeSourceClip encodes a short test-pattern clip with a sine tone
// audio track, standing in for real source footage.
func makeSourceClip(t *testing.T, duration time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	durStr := formatDuration(duration)
	args := []string{
		"-hide_banner", "-y",
		"-f", "lavfi", "-i", "testsrc2=duration=" + durStr + ":size=320x240:rate=30",
		"-f", "lavfi", "-i", "sine=frequency=440:sample_rate=44100:duration=" + durStr,
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "28",
		"-c:a", "aac", "-b:a", "64k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		path,
	}

	proc, err := Start(ctx, args, nil)
	require.NoError(t, err)
	require.NoError(t, proc.Wait(), "generate fixture: %s", proc.Stderr())
	return path
}

func TestIntegration_Remux(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := makeSourceClip(t, 2*time.Second)
	output := filepath.Join(t.TempDir(), "remux.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, Run(ctx, input, output, CopyAll, MapAll))

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestIntegration_VerticalEncode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := makeSourceClip(t, 2*time.Second)
	output := filepath.Join(t.TempDir(), "vertical.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	opts := Flatten(PresetX264(28, "ultrafast", "yuv420p"), PresetAudio("aac", "64k", 44100))
	opts = append(opts,
		Filter("scale=270:480:force_original_aspect_ratio=increase"),
		Filter("crop=270:480"),
	)
	require.NoError(t, Run(ctx, input, output, opts...))

	result, err := Probe(ctx, output)
	require.NoError(t, err)
	assert.Equal(t, 270, result.Width)
	assert.Equal(t, 480, result.Height)
	assert.InDelta(t, 2.0, result.Duration, 0.5)
}

func TestIntegration_ExtractThumbnail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := makeSourceClip(t, 3*time.Second)
	output := filepath.Join(t.TempDir(), "poster.jpg")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := ExtractThumbnail(ctx, input, output, &ThumbnailOptions{
		Offset:   1500 * time.Millisecond,
		MaxWidth: 240,
		Quality:  6,
	})
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestIntegration_MeasureLoudness(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := makeSourceClip(t, 3*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	targets := LoudnormTargets{Integrated: -14, TruePeak: -1.5, Range: 11}
	stats, err := MeasureLoudness(ctx, input, targets)
	require.NoError(t, err)

	assert.NotEmpty(t, stats.InputI)
	assert.NotEmpty(t, stats.InputTP)
	assert.NotEmpty(t, stats.TargetOffset)
}

func TestIntegration_ProcessLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := makeSourceClip(t, 2*time.Second)
	output := filepath.Join(t.TempDir(), "lifecycle.mp4")

	proc, err := NewCommand(input, output, CopyAll, MapAll).Start(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, proc.PID())

	require.NoError(t, proc.Wait())

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestIntegration_ProcessTerminate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	output := filepath.Join(t.TempDir(), "never_finished.mp4")

	// A deliberately slow encode that will be interrupted.
	args := []string{
		"-hide_banner", "-y",
		"-f", "lavfi", "-i", "testsrc2=duration=60:size=640x480:rate=30",
		"-c:v", "libx264", "-preset", "veryslow",
		"-pix_fmt", "yuv420p",
		output,
	}

	proc, err := Start(context.Background(), args, nil)
	require.NoError(t, err)
	require.NotZero(t, proc.PID())

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, proc.Terminate())

	assert.Error(t, proc.Wait())
}

func TestIntegration_Progress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := makeSourceClip(t, 3*time.Second)
	output := filepath.Join(t.TempDir(), "progress.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Re-encode rather than copy so the encode is slow enough to report.
	opts := Flatten(PresetX264(28, "ultrafast", "yuv420p"), PresetAudio("aac", "64k", 44100))
	progress := make(chan Progress, 100)
	proc, err := NewCommand(input, output, opts...).StartWithProgress(ctx, progress)
	require.NoError(t, err)

	var updates []Progress
	for p := range progress {
		updates = append(updates, p)
	}
	require.NoError(t, proc.Wait())

	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, "end", last.Progress)
	assert.Greater(t, last.Frame, int64(0))
	assert.Greater(t, last.OutTime(), time.Duration(0))
}

func TestIntegration_Probe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := makeSourceClip(t, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := Probe(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, 320, result.Width)
	assert.Equal(t, 240, result.Height)
	assert.InDelta(t, 2.0, result.Duration, 0.5)
	assert.InDelta(t, 30.0, result.FPS, 1.0)
	assert.Equal(t, "h264", result.VideoCodec)
	assert.Equal(t, "yuv420p", result.PixelFormat)

	assert.Equal(t, "aac", result.AudioCodec)
	assert.Equal(t, 1, result.AudioChannels)
	assert.Equal(t, 44100, result.AudioSampleRate)

	assert.Equal(t, 1, result.VideoStreams)
	assert.Equal(t, 1, result.AudioStreams)

	assert.Contains(t, result.FormatName, "mp4")
	assert.Greater(t, result.Size, int64(0))
	assert.Greater(t, result.Bitrate, int64(0))

	_, err = Probe(ctx, filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)
}
