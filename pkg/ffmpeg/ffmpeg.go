// Package ffmpeg builds and executes ffmpeg commands: composable
// options, process lifecycle with kill and progress reporting, loudness
// measurement, and an ffprobe wrapper.
package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Command is an ffmpeg invocation being assembled.
type Command struct {
	input        string
	output       string
	extraInputs  []string // additional -i inputs after the main one
	preInput     []string // args before -i, like -ss input seeking
	postInput    []string // args after -i
	filters      []string // collected -vf stages
	audioFilters []string // collected -af stages
}

// Option modifies a Command. The generated argument list depends only on
// the options applied, in application order within each group.
type Option interface {
	Apply(cmd *Command)
}

// OptionFunc adapts a function to the Option interface.
type OptionFunc func(cmd *Command)

// Apply implements Option.
func (f OptionFunc) Apply(cmd *Command) { f(cmd) }

// NewCommand creates a command for input and output and applies options.
func NewCommand(input, output string, opts ...Option) *Command {
	cmd := &Command{input: input, output: output}
	for _, opt := range opts {
		opt.Apply(cmd)
	}
	return cmd
}

// Build returns the complete argument list.
func (c *Command) Build() []string {
	args := []string{"-hide_banner", "-y"}
	args = append(args, c.preInput...)
	args = append(args, "-i", c.input)
	for _, input := range c.extraInputs {
		args = append(args, "-i", input)
	}
	args = append(args, c.postInput...)

	if len(c.filters) > 0 {
		args = append(args, "-vf", strings.Join(c.filters, ","))
	}
	if len(c.audioFilters) > 0 {
		args = append(args, "-af", strings.Join(c.audioFilters, ","))
	}

	// Social platforms stream from the first byte; mp4 output gets the
	// moov atom up front.
	if strings.EqualFold(filepath.Ext(c.output), ".mp4") {
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args, c.output)
	return args
}

// Run executes the command and waits for completion.
func (c *Command) Run(ctx context.Context) error {
	return run(ctx, c.Build(), nil)
}

// Start launches the command and returns a Process handle. The caller
// must Wait on or Kill the handle.
func (c *Command) Start(ctx context.Context) (*Process, error) {
	return Start(ctx, c.Build(), nil)
}

// StartWithProgress launches the command with status blocks delivered on
// progress.
func (c *Command) StartWithProgress(ctx context.Context, progress chan<- Progress) (*Process, error) {
	args := append([]string{"-progress", "pipe:1", "-nostats"}, c.Build()...)
	return Start(ctx, args, progress)
}

// Run builds and executes an ffmpeg command in one call.
func Run(ctx context.Context, input, output string, opts ...Option) error {
	return NewCommand(input, output, opts...).Run(ctx)
}

// --- Seeking ---

// Seek sets the start position. Seeking happens on the input side, before
// decoding.
func Seek(start time.Duration) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append(cmd.preInput, "-ss", formatDuration(start))
	})
}

// --- Video encoding ---

// VideoCodec selects the video encoder (-c:v).
func VideoCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:v", codec)
	})
}

// CRF sets the constant rate factor for software encoders.
func CRF(value int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-crf", strconv.Itoa(value))
	})
}

// Preset sets the encoder speed preset (ultrafast, veryfast, medium...).
func Preset(name string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-preset", name)
	})
}

// CQ sets the constant quality level hardware encoders use in place of
// CRF.
func CQ(value int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-cq", strconv.Itoa(value))
	})
}

// GOPSize sets the keyframe interval in frames (-g).
func GOPSize(frames int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-g", strconv.Itoa(frames))
	})
}

// FrameRate sets the output frame rate (-r).
func FrameRate(fps int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-r", strconv.Itoa(fps))
	})
}

// PixelFormat forces the output pixel format (-pix_fmt).
func PixelFormat(fmt string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-pix_fmt", fmt)
	})
}

// --- Audio encoding ---

// AudioCodec selects the audio encoder (-c:a).
func AudioCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:a", codec)
	})
}

// AudioBitrate sets the audio bitrate (-b:a), such as "128k".
func AudioBitrate(bitrate string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-b:a", bitrate)
	})
}

// AudioChannels sets the channel count (-ac).
func AudioChannels(n int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-ac", strconv.Itoa(n))
	})
}

// AudioSampleRate sets the sample rate in Hz (-ar).
func AudioSampleRate(hz int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-ar", strconv.Itoa(hz))
	})
}

// --- Stream selection ---

// CopyAll copies every stream without re-encoding (-c copy).
var CopyAll Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-c", "copy")
})

// MapAll maps all streams from the first input (-map 0).
var MapAll Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-map", "0")
})

// MapStream maps one stream by specifier, like "0:v:0" or "1:a:0".
func MapStream(spec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-map", spec)
	})
}

// ExtraInput adds an additional input after the main one. Select its
// streams with MapStream.
func ExtraInput(path string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.extraInputs = append(cmd.extraInputs, path)
	})
}

// Shortest ends the output with the shortest input stream (-shortest).
var Shortest Option = OptionFunc(func(cmd *Command) {
	cmd.postInput = append(cmd.postInput, "-shortest")
})

// --- Filters ---

// Filter appends a stage to the -vf chain.
func Filter(f string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.filters = append(cmd.filters, f)
	})
}

// AudioFilter appends a stage to the -af chain.
func AudioFilter(f string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.audioFilters = append(cmd.audioFilters, f)
	})
}

// Scale adds a scale stage. Pass -2 for one dimension to derive it from
// the aspect ratio with even pixels, as h264 requires.
func Scale(width, height int) Option {
	return Filter(fmt.Sprintf("scale=%d:%d", width, height))
}

// ScaleWidth scales to width, deriving an even height.
func ScaleWidth(width int) Option {
	return Scale(width, -2)
}

// --- Still images ---

// Frames limits the number of output video frames (-frames:v).
func Frames(n int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-frames:v", strconv.Itoa(n))
	})
}

// Quality sets the image quality scale (-q:v), lower is better.
func Quality(q int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-q:v", strconv.Itoa(q))
	})
}

// formatDuration renders a duration as seconds with millisecond
// precision, the form ffmpeg accepts everywhere.
func formatDuration(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
