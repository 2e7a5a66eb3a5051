package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeResult is the metadata a render needs from a media file: geometry
// and codecs of the first video and audio streams, stream counts, and
// container-level figures.
type ProbeResult struct {
	Width       int
	Height      int
	FPS         float64
	VideoCodec  string
	PixelFormat string

	AudioCodec      string
	AudioChannels   int
	AudioSampleRate int

	Duration   float64 // seconds
	Bitrate    int64   // bits per second
	Size       int64   // bytes
	FormatName string

	VideoStreams int
	AudioStreams int
}

// probePayload mirrors the ffprobe JSON fields we read. ffprobe encodes
// most numbers as strings.
type probePayload struct {
	Format struct {
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
		Size       string `json:"size"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`

		Width       int    `json:"width"`
		Height      int    `json:"height"`
		RFrameRate  string `json:"r_frame_rate"`
		PixelFormat string `json:"pix_fmt"`

		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Probe runs ffprobe against path and returns the parsed metadata.
func Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-hide_banner", "-v", "error",
		"-of", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	var payload probePayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("ffprobe: parse output: %w", err)
	}

	result := &ProbeResult{FormatName: payload.Format.FormatName}
	result.Duration, _ = strconv.ParseFloat(payload.Format.Duration, 64)
	result.Bitrate, _ = strconv.ParseInt(payload.Format.BitRate, 10, 64)
	result.Size, _ = strconv.ParseInt(payload.Format.Size, 10, 64)

	// Geometry and codec details come from the first stream of each kind.
	for _, stream := range payload.Streams {
		switch stream.CodecType {
		case "video":
			if result.VideoStreams == 0 {
				result.VideoCodec = stream.CodecName
				result.PixelFormat = stream.PixelFormat
				result.Width = stream.Width
				result.Height = stream.Height
				result.FPS = parseFrameRate(stream.RFrameRate)
			}
			result.VideoStreams++
		case "audio":
			if result.AudioStreams == 0 {
				result.AudioCodec = stream.CodecName
				result.AudioChannels = stream.Channels
				result.AudioSampleRate, _ = strconv.Atoi(stream.SampleRate)
			}
			result.AudioStreams++
		}
	}
	return result, nil
}

// parseFrameRate reads ffprobe's rational frame rate, like "30/1" or
// "30000/1001".
func parseFrameRate(rate string) float64 {
	numStr, denStr, ok := strings.Cut(rate, "/")
	if !ok {
		return 0
	}
	num, err1 := strconv.Atoi(numStr)
	den, err2 := strconv.Atoi(denStr)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
