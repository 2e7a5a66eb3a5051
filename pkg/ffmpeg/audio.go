package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LoudnormTargets are the targets for EBU R128 loudness normalization.
type LoudnormTargets struct {
	Integrated float64 // LUFS
	TruePeak   float64 // dBTP
	Range      float64 // LU
}

// LoudnormStats is the measurement the loudnorm filter prints after its
// analysis pass. ffmpeg encodes every number as a JSON string.
type LoudnormStats struct {
	InputI       string `json:"input_i"`
	InputTP      string `json:"input_tp"`
	InputLRA     string `json:"input_lra"`
	InputThresh  string `json:"input_thresh"`
	TargetOffset string `json:"target_offset"`
}

// LoudnormFilter returns the one-pass loudnorm filter for the given
// targets. Prefer the two-pass flow via MeasureLoudness and ApplyFilter;
// one-pass mode adjusts gain dynamically over the clip.
func LoudnormFilter(t LoudnormTargets) string {
	return "loudnorm=I=" + ftoa(t.Integrated) +
		":TP=" + ftoa(t.TruePeak) +
		":LRA=" + ftoa(t.Range)
}

// ApplyFilter returns the loudnorm filter for the encoding pass, feeding
// the measured values back in. linear=true applies a single gain to the
// whole clip instead of dynamic compression.
func (s *LoudnormStats) ApplyFilter(t LoudnormTargets) string {
	return LoudnormFilter(t) +
		":measured_I=" + s.InputI +
		":measured_TP=" + s.InputTP +
		":measured_LRA=" + s.InputLRA +
		":measured_thresh=" + s.InputThresh +
		":offset=" + s.TargetOffset +
		":linear=true"
}

// MeasureLoudness runs the loudnorm analysis pass against input's audio
// and parses the stats block from stderr. The input is decoded but no
// output file is written.
func MeasureLoudness(ctx context.Context, input string, targets LoudnormTargets) (*LoudnormStats, error) {
	args := []string{
		"-hide_banner", "-nostats",
		"-i", input,
		"-vn",
		"-af", LoudnormFilter(targets) + ":print_format=json",
		"-f", "null", "-",
	}
	result := runCapture(ctx, args)
	if result.Err != nil {
		return nil, result.Err
	}
	return ParseLoudnormStats(result.Logs)
}

// ParseLoudnormStats extracts the JSON stats block that loudnorm prints at
// the end of its analysis pass.
func ParseLoudnormStats(stderr string) (*LoudnormStats, error) {
	idx := strings.LastIndex(stderr, "[Parsed_loudnorm")
	if idx < 0 {
		return nil, fmt.Errorf("loudnorm: no stats block in ffmpeg output")
	}
	tail := stderr[idx:]
	start := strings.Index(tail, "{")
	end := strings.Index(tail, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("loudnorm: malformed stats block")
	}
	var stats LoudnormStats
	if err := json.Unmarshal([]byte(tail[start:end+1]), &stats); err != nil {
		return nil, fmt.Errorf("loudnorm: parse stats: %w", err)
	}
	if stats.InputI == "" || stats.TargetOffset == "" {
		return nil, fmt.Errorf("loudnorm: stats block incomplete")
	}
	return &stats, nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
