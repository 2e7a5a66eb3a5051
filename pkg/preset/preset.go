// Package preset defines the encoding profiles for the short-form
// platforms a clip can target.
package preset

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"thirdcoast.systems/clipforge/pkg/filters"
)

// ErrUnknown is returned by Lookup for preset names not in the registry.
var ErrUnknown = errors.New("unknown encoding preset")

// Streaming loudness targets shared by the social presets.
const (
	defaultLoudnessTarget   = -14.0
	defaultLoudnessTruePeak = -1.5
	defaultLoudnessRange    = 11.0
)

// Preset is one encoding profile. All profiles target vertical 9:16
// output; they differ in quality, audio handling, and platform limits.
type Preset struct {
	Name      string
	Width     int
	Height    int
	FrameRate int

	VideoCodec string
	// HardwareCodec is the encoder used when hardware encoding is enabled
	// and the render applies no enhancement filters.
	HardwareCodec string
	PixelFormat   string
	CRF           int
	// Speed is the encoder preset name, e.g. "veryfast" or "medium".
	Speed   string
	GOPSize int

	AudioCodec      string
	AudioBitrate    string
	AudioSampleRate int

	NormalizeAudio   bool
	LoudnessTarget   float64
	LoudnessTruePeak float64
	LoudnessRange    float64

	// Platform limits. Zero means the platform documents no limit; they
	// are advisory and only produce warnings.
	MaxDuration time.Duration
	MaxFileSize int64

	Container string

	// Filters is the default enhancement set used for any filter the
	// request leaves unconfigured. Every built-in preset ships with all
	// of them disabled.
	Filters filters.VideoFilters
}

var registry = map[string]Preset{
	"tiktok": {
		Name:             "tiktok",
		Width:            1080,
		Height:           1920,
		FrameRate:        30,
		VideoCodec:       "libx264",
		HardwareCodec:    "h264_nvenc",
		PixelFormat:      "yuv420p",
		CRF:              23,
		Speed:            "veryfast",
		GOPSize:          60,
		AudioCodec:       "aac",
		AudioBitrate:     "128k",
		AudioSampleRate:  44100,
		NormalizeAudio:   true,
		LoudnessTarget:   defaultLoudnessTarget,
		LoudnessTruePeak: defaultLoudnessTruePeak,
		LoudnessRange:    defaultLoudnessRange,
		MaxDuration:      180 * time.Second,
		MaxFileSize:      287 * 1024 * 1024,
		Container:        "mp4",
	},
	"instagram_reels": {
		Name:             "instagram_reels",
		Width:            1080,
		Height:           1920,
		FrameRate:        30,
		VideoCodec:       "libx264",
		HardwareCodec:    "h264_nvenc",
		PixelFormat:      "yuv420p",
		CRF:              23,
		Speed:            "veryfast",
		GOPSize:          60,
		AudioCodec:       "aac",
		AudioBitrate:     "128k",
		AudioSampleRate:  44100,
		NormalizeAudio:   true,
		LoudnessTarget:   defaultLoudnessTarget,
		LoudnessTruePeak: defaultLoudnessTruePeak,
		LoudnessRange:    defaultLoudnessRange,
		MaxDuration:      90 * time.Second,
		MaxFileSize:      250 * 1024 * 1024,
		Container:        "mp4",
	},
	"youtube_shorts": {
		Name:             "youtube_shorts",
		Width:            1080,
		Height:           1920,
		FrameRate:        30,
		VideoCodec:       "libx264",
		HardwareCodec:    "h264_nvenc",
		PixelFormat:      "yuv420p",
		CRF:              21,
		Speed:            "medium",
		GOPSize:          60,
		AudioCodec:       "aac",
		AudioBitrate:     "192k",
		AudioSampleRate:  48000,
		NormalizeAudio:   true,
		LoudnessTarget:   defaultLoudnessTarget,
		LoudnessTruePeak: defaultLoudnessTruePeak,
		LoudnessRange:    defaultLoudnessRange,
		MaxDuration:      180 * time.Second,
		Container:        "mp4",
	},
	"generic": {
		Name:            "generic",
		Width:           1080,
		Height:          1920,
		FrameRate:       30,
		VideoCodec:      "libx264",
		HardwareCodec:   "h264_nvenc",
		PixelFormat:     "yuv420p",
		CRF:             23,
		Speed:           "veryfast",
		GOPSize:         120,
		AudioCodec:      "aac",
		AudioBitrate:    "128k",
		AudioSampleRate: 44100,
		Container:       "mp4",
	},
}

// Lookup returns the preset registered under name.
func Lookup(name string) (Preset, error) {
	p, ok := registry[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return p, nil
}

// Names returns every registered preset name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
