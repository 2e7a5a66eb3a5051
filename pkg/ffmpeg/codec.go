package ffmpeg

import "slices"

// Preset bundles combine common option combinations.

// PresetX264 returns options for software h264 encoding at the given
// quality. The medium and slower speeds enable the full x264 feature set
// (CABAC, B-frames, multiple reference frames, subpixel ME); the faster
// speeds trade that away for throughput.
func PresetX264(crf int, speed, pixelFormat string) []Option {
	return []Option{
		VideoCodec("libx264"),
		CRF(crf),
		Preset(speed),
		PixelFormat(pixelFormat),
	}
}

// PresetHardware returns options for hardware h264 encoding. Hardware
// encoders drive quality with -cq instead of -crf and pick their own
// internal speed point.
func PresetHardware(codec string, cq int, pixelFormat string) []Option {
	return []Option{
		VideoCodec(codec),
		CQ(cq),
		PixelFormat(pixelFormat),
	}
}

// PresetAudio returns options for stereo audio encoding.
func PresetAudio(codec, bitrate string, sampleRate int) []Option {
	return []Option{
		AudioCodec(codec),
		AudioBitrate(bitrate),
		AudioSampleRate(sampleRate),
		AudioChannels(2),
	}
}

// Flatten joins option groups in order.
func Flatten(groups ...[]Option) []Option {
	// slices.Concat, monomorphized: the stdlib function needs go >= 1.22
	// and this module builds with 1.21.
	size := 0
	for _, g := range groups {
		size += len(g)
		if size < 0 {
			panic("len out of range")
		}
	}
	out := slices.Grow[[]Option](nil, size)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
