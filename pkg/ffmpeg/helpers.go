package ffmpeg

import (
	"context"
	"time"
)

// ThumbnailOptions configure poster frame extraction. Zero fields select
// the defaults.
type ThumbnailOptions struct {
	Offset   time.Duration // seek position, default 5s
	MaxWidth int           // output width, default 540 (half of a 1080-wide frame)
	Quality  int           // JPEG quality 1-31, lower is better, default 4
}

func (o *ThumbnailOptions) withDefaults() ThumbnailOptions {
	out := ThumbnailOptions{Offset: 5 * time.Second, MaxWidth: 540, Quality: 4}
	if o == nil {
		return out
	}
	if o.Offset != 0 {
		out.Offset = o.Offset
	}
	if o.MaxWidth != 0 {
		out.MaxWidth = o.MaxWidth
	}
	if o.Quality != 0 {
		out.Quality = o.Quality
	}
	return out
}

// ExtractThumbnail writes a single poster frame from input as a JPEG.
func ExtractThumbnail(ctx context.Context, input, output string, opts *ThumbnailOptions) error {
	o := opts.withDefaults()
	return Run(ctx, input, output,
		Seek(o.Offset),
		ScaleWidth(o.MaxWidth),
		Frames(1),
		Quality(o.Quality),
	)
}
