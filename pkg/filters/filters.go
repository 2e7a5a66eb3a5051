// Package filters builds ffmpeg -vf filter chains for vertical clip
// renders: scaling, cropping, optional enhancement filters, and burned-in
// subtitles.
package filters

import (
	"fmt"
	"strconv"
)

// VideoFilters groups the optional enhancement filters a render can apply.
// The zero value has every filter disabled.
type VideoFilters struct {
	Denoise DenoiseConfig `json:"denoise"`
	Sharpen SharpenConfig `json:"sharpen"`
	Color   ColorConfig   `json:"color"`
}

// Enabled reports whether any enhancement filter is switched on.
func (v VideoFilters) Enabled() bool {
	return v.Denoise.Enabled || v.Sharpen.Enabled || v.Color.Enabled
}

// WithDefaults fills each disabled config from d. Presets carry default
// filter sets this way; a request that switches a filter on wins over the
// preset's version of it.
func (v VideoFilters) WithDefaults(d VideoFilters) VideoFilters {
	if !v.Denoise.Enabled {
		v.Denoise = d.Denoise
	}
	if !v.Sharpen.Enabled {
		v.Sharpen = d.Sharpen
	}
	if !v.Color.Enabled {
		v.Color = d.Color
	}
	return v
}

// ParamError reports a filter parameter outside its accepted range.
type ParamError struct {
	Filter string
	Param  string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s=%s %s", e.Filter, e.Param, formatFloat(e.Value), e.Reason)
}

// formatFloat renders a float the way ffmpeg filter arguments expect:
// no exponent, no trailing zeros.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
