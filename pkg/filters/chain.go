package filters

import (
	"fmt"
	"log/slog"
	"strings"

	"thirdcoast.systems/clipforge/pkg/subtitles"
)

// ChainInput carries everything needed to assemble the -vf chain for one
// render.
type ChainInput struct {
	Width  int
	Height int

	Filters VideoFilters

	// SubtitlePath, when set, burns the subtitle file in as the last
	// stage. Style falls back to DefaultSubtitleStyle when nil.
	SubtitlePath string
	Style        *SubtitleStyle

	// Track is the parsed subtitle file, used for adaptive font sizing.
	// May be nil.
	Track *subtitles.Track
}

// Chain is an ordered list of -vf tokens.
type Chain struct {
	tokens       []string
	enhancements int
}

// Tokens returns the filter tokens in chain order.
func (c Chain) Tokens() []string { return c.tokens }

// Join renders the chain as a single -vf argument.
func (c Chain) Join() string { return strings.Join(c.tokens, ",") }

// HasEnhancements reports whether any stage beyond the mandatory scale and
// crop made it into the chain.
func (c Chain) HasEnhancements() bool { return c.enhancements > 0 }

// Build assembles the filter chain in its fixed order: scale, crop,
// denoise, sharpen, color, subtitles. The source is scaled to cover the
// target frame and center-cropped to it. Filters with out-of-range
// parameters are skipped and logged; they never abort the chain.
func Build(in ChainInput) Chain {
	c := Chain{tokens: make([]string, 0, 6)}
	c.tokens = append(c.tokens,
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", in.Width, in.Height),
		fmt.Sprintf("crop=%d:%d", in.Width, in.Height),
	)

	denoiseTok, denoiseErr := in.Filters.Denoise.Token()
	c.add("denoise", denoiseTok, denoiseErr)
	sharpenTok, sharpenErr := in.Filters.Sharpen.Token()
	c.add("sharpen", sharpenTok, sharpenErr)
	colorTok, colorErr := in.Filters.Color.Token()
	c.add("color", colorTok, colorErr)

	if in.SubtitlePath != "" {
		style := DefaultSubtitleStyle()
		if in.Style != nil {
			style = *in.Style
		}
		if style.AdaptiveSizing {
			size, longest := subtitles.ComputeFontSize(in.Track, style.FontSize, style.MinFontSize,
				subtitles.DefaultLowThreshold, subtitles.DefaultHighThreshold)
			if size != style.FontSize {
				slog.Debug("adaptive subtitle sizing", "font_size", size, "longest_line", longest)
			}
			style.FontSize = size
		}
		token := fmt.Sprintf("subtitles='%s':force_style='%s'",
			EscapePath(in.SubtitlePath), style.StyleString(in.Height))
		c.tokens = append(c.tokens, token)
		c.enhancements++
	}
	return c
}

func (c *Chain) add(name, token string, err error) {
	if err != nil {
		slog.Warn("skipping filter", "filter", name, "error", err)
		return
	}
	if token == "" {
		return
	}
	c.tokens = append(c.tokens, token)
	c.enhancements++
}

// EscapePath prepares a filesystem path for embedding in a filter
// argument. Backslashes become forward slashes first, then the characters
// the filter parser treats specially are escaped: quotes, colons,
// brackets.
func EscapePath(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	p = strings.ReplaceAll(p, `'`, `\'`)
	p = strings.ReplaceAll(p, `:`, `\:`)
	p = strings.ReplaceAll(p, `[`, `\[`)
	p = strings.ReplaceAll(p, `]`, `\]`)
	return p
}
