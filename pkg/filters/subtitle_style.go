package filters

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// ASS alignment values on the numpad layout.
const (
	alignBottomCenter = 2
	alignTopCenter    = 8
)

const (
	styleDefaultFontName     = "Arial"
	styleDefaultFontSize     = 48
	styleDefaultMinFontSize  = 32
	styleDefaultPrimary      = "#FFFFFF"
	styleDefaultOutline      = "#000000"
	styleDefaultShadow       = "#000000"
	styleDefaultOutlineWidth = 2.0
	styleDefaultPosition     = 90.0

	// Text never sits closer than this to the frame edge.
	styleMinMarginV = 20

	maxShadowDepth   = 4
	maxGlowIntensity = 10

	// Outline alpha while glow is on: half transparent.
	glowOutlineAlpha = 0x80

	// Extra vertical margin per depth step once the shadow is deep enough
	// to extend past the text box.
	shadowMarginStep = 4
)

// SubtitleStyle describes the ASS force_style overrides burned into the
// output. Start from DefaultSubtitleStyle; the zero value is not useful.
type SubtitleStyle struct {
	FontName     string  `json:"font_name"`
	FontSize     int     `json:"font_size"`
	MinFontSize  int     `json:"min_font_size"`
	PrimaryColor string  `json:"primary_color"`
	OutlineColor string  `json:"outline_color"`
	ShadowColor  string  `json:"shadow_color"`
	OutlineWidth float64 `json:"outline_width"`
	Bold         bool    `json:"bold"`

	// PositionPercent places the text anchor vertically: 0 is the top of
	// the frame, 100 the bottom. Values below 50 anchor the text to the
	// top edge, the rest to the bottom edge.
	PositionPercent float64 `json:"position_percent"`

	// ShadowDepth is the drop shadow offset in pixels, 0 to 4.
	ShadowDepth int `json:"shadow_depth"`

	EnableGlow    bool    `json:"enable_glow"`
	GlowIntensity float64 `json:"glow_intensity"`

	// AdaptiveSizing shrinks FontSize toward MinFontSize when the subtitle
	// file carries long lines.
	AdaptiveSizing bool `json:"adaptive_sizing"`
}

// DefaultSubtitleStyle returns the house style: white text with a black
// outline in the lower tenth of the frame.
func DefaultSubtitleStyle() SubtitleStyle {
	return SubtitleStyle{
		FontName:        styleDefaultFontName,
		FontSize:        styleDefaultFontSize,
		MinFontSize:     styleDefaultMinFontSize,
		PrimaryColor:    styleDefaultPrimary,
		OutlineColor:    styleDefaultOutline,
		ShadowColor:     styleDefaultShadow,
		OutlineWidth:    styleDefaultOutlineWidth,
		PositionPercent: styleDefaultPosition,
		AdaptiveSizing:  true,
	}
}

// sanitized returns a copy with out-of-range values clamped and empty
// fields replaced by defaults. Every repair is logged; a style never
// fails a render.
func (s SubtitleStyle) sanitized() SubtitleStyle {
	if s.FontName == "" {
		s.FontName = styleDefaultFontName
	}
	if s.FontSize <= 0 {
		s.FontSize = styleDefaultFontSize
	}
	if s.MinFontSize <= 0 {
		s.MinFontSize = styleDefaultMinFontSize
	}
	if s.MinFontSize > s.FontSize {
		s.MinFontSize = s.FontSize
	}
	if s.OutlineWidth < 0 {
		s.OutlineWidth = 0
	}
	if s.PositionPercent < 0 || s.PositionPercent > 100 {
		slog.Warn("subtitle style: position out of range, using default", "position", s.PositionPercent)
		s.PositionPercent = styleDefaultPosition
	}
	if s.ShadowDepth < 0 || s.ShadowDepth > maxShadowDepth {
		slog.Warn("subtitle style: shadow depth out of range, clamping", "depth", s.ShadowDepth)
		s.ShadowDepth = min(max(s.ShadowDepth, 0), maxShadowDepth)
	}
	if s.GlowIntensity < 0 || s.GlowIntensity > maxGlowIntensity {
		slog.Warn("subtitle style: glow intensity out of range, clamping", "intensity", s.GlowIntensity)
		s.GlowIntensity = min(max(s.GlowIntensity, 0), maxGlowIntensity)
	}
	return s
}

// StyleString renders the force_style override list for an output frame of
// the given height. Malformed settings degrade to defaults rather than
// failing the render.
func (s SubtitleStyle) StyleString(videoHeight int) string {
	s = s.sanitized()

	outlineWidth := s.OutlineWidth
	outlineAlpha := uint8(0x00)
	if s.EnableGlow {
		outlineWidth += s.GlowIntensity
		outlineAlpha = glowOutlineAlpha
	}

	alignment := alignBottomCenter
	marginPercent := 100 - s.PositionPercent
	if s.PositionPercent < 50 {
		alignment = alignTopCenter
		marginPercent = s.PositionPercent
	}
	marginV := int(float64(videoHeight) * marginPercent / 100)
	if s.ShadowDepth > 2 {
		marginV += s.ShadowDepth * shadowMarginStep
	}
	if marginV < styleMinMarginV {
		marginV = styleMinMarginV
	}

	parts := []string{
		"FontName=" + s.FontName,
		"FontSize=" + strconv.Itoa(s.FontSize),
		// The text itself is always opaque; only outlines carry alpha.
		"PrimaryColour=" + assColorOrDefault("primary_color", s.PrimaryColor, styleDefaultPrimary, 0x00),
		"OutlineColour=" + assColorOrDefault("outline_color", s.OutlineColor, styleDefaultOutline, outlineAlpha),
		"Outline=" + formatFloat(outlineWidth),
	}
	if s.Bold {
		parts = append(parts, "Bold=-1")
	}
	if s.ShadowDepth > 0 {
		parts = append(parts,
			"BorderStyle=1",
			"Shadow="+strconv.Itoa(s.ShadowDepth),
			"BackColour="+assColorOrDefault("shadow_color", s.ShadowColor, styleDefaultShadow, 0x00),
		)
	}
	parts = append(parts,
		"Alignment="+strconv.Itoa(alignment),
		"MarginV="+strconv.Itoa(marginV),
	)
	return strings.Join(parts, ",")
}

// assColor converts a "#RRGGBB" hex color to the ASS &HAABBGGRR form with
// the given alpha. ASS stores channels in reverse order.
func assColor(hexColor string, alpha uint8) (string, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hexColor), "#")
	if len(s) != 6 {
		return "", fmt.Errorf("color %q: want #RRGGBB", hexColor)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return "", fmt.Errorf("color %q: %w", hexColor, err)
	}
	r := uint8(v >> 16)
	g := uint8(v >> 8)
	b := uint8(v)
	return fmt.Sprintf("&H%02X%02X%02X%02X", alpha, b, g, r), nil
}

func assColorOrDefault(field, hexColor, fallback string, alpha uint8) string {
	c, err := assColor(hexColor, alpha)
	if err != nil {
		slog.Warn("subtitle style: bad color, using default", "field", field, "error", err)
		c, _ = assColor(fallback, alpha)
	}
	return c
}
