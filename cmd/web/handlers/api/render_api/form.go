package render_api

import (
	"net/url"
	"strconv"
	"strings"

	"thirdcoast.systems/clipforge/cmd/web/handlers/common"
	"thirdcoast.systems/clipforge/pkg/filters"
)

// parseBool implements the form boolean convention: "true", "1", "yes"
// and "on" (case-insensitive) are true, anything else is false.
func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func formValue(form url.Values, name string) (string, bool) {
	vals, ok := form[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}

func formBool(form url.Values, name string) (value, present bool) {
	raw, ok := formValue(form, name)
	if !ok {
		return false, false
	}
	return parseBool(raw), true
}

func formFloat(form url.Values, name string) (float64, bool, error) {
	raw, ok := formValue(form, name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, common.ErrBadRequest("invalid " + name)
	}
	return v, true, nil
}

func formInt(form url.Values, name string) (int, bool, error) {
	raw, ok := formValue(form, name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, common.ErrBadRequest("invalid " + name)
	}
	return v, true, nil
}

// parseVideoFilters maps the enhancement form fields onto their typed
// configs. Field names follow the config fields one to one; range checks
// happen later in the chain builder, malformed numbers fail here.
func parseVideoFilters(form url.Values) (filters.VideoFilters, error) {
	vf := filters.VideoFilters{Color: filters.DefaultColorConfig()}

	vf.Denoise.Enabled, _ = formBool(form, "enable_denoise")
	if v, ok, err := formFloat(form, "denoise_strength"); err != nil {
		return vf, err
	} else if ok {
		vf.Denoise.LumaSpatial = v
	}
	if v, ok, err := formFloat(form, "chroma_spatial"); err != nil {
		return vf, err
	} else if ok {
		vf.Denoise.ChromaSpatial = &v
	}
	if v, ok, err := formFloat(form, "luma_temporal"); err != nil {
		return vf, err
	} else if ok {
		vf.Denoise.LumaTemporal = &v
	}
	if v, ok, err := formFloat(form, "chroma_temporal"); err != nil {
		return vf, err
	} else if ok {
		vf.Denoise.ChromaTemporal = &v
	}

	vf.Sharpen.Enabled, _ = formBool(form, "enable_sharpen")
	if v, ok, err := formFloat(form, "sharpen_amount"); err != nil {
		return vf, err
	} else if ok {
		vf.Sharpen.Amount = v
	}
	if v, ok, err := formInt(form, "kernel_size"); err != nil {
		return vf, err
	} else if ok {
		vf.Sharpen.KernelSize = v
	}

	vf.Color.Enabled, _ = formBool(form, "enable_color")
	if v, ok, err := formFloat(form, "brightness"); err != nil {
		return vf, err
	} else if ok {
		vf.Color.Brightness = v
	}
	if v, ok, err := formFloat(form, "contrast"); err != nil {
		return vf, err
	} else if ok {
		vf.Color.Contrast = v
	}
	if v, ok, err := formFloat(form, "saturation"); err != nil {
		return vf, err
	} else if ok {
		vf.Color.Saturation = v
	}
	if v, ok, err := formFloat(form, "gamma"); err != nil {
		return vf, err
	} else if ok {
		vf.Color.Gamma = &v
	}

	return vf, nil
}

// parseSubtitleStyle overlays present style fields onto the default style.
// Nil when the request carries no style fields at all, so stored requests
// stay minimal.
func parseSubtitleStyle(form url.Values) (*filters.SubtitleStyle, error) {
	style := filters.DefaultSubtitleStyle()
	touched := false

	if v, ok := formValue(form, "font_name"); ok && v != "" {
		style.FontName = v
		touched = true
	}
	if v, ok, err := formInt(form, "font_size"); err != nil {
		return nil, err
	} else if ok {
		style.FontSize = v
		touched = true
	}
	if v, ok, err := formInt(form, "min_font_size"); err != nil {
		return nil, err
	} else if ok {
		style.MinFontSize = v
		touched = true
	}
	if v, ok := formValue(form, "primary_color"); ok && v != "" {
		style.PrimaryColor = v
		touched = true
	}
	if v, ok := formValue(form, "outline_color"); ok && v != "" {
		style.OutlineColor = v
		touched = true
	}
	if v, ok := formValue(form, "shadow_color"); ok && v != "" {
		style.ShadowColor = v
		touched = true
	}
	if v, ok, err := formFloat(form, "outline_width"); err != nil {
		return nil, err
	} else if ok {
		style.OutlineWidth = v
		touched = true
	}
	if v, ok := formBool(form, "bold"); ok {
		style.Bold = v
		touched = true
	}
	if v, ok, err := formFloat(form, "position_percent"); err != nil {
		return nil, err
	} else if ok {
		style.PositionPercent = v
		touched = true
	}
	if v, ok, err := formInt(form, "shadow_depth"); err != nil {
		return nil, err
	} else if ok {
		style.ShadowDepth = v
		touched = true
	}
	if v, ok := formBool(form, "enable_glow"); ok {
		style.EnableGlow = v
		touched = true
	}
	if v, ok, err := formFloat(form, "glow_blur"); err != nil {
		return nil, err
	} else if ok {
		style.GlowIntensity = v
		touched = true
	}
	if v, ok := formBool(form, "adaptive_sizing"); ok {
		style.AdaptiveSizing = v
		touched = true
	}

	if !touched {
		return nil, nil
	}
	return &style, nil
}
