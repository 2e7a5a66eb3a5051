package render_api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/clipforge/pkg/filters"
)

func TestParseBool(t *testing.T) {
	for _, raw := range []string{"true", "TRUE", "1", "yes", "Yes", "on", "ON", " true "} {
		assert.True(t, parseBool(raw), raw)
	}
	for _, raw := range []string{"false", "0", "no", "off", "", "enabled", "2"} {
		assert.False(t, parseBool(raw), raw)
	}
}

func TestParseVideoFiltersEmptyForm(t *testing.T) {
	vf, err := parseVideoFilters(url.Values{})
	require.NoError(t, err)

	assert.False(t, vf.Enabled())
	assert.Equal(t, filters.DefaultColorConfig(), vf.Color)
	assert.Nil(t, vf.Denoise.ChromaSpatial)
	assert.Nil(t, vf.Denoise.LumaTemporal)
	assert.Nil(t, vf.Denoise.ChromaTemporal)
	assert.Nil(t, vf.Color.Gamma)
}

func TestParseVideoFilters(t *testing.T) {
	form := url.Values{}
	form.Set("enable_denoise", "true")
	form.Set("denoise_strength", "4")
	form.Set("chroma_spatial", "2.5")
	form.Set("enable_sharpen", "on")
	form.Set("sharpen_amount", "1.2")
	form.Set("kernel_size", "7")
	form.Set("enable_color", "1")
	form.Set("brightness", "0.05")
	form.Set("contrast", "1.1")
	form.Set("saturation", "1.3")
	form.Set("gamma", "0.9")

	vf, err := parseVideoFilters(form)
	require.NoError(t, err)

	assert.True(t, vf.Denoise.Enabled)
	assert.Equal(t, 4.0, vf.Denoise.LumaSpatial)
	require.NotNil(t, vf.Denoise.ChromaSpatial)
	assert.Equal(t, 2.5, *vf.Denoise.ChromaSpatial)
	assert.Nil(t, vf.Denoise.LumaTemporal)

	assert.True(t, vf.Sharpen.Enabled)
	assert.Equal(t, 1.2, vf.Sharpen.Amount)
	assert.Equal(t, 7, vf.Sharpen.KernelSize)

	assert.True(t, vf.Color.Enabled)
	assert.Equal(t, 0.05, vf.Color.Brightness)
	assert.Equal(t, 1.1, vf.Color.Contrast)
	assert.Equal(t, 1.3, vf.Color.Saturation)
	require.NotNil(t, vf.Color.Gamma)
	assert.Equal(t, 0.9, *vf.Color.Gamma)
}

func TestParseVideoFiltersMalformedNumber(t *testing.T) {
	form := url.Values{}
	form.Set("denoise_strength", "a lot")

	_, err := parseVideoFilters(form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denoise_strength")
}

func TestParseSubtitleStyleAbsent(t *testing.T) {
	style, err := parseSubtitleStyle(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, style)
}

func TestParseSubtitleStyleOverlaysDefaults(t *testing.T) {
	form := url.Values{}
	form.Set("font_size", "56")
	form.Set("bold", "true")
	form.Set("enable_glow", "yes")
	form.Set("glow_blur", "3.5")
	form.Set("adaptive_sizing", "false")

	style, err := parseSubtitleStyle(form)
	require.NoError(t, err)
	require.NotNil(t, style)

	assert.Equal(t, 56, style.FontSize)
	assert.True(t, style.Bold)
	assert.True(t, style.EnableGlow)
	assert.Equal(t, 3.5, style.GlowIntensity)
	// Present-but-false wins over the default true.
	assert.False(t, style.AdaptiveSizing)

	// Untouched fields keep the house style.
	want := filters.DefaultSubtitleStyle()
	assert.Equal(t, want.FontName, style.FontName)
	assert.Equal(t, want.PrimaryColor, style.PrimaryColor)
	assert.Equal(t, want.OutlineWidth, style.OutlineWidth)
	assert.Equal(t, want.PositionPercent, style.PositionPercent)
}

func TestParseSubtitleStyleMalformedNumber(t *testing.T) {
	form := url.Values{}
	form.Set("font_size", "huge")

	_, err := parseSubtitleStyle(form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "font_size")
}

func TestResolveRef(t *testing.T) {
	root := "/media/sources"

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"empty passes through", "", "", false},
		{"absolute passes through", "/mnt/archive/clip.mp4", "/mnt/archive/clip.mp4", false},
		{"relative joins the root", "shows/ep1.mkv", "/media/sources/shows/ep1.mkv", false},
		{"dot segments collapse", "shows/./ep1.mkv", "/media/sources/shows/ep1.mkv", false},
		{"escape rejected", "../secrets.mp4", "", true},
		{"nested escape rejected", "shows/../../etc/passwd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveRef(root, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
