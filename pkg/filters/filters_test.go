package filters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestDenoiseStrengths(t *testing.T) {
	tests := []struct {
		name   string
		config DenoiseConfig
		wantLS float64
		wantCS float64
		wantLT float64
		wantCT float64
	}{
		{
			name:   "all derived",
			config: DenoiseConfig{Enabled: true, LumaSpatial: 2},
			wantLS: 2, wantCS: 1.5, wantLT: 3, wantCT: 2.25,
		},
		{
			name:   "chroma override carries into temporal",
			config: DenoiseConfig{Enabled: true, LumaSpatial: 2, ChromaSpatial: floatPtr(2)},
			wantLS: 2, wantCS: 2, wantLT: 3, wantCT: 3,
		},
		{
			name: "full override",
			config: DenoiseConfig{
				Enabled: true, LumaSpatial: 4,
				ChromaSpatial: floatPtr(1), LumaTemporal: floatPtr(2), ChromaTemporal: floatPtr(0.5),
			},
			wantLS: 4, wantCS: 1, wantLT: 2, wantCT: 0.5,
		},
		{
			name:   "zero strength",
			config: DenoiseConfig{Enabled: true, LumaSpatial: 0},
			wantLS: 0, wantCS: 0, wantLT: 0, wantCT: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ls, cs, lt, ct := tt.config.Strengths()
			assert.Equal(t, tt.wantLS, ls)
			assert.Equal(t, tt.wantCS, cs)
			assert.Equal(t, tt.wantLT, lt)
			assert.Equal(t, tt.wantCT, ct)
		})
	}
}

func TestDenoiseToken(t *testing.T) {
	tests := []struct {
		name   string
		config DenoiseConfig
		want   string
	}{
		{
			name:   "disabled",
			config: DenoiseConfig{LumaSpatial: 4},
			want:   "",
		},
		{
			name:   "derived strengths",
			config: DenoiseConfig{Enabled: true, LumaSpatial: 2},
			want:   "hqdn3d=2:1.5:3:2.25",
		},
		{
			name:   "max strength",
			config: DenoiseConfig{Enabled: true, LumaSpatial: 10},
			want:   "hqdn3d=10:7.5:15:11.25",
		},
		{
			name:   "zero strength is a no-op",
			config: DenoiseConfig{Enabled: true, LumaSpatial: 0},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.config.Token()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDenoiseValidation(t *testing.T) {
	_, err := DenoiseConfig{Enabled: true, LumaSpatial: 12}.Token()
	var pe *ParamError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "denoise", pe.Filter)
	assert.Equal(t, "luma_spatial", pe.Param)

	_, err = DenoiseConfig{Enabled: true, LumaSpatial: 2, ChromaSpatial: floatPtr(-1)}.Token()
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "chroma_spatial", pe.Param)

	// Disabled configs never fail validation.
	assert.NoError(t, DenoiseConfig{LumaSpatial: 99}.Validate())
}

func TestSharpenToken(t *testing.T) {
	tests := []struct {
		name   string
		config SharpenConfig
		want   string
	}{
		{
			name:   "disabled",
			config: SharpenConfig{Amount: 1.5},
			want:   "",
		},
		{
			name:   "default kernel",
			config: SharpenConfig{Enabled: true, Amount: 1.5},
			want:   "unsharp=5:5:1.5:5:5:0",
		},
		{
			name:   "explicit kernel",
			config: SharpenConfig{Enabled: true, Amount: 0.8, KernelSize: 7},
			want:   "unsharp=7:7:0.8:7:7:0",
		},
		{
			name:   "negative amount blurs",
			config: SharpenConfig{Enabled: true, Amount: -1, KernelSize: 9},
			want:   "unsharp=9:9:-1:9:9:0",
		},
		{
			name:   "zero amount is a no-op",
			config: SharpenConfig{Enabled: true, Amount: 0},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.config.Token()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSharpenChromaNeverTouched(t *testing.T) {
	for kernel := 3; kernel <= 23; kernel += 2 {
		for amount := -2.0; amount <= 5.0; amount += 0.25 {
			token, err := SharpenConfig{Enabled: true, Amount: amount, KernelSize: kernel}.Token()
			require.NoError(t, err)
			if token == "" {
				continue
			}
			assert.True(t, len(token) > 2 && token[len(token)-2:] == ":0",
				"token %q must end with a zero chroma amount", token)
		}
	}
}

func TestSharpenValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    SharpenConfig
		wantParam string
	}{
		{"amount too high", SharpenConfig{Enabled: true, Amount: 6}, "amount"},
		{"amount too low", SharpenConfig{Enabled: true, Amount: -3}, "amount"},
		{"even kernel", SharpenConfig{Enabled: true, Amount: 1, KernelSize: 4}, "kernel_size"},
		{"kernel too small", SharpenConfig{Enabled: true, Amount: 1, KernelSize: 1}, "kernel_size"},
		{"kernel too large", SharpenConfig{Enabled: true, Amount: 1, KernelSize: 25}, "kernel_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.config.Token()
			var pe *ParamError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "sharpen", pe.Filter)
			assert.Equal(t, tt.wantParam, pe.Param)
		})
	}
}

func TestColorToken(t *testing.T) {
	tests := []struct {
		name   string
		config ColorConfig
		want   string
	}{
		{
			name:   "disabled",
			config: ColorConfig{Brightness: 0.5},
			want:   "",
		},
		{
			name: "all identity",
			config: ColorConfig{
				Enabled: true, Brightness: 0, Contrast: 1, Saturation: 1,
			},
			want: "",
		},
		{
			name: "identity within epsilon",
			config: ColorConfig{
				Enabled: true, Brightness: 0.005, Contrast: 1.009, Saturation: 0.999,
			},
			want: "",
		},
		{
			name: "two adjustments",
			config: ColorConfig{
				Enabled: true, Brightness: 0.1, Contrast: 1.2, Saturation: 1,
			},
			want: "eq=brightness=0.1:contrast=1.2",
		},
		{
			name: "saturation only",
			config: ColorConfig{
				Enabled: true, Brightness: 0, Contrast: 1, Saturation: 0.9,
			},
			want: "eq=saturation=0.9",
		},
		{
			name: "gamma included when set",
			config: ColorConfig{
				Enabled: true, Brightness: 0, Contrast: 1, Saturation: 1, Gamma: floatPtr(1.4),
			},
			want: "eq=gamma=1.4",
		},
		{
			name: "identity gamma omitted",
			config: ColorConfig{
				Enabled: true, Brightness: -0.2, Contrast: 1, Saturation: 1, Gamma: floatPtr(1),
			},
			want: "eq=brightness=-0.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.config.Token()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    ColorConfig
		wantParam string
	}{
		{"brightness", ColorConfig{Enabled: true, Brightness: 1.5, Contrast: 1, Saturation: 1}, "brightness"},
		{"contrast", ColorConfig{Enabled: true, Contrast: 4, Saturation: 1}, "contrast"},
		{"saturation", ColorConfig{Enabled: true, Contrast: 1, Saturation: -0.5}, "saturation"},
		{"gamma", ColorConfig{Enabled: true, Contrast: 1, Saturation: 1, Gamma: floatPtr(20)}, "gamma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.config.Token()
			var pe *ParamError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantParam, pe.Param)
		})
	}
}

func TestTokensAreDeterministic(t *testing.T) {
	denoise := DenoiseConfig{Enabled: true, LumaSpatial: 3.3}
	first, err := denoise.Token()
	require.NoError(t, err)
	second, err := denoise.Token()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	color := ColorConfig{Enabled: true, Brightness: 0.1, Contrast: 1.3, Saturation: 0.8}
	first, err = color.Token()
	require.NoError(t, err)
	second, err = color.Token()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestVideoFiltersWithDefaults(t *testing.T) {
	defaults := VideoFilters{
		Denoise: DenoiseConfig{Enabled: true, LumaSpatial: 2},
		Color:   ColorConfig{Enabled: true, Contrast: 1, Saturation: 1.2},
	}

	assert.Equal(t, defaults, VideoFilters{}.WithDefaults(defaults))

	override := VideoFilters{Denoise: DenoiseConfig{Enabled: true, LumaSpatial: 5}}
	merged := override.WithDefaults(defaults)
	assert.Equal(t, 5.0, merged.Denoise.LumaSpatial)
	assert.Equal(t, defaults.Color, merged.Color)
	assert.False(t, merged.Sharpen.Enabled)
}

func TestParamErrorMessage(t *testing.T) {
	err := error(&ParamError{Filter: "sharpen", Param: "amount", Value: 6, Reason: "outside -2 to 5"})
	assert.Equal(t, "sharpen: amount=6 outside -2 to 5", err.Error())
	var pe *ParamError
	assert.True(t, errors.As(err, &pe))
}
