package filters

import (
	"math"
	"strings"
)

// Identity values for the eq filter. Parameters within identityEpsilon of
// identity are left out of the token entirely.
const (
	colorIdentityBrightness = 0.0
	colorIdentityContrast   = 1.0
	colorIdentitySaturation = 1.0
	colorIdentityGamma      = 1.0

	identityEpsilon = 0.01
)

// ColorConfig drives the eq filter. Start from DefaultColorConfig: the
// zero value has contrast and saturation at zero, which is a legal but
// rarely wanted grading.
type ColorConfig struct {
	Enabled    bool     `json:"enabled"`
	Brightness float64  `json:"brightness"`
	Contrast   float64  `json:"contrast"`
	Saturation float64  `json:"saturation"`
	Gamma      *float64 `json:"gamma,omitempty"`
}

// DefaultColorConfig returns a disabled config with every parameter at
// identity.
func DefaultColorConfig() ColorConfig {
	return ColorConfig{
		Brightness: colorIdentityBrightness,
		Contrast:   colorIdentityContrast,
		Saturation: colorIdentitySaturation,
	}
}

func (c ColorConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Brightness < -1 || c.Brightness > 1 {
		return &ParamError{Filter: "color", Param: "brightness", Value: c.Brightness, Reason: "outside -1 to 1"}
	}
	if c.Contrast < 0 || c.Contrast > 3 {
		return &ParamError{Filter: "color", Param: "contrast", Value: c.Contrast, Reason: "outside 0 to 3"}
	}
	if c.Saturation < 0 || c.Saturation > 3 {
		return &ParamError{Filter: "color", Param: "saturation", Value: c.Saturation, Reason: "outside 0 to 3"}
	}
	if c.Gamma != nil && (*c.Gamma < 0.1 || *c.Gamma > 10) {
		return &ParamError{Filter: "color", Param: "gamma", Value: *c.Gamma, Reason: "outside 0.1 to 10"}
	}
	return nil
}

// Token renders the eq filter argument carrying only the parameters that
// differ from identity, or "" when none do.
func (c ColorConfig) Token() (string, error) {
	if !c.Enabled {
		return "", nil
	}
	if err := c.Validate(); err != nil {
		return "", err
	}
	var parts []string
	if differs(c.Brightness, colorIdentityBrightness) {
		parts = append(parts, "brightness="+formatFloat(c.Brightness))
	}
	if differs(c.Contrast, colorIdentityContrast) {
		parts = append(parts, "contrast="+formatFloat(c.Contrast))
	}
	if differs(c.Saturation, colorIdentitySaturation) {
		parts = append(parts, "saturation="+formatFloat(c.Saturation))
	}
	if c.Gamma != nil && differs(*c.Gamma, colorIdentityGamma) {
		parts = append(parts, "gamma="+formatFloat(*c.Gamma))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "eq=" + strings.Join(parts, ":"), nil
}

func differs(v, identity float64) bool {
	return math.Abs(v-identity) > identityEpsilon
}
