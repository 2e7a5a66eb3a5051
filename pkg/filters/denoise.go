package filters

// Multipliers that derive the remaining hqdn3d strengths from the luma
// spatial strength when no override is given.
const (
	denoiseChromaSpatialRatio  = 0.75
	denoiseLumaTemporalRatio   = 1.5
	denoiseChromaTemporalRatio = 1.5
)

const (
	denoiseMaxLumaSpatial = 10
	denoiseMaxStrength    = 15
)

// DenoiseConfig drives the hqdn3d filter. Only the luma spatial strength
// is required; the remaining strengths are derived from it unless
// explicitly overridden.
type DenoiseConfig struct {
	Enabled     bool    `json:"enabled"`
	LumaSpatial float64 `json:"luma_spatial"`

	ChromaSpatial  *float64 `json:"chroma_spatial,omitempty"`
	LumaTemporal   *float64 `json:"luma_temporal,omitempty"`
	ChromaTemporal *float64 `json:"chroma_temporal,omitempty"`
}

// Strengths resolves the four hqdn3d strengths. The chroma temporal
// strength derives from the resolved chroma spatial value, so a chroma
// spatial override carries through.
func (c DenoiseConfig) Strengths() (lumaSpatial, chromaSpatial, lumaTemporal, chromaTemporal float64) {
	lumaSpatial = c.LumaSpatial
	chromaSpatial = lumaSpatial * denoiseChromaSpatialRatio
	if c.ChromaSpatial != nil {
		chromaSpatial = *c.ChromaSpatial
	}
	lumaTemporal = lumaSpatial * denoiseLumaTemporalRatio
	if c.LumaTemporal != nil {
		lumaTemporal = *c.LumaTemporal
	}
	chromaTemporal = chromaSpatial * denoiseChromaTemporalRatio
	if c.ChromaTemporal != nil {
		chromaTemporal = *c.ChromaTemporal
	}
	return lumaSpatial, chromaSpatial, lumaTemporal, chromaTemporal
}

// Validate checks every strength against its range. Disabled configs are
// always valid.
func (c DenoiseConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.LumaSpatial < 0 || c.LumaSpatial > denoiseMaxLumaSpatial {
		return &ParamError{Filter: "denoise", Param: "luma_spatial", Value: c.LumaSpatial, Reason: "outside 0 to 10"}
	}
	overrides := []struct {
		name  string
		value *float64
	}{
		{"chroma_spatial", c.ChromaSpatial},
		{"luma_temporal", c.LumaTemporal},
		{"chroma_temporal", c.ChromaTemporal},
	}
	for _, ov := range overrides {
		if ov.value == nil {
			continue
		}
		if *ov.value < 0 || *ov.value > denoiseMaxStrength {
			return &ParamError{Filter: "denoise", Param: ov.name, Value: *ov.value, Reason: "outside 0 to 15"}
		}
	}
	return nil
}

// Token renders the hqdn3d filter argument, or "" when the filter is
// disabled or all strengths resolve to zero.
func (c DenoiseConfig) Token() (string, error) {
	if !c.Enabled {
		return "", nil
	}
	if err := c.Validate(); err != nil {
		return "", err
	}
	ls, cs, lt, ct := c.Strengths()
	if ls == 0 && cs == 0 && lt == 0 && ct == 0 {
		return "", nil
	}
	return "hqdn3d=" + formatFloat(ls) + ":" + formatFloat(cs) + ":" + formatFloat(lt) + ":" + formatFloat(ct), nil
}
