package filters

import "strconv"

// The chroma amount in every generated unsharp token. Chroma planes are
// never sharpened.
const sharpenChromaAmount = "0"

const (
	sharpenMinAmount     = -2
	sharpenMaxAmount     = 5
	sharpenMinKernel     = 3
	sharpenMaxKernel     = 23
	sharpenDefaultKernel = 5
)

// SharpenConfig drives the unsharp filter. Negative amounts blur instead
// of sharpening.
type SharpenConfig struct {
	Enabled bool    `json:"enabled"`
	Amount  float64 `json:"amount"`
	// KernelSize is the matrix size used for both dimensions of the luma
	// plane. Must be odd. Zero selects the default.
	KernelSize int `json:"kernel_size,omitempty"`
}

func (c SharpenConfig) kernel() int {
	if c.KernelSize == 0 {
		return sharpenDefaultKernel
	}
	return c.KernelSize
}

func (c SharpenConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Amount < sharpenMinAmount || c.Amount > sharpenMaxAmount {
		return &ParamError{Filter: "sharpen", Param: "amount", Value: c.Amount, Reason: "outside -2 to 5"}
	}
	if k := c.kernel(); k < sharpenMinKernel || k > sharpenMaxKernel || k%2 == 0 {
		return &ParamError{Filter: "sharpen", Param: "kernel_size", Value: float64(k), Reason: "must be odd, between 3 and 23"}
	}
	return nil
}

// Token renders the unsharp filter argument, or "" when the filter is
// disabled or the amount is zero.
func (c SharpenConfig) Token() (string, error) {
	if !c.Enabled {
		return "", nil
	}
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.Amount == 0 {
		return "", nil
	}
	k := strconv.Itoa(c.kernel())
	return "unsharp=" + k + ":" + k + ":" + formatFloat(c.Amount) + ":" + k + ":" + k + ":" + sharpenChromaAmount, nil
}
