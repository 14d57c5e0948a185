package psi

import (
	"fmt"
	"math"
)

// Core produces the argument of the sigmoid from the stimulus
// intensity and the first two model parameters. In many cases this is
// a linear function of the intensity.
type Core interface {
	// Name returns the core descriptor.
	Name() string
	// Transform computes the sigmoid argument.
	Transform(x float64, prm []float64) float64
	// Inverse computes the intensity x so that
	// Transform(x, prm) == y.
	Inverse(y float64, prm []float64) float64
	// StartFromLine maps the intercept and slope of a regression
	// line on the sigmoid-inverse scale to the core's native
	// parameterization.
	StartFromLine(intercept, slope float64) (p0, p1 float64)
}

// ABCore parameterizes the sigmoid argument as (x-a)/b with a the
// displacement and b the scale.
type ABCore struct{}

// Name returns the core descriptor.
func (ABCore) Name() string { return "ab" }

// Transform computes the sigmoid argument.
func (ABCore) Transform(x float64, prm []float64) float64 {
	return (x - prm[0]) / prm[1]
}

// Inverse computes the intensity for a given sigmoid argument.
func (ABCore) Inverse(y float64, prm []float64) float64 {
	return prm[0] + y*prm[1]
}

// StartFromLine maps z = intercept + slope*x to (a, b).
func (ABCore) StartFromLine(intercept, slope float64) (float64, float64) {
	return -intercept / slope, 1 / slope
}

// LinearCore parameterizes the sigmoid argument as a*x+b.
type LinearCore struct{}

// Name returns the core descriptor.
func (LinearCore) Name() string { return "linear" }

// Transform computes the sigmoid argument.
func (LinearCore) Transform(x float64, prm []float64) float64 {
	return prm[0]*x + prm[1]
}

// Inverse computes the intensity for a given sigmoid argument.
func (LinearCore) Inverse(y float64, prm []float64) float64 {
	return (y - prm[1]) / prm[0]
}

// StartFromLine maps z = intercept + slope*x to (a, b).
func (LinearCore) StartFromLine(intercept, slope float64) (float64, float64) {
	return slope, intercept
}

// MWCore parameterizes the sigmoid argument by the midpoint m and the
// width w of the rising interval between performance alpha and
// 1-alpha on the sigmoid scale.
type MWCore struct {
	alpha float64
	zc    float64
}

// NewMWCore creates a midpoint/width core for a given sigmoid and
// width level alpha (0 < alpha < 0.5).
func NewMWCore(s Sigmoid, alpha float64) *MWCore {
	return &MWCore{
		alpha: alpha,
		zc:    s.Inverse(1-alpha) - s.Inverse(alpha),
	}
}

// Name returns the core descriptor.
func (c *MWCore) Name() string { return fmt.Sprintf("mw%g", c.alpha) }

// Transform computes the sigmoid argument.
func (c *MWCore) Transform(x float64, prm []float64) float64 {
	return c.zc * (x - prm[0]) / prm[1]
}

// Inverse computes the intensity for a given sigmoid argument.
func (c *MWCore) Inverse(y float64, prm []float64) float64 {
	return prm[0] + y*prm[1]/c.zc
}

// StartFromLine maps z = intercept + slope*x to (m, w).
func (c *MWCore) StartFromLine(intercept, slope float64) (float64, float64) {
	return -intercept / slope, c.zc / slope
}

// GetCore returns a core from a descriptor string. The sigmoid is
// needed for the mw core only. A descriptor like "mw0.1" selects the
// width level.
func GetCore(name string, s Sigmoid) (Core, error) {
	switch name {
	case "ab":
		return ABCore{}, nil
	case "linear":
		return LinearCore{}, nil
	}
	var alpha float64
	if n, err := fmt.Sscanf(name, "mw%g", &alpha); n == 1 && err == nil {
		if alpha <= 0 || alpha >= 0.5 {
			return nil, fmt.Errorf("mw width level outside (0, 0.5): %g", alpha)
		}
		return NewMWCore(s, alpha), nil
	}
	return nil, fmt.Errorf("unknown core: %s", name)
}

// finite reports whether v is neither NaN nor infinite.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
