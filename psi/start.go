package psi

import "math"

// Clamp for observed proportions so the sigmoid inverse stays finite
// for degenerate blocks (all correct or none correct).
const startClamp = 0.05

// Defaults for the nonlinear parameters of the starting point.
const (
	startLapse = 0.02
	startGuess = 0.02
	slopeFloor = 1e-8
)

// GetStart computes a starting point by fitting a regression line to
// the sigmoid-inverse-transformed response proportions and mapping
// its coefficients to the core's parameterization. It is a cheap
// closed-form guess used only to seed an optimizer; for degenerate
// data (all responses equal) the estimate is clipped but always
// finite.
func (m *Psychometric) GetStart(data *Data) []float64 {
	nb := data.NBlocks()
	var sx, sz, sxx, sxz float64
	for i := 0; i < nb; i++ {
		p := (data.Proportion(i) - m.guess) / (1 - m.guess)
		if p < startClamp {
			p = startClamp
		} else if p > 1-startClamp {
			p = 1 - startClamp
		}
		x := data.Intensity(i)
		z := m.sigmoid.Inverse(p)
		sx += x
		sz += z
		sxx += x * x
		sxz += x * z
	}
	fn := float64(nb)
	slope := (sxz - sx*sz/fn) / (sxx - sx*sx/fn)
	if math.IsNaN(slope) || math.Abs(slope) < slopeFloor {
		// degenerate data: no usable trend on the transformed
		// scale
		slope = slopeFloor
	}
	intercept := (sz - slope*sx) / fn

	p0, p1 := m.core.StartFromLine(intercept, slope)
	start := make([]float64, m.NParams())
	start[0] = p0
	start[1] = p1
	start[2] = startLapse
	if m.nAFC == 1 {
		start[3] = startGuess
	}
	return start
}
