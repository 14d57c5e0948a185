package psi

import (
	"math"
	"math/rand"
)

// OutlierModel is a psychometric function model with one separate
// data block: the excluded block is fitted by an explicit probability
// parameter instead of the sigmoid, all other blocks use the standard
// likelihood. Comparing this model to the standard one detects
// whether the block is an outlier.
type OutlierModel struct {
	*Psychometric
	jout int
}

// NewOutlierModel creates an outlier model excluding the data block
// with the given index.
func NewOutlierModel(base *Psychometric, exclude int) *OutlierModel {
	return &OutlierModel{
		Psychometric: base,
		jout:         exclude,
	}
}

// SetExclude changes the excluded block.
func (m *OutlierModel) SetExclude(exclude int) { m.jout = exclude }

// NParams returns the base model parameter count plus one for the
// excluded block's probability.
func (m *OutlierModel) NParams() int {
	return m.Psychometric.NParams() + 1
}

// getp returns the explicit probability parameter for the excluded
// block.
func (m *OutlierModel) getp(prm []float64) float64 {
	return prm[len(prm)-1]
}

// NegLogLikelihood combines the standard likelihood on all blocks but
// the excluded one with a single binomial term for the excluded block
// at the explicit parameter.
func (m *OutlierModel) NegLogLikelihood(prm []float64, data *Data) float64 {
	nll := 0.0
	for i := 0; i < data.NBlocks(); i++ {
		p := m.getp(prm)
		if i != m.jout {
			p = m.Evaluate(data.Intensity(i), prm)
		}
		nll += blockNegLog(p, data.Correct(i), data.Trials(i))
		if math.IsInf(nll, +1) {
			return nll
		}
	}
	return nll
}

// NegLogPosterior computes the negative unnormalized log posterior;
// the explicit block probability carries a flat prior on [0,1].
func (m *OutlierModel) NegLogPosterior(prm []float64, data *Data) float64 {
	p := m.getp(prm)
	if p < 0 || p > 1 {
		return math.Inf(+1)
	}
	return m.NegLogLikelihood(prm, data) + m.priorNegLog(prm, m.Psychometric.NParams())
}

// Deviance computes the deviance against the saturated model; the
// excluded block enters at the explicit parameter.
func (m *OutlierModel) Deviance(prm []float64, data *Data) float64 {
	dev := 0.0
	for i := 0; i < data.NBlocks(); i++ {
		p := m.getp(prm)
		if i != m.jout {
			p = m.Evaluate(data.Intensity(i), prm)
		}
		dev += blockDeviance(p, data.Correct(i), data.Trials(i))
	}
	return dev
}

// GetStart extends the base starting point with the excluded block's
// observed proportion.
func (m *OutlierModel) GetStart(data *Data) []float64 {
	return append(m.Psychometric.GetStart(data), data.Proportion(m.jout))
}

// RandPrior samples parameter i from its prior; the explicit block
// probability is sampled uniformly from (0,1).
func (m *OutlierModel) RandPrior(rng *rand.Rand, i int) float64 {
	if i < m.Psychometric.NParams() {
		return m.Psychometric.RandPrior(rng, i)
	}
	return rng.Float64()
}

// Bounds extends the base bounds with [0,1] for the explicit block
// probability.
func (m *OutlierModel) Bounds() (min, max []float64) {
	min, max = m.Psychometric.Bounds()
	return append(min, 0), append(max, 1)
}
