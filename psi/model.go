package psi

import (
	"errors"
	"math"
	"math/rand"

	"github.com/gonum/mathext"
)

// Model is the objective contract shared by the standard psychometric
// function and its variants. Parameter vectors are immutable per
// call; all model state is fixed for the lifetime of a fit.
type Model interface {
	// NParams returns the number of free parameters.
	NParams() int
	// Evaluate computes the response probability at intensity x.
	// For pathological parameters the result may fall outside
	// [0,1] or be NaN; the likelihood maps such values to +Inf.
	Evaluate(x float64, prm []float64) float64
	// NegLogLikelihood computes the negative binomial
	// log-likelihood of the data.
	NegLogLikelihood(prm []float64, data *Data) float64
	// NegLogPosterior computes the negative unnormalized log
	// posterior; parameters without a prior contribute a constant
	// which is omitted.
	NegLogPosterior(prm []float64, data *Data) float64
	// Deviance computes twice the log-likelihood ratio between
	// the saturated and the fitted model.
	Deviance(prm []float64, data *Data) float64
	// Threshold computes the stimulus intensity at which the
	// sigmoid part reaches the performance level cut.
	Threshold(prm []float64, cut float64) float64
	// DevianceResiduals computes signed per-block deviance
	// residuals for model checking.
	DevianceResiduals(prm []float64, data *Data) []float64
	// Rpd computes the correlation between deviance residuals
	// and model predictions.
	Rpd(residuals, prm []float64, data *Data) float64
	// Rkd computes the correlation between deviance residuals
	// and the block sequence.
	Rkd(residuals []float64, data *Data) float64
	// GetStart computes a heuristic starting point from the data.
	GetStart(data *Data) []float64
	// RandPrior samples parameter i from its prior; parameters
	// without a prior are sampled uniformly from (0,1).
	RandPrior(rng *rand.Rand, i int) float64
	// Bounds returns box constraints for the parameters.
	Bounds() (min, max []float64)
}

// Psychometric is the standard psychometric function model. The
// probability of a correct response is
//
//	Psi(x) = guess + (1-guess-lapse) * sigmoid(core(x, prm))
//
// where the guessing rate is fixed at 1/nAFC for a forced-choice task
// and is a free parameter for a yes/no task (nAFC == 1).
type Psychometric struct {
	nAFC    int
	guess   float64
	core    Core
	sigmoid Sigmoid
	priors  []Prior
}

// NewPsychometric creates a psychometric function model for an nAFC
// task; nAFC == 1 denotes a yes/no task with a free guessing rate.
func NewPsychometric(nAFC int, core Core, sigmoid Sigmoid) (*Psychometric, error) {
	if nAFC < 1 {
		return nil, errors.New("number of alternatives must be >= 1")
	}
	m := &Psychometric{
		nAFC:    nAFC,
		core:    core,
		sigmoid: sigmoid,
	}
	if nAFC > 1 {
		m.guess = 1 / float64(nAFC)
	}
	m.priors = make([]Prior, m.NParams())
	return m, nil
}

// NParams returns the number of free parameters: two core parameters
// and a lapse rate, plus a guessing rate for yes/no tasks.
func (m *Psychometric) NParams() int {
	if m.nAFC == 1 {
		return 4
	}
	return 3
}

// NAlternatives returns the number of alternatives (1 means yes/no).
func (m *Psychometric) NAlternatives() int { return m.nAFC }

// Core returns the core of the psychometric function.
func (m *Psychometric) Core() Core { return m.core }

// Sigmoid returns the sigmoid of the psychometric function.
func (m *Psychometric) Sigmoid() Sigmoid { return m.sigmoid }

// SetPrior sets a prior for the parameter with the given index. A nil
// prior means flat.
func (m *Psychometric) SetPrior(i int, prior Prior) error {
	if i < 0 || i >= len(m.priors) {
		return errors.New("prior index out of range")
	}
	m.priors[i] = prior
	return nil
}

// rates returns the guessing and lapse rates for a parameter vector.
func (m *Psychometric) rates(prm []float64) (guess, lapse float64) {
	guess = m.guess
	if m.nAFC == 1 {
		guess = prm[3]
	}
	return guess, prm[2]
}

// Evaluate computes the response probability at intensity x.
func (m *Psychometric) Evaluate(x float64, prm []float64) float64 {
	guess, lapse := m.rates(prm)
	return guess + (1-guess-lapse)*m.sigmoid.Apply(m.core.Transform(x, prm))
}

// blockNegLog computes the negative log-likelihood contribution of a
// single block with probability p. Zero counts contribute nothing
// regardless of p; a nonzero count at p == 0 or p == 1 makes the
// block infeasible.
func blockNegLog(p float64, k, n int) float64 {
	if !finite(p) || p < 0 || p > 1 {
		return math.Inf(+1)
	}
	nll := 0.0
	if k > 0 {
		if p == 0 {
			return math.Inf(+1)
		}
		nll -= float64(k) * math.Log(p)
	}
	if n-k > 0 {
		if p == 1 {
			return math.Inf(+1)
		}
		nll -= float64(n-k) * math.Log(1-p)
	}
	return nll
}

// NegLogLikelihood computes the negative binomial log-likelihood.
func (m *Psychometric) NegLogLikelihood(prm []float64, data *Data) float64 {
	nll := 0.0
	for i := 0; i < data.NBlocks(); i++ {
		nll += blockNegLog(m.Evaluate(data.Intensity(i), prm), data.Correct(i), data.Trials(i))
		if math.IsInf(nll, +1) {
			return nll
		}
	}
	return nll
}

// priorNegLog sums the negative log densities of the first n
// parameters with assigned priors.
func (m *Psychometric) priorNegLog(prm []float64, n int) float64 {
	nlp := 0.0
	for i := 0; i < n; i++ {
		if m.priors[i] != nil {
			nlp -= m.priors[i].LogPDF(prm[i])
		}
	}
	return nlp
}

// NegLogPosterior computes the negative unnormalized log posterior.
// This is the default objective minimized during fitting.
func (m *Psychometric) NegLogPosterior(prm []float64, data *Data) float64 {
	return m.NegLogLikelihood(prm, data) + m.priorNegLog(prm, len(m.priors))
}

// blockDeviance computes the deviance contribution of a single block.
func blockDeviance(p float64, k, n int) float64 {
	if !finite(p) {
		return math.Inf(+1)
	}
	phat := float64(k) / float64(n)
	d := 0.0
	if k > 0 {
		if p <= 0 {
			return math.Inf(+1)
		}
		d += float64(k) * math.Log(phat/p)
	}
	if n-k > 0 {
		if p >= 1 {
			return math.Inf(+1)
		}
		d += float64(n-k) * math.Log((1-phat)/(1-p))
	}
	return 2 * d
}

// Deviance computes twice the log-likelihood ratio between the
// saturated model (predicting every block perfectly) and the fitted
// model. It is a goodness-of-fit statistic, not an optimization
// objective.
func (m *Psychometric) Deviance(prm []float64, data *Data) float64 {
	dev := 0.0
	for i := 0; i < data.NBlocks(); i++ {
		dev += blockDeviance(m.Evaluate(data.Intensity(i), prm), data.Correct(i), data.Trials(i))
	}
	return dev
}

// DevianceResiduals computes the signed per-block deviance residuals
// for model checking.
func (m *Psychometric) DevianceResiduals(prm []float64, data *Data) []float64 {
	r := make([]float64, data.NBlocks())
	for i := range r {
		p := m.Evaluate(data.Intensity(i), prm)
		d := blockDeviance(p, data.Correct(i), data.Trials(i))
		r[i] = math.Sqrt(d)
		if data.Proportion(i) < p {
			r[i] = -r[i]
		}
	}
	return r
}

// correlation computes the Pearson correlation coefficient.
func correlation(a, b []float64) float64 {
	var ma, mb float64
	for i := range a {
		ma += a[i]
		mb += b[i]
	}
	ma /= float64(len(a))
	mb /= float64(len(b))
	var sab, sa, sb float64
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		sab += da * db
		sa += da * da
		sb += db * db
	}
	return sab / math.Sqrt(sa*sb)
}

// Rpd computes the correlation between deviance residuals and model
// predictions.
func (m *Psychometric) Rpd(residuals, prm []float64, data *Data) float64 {
	p := make([]float64, data.NBlocks())
	for i := range p {
		p[i] = m.Evaluate(data.Intensity(i), prm)
	}
	return correlation(residuals, p)
}

// Rkd computes the correlation between deviance residuals and the
// block sequence.
func (m *Psychometric) Rkd(residuals []float64, data *Data) float64 {
	k := make([]float64, data.NBlocks())
	for i := range k {
		k[i] = float64(i)
	}
	return correlation(residuals, k)
}

// Threshold computes the stimulus intensity at which the sigmoid part
// of the model reaches the performance level cut (0 < cut < 1).
func (m *Psychometric) Threshold(prm []float64, cut float64) float64 {
	return m.core.Inverse(m.sigmoid.Inverse(cut), prm)
}

// RandPrior samples parameter i from its prior.
func (m *Psychometric) RandPrior(rng *rand.Rand, i int) float64 {
	if m.priors[i] == nil {
		return rng.Float64()
	}
	return m.priors[i].Rand(rng)
}

// Bounds returns box constraints: the core parameters are
// unconstrained, the lapse rate (and for yes/no tasks the guessing
// rate) lies in [0,1].
func (m *Psychometric) Bounds() (min, max []float64) {
	n := m.NParams()
	min = make([]float64, n)
	max = make([]float64, n)
	for i := 0; i < 2; i++ {
		min[i] = math.Inf(-1)
		max[i] = math.Inf(+1)
	}
	for i := 2; i < n; i++ {
		min[i] = 0
		max[i] = 1
	}
	return min, max
}

// GoodnessOfFit returns the chi-square survival probability of a
// deviance at the given residual degrees of freedom. Small values
// indicate a poor fit.
func GoodnessOfFit(deviance float64, df int) float64 {
	if df <= 0 || deviance < 0 {
		return math.NaN()
	}
	return mathext.GammaIncComp(float64(df)/2, deviance/2)
}
