// Package boot provides bootstrap and jackknife inference for fitted
// psychometric functions: percentile confidence intervals on
// parameters and thresholds, reference distributions for the residual
// diagnostics, and per-block outlier and influence measures.
package boot

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/op/go-logging"

	"bitbucket.org/psilab/psifit/checkpoint"
	"bitbucket.org/psilab/psifit/psi"
)

// log is the global logging variable.
var log = logging.MustGetLogger("boot")

// Settings control a bootstrap run.
type Settings struct {
	// NSamples is the number of bootstrap samples.
	NSamples int
	// Cuts are the performance levels for threshold intervals.
	Cuts []float64
	// Parametric selects sampling from the fitted model instead
	// of the observed proportions.
	Parametric bool
	// Iterations is the per-sample optimizer iteration cap.
	Iterations int
	// Checkpoint enables periodic saving of the run state; nil
	// disables checkpointing.
	Checkpoint *checkpoint.IO
}

// DefaultSettings returns bootstrap settings matching common usage:
// 2000 parametric samples and a threshold at the 0.5 performance
// level.
func DefaultSettings() *Settings {
	return &Settings{
		NSamples:   2000,
		Cuts:       []float64{0.5},
		Parametric: true,
		Iterations: psi.DefaultIterations,
	}
}

// Result holds the bootstrap distributions.
type Result struct {
	// Cuts are the performance levels the thresholds refer to.
	Cuts []float64
	// Samples are the resampled correct counts, one row per
	// bootstrap sample.
	Samples [][]int
	// Estimates are the refitted parameter vectors.
	Estimates [][]float64
	// Deviances are the per-sample deviances.
	Deviances []float64
	// Thresholds are the per-sample thresholds, one column per
	// cut.
	Thresholds [][]float64
	// Rpd and Rkd are the per-sample residual correlations.
	Rpd []float64
	Rkd []float64
	// Bias and Acc are the BCa bias and acceleration numbers per
	// cut.
	Bias []float64
	Acc  []float64
}

// Bootstrap resamples the dataset, refits the model on every sample
// and collects the distributions of estimates, deviances, thresholds
// and residual diagnostics. est is the fit on the original data; its
// parameters seed every refit.
func Bootstrap(m psi.Model, data *psi.Data, est *psi.Estimate, set *Settings, rng *rand.Rand) (*Result, error) {
	if set.NSamples <= 0 {
		return nil, errors.New("number of bootstrap samples must be positive")
	}

	probs := make([]float64, data.NBlocks())
	if set.Parametric {
		for i := range probs {
			probs[i] = m.Evaluate(data.Intensity(i), est.Params)
		}
	} else {
		copy(probs, data.Proportions())
	}

	r := &Result{
		Cuts:       set.Cuts,
		Samples:    make([][]int, 0, set.NSamples),
		Estimates:  make([][]float64, 0, set.NSamples),
		Deviances:  make([]float64, 0, set.NSamples),
		Thresholds: make([][]float64, 0, set.NSamples),
		Rpd:        make([]float64, 0, set.NSamples),
		Rkd:        make([]float64, 0, set.NSamples),
	}
	restore(r, set)

	for len(r.Estimates) < set.NSamples {
		d := data.Sample(rng, probs)
		e, err := psi.Fit(m, d, est.Params, set.Iterations)
		if err != nil {
			return nil, err
		}

		ks := make([]int, d.NBlocks())
		for i := range ks {
			ks[i] = d.Correct(i)
		}
		th := make([]float64, len(set.Cuts))
		for c, cut := range set.Cuts {
			th[c] = m.Threshold(e.Params, cut)
		}
		res := m.DevianceResiduals(e.Params, d)

		r.Samples = append(r.Samples, ks)
		r.Estimates = append(r.Estimates, e.Params)
		r.Deviances = append(r.Deviances, e.Deviance)
		r.Thresholds = append(r.Thresholds, th)
		r.Rpd = append(r.Rpd, m.Rpd(res, e.Params, d))
		r.Rkd = append(r.Rkd, m.Rkd(res, d))

		if set.Checkpoint != nil && set.Checkpoint.Old() {
			save(r, set, false)
		}
	}

	if err := biasAcceleration(m, data, est, set, r); err != nil {
		return nil, err
	}

	if set.Checkpoint != nil {
		save(r, set, true)
	}
	return r, nil
}

// restore loads a previously checkpointed partial run.
func restore(r *Result, set *Settings) {
	if set.Checkpoint == nil {
		return
	}
	cp, err := set.Checkpoint.Load()
	if err != nil {
		log.Error("Error loading checkpoint:", err)
		return
	}
	if cp == nil {
		return
	}
	if cp.Done > set.NSamples {
		cp.Done = set.NSamples
	}
	r.Samples = append(r.Samples, cp.Samples[:cp.Done]...)
	r.Estimates = append(r.Estimates, cp.Estimates[:cp.Done]...)
	r.Deviances = append(r.Deviances, cp.Deviances[:cp.Done]...)
	r.Thresholds = append(r.Thresholds, cp.Thresholds[:cp.Done]...)
	r.Rpd = append(r.Rpd, cp.Rpd[:cp.Done]...)
	r.Rkd = append(r.Rkd, cp.Rkd[:cp.Done]...)
	log.Noticef("Resuming bootstrap from %d finished samples", cp.Done)
}

// save writes the current run state to the checkpoint store.
func save(r *Result, set *Settings, final bool) {
	err := set.Checkpoint.Save(&checkpoint.Data{
		Done:       len(r.Estimates),
		Estimates:  r.Estimates,
		Deviances:  r.Deviances,
		Thresholds: r.Thresholds,
		Samples:    r.Samples,
		Rpd:        r.Rpd,
		Rkd:        r.Rkd,
		Final:      final,
	})
	if err != nil {
		log.Error("Error saving checkpoint:", err)
	}
}

// biasAcceleration fills in the BCa bias correction (from the
// bootstrap threshold distribution) and acceleration (from a
// leave-one-block-out jackknife) per cut.
func biasAcceleration(m psi.Model, data *psi.Data, est *psi.Estimate, set *Settings, r *Result) error {
	ncuts := len(set.Cuts)
	r.Bias = make([]float64, ncuts)
	r.Acc = make([]float64, ncuts)

	ns := float64(len(r.Thresholds))
	for c, cut := range set.Cuts {
		th := m.Threshold(est.Params, cut)
		below := 0
		for _, row := range r.Thresholds {
			if row[c] < th {
				below++
			}
		}
		frac := (float64(below) + 0.5) / (ns + 1)
		r.Bias[c] = psi.Gauss{}.Inverse(frac)
	}

	// jackknife thresholds for the acceleration
	jk := make([][]float64, data.NBlocks())
	for i := range jk {
		d := data.Exclude(i)
		e, err := psi.Fit(m, d, est.Params, set.Iterations)
		if err != nil {
			return err
		}
		jk[i] = make([]float64, ncuts)
		for c, cut := range set.Cuts {
			jk[i][c] = m.Threshold(e.Params, cut)
		}
	}
	for c := range set.Cuts {
		mean := 0.0
		for i := range jk {
			mean += jk[i][c]
		}
		mean /= float64(len(jk))
		var s2, s3 float64
		for i := range jk {
			d := mean - jk[i][c]
			s2 += d * d
			s3 += d * d * d
		}
		if s2 > 0 {
			r.Acc[c] = s3 / (6 * math.Pow(s2, 1.5))
		}
	}
	return nil
}

// Percentile returns the q-th percentile (0 < q < 1) of the bootstrap
// distribution of parameter i.
func (r *Result) Percentile(q float64, i int) float64 {
	v := make([]float64, len(r.Estimates))
	for s, e := range r.Estimates {
		v[s] = e[i]
	}
	return percentile(v, q)
}

// ThresholdPercentile returns the q-th percentile of the bootstrap
// threshold distribution at cut index c.
func (r *Result) ThresholdPercentile(q float64, c int) float64 {
	v := make([]float64, len(r.Thresholds))
	for s, row := range r.Thresholds {
		v[s] = row[c]
	}
	return percentile(v, q)
}

// percentile computes an order-statistic percentile of a sample.
func percentile(v []float64, q float64) float64 {
	s := make([]float64, len(v))
	copy(s, v)
	sort.Float64s(s)
	i := int(q * float64(len(s)))
	if i >= len(s) {
		i = len(s) - 1
	}
	if i < 0 {
		i = 0
	}
	return s[i]
}

// Jackknife refits the model with every block left out in turn. A
// block is an outlier if its observed count falls outside the central
// 95% of the binomial prediction of the model fitted without that
// block; its influence is the largest parameter shift measured in
// units of the corresponding confidence interval width (ciLo, ciHi
// from a bootstrap run).
func Jackknife(m psi.Model, data *psi.Data, est *psi.Estimate, iterations int, ciLo, ciHi []float64) (outliers []bool, influence []float64, err error) {
	nb := data.NBlocks()
	outliers = make([]bool, nb)
	influence = make([]float64, nb)
	for i := 0; i < nb; i++ {
		d := data.Exclude(i)
		e, err := psi.Fit(m, d, est.Params, iterations)
		if err != nil {
			return nil, nil, err
		}

		p := m.Evaluate(data.Intensity(i), e.Params)
		lo, hi := binomialInterval(data.Trials(i), p, 0.95)
		k := data.Correct(i)
		outliers[i] = k < lo || k > hi

		for j := range est.Params {
			w := ciHi[j] - ciLo[j]
			if w <= 0 {
				continue
			}
			f := math.Abs(e.Params[j]-est.Params[j]) / w
			if f > influence[i] {
				influence[i] = f
			}
		}
	}
	return outliers, influence, nil
}

// binomialInterval returns the bounds of the central probability mass
// of a binomial distribution.
func binomialInterval(n int, p, mass float64) (lo, hi int) {
	if p <= 0 {
		return 0, 0
	}
	if p >= 1 {
		return n, n
	}
	tail := (1 - mass) / 2
	cum := 0.0
	lo, hi = 0, n
	for k := 0; k <= n; k++ {
		cum += binomialPMF(n, k, p)
		if cum < tail {
			lo = k + 1
		}
		if cum >= 1-tail {
			hi = k
			break
		}
	}
	return lo, hi
}

// binomialPMF computes the binomial probability mass via log-gamma.
func binomialPMF(n, k int, p float64) float64 {
	ln, _ := math.Lgamma(float64(n + 1))
	lk, _ := math.Lgamma(float64(k + 1))
	lnk, _ := math.Lgamma(float64(n - k + 1))
	return math.Exp(ln - lk - lnk +
		float64(k)*math.Log(p) + float64(n-k)*math.Log(1-p))
}
