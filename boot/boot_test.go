package boot

import (
	"math"
	"math/rand"
	"testing"

	"bitbucket.org/psilab/psifit/psi"
)

func setup(tst testing.TB) (*psi.Psychometric, *psi.Data, *psi.Estimate) {
	m, err := psi.NewPsychometric(2, psi.ABCore{}, psi.Logistic{})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if err := m.SetPrior(2, psi.UniformPrior{Min: 0, Max: 0.1}); err != nil {
		tst.Fatal("Error: ", err)
	}
	data, err := psi.NewData(
		[]float64{1, 2, 3, 4, 5, 6, 7},
		[]int{52, 56, 63, 75, 87, 94, 98},
		[]int{100, 100, 100, 100, 100, 100, 100})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	est, err := psi.Fit(m, data, nil, 0)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return m, data, est
}

func TestBootstrap(tst *testing.T) {
	m, data, est := setup(tst)
	set := DefaultSettings()
	set.NSamples = 40
	set.Cuts = []float64{0.25, 0.5, 0.75}

	rng := rand.New(rand.NewSource(7))
	r, err := Bootstrap(m, data, est, set, rng)
	if err != nil {
		tst.Fatal("Error: ", err)
	}

	if len(r.Estimates) != set.NSamples ||
		len(r.Deviances) != set.NSamples ||
		len(r.Thresholds) != set.NSamples ||
		len(r.Samples) != set.NSamples ||
		len(r.Rpd) != set.NSamples ||
		len(r.Rkd) != set.NSamples {
		tst.Fatal("Wrong result lengths")
	}
	for i := range r.Estimates {
		if len(r.Estimates[i]) != m.NParams() {
			tst.Fatal("Wrong estimate length in sample", i)
		}
		if len(r.Thresholds[i]) != len(set.Cuts) {
			tst.Fatal("Wrong threshold number in sample", i)
		}
		if !finiteAll(r.Estimates[i]) || !finiteAll(r.Thresholds[i]) {
			tst.Error("Non-finite refit in sample", i)
		}
		if r.Deviances[i] < 0 {
			tst.Error("Negative deviance in sample", i)
		}
	}
	if len(r.Bias) != len(set.Cuts) || len(r.Acc) != len(set.Cuts) {
		tst.Fatal("Wrong bias/acceleration lengths")
	}
	for c := range set.Cuts {
		if !finite(r.Bias[c]) || !finite(r.Acc[c]) {
			tst.Error("Non-finite bias or acceleration for cut", c)
		}
	}

	// percentiles must be ordered
	for i := 0; i < m.NParams(); i++ {
		lo := r.Percentile(0.025, i)
		mid := r.Percentile(0.5, i)
		hi := r.Percentile(0.975, i)
		if lo > mid || mid > hi {
			tst.Error("Unordered percentiles for parameter", i, ":", lo, mid, hi)
		}
	}
	for c := range set.Cuts {
		lo := r.ThresholdPercentile(0.025, c)
		hi := r.ThresholdPercentile(0.975, c)
		if lo > hi {
			tst.Error("Unordered threshold percentiles for cut", c)
		}
		// the interval should cover the point estimate for clean
		// data
		th := m.Threshold(est.Params, set.Cuts[c])
		if th < lo || th > hi {
			tst.Error("Threshold estimate outside its bootstrap interval:", th, lo, hi)
		}
	}
}

func TestBootstrapNonparametric(tst *testing.T) {
	m, data, est := setup(tst)
	set := DefaultSettings()
	set.NSamples = 10
	set.Parametric = false

	rng := rand.New(rand.NewSource(7))
	r, err := Bootstrap(m, data, est, set, rng)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if len(r.Estimates) != set.NSamples {
		tst.Fatal("Wrong result length")
	}
	// resampled counts keep the design
	for i := range r.Samples {
		if len(r.Samples[i]) != data.NBlocks() {
			tst.Fatal("Wrong sample length in sample", i)
		}
		for j, k := range r.Samples[i] {
			if k < 0 || k > data.Trials(j) {
				tst.Error("Resampled count outside [0, trials]:", k)
			}
		}
	}
}

func TestJackknife(tst *testing.T) {
	m, data, est := setup(tst)

	// confidence limits from a quick bootstrap
	set := DefaultSettings()
	set.NSamples = 30
	rng := rand.New(rand.NewSource(3))
	r, err := Bootstrap(m, data, est, set, rng)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	ciLo := make([]float64, m.NParams())
	ciHi := make([]float64, m.NParams())
	for i := range ciLo {
		ciLo[i] = r.Percentile(0.025, i)
		ciHi[i] = r.Percentile(0.975, i)
	}

	outliers, influence, err := Jackknife(m, data, est, 0, ciLo, ciHi)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if len(outliers) != data.NBlocks() || len(influence) != data.NBlocks() {
		tst.Fatal("Wrong diagnostic lengths")
	}
	for i, v := range influence {
		if v < 0 || !finite(v) {
			tst.Error("Implausible influence for block", i, ":", v)
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteAll(v []float64) bool {
	for _, x := range v {
		if !finite(x) {
			return false
		}
	}
	return true
}
