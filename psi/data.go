// Package psi implements a psychometric function model for binomial
// trial data: the probability of a correct response as a function of
// stimulus intensity. The model combines a core transform, a sigmoid
// and optional priors; it is fitted by minimizing the negative
// log-posterior with the optimize package.
package psi

import (
	"errors"
	"math/rand"

	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("psi")

// Data stores binomial trial blocks of a psychophysical experiment.
// Every block has a stimulus intensity, a number of trials and a
// number of correct responses. Data is read-only after construction.
type Data struct {
	x []float64
	k []int
	n []int
}

// NewData creates a dataset from parallel slices of intensities,
// correct-response counts and trial counts.
func NewData(x []float64, k, n []int) (*Data, error) {
	if len(x) != len(k) || len(x) != len(n) {
		return nil, errors.New("intensity, correct and trial slices have different lengths")
	}
	if len(x) == 0 {
		return nil, errors.New("empty dataset")
	}
	for i := range x {
		if n[i] <= 0 {
			return nil, errors.New("block with no trials")
		}
		if k[i] < 0 || k[i] > n[i] {
			return nil, errors.New("correct count outside [0, trials]")
		}
	}
	d := &Data{
		x: make([]float64, len(x)),
		k: make([]int, len(k)),
		n: make([]int, len(n)),
	}
	copy(d.x, x)
	copy(d.k, k)
	copy(d.n, n)
	return d, nil
}

// NBlocks returns the number of trial blocks.
func (d *Data) NBlocks() int { return len(d.x) }

// Intensity returns the stimulus intensity of block i.
func (d *Data) Intensity(i int) float64 { return d.x[i] }

// Correct returns the number of correct responses in block i.
func (d *Data) Correct(i int) int { return d.k[i] }

// Trials returns the number of trials in block i.
func (d *Data) Trials(i int) int { return d.n[i] }

// Proportion returns the observed proportion of correct responses in
// block i.
func (d *Data) Proportion(i int) float64 {
	return float64(d.k[i]) / float64(d.n[i])
}

// Proportions returns the observed proportions of all blocks.
func (d *Data) Proportions() []float64 {
	p := make([]float64, len(d.x))
	for i := range p {
		p[i] = d.Proportion(i)
	}
	return p
}

// Exclude returns a copy of the dataset without block i.
func (d *Data) Exclude(i int) *Data {
	nd := &Data{}
	nd.x = append(append(nd.x, d.x[:i]...), d.x[i+1:]...)
	nd.k = append(append(nd.k, d.k[:i]...), d.k[i+1:]...)
	nd.n = append(append(nd.n, d.n[:i]...), d.n[i+1:]...)
	return nd
}

// Sample draws a new dataset with the same design (intensities and
// trial counts) and correct counts drawn binomially with the given
// per-block success probabilities. With probabilities from a fitted
// model this is a parametric bootstrap sample, with the observed
// proportions a nonparametric one.
func (d *Data) Sample(rng *rand.Rand, p []float64) *Data {
	nd := &Data{
		x: d.x,
		n: d.n,
		k: make([]int, len(d.k)),
	}
	for i := range d.k {
		nd.k[i] = binomial(rng, d.n[i], p[i])
	}
	return nd
}

// binomial draws from a binomial distribution.
func binomial(rng *rand.Rand, n int, p float64) (k int) {
	for i := 0; i < n; i++ {
		if rng.Float64() < p {
			k++
		}
	}
	return
}
