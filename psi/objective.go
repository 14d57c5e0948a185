package psi

import (
	"bitbucket.org/psilab/psifit/optimize"
)

// objective binds a model and a dataset into an optimize.Objective
// minimizing the negative log-posterior.
type objective struct {
	m    Model
	data *Data
}

// Objective creates the fitting objective for a model and a dataset.
// The returned objective also exposes the model's box constraints for
// bounded optimizers.
func Objective(m Model, data *Data) optimize.Bounded {
	return &objective{m: m, data: data}
}

// NDim returns the dimension of the parameter space.
func (o *objective) NDim() int { return o.m.NParams() }

// Eval computes the negative log-posterior; infeasible parameter
// vectors evaluate to +Inf so the optimizer moves away from them.
func (o *objective) Eval(prm []float64) float64 {
	return o.m.NegLogPosterior(prm, o.data)
}

// Bounds returns the model's box constraints.
func (o *objective) Bounds() (min, max []float64) {
	return o.m.Bounds()
}
