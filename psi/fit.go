package psi

import (
	"bitbucket.org/psilab/psifit/optimize"
)

// Default fitting limits.
const (
	DefaultIterations = 10000
)

// Estimate is the result of a maximum-a-posteriori fit.
type Estimate struct {
	// Params is the fitted parameter vector.
	Params []float64 `json:"params"`
	// NegLogPost is the minimized negative log-posterior.
	NegLogPost float64 `json:"negLogPost"`
	// Deviance is the deviance at the fitted parameters.
	Deviance float64 `json:"deviance"`
	// Converged indicates that the optimizer met its tolerance
	// before hitting the iteration cap. A best-effort estimate is
	// returned either way.
	Converged bool `json:"converged"`
	// Calls is the number of objective evaluations.
	Calls int `json:"calls"`
}

// Fit fits a model to data with the downhill simplex optimizer. A nil
// start uses the model's heuristic starting point. The iteration cap
// is a soft limit: exceeding it yields a warning flag on the
// estimate, not an error.
func Fit(m Model, data *Data, start []float64, iterations int) (*Estimate, error) {
	if start == nil {
		start = m.GetStart(data)
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	s := optimize.NewSimplex()
	s.Quiet = true
	return FitWith(s, m, data, start, iterations)
}

// FitWith fits a model to data with a caller-supplied optimizer.
func FitWith(opt optimize.Optimizer, m Model, data *Data, start []float64, iterations int) (*Estimate, error) {
	opt.SetObjective(Objective(m, data))
	if err := opt.SetStart(start); err != nil {
		return nil, err
	}
	if err := opt.Run(iterations); err != nil {
		return nil, err
	}
	if !opt.Converged() {
		log.Warning("Fit did not converge, returning best point found")
	}

	prm := opt.BestX()
	return &Estimate{
		Params:     prm,
		NegLogPost: opt.BestF(),
		Deviance:   m.Deviance(prm, data),
		Converged:  opt.Converged(),
		Calls:      opt.Summary().Calls,
	}, nil
}
