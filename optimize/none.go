package optimize

import "math"

// None is an optimizer which computes the objective at the starting
// point and exits.
type None struct {
	BaseOptimizer
}

// NewNone creates an optimizer which computes the initial value only.
func NewNone() *None {
	return &None{}
}

// Run evaluates the objective once.
func (o *None) Run(iterations int) error {
	f := o.eval(o.startPoint())
	if math.IsInf(f, +1) {
		return ErrInfeasibleStart
	}
	o.converged = true
	o.PrintHeader()
	o.PrintLine(o.bestX, f)
	o.PrintFinal("none")
	return nil
}

// Summary returns a run summary for JSON export.
func (o *None) Summary() Summary {
	return o.summary("none")
}
