package optimize

import (
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// LBFGSB is a limited-memory Broyden-Fletcher-Goldfarb-Shanno
// optimizer with bounding constraints. The gradient is approximated
// with central finite differences.
type LBFGSB struct {
	BaseOptimizer
	dH   float64
	grad []float64
	xh   []float64
}

// NewLBFGSB creates a new L-BFGS-B optimizer.
func NewLBFGSB() (l *LBFGSB) {
	l = &LBFGSB{
		dH: 1e-6,
	}
	l.repPeriod = 10
	return
}

// Logger reports optimizer progress.
func (l *LBFGSB) Logger(info *lbfgsb.OptimizationIterationInformation) {
	l.i = info.Iteration
	if l.i%l.repPeriod == 0 {
		log.Debugf("%d: f=%f", l.i, info.F)
		l.PrintLine(info.X, info.F)
	}
}

// EvaluateFunction evaluates the objective (lbfgsb interface).
func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	return l.eval(x)
}

// EvaluateGradient computes a finite-difference gradient (lbfgsb
// interface).
func (l *LBFGSB) EvaluateGradient(x []float64) []float64 {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
		l.xh = make([]float64, len(x))
	}
	copy(l.xh, x)
	for i := range x {
		l.xh[i] = x[i] - l.dH
		f1 := l.eval(l.xh)
		l.xh[i] = x[i] + l.dH
		f2 := l.eval(l.xh)
		l.xh[i] = x[i]
		l.grad[i] = (f2 - f1) / 2 / l.dH
	}
	return l.grad
}

// Run minimizes the objective.
func (l *LBFGSB) Run(iterations int) error {
	l.converged = false
	l.PrintHeader()

	start := l.startPoint()
	if math.IsInf(l.eval(start), +1) {
		return ErrInfeasibleStart
	}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)
	opt.SetLogger(l.Logger)

	if b, ok := l.obj.(Bounded); ok {
		min, max := b.Bounds()
		bounds := make([][2]float64, len(min))
		for i := range bounds {
			bounds[i][0] = min[i]
			bounds[i][1] = max[i]
		}
		opt.SetBounds(bounds)
	}

	_, exitStatus := opt.Minimize(l, start)
	log.Infof("L-BFGS-B exit status: %v", exitStatus)
	l.converged = l.i < iterations

	l.PrintFinal("L-BFGS-B")
	return nil
}

// Summary returns a run summary for JSON export.
func (l *LBFGSB) Summary() Summary {
	return l.summary("lbfgsb")
}
