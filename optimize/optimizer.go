// Package optimize provides minimization of scalar objective functions
// such as a negative log-likelihood or negative log-posterior. It
// includes a derivative-free downhill simplex method, an L-BFGS-B
// wrapper and a simulated annealing sampler.
package optimize

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"

	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("optimize")

// ErrDimension is returned if a starting vector length doesn't match
// the objective dimension.
var ErrDimension = errors.New("starting vector length does not match objective dimension")

// ErrInfeasibleStart is returned if the objective cannot be evaluated
// at the starting point (or at one of the initial simplex vertices).
var ErrInfeasibleStart = errors.New("objective is not finite at the starting point")

// Objective is a scalar function to be minimized. Implementations
// should return +Inf for infeasible parameter vectors instead of NaN
// or panicking; an optimizer treats such points as worse than any
// feasible point.
type Objective interface {
	// NDim returns the dimension of the parameter space.
	NDim() int
	// Eval returns the objective value at x. The slice is owned by
	// the optimizer and must not be retained or modified.
	Eval(x []float64) float64
}

// Bounded is an Objective with box constraints on the parameters.
type Bounded interface {
	Objective
	// Bounds returns lower and upper parameter bounds.
	Bounds() (min, max []float64)
}

// Optimizer is an interface for a function minimizer.
type Optimizer interface {
	// SetObjective sets the function to minimize.
	SetObjective(Objective)
	// SetStart sets the starting point.
	SetStart([]float64) error
	// WatchSignals installs a signal handler stopping the
	// optimization gracefully.
	WatchSignals(...os.Signal)
	// SetReportPeriod sets how often the trajectory is reported.
	SetReportPeriod(period int)
	// SetTrajectoryOutput sets an output writer for the
	// optimization trajectory.
	SetTrajectoryOutput(io.Writer)
	// Run performs at most iterations iterations.
	Run(iterations int) error
	// BestX returns the best point found so far.
	BestX() []float64
	// BestF returns the objective value at the best point.
	BestF() float64
	// Converged reports whether the last Run met its tolerance
	// before exhausting the iteration limit.
	Converged() bool
	// Summary returns a run summary for JSON export.
	Summary() Summary
}

// Summary stores summary information about an optimizer run.
type Summary struct {
	// Method is the optimization method name.
	Method string `json:"method"`
	// Iterations is the number of performed iterations.
	Iterations int `json:"iterations"`
	// Calls is the number of objective function calls.
	Calls int `json:"calls"`
	// Converged indicates that the tolerance was met.
	Converged bool `json:"converged"`
	// BestF is the smallest objective value found.
	BestF float64 `json:"bestF"`
	// BestX is the point with the smallest objective value.
	BestX []float64 `json:"bestX"`
}

// BaseOptimizer contains basic data for an optimizer.
type BaseOptimizer struct {
	obj   Objective
	start []float64

	i         int
	calls     int
	bestF     float64
	bestX     []float64
	converged bool

	repPeriod int
	sig       chan os.Signal
	traj      io.Writer

	// Quiet disables result logging.
	Quiet bool
}

// SetObjective sets the function to minimize.
func (o *BaseOptimizer) SetObjective(obj Objective) {
	o.obj = obj
	o.bestF = math.Inf(+1)
	o.bestX = make([]float64, obj.NDim())
	o.start = nil
}

// SetStart sets the starting point.
func (o *BaseOptimizer) SetStart(start []float64) error {
	if o.obj == nil || len(start) != o.obj.NDim() {
		return ErrDimension
	}
	o.start = make([]float64, len(start))
	copy(o.start, start)
	return nil
}

// startPoint returns the starting point, zero vector if none was set.
func (o *BaseOptimizer) startPoint() []float64 {
	if o.start == nil {
		o.start = make([]float64, o.obj.NDim())
	}
	return o.start
}

// WatchSignals installs a signal handler stopping the optimization
// gracefully.
func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

// SetReportPeriod sets how often the trajectory is reported.
func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// SetTrajectoryOutput sets an output writer for the optimization
// trajectory.
func (o *BaseOptimizer) SetTrajectoryOutput(w io.Writer) {
	o.traj = w
}

// stopped checks for a pending signal.
func (o *BaseOptimizer) stopped() bool {
	select {
	case s := <-o.sig:
		log.Warningf("Received signal %v, exiting.", s)
		return true
	default:
	}
	return false
}

// eval evaluates the objective at x, counts the call and updates the
// best point. NaN is mapped to +Inf so a pathological evaluation is
// rejected instead of poisoning comparisons.
func (o *BaseOptimizer) eval(x []float64) float64 {
	v := o.obj.Eval(x)
	o.calls++
	if math.IsNaN(v) {
		v = math.Inf(+1)
	}
	if v < o.bestF {
		o.bestF = v
		copy(o.bestX, x)
	}
	return v
}

// BestX returns a copy of the best point found so far.
func (o *BaseOptimizer) BestX() []float64 {
	x := make([]float64, len(o.bestX))
	copy(x, o.bestX)
	return x
}

// BestF returns the objective value at the best point.
func (o *BaseOptimizer) BestF() float64 {
	return o.bestF
}

// Converged reports whether the last Run met its tolerance.
func (o *BaseOptimizer) Converged() bool {
	return o.converged
}

// Calls returns the number of objective function calls.
func (o *BaseOptimizer) Calls() int {
	return o.calls
}

// PrintHeader prints a trajectory header.
func (o *BaseOptimizer) PrintHeader() {
	if o.traj != nil {
		fmt.Fprintf(o.traj, "iteration\tvalue\tpoint\n")
	}
}

// PrintLine prints a single trajectory line.
func (o *BaseOptimizer) PrintLine(x []float64, f float64) {
	if o.traj != nil {
		fmt.Fprintf(o.traj, "%d\t%f\t%v\n", o.i, f, x)
	}
}

// PrintFinal reports the optimization result.
func (o *BaseOptimizer) PrintFinal(method string) {
	if !o.Quiet {
		log.Noticef("%s: minimum value %v after %d iterations (%d calls)",
			method, o.bestF, o.i, o.calls)
		log.Infof("Best point: %v", o.bestX)
	}
	o.PrintLine(o.bestX, o.bestF)
}

// summary creates a summary with a given method name.
func (o *BaseOptimizer) summary(method string) Summary {
	return Summary{
		Method:     method,
		Iterations: o.i,
		Calls:      o.calls,
		Converged:  o.converged,
		BestF:      o.bestF,
		BestX:      o.BestX(),
	}
}
