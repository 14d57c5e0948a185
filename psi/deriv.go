package psi

import (
	"errors"
	"math"

	"github.com/gonum/matrix/mat64"
)

// ErrSingular is returned when a finite-difference Hessian is
// singular or too ill-conditioned for the requested computation.
// Callers needing confidence intervals should treat this as "interval
// unavailable" rather than a failed fit.
var ErrSingular = errors.New("singular or ill-conditioned Hessian")

// ErrUnsupported is returned for derived quantities other than the
// threshold.
var ErrUnsupported = errors.New("only threshold computations are supported")

// sqrtEps is the square root of the double precision machine epsilon.
const sqrtEps = 1.4901161193847656e-08

// derivFloor keeps finite-difference steps away from zero for
// parameters close to zero.
const derivFloor = 0.1

// step returns the finite-difference step for parameter value v. The
// step scales with the parameter so that neither cancellation nor
// truncation dominates.
func step(v float64) float64 {
	return sqrtEps * math.Max(math.Abs(v), derivFloor)
}

// Gradient computes a finite-difference approximation of the gradient
// of the negative log-likelihood. Central differences are used where
// both neighboring points are feasible, one-sided differences at a
// feasibility boundary.
func Gradient(m Model, prm []float64, data *Data) []float64 {
	grad := make([]float64, len(prm))
	w := make([]float64, len(prm))
	copy(w, prm)
	f0 := math.NaN()
	for i := range prm {
		h := step(prm[i])
		w[i] = prm[i] + h
		fp := m.NegLogLikelihood(w, data)
		w[i] = prm[i] - h
		fm := m.NegLogLikelihood(w, data)
		w[i] = prm[i]
		switch {
		case finite(fp) && finite(fm):
			grad[i] = (fp - fm) / (2 * h)
		case finite(fp):
			if math.IsNaN(f0) {
				f0 = m.NegLogLikelihood(prm, data)
			}
			grad[i] = (fp - f0) / h
		case finite(fm):
			if math.IsNaN(f0) {
				f0 = m.NegLogLikelihood(prm, data)
			}
			grad[i] = (f0 - fm) / h
		default:
			grad[i] = math.Inf(+1)
		}
	}
	return grad
}

// Hessian computes a finite-difference Hessian of the negative
// log-likelihood. The matrix is symmetric by construction: the
// off-diagonal terms are computed both ways and averaged.
func Hessian(m Model, prm []float64, data *Data) (*mat64.SymDense, error) {
	n := len(prm)
	hess := mat64.NewSymDense(n, nil)
	w := make([]float64, n)
	copy(w, prm)

	f := func() float64 { return m.NegLogLikelihood(w, data) }
	f0 := f()

	for i := 0; i < n; i++ {
		hi := step(prm[i])
		w[i] = prm[i] + hi
		fp := f()
		w[i] = prm[i] - hi
		fm := f()
		w[i] = prm[i]
		hess.SetSym(i, i, (fp-2*f0+fm)/(hi*hi))

		for j := i + 1; j < n; j++ {
			hj := step(prm[j])
			d1 := cross(f, w, prm, i, j, hi, hj)
			d2 := cross(f, w, prm, j, i, hj, hi)
			hess.SetSym(i, j, (d1+d2)/2)
		}
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if !finite(hess.At(i, j)) {
				return nil, ErrSingular
			}
		}
	}
	return hess, nil
}

// cross computes a four-point mixed second difference of f with
// respect to parameters i and j.
func cross(f func() float64, w, prm []float64, i, j int, hi, hj float64) float64 {
	eval := func(si, sj float64) float64 {
		w[i] = prm[i] + si*hi
		w[j] = prm[j] + sj*hj
		v := f()
		w[i] = prm[i]
		w[j] = prm[j]
		return v
	}
	return (eval(1, 1) - eval(1, -1) - eval(-1, 1) + eval(-1, -1)) / (4 * hi * hj)
}

// thresholdGradient computes the finite-difference gradient of the
// threshold at cut with respect to the parameters.
func thresholdGradient(m Model, prm []float64, cut float64) []float64 {
	grad := make([]float64, len(prm))
	w := make([]float64, len(prm))
	copy(w, prm)
	for i := range prm {
		h := step(prm[i])
		w[i] = prm[i] + h
		tp := m.Threshold(w, cut)
		w[i] = prm[i] - h
		tm := m.Threshold(w, cut)
		w[i] = prm[i]
		grad[i] = (tp - tm) / (2 * h)
	}
	return grad
}

// LeastFavourable computes the derivative of the log-likelihood along
// the least favourable direction in parameter space: the direction
// that changes the threshold at the performance level cut by one unit
// while disturbing the fit as little as possible. It is used for
// profile-likelihood confidence intervals on thresholds. Only
// isThreshold == true is supported.
func LeastFavourable(m Model, prm []float64, data *Data, cut float64, isThreshold bool) (float64, error) {
	if !isThreshold {
		return 0, ErrUnsupported
	}

	hess, err := Hessian(m, prm, data)
	if err != nil {
		return 0, err
	}

	var chol mat64.Cholesky
	if ok := chol.Factorize(hess); !ok {
		return 0, ErrSingular
	}

	tg := thresholdGradient(m, prm, cut)
	b := mat64.NewVector(len(tg), tg)
	var dir mat64.Vector
	if err := dir.SolveCholeskyVec(&chol, b); err != nil {
		return 0, ErrSingular
	}

	// scale the direction to a unit change of the threshold
	scale := mat64.Dot(b, &dir)
	if scale == 0 || !finite(scale) {
		return 0, ErrSingular
	}

	grad := Gradient(m, prm, data)
	d := 0.0
	for i := range grad {
		// grad is of the negative log-likelihood
		d -= grad[i] * dir.At(i, 0) / scale
	}
	if !finite(d) {
		return 0, ErrSingular
	}
	return d, nil
}
