package psi

import (
	"math"
	"testing"
)

func TestGradientAscentDirection(tst *testing.T) {
	m, err := NewPsychometric(2, ABCore{}, Logistic{})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	data := data2AFC(tst)
	// away from the optimum the objective must grow along the
	// gradient
	prm := []float64{5, 1.5, 0.05}
	grad := Gradient(m, prm, data)
	norm := 0.0
	for _, g := range grad {
		if !finite(g) {
			tst.Fatal("Non-finite gradient component:", g)
		}
		norm += g * g
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		tst.Fatal("Zero gradient away from the optimum")
	}
	t := 1e-6 / norm
	w := make([]float64, len(prm))
	for i := range prm {
		w[i] = prm[i] + t*grad[i]
	}
	f0 := m.NegLogLikelihood(prm, data)
	f1 := m.NegLogLikelihood(w, data)
	if f1 <= f0 {
		tst.Error("Objective does not grow along the gradient:", f0, f1)
	}
}

func TestGradientAtOptimum(tst *testing.T) {
	m, err := NewPsychometric(2, ABCore{}, Logistic{})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	data := data2AFC(tst)
	est, err := Fit(m, data, nil, 0)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	grad := Gradient(m, est.Params, data)
	for i, g := range grad {
		if math.Abs(g) > 0.1 {
			tst.Error("Large gradient component", i, "at the optimum:", g)
		}
	}
}

func TestGradientOneSided(tst *testing.T) {
	// with the explicit block probability at zero on an all-failure
	// block, one side of the central difference is infeasible
	base, err := NewPsychometric(2, ABCore{}, Logistic{})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	m := NewOutlierModel(base, 0)
	data, err := NewData(
		[]float64{1, 2, 3, 4, 5},
		[]int{0, 56, 63, 75, 87},
		[]int{100, 100, 100, 100, 100})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	grad := Gradient(m, []float64{4, 1, 0.02, 0}, data)
	for i, g := range grad {
		if !finite(g) {
			tst.Error("Non-finite gradient component", i, "at the boundary:", g)
		}
	}
}

func TestHessian(tst *testing.T) {
	m, err := NewPsychometric(2, ABCore{}, Logistic{})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	data := data2AFC(tst)
	est, err := Fit(m, data, nil, 0)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	hess, err := Hessian(m, est.Params, data)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	n := m.NParams()
	for i := 0; i < n; i++ {
		if hess.At(i, i) <= 0 {
			tst.Error("Non-positive curvature in parameter", i, ":", hess.At(i, i))
		}
		for j := 0; j < n; j++ {
			if hess.At(i, j) != hess.At(j, i) {
				tst.Error("Asymmetric Hessian at", i, j)
			}
		}
	}
}

func TestLeastFavourable(tst *testing.T) {
	m, err := NewPsychometric(2, ABCore{}, Logistic{})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	data := data2AFC(tst)
	est, err := Fit(m, data, nil, 0)
	if err != nil {
		tst.Fatal("Error: ", err)
	}

	if _, err := LeastFavourable(m, est.Params, data, 0.5, false); err != ErrUnsupported {
		tst.Error("Expected ErrUnsupported for a non-threshold computation, got", err)
	}

	d, err := LeastFavourable(m, est.Params, data, 0.5, true)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if !finite(d) {
		tst.Error("Non-finite least favourable derivative:", d)
	}
}
