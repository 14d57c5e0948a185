package optimize

import (
	"math"
	"testing"
)

// bowl is a quadratic objective with a known minimum.
type bowl struct {
	center []float64
}

func (b *bowl) NDim() int { return len(b.center) }

func (b *bowl) Eval(x []float64) float64 {
	s := 0.0
	for i, v := range x {
		d := v - b.center[i]
		s += d * d
	}
	return s
}

func TestSimplexBowl(tst *testing.T) {
	b := &bowl{center: []float64{1, -2, 3.5}}
	starts := [][]float64{
		{0, 0, 0},
		{10, 10, 10},
		{-5, 7, 0.1},
	}
	for _, start := range starts {
		s := NewSimplex()
		s.Quiet = true
		s.SetObjective(b)
		if err := s.SetStart(start); err != nil {
			tst.Error("Error: ", err)
		}
		if err := s.Run(10000); err != nil {
			tst.Error("Error: ", err)
		}
		if !s.Converged() {
			tst.Error("No convergence from start", start)
		}
		x := s.BestX()
		for i, v := range x {
			if math.Abs(v-b.center[i]) > 1e-3 {
				tst.Errorf("Start %v: component %d is %v, expected %v", start, i, v, b.center[i])
			}
		}
	}
}

func TestSimplexInvariants(tst *testing.T) {
	b := &bowl{center: []float64{0, 0, 0, 0}}
	s := NewSimplex()
	s.Quiet = true
	s.SetObjective(b)
	n := b.NDim()
	s.allocate(n)
	if err := s.initializeSimplex([]float64{1, 2, 3, 4}); err != nil {
		tst.Error("Error: ", err)
	}
	if len(s.simplex) != n+1 {
		tst.Error("Wrong number of vertices:", len(s.simplex))
	}
	for i, m := range s.modified {
		if m {
			tst.Error("Vertex not evaluated after initialization:", i)
		}
	}

	// after a shrink every vertex except the best needs
	// re-evaluation
	ilo, _, _ := s.extremes()
	s.shrink(ilo)
	dirty := 0
	for _, m := range s.modified {
		if m {
			dirty++
		}
	}
	if dirty != n {
		tst.Error("Wrong number of vertices to re-evaluate after shrink:", dirty)
	}
	if s.modified[ilo] {
		tst.Error("Best vertex marked for re-evaluation after shrink")
	}

	s.reevaluate()
	if len(s.simplex) != n+1 {
		tst.Error("Wrong number of vertices:", len(s.simplex))
	}
}

func TestSimplexExtremes(tst *testing.T) {
	s := NewSimplex()
	s.SetObjective(&bowl{center: []float64{0, 0}})
	s.allocate(2)

	s.fx = []float64{5, 1, 3}
	ilo, ihi, inhi := s.extremes()
	if ilo != 1 || ihi != 0 || inhi != 2 {
		tst.Error("Wrong extremes for [5 1 3]:", ilo, ihi, inhi)
	}

	s.fx = []float64{1, 5, 3}
	ilo, ihi, inhi = s.extremes()
	if ilo != 0 || ihi != 1 || inhi != 2 {
		tst.Error("Wrong extremes for [1 5 3]:", ilo, ihi, inhi)
	}

	// ties go to the lowest index
	s.fx = []float64{2, 2, 3}
	ilo, ihi, inhi = s.extremes()
	if ilo != 0 || ihi != 2 || inhi != 0 {
		tst.Error("Wrong tie handling for [2 2 3]:", ilo, ihi, inhi)
	}
}

// valley is a quadratic with one stiff and one nearly flat direction.
// Starting from the origin the best initial vertex is the perturbed
// one, not the starting point itself.
type valley struct{}

func (valley) NDim() int { return 2 }
func (valley) Eval(x []float64) float64 {
	dx := x[0] - 0.07
	dy := x[1] - 3
	return 100*dx*dx + 1e-12*dy*dy
}

func TestSimplexNarrowValley(tst *testing.T) {
	s := NewSimplex()
	s.Quiet = true
	s.SetObjective(valley{})
	if err := s.SetStart([]float64{0, 0}); err != nil {
		tst.Error("Error: ", err)
	}
	if err := s.Run(10000); err != nil {
		tst.Error("Error: ", err)
	}
	if !s.Converged() {
		tst.Error("No convergence")
	}
	if x := s.BestX(); math.Abs(x[0]-0.07) > 1e-3 {
		tst.Error("Stiff component off the minimum:", x[0])
	}
}

func TestSimplexDimensionMismatch(tst *testing.T) {
	s := NewSimplex()
	s.SetObjective(&bowl{center: []float64{0, 0}})
	if err := s.SetStart([]float64{1, 2, 3}); err != ErrDimension {
		tst.Error("Expected dimension error, got:", err)
	}
}

// infeasible is an objective which cannot be evaluated anywhere.
type infeasible struct{}

func (infeasible) NDim() int { return 2 }
func (infeasible) Eval([]float64) float64 { return math.Inf(+1) }

func TestSimplexInfeasibleStart(tst *testing.T) {
	s := NewSimplex()
	s.Quiet = true
	s.SetObjective(infeasible{})
	if err := s.Run(100); err != ErrInfeasibleStart {
		tst.Error("Expected infeasible start error, got:", err)
	}
}

func TestSimplexIterationCap(tst *testing.T) {
	b := &bowl{center: []float64{1, -2, 3.5}}
	s := NewSimplex()
	s.Quiet = true
	s.SetObjective(b)
	if err := s.SetStart([]float64{100, 100, 100}); err != nil {
		tst.Error("Error: ", err)
	}
	if err := s.Run(3); err != nil {
		tst.Error("Error: ", err)
	}
	if s.Converged() {
		tst.Error("Converged in three iterations from a far start")
	}
	// the best point so far is still available
	if len(s.BestX()) != 3 || math.IsInf(s.BestF(), +1) {
		tst.Error("No best point after hitting the iteration cap")
	}
}
