package optimize

import (
	"math"
)

// Nelder-Mead coefficients: reflection, expansion, inside contraction.
const (
	alpha = 1.0
	gamma = 2.0
	rho   = 0.5
)

// Initial simplex perturbation: a fraction of each coordinate's
// magnitude with a floor for coordinates close to zero.
const (
	simplexStep  = 0.1
	simplexFloor = 0.1
	// smallest perturbation tried for a feasible initial vertex
	simplexMinStep = 1e-10
)

// Simplex is a Nelder-Mead downhill simplex minimizer.
type Simplex struct {
	BaseOptimizer
	// Tol is the convergence tolerance on the spread of function
	// values over the simplex.
	Tol float64

	simplex  [][]float64
	fx       []float64
	centroid []float64
	newnode  []float64
	modified []bool
}

// NewSimplex creates a new downhill simplex optimizer.
func NewSimplex() (s *Simplex) {
	s = &Simplex{
		Tol: 1e-9,
	}
	s.repPeriod = 10
	return
}

// allocate sizes all the internal buffers from the objective
// dimension. Buffers are reused over iterations.
func (s *Simplex) allocate(n int) {
	s.simplex = make([][]float64, n+1)
	for i := range s.simplex {
		s.simplex[i] = make([]float64, n)
	}
	s.fx = make([]float64, n+1)
	s.centroid = make([]float64, n)
	s.newnode = make([]float64, n)
	s.modified = make([]bool, n+1)
}

// initializeSimplex builds n+1 vertices around the starting point:
// vertex 0 is the starting point itself, vertex i perturbs dimension
// i-1. A perturbed vertex may land outside the feasible region (e.g.
// outside a prior's support); the opposite direction and smaller steps
// are tried before giving up.
func (s *Simplex) initializeSimplex(start []float64) error {
	copy(s.simplex[0], start)
	s.fx[0] = s.eval(s.simplex[0])
	s.modified[0] = false
	if math.IsInf(s.fx[0], +1) {
		return ErrInfeasibleStart
	}

	for i := 1; i < len(s.simplex); i++ {
		d := simplexStep * math.Abs(start[i-1])
		if d < simplexFloor {
			d = simplexFloor
		}
		for ; d >= simplexMinStep; d /= 2 {
			copy(s.simplex[i], start)
			s.simplex[i][i-1] = start[i-1] + d
			s.fx[i] = s.eval(s.simplex[i])
			if !math.IsInf(s.fx[i], +1) {
				break
			}
			s.simplex[i][i-1] = start[i-1] - d
			s.fx[i] = s.eval(s.simplex[i])
			if !math.IsInf(s.fx[i], +1) {
				break
			}
		}
		s.modified[i] = false
		if math.IsInf(s.fx[i], +1) {
			return ErrInfeasibleStart
		}
	}
	return nil
}

// reevaluate updates cached function values of all vertices changed
// since the last call.
func (s *Simplex) reevaluate() {
	for i := range s.simplex {
		if s.modified[i] {
			s.fx[i] = s.eval(s.simplex[i])
			s.modified[i] = false
		}
	}
}

// extremes returns the indices of the best, worst and second-worst
// vertices. Ties are broken by the lowest index.
func (s *Simplex) extremes() (ilo, ihi, inhi int) {
	if s.fx[0] >= s.fx[1] {
		ihi, inhi = 0, 1
	} else {
		ihi, inhi = 1, 0
	}
	for i := 1; i < len(s.fx); i++ {
		if s.fx[i] < s.fx[ilo] {
			ilo = i
		}
	}
	for i := 2; i < len(s.fx); i++ {
		if s.fx[i] > s.fx[ihi] {
			inhi = ihi
			ihi = i
		} else if s.fx[i] > s.fx[inhi] {
			inhi = i
		}
	}
	return
}

// calculateCentroid computes the mean of all vertices except the
// excluded one.
func (s *Simplex) calculateCentroid(excluded int) {
	n := len(s.centroid)
	for j := 0; j < n; j++ {
		s.centroid[j] = 0
	}
	for i, v := range s.simplex {
		if i == excluded {
			continue
		}
		for j, x := range v {
			s.centroid[j] += x
		}
	}
	for j := 0; j < n; j++ {
		s.centroid[j] /= float64(n)
	}
}

// replaceWorst overwrites the worst vertex with the candidate node.
func (s *Simplex) replaceWorst(ihi int, fx float64) {
	copy(s.simplex[ihi], s.newnode)
	s.fx[ihi] = fx
}

// shrink moves every vertex except the best halfway towards the best
// one; the moved vertices are marked for re-evaluation.
func (s *Simplex) shrink(ilo int) {
	best := s.simplex[ilo]
	for i, v := range s.simplex {
		if i == ilo {
			continue
		}
		for j := range v {
			v[j] = 0.5 * (v[j] + best[j])
		}
		s.modified[i] = true
	}
}

// Run minimizes the objective. The iteration limit is a soft cap: on
// reaching it the best point found so far is kept and Converged
// reports false.
func (s *Simplex) Run(iterations int) error {
	n := s.obj.NDim()
	s.allocate(n)
	s.converged = false
	s.PrintHeader()
	if err := s.initializeSimplex(s.startPoint()); err != nil {
		return err
	}

	for s.i = 1; s.i <= iterations; s.i++ {
		s.reevaluate()
		ilo, ihi, inhi := s.extremes()

		if s.i%s.repPeriod == 0 {
			log.Debugf("%d: f=%f (spread %g)", s.i, s.fx[ilo], s.fx[ihi]-s.fx[ilo])
			s.PrintLine(s.simplex[ilo], s.fx[ilo])
		}

		if s.fx[ihi]-s.fx[ilo] < s.Tol {
			s.converged = true
			break
		}

		s.calculateCentroid(ihi)

		// reflection
		for j := range s.newnode {
			s.newnode[j] = s.centroid[j] + alpha*(s.centroid[j]-s.simplex[ihi][j])
		}
		fr := s.eval(s.newnode)

		switch {
		case fr < s.fx[ilo]:
			// expansion; keep the better of the reflected
			// and the expanded node
			for j := range s.centroid {
				s.centroid[j] += gamma * (s.newnode[j] - s.centroid[j])
			}
			fe := s.eval(s.centroid)
			if fe < fr {
				copy(s.newnode, s.centroid)
				fr = fe
			}
			s.replaceWorst(ihi, fr)
		case fr < s.fx[inhi]:
			s.replaceWorst(ihi, fr)
		default:
			// inside contraction
			for j := range s.newnode {
				s.newnode[j] = s.centroid[j] + rho*(s.simplex[ihi][j]-s.centroid[j])
			}
			fc := s.eval(s.newnode)
			if fc < s.fx[ihi] {
				s.replaceWorst(ihi, fc)
			} else {
				s.shrink(ilo)
			}
		}

		if s.stopped() {
			break
		}
	}

	if s.i > iterations && !s.converged {
		log.Warningf("Iterations exceeded (%d)", iterations)
	}
	s.PrintFinal("downhill simplex")
	return nil
}

// Summary returns a run summary for JSON export.
func (s *Simplex) Summary() Summary {
	return s.summary("simplex")
}
