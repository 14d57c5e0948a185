package optimize

import (
	"math"
	"math/rand"
)

// MH is a Metropolis random walk over the objective, usable as a
// simulated annealing minimizer. The random source is explicit so
// runs are reproducible.
type MH struct {
	BaseOptimizer
	// SD is the proposal standard deviation.
	SD float64
	// AccPeriod is the period of acceptance rate reports.
	AccPeriod int

	rng           *rand.Rand
	annealing     bool
	annealingSkip int

	x, xp []float64
}

// NewMH creates a new Metropolis walker. With annealing enabled the
// temperature is lowered geometrically after annealingSkip
// iterations.
func NewMH(rng *rand.Rand, annealing bool, annealingSkip int) (m *MH) {
	m = &MH{
		SD:            1e-2,
		AccPeriod:     200,
		rng:           rng,
		annealing:     annealing,
		annealingSkip: annealingSkip,
	}
	m.repPeriod = 10
	return
}

// Run starts the walk.
func (m *MH) Run(iterations int) error {
	n := m.obj.NDim()
	m.x = append(m.x[:0], m.startPoint()...)
	m.xp = make([]float64, n)
	m.converged = false
	m.PrintHeader()

	f := m.eval(m.x)
	if math.IsInf(f, +1) {
		return ErrInfeasibleStart
	}

	accepted := 0
	finished := true
	for m.i = 0; m.i < iterations; m.i++ {
		var T float64
		if m.annealing && m.i >= m.annealingSkip {
			T = math.Pow(0.9, float64(m.i-m.annealingSkip)/float64(iterations-m.annealingSkip)*100)
		} else {
			T = 1
		}
		if m.i > 0 && m.i%m.AccPeriod == 0 {
			log.Infof("Acceptance rate %.2f%%", 100*float64(accepted)/float64(m.AccPeriod))
			accepted = 0
		}
		if m.i%m.repPeriod == 0 {
			log.Debugf("%d: f=%f, T=%f", m.i, f, T)
			m.PrintLine(m.x, f)
		}

		copy(m.xp, m.x)
		p := m.rng.Intn(n)
		m.xp[p] += m.rng.NormFloat64() * m.SD
		fp := m.eval(m.xp)

		a := math.Exp((f - fp) / T)
		if a > 1 || m.rng.Float64() < a {
			m.x, m.xp = m.xp, m.x
			f = fp
			accepted++
		}

		if m.stopped() {
			finished = false
			break
		}
	}

	m.converged = finished
	m.PrintFinal("annealing")
	return nil
}

// Summary returns a run summary for JSON export.
func (m *MH) Summary() Summary {
	return m.summary("annealing")
}
