package optimize

import (
	"math"
	"math/rand"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestMHBowl(tst *testing.T) {
	b := &bowl{center: []float64{0.3, -0.2}}
	m := NewMH(rand.New(rand.NewSource(42)), true, 0)
	m.Quiet = true
	m.SD = 0.1
	m.SetObjective(b)
	if err := m.SetStart([]float64{2, 2}); err != nil {
		tst.Error("Error: ", err)
	}
	if err := m.Run(20000); err != nil {
		tst.Error("Error: ", err)
	}
	if m.BestF() >= b.Eval([]float64{2, 2}) {
		tst.Error("No improvement over the starting point:", m.BestF())
	}
	x := m.BestX()
	for i, v := range x {
		if math.Abs(v-b.center[i]) > 0.5 {
			tst.Errorf("Component %d is %v, expected %v", i, v, b.center[i])
		}
	}
}

func TestMHSignalStop(tst *testing.T) {
	b := &bowl{center: []float64{0, 0}}
	m := NewMH(rand.New(rand.NewSource(2)), false, 0)
	m.Quiet = true
	m.SetObjective(b)
	if err := m.SetStart([]float64{1, 1}); err != nil {
		tst.Error("Error: ", err)
	}

	m.WatchSignals(syscall.SIGUSR1)
	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		tst.Fatal("Error: ", err)
	}
	// give the runtime time to deliver the signal
	time.Sleep(100 * time.Millisecond)

	if err := m.Run(100000); err != nil {
		tst.Error("Error: ", err)
	}
	if m.Converged() {
		tst.Error("Interrupted walk reported as converged")
	}
	if m.Summary().Converged {
		tst.Error("Interrupted walk summary reports convergence")
	}
}

func TestMHInfeasibleStart(tst *testing.T) {
	m := NewMH(rand.New(rand.NewSource(1)), false, 0)
	m.Quiet = true
	m.SetObjective(infeasible{})
	if err := m.Run(100); err != ErrInfeasibleStart {
		tst.Error("Expected infeasible start error, got:", err)
	}
}

func TestNone(tst *testing.T) {
	b := &bowl{center: []float64{1, 1}}
	o := NewNone()
	o.Quiet = true
	o.SetObjective(b)
	if err := o.SetStart([]float64{3, 1}); err != nil {
		tst.Error("Error: ", err)
	}
	if err := o.Run(100); err != nil {
		tst.Error("Error: ", err)
	}
	if o.BestF() != 4 {
		tst.Error("Wrong objective value:", o.BestF())
	}
	s := o.Summary()
	if s.Method != "none" || s.Calls != 1 || !s.Converged {
		tst.Error("Wrong summary:", s)
	}
}
