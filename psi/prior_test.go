package psi

import (
	"math"
	"math/rand"
	"testing"
)

func TestParsePrior(tst *testing.T) {
	cases := []struct {
		s  string
		ok bool
	}{
		{"", true},
		{"flat", true},
		{"Uniform(0,0.1)", true},
		{"Gauss(4,2)", true},
		{"Gamma(1.5,4)", true},
		{"Beta(2,50)", true},
		{"Uniform(1,0)", false},
		{"Gauss(0,-1)", false},
		{"Cauchy(0,1)", false},
	}
	for _, c := range cases {
		p, err := ParsePrior(c.s)
		if c.ok && err != nil {
			tst.Errorf("%q: unexpected error: %v", c.s, err)
		}
		if !c.ok && err == nil {
			tst.Errorf("%q: no error", c.s)
		}
		if (c.s == "" || c.s == "flat") && p != nil {
			tst.Errorf("%q: expected a nil prior", c.s)
		}
	}
}

func TestPriorSupport(tst *testing.T) {
	rng := rand.New(rand.NewSource(5))
	priors := []Prior{
		UniformPrior{0, 0.1},
		GammaPrior{Shape: 0.5, Scale: 2},
		GammaPrior{Shape: 3, Scale: 1},
		BetaPrior{2, 50},
	}
	for _, p := range priors {
		for i := 0; i < 1000; i++ {
			x := p.Rand(rng)
			if math.IsInf(p.LogPDF(x), -1) {
				tst.Errorf("%T: sample %v outside the support", p, x)
				break
			}
		}
	}
}

func TestGaussPriorDensity(tst *testing.T) {
	p := GaussPrior{Mean: 0, SD: 1}
	// standard normal density at zero
	want := -0.5 * math.Log(2*math.Pi)
	if got := p.LogPDF(0); math.Abs(got-want) > 1e-12 {
		tst.Error("Wrong log density:", got, "expected", want)
	}
	// symmetry
	if math.Abs(p.LogPDF(1.3)-p.LogPDF(-1.3)) > 1e-12 {
		tst.Error("Asymmetric density")
	}
}
