package psi

import (
	"fmt"
	"math"
	"math/rand"
)

// Prior is a prior distribution over a single model parameter. A nil
// Prior means a flat (improper) prior; its term is omitted from the
// posterior.
type Prior interface {
	// LogPDF returns the log density at x, -Inf outside the
	// support.
	LogPDF(x float64) float64
	// Rand draws a sample from the prior.
	Rand(rng *rand.Rand) float64
}

// UniformPrior is a uniform distribution on [Min, Max].
type UniformPrior struct {
	Min, Max float64
}

// LogPDF returns the log density at x.
func (p UniformPrior) LogPDF(x float64) float64 {
	if x < p.Min || x > p.Max {
		return math.Inf(-1)
	}
	return -math.Log(p.Max - p.Min)
}

// Rand draws a sample from the prior.
func (p UniformPrior) Rand(rng *rand.Rand) float64 {
	return p.Min + rng.Float64()*(p.Max-p.Min)
}

// GaussPrior is a normal distribution.
type GaussPrior struct {
	Mean, SD float64
}

// LogPDF returns the log density at x.
func (p GaussPrior) LogPDF(x float64) float64 {
	d := (x - p.Mean) / p.SD
	return -0.5*d*d - math.Log(p.SD) - 0.5*math.Log(2*math.Pi)
}

// Rand draws a sample from the prior.
func (p GaussPrior) Rand(rng *rand.Rand) float64 {
	return p.Mean + rng.NormFloat64()*p.SD
}

// GammaPrior is a gamma distribution with shape and scale parameters.
type GammaPrior struct {
	Shape, Scale float64
}

// LogPDF returns the log density at x.
func (p GammaPrior) LogPDF(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	g, _ := math.Lgamma(p.Shape)
	return (p.Shape-1)*math.Log(x) - x/p.Scale - p.Shape*math.Log(p.Scale) - g
}

// Rand draws a sample using the Marsaglia-Tsang method.
func (p GammaPrior) Rand(rng *rand.Rand) float64 {
	shape := p.Shape
	boost := 1.0
	if shape < 1 {
		// gamma(shape) = gamma(shape+1) * U^(1/shape)
		boost = math.Pow(rng.Float64(), 1/shape)
		shape++
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x ||
			math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return boost * d * v * p.Scale
		}
	}
}

// BetaPrior is a beta distribution on [0,1].
type BetaPrior struct {
	A, B float64
}

// LogPDF returns the log density at x.
func (p BetaPrior) LogPDF(x float64) float64 {
	if x <= 0 || x >= 1 {
		return math.Inf(-1)
	}
	la, _ := math.Lgamma(p.A)
	lb, _ := math.Lgamma(p.B)
	lab, _ := math.Lgamma(p.A + p.B)
	return (p.A-1)*math.Log(x) + (p.B-1)*math.Log(1-x) + lab - la - lb
}

// Rand draws a sample as a ratio of gamma variates.
func (p BetaPrior) Rand(rng *rand.Rand) float64 {
	ga := GammaPrior{Shape: p.A, Scale: 1}.Rand(rng)
	gb := GammaPrior{Shape: p.B, Scale: 1}.Rand(rng)
	return ga / (ga + gb)
}

// ParsePrior parses a prior description like "Gauss(0,1)",
// "Uniform(0,0.1)", "Gamma(1,4)" or "Beta(2,50)". The descriptor
// "flat" (or an empty string) returns a nil prior.
func ParsePrior(s string) (Prior, error) {
	if s == "" || s == "flat" {
		return nil, nil
	}
	var a, b float64
	if n, err := fmt.Sscanf(s, "Uniform(%g,%g)", &a, &b); n == 2 && err == nil {
		if b <= a {
			return nil, fmt.Errorf("uniform prior with max <= min: %s", s)
		}
		return UniformPrior{a, b}, nil
	}
	if n, err := fmt.Sscanf(s, "Gauss(%g,%g)", &a, &b); n == 2 && err == nil {
		if b <= 0 {
			return nil, fmt.Errorf("gauss prior with sd <= 0: %s", s)
		}
		return GaussPrior{a, b}, nil
	}
	if n, err := fmt.Sscanf(s, "Gamma(%g,%g)", &a, &b); n == 2 && err == nil {
		if a <= 0 || b <= 0 {
			return nil, fmt.Errorf("gamma prior with non-positive parameters: %s", s)
		}
		return GammaPrior{a, b}, nil
	}
	if n, err := fmt.Sscanf(s, "Beta(%g,%g)", &a, &b); n == 2 && err == nil {
		if a <= 0 || b <= 0 {
			return nil, fmt.Errorf("beta prior with non-positive parameters: %s", s)
		}
		return BetaPrior{a, b}, nil
	}
	return nil, fmt.Errorf("unknown prior: %s", s)
}
