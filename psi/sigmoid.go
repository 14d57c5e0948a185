package psi

import (
	"fmt"
	"math"
)

// Sigmoid is a monotonic saturating map from the real line to (0,1).
type Sigmoid interface {
	// Name returns the sigmoid descriptor.
	Name() string
	// Apply evaluates the sigmoid.
	Apply(z float64) float64
	// Inverse computes z so that Apply(z) == p for p in (0,1).
	Inverse(p float64) float64
}

// Logistic is the logistic sigmoid 1/(1+exp(-z)).
type Logistic struct{}

// Name returns the sigmoid descriptor.
func (Logistic) Name() string { return "logistic" }

// Apply evaluates the sigmoid.
func (Logistic) Apply(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Inverse is the logit function.
func (Logistic) Inverse(p float64) float64 {
	return math.Log(p / (1 - p))
}

// Gauss is the cumulative standard normal sigmoid (probit model).
type Gauss struct{}

// Name returns the sigmoid descriptor.
func (Gauss) Name() string { return "gauss" }

// Apply evaluates the sigmoid.
func (Gauss) Apply(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// Inverse is the probit function.
func (Gauss) Inverse(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

// Gumbel is the left Gumbel sigmoid 1-exp(-exp(z)), the log-Weibull
// model.
type Gumbel struct{}

// Name returns the sigmoid descriptor.
func (Gumbel) Name() string { return "gumbel" }

// Apply evaluates the sigmoid.
func (Gumbel) Apply(z float64) float64 {
	return 1 - math.Exp(-math.Exp(z))
}

// Inverse computes the inverse of the left Gumbel sigmoid.
func (Gumbel) Inverse(p float64) float64 {
	return math.Log(-math.Log(1 - p))
}

// GetSigmoid returns a sigmoid from a descriptor string.
func GetSigmoid(name string) (Sigmoid, error) {
	switch name {
	case "logistic":
		return Logistic{}, nil
	case "gauss", "probit":
		return Gauss{}, nil
	case "gumbel":
		return Gumbel{}, nil
	}
	return nil, fmt.Errorf("unknown sigmoid: %s", name)
}
