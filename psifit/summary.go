package main

import (
	"bitbucket.org/psilab/psifit/optimize"
	"bitbucket.org/psilab/psifit/psi"
)

// FitSummary stores psifit run summary information.
type FitSummary struct {
	// Version stores psifit version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Time is the computation time in seconds.
	Time float64 `json:"time"`
	// Optimizer is the optimizer run summary.
	Optimizer optimize.Summary `json:"optimizer"`
	// Estimate is the fitted model.
	Estimate *psi.Estimate `json:"estimate"`
	// GoodnessOfFit is the chi-square survival p-value of the deviance.
	GoodnessOfFit float64 `json:"goodnessOfFit,omitempty"`
	// Rpd is the correlation between deviance residuals and predictions.
	Rpd float64 `json:"rpd"`
	// Rkd is the correlation between deviance residuals and block order.
	Rkd float64 `json:"rkd"`
	// Thresholds are the fitted thresholds per cut.
	Thresholds []ThresholdSummary `json:"thresholds"`
	// Bootstrap is the bootstrap summary, if a bootstrap was run.
	Bootstrap *BootstrapSummary `json:"bootstrap,omitempty"`
}

// ThresholdSummary stores a threshold at one performance level.
type ThresholdSummary struct {
	// Cut is the performance level.
	Cut float64 `json:"cut"`
	// Threshold is the stimulus intensity at the cut.
	Threshold float64 `json:"threshold"`
}

// Interval is a confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// BootstrapSummary stores bootstrap inference results.
type BootstrapSummary struct {
	// NSamples is the number of bootstrap samples.
	NSamples int `json:"nSamples"`
	// Parametric indicates parametric sampling.
	Parametric bool `json:"parametric"`
	// ParamCI are 95% percentile intervals per parameter.
	ParamCI []Interval `json:"paramCI"`
	// ThresholdCI are 95% percentile intervals per cut.
	ThresholdCI []Interval `json:"thresholdCI"`
	// Bias and Acc are the BCa bias and acceleration per cut.
	Bias []float64 `json:"bias"`
	Acc  []float64 `json:"acc"`
	// Outliers flags blocks outside the jackknife prediction.
	Outliers []bool `json:"outliers"`
	// Influence is the per-block influence on the estimate.
	Influence []float64 `json:"influence"`
}
