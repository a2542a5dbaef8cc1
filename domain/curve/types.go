package curve

import (
	"fmt"
)

// ============================================================================
// INPUTS
// ============================================================================

// CrossValidationDesign describes a repeated k-fold cross-validation run.
// INVARIANTS:
// - Repetitions >= 1, Folds >= 1, Folds*Repetitions > 1
// - TrainSize > 0, TestSize >= 0
type CrossValidationDesign struct {
	Repetitions int     `json:"r" yaml:"r" validate:"required,min=1"`
	Folds       int     `json:"k" yaml:"k" validate:"required,min=1"`
	TrainSize   float64 `json:"n1" yaml:"n1" validate:"required,gt=0"`
	TestSize    float64 `json:"n2" yaml:"n2" validate:"gte=0"`
}

// Runs returns k*r, the number of train/validation splits.
func (d CrossValidationDesign) Runs() int {
	return d.Folds * d.Repetitions
}

// DegreesOfFreedom returns k*r - 1.
func (d CrossValidationDesign) DegreesOfFreedom() int {
	return d.Runs() - 1
}

// CorrectionFactor is the Nadeau-Bengio variance multiplier 1/(k*r) + n2/n1.
func (d CrossValidationDesign) CorrectionFactor() float64 {
	return 1/float64(d.Runs()) + d.TestSize/d.TrainSize
}

// EffectEstimate is the caller-supplied performance difference and its variance.
type EffectEstimate struct {
	EffectSize float64 `json:"effect_size" yaml:"effect_size"`
	Variance   float64 `json:"variance" yaml:"variance" validate:"gte=0"`
}

// CurveConfig controls how the nested interval family is sampled.
type CurveConfig struct {
	Intervals int     `json:"m" yaml:"m" validate:"min=1"`
	Level     float64 `json:"level" yaml:"level" validate:"gt=0,lt=1"`
}

const (
	DefaultIntervals = 100
	DefaultLevel     = 0.01

	// SmoothIntervals is the smallest interval count that draws a smooth curve.
	SmoothIntervals = 11

	// ReferencePValue is where renderers draw the horizontal significance line.
	ReferencePValue = 0.05
)

// DefaultCurveConfig returns m=100, level=0.01
func DefaultCurveConfig() CurveConfig {
	return CurveConfig{Intervals: DefaultIntervals, Level: DefaultLevel}
}

// ============================================================================
// OUTPUTS
// ============================================================================

// ConfidenceInterval is one row of the nested family.
type ConfidenceInterval struct {
	Alpha float64 `json:"alpha"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ConfidenceLevel returns 1 - Alpha
func (ci ConfidenceInterval) ConfidenceLevel() float64 {
	return 1 - ci.Alpha
}

// Width returns Upper - Lower
func (ci ConfidenceInterval) Width() float64 {
	return ci.Upper - ci.Lower
}

// Contains reports whether x lies inside the closed interval
func (ci ConfidenceInterval) Contains(x float64) bool {
	return ci.Lower <= x && x <= ci.Upper
}

func (ci ConfidenceInterval) String() string {
	return fmt.Sprintf("alpha=%.4f [%.6f, %.6f]", ci.Alpha, ci.Lower, ci.Upper)
}

// DiagnosticKind classifies non-fatal messages raised during a build
type DiagnosticKind string

const (
	ConfigurationWarning DiagnosticKind = "configuration_warning"
	RangeAdvisory        DiagnosticKind = "range_advisory"
)

// Diagnostic is a non-fatal message surfaced to the caller alongside a result
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

// Result is the nested interval family plus its AUCC summary.
// INVARIANTS:
// - len(Intervals) == Config.Intervals
// - Intervals ordered by strictly increasing Alpha
// - Lower <= Estimate.EffectSize <= Upper for every row
type Result struct {
	Design      CrossValidationDesign `json:"design"`
	Estimate    EffectEstimate        `json:"estimate"`
	Config      CurveConfig           `json:"config"`
	SD          float64               `json:"sd"`
	AUCC        float64               `json:"aucc"`
	Intervals   []ConfidenceInterval  `json:"intervals"`
	Diagnostics []Diagnostic          `json:"diagnostics,omitempty"`
}

// Len returns the number of intervals
func (r *Result) Len() int {
	return len(r.Intervals)
}

// Alphas returns the alpha column, aligned with Lowers and Uppers
func (r *Result) Alphas() []float64 {
	out := make([]float64, len(r.Intervals))
	for i, ci := range r.Intervals {
		out[i] = ci.Alpha
	}
	return out
}

// Lowers returns the lower-bound column
func (r *Result) Lowers() []float64 {
	out := make([]float64, len(r.Intervals))
	for i, ci := range r.Intervals {
		out[i] = ci.Lower
	}
	return out
}

// Uppers returns the upper-bound column
func (r *Result) Uppers() []float64 {
	out := make([]float64, len(r.Intervals))
	for i, ci := range r.Intervals {
		out[i] = ci.Upper
	}
	return out
}

// Widths returns Upper - Lower per row
func (r *Result) Widths() []float64 {
	out := make([]float64, len(r.Intervals))
	for i, ci := range r.Intervals {
		out[i] = ci.Width()
	}
	return out
}

// Widest returns the first (highest confidence) interval
func (r *Result) Widest() (ConfidenceInterval, bool) {
	if len(r.Intervals) == 0 {
		return ConfidenceInterval{}, false
	}
	return r.Intervals[0], true
}

// HasDiagnostic reports whether a diagnostic of the given kind was raised
func (r *Result) HasDiagnostic(kind DiagnosticKind) bool {
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// IsDegenerate is true when SD is zero and every interval collapses onto the estimate
func (r *Result) IsDegenerate() bool {
	return r.SD == 0
}

// Comparison is one named classifier comparison in a batch.
type Comparison struct {
	Name                  string `json:"name" yaml:"name" validate:"required"`
	CrossValidationDesign `yaml:",inline"`
	EffectEstimate        `yaml:",inline"`
	CurveConfig           `yaml:",inline"`
}

// WithDefaults fills an unset interval count or level with the package defaults
func (c Comparison) WithDefaults() Comparison {
	if c.Intervals == 0 {
		c.Intervals = DefaultIntervals
	}
	if c.Level == 0 {
		c.Level = DefaultLevel
	}
	return c
}
