package curve

import (
	"fmt"
	"io"
	"math"
	"time"

	"confcurve/domain/core"
	"confcurve/domain/curve"
	"confcurve/internal"
	"confcurve/internal/distributions"
	"confcurve/internal/errors"
	"confcurve/internal/metrics"
)

// alphaTolerance absorbs rounding in level + i/m so that the default
// configuration (0.01 + 99/100) is not reported as exceeding 1.
const alphaTolerance = 1e-12

// Builder constructs nested confidence interval families for a cross-validated
// performance difference using the Nadeau-Bengio corrected t statistic.
type Builder struct {
	logger  *internal.Logger
	verbose bool
	report  io.Writer
}

// NewBuilder creates a builder logging through logger (DefaultLogger when nil)
func NewBuilder(logger *internal.Logger) *Builder {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Builder{logger: logger.With("curve")}
}

// SetVerbose enables the one-line AUCC report written to w after each build
func (b *Builder) SetVerbose(verbose bool, w io.Writer) {
	b.verbose = verbose
	b.report = w
}

// Build is the package-level shorthand for NewBuilder(nil).Build with explicit scalars.
func Build(r, k int, n1, n2, effectSize, variance float64, m int, level float64) (*curve.Result, error) {
	return NewBuilder(nil).Build(
		curve.CrossValidationDesign{Repetitions: r, Folds: k, TrainSize: n1, TestSize: n2},
		curve.EffectEstimate{EffectSize: effectSize, Variance: variance},
		curve.CurveConfig{Intervals: m, Level: level},
	)
}

// Build produces the m nested intervals ordered by increasing alpha, plus AUCC.
func (b *Builder) Build(design curve.CrossValidationDesign, estimate curve.EffectEstimate, config curve.CurveConfig) (*curve.Result, error) {
	start := time.Now()
	defer func() { metrics.BuildDuration.Observe(time.Since(start).Seconds()) }()

	if err := validate(design, estimate, config); err != nil {
		result := metrics.ResultInvalid
		switch {
		case core.IsDomainError(err):
			result = metrics.ResultDomainError
		case core.IsConfigError(err):
			result = metrics.ResultInvalidConfig
		}
		metrics.BuildsTotal.WithLabelValues(result).Inc()
		b.logger.Debug("rejected build r=%d k=%d n1=%g n2=%g variance=%g m=%d level=%g: %v",
			design.Repetitions, design.Folds, design.TrainSize, design.TestSize,
			estimate.Variance, config.Intervals, config.Level, err)
		return nil, err
	}

	dist, err := distributions.NewStudentsT(design.DegreesOfFreedom())
	if err != nil {
		metrics.BuildsTotal.WithLabelValues(metrics.ResultDomainError).Inc()
		return nil, errors.DomainError(fmt.Errorf("%w: %v", core.ErrDegreesOfFreedom, err))
	}

	sd := CorrectedSD(design, estimate.Variance)
	if math.IsInf(sd, 0) || math.IsNaN(sd) {
		metrics.BuildsTotal.WithLabelValues(metrics.ResultDomainError).Inc()
		return nil, errors.DomainError(fmt.Errorf("%w (n1=%g, n2=%g, variance=%g)",
			core.NewNonFiniteError("sd", sd), design.TrainSize, design.TestSize, estimate.Variance))
	}
	m := config.Intervals

	res := &curve.Result{
		Design:    design,
		Estimate:  estimate,
		Config:    config,
		SD:        sd,
		AUCC:      ClosedFormAUCC(sd),
		Intervals: make([]curve.ConfidenceInterval, m),
	}

	if m < curve.SmoothIntervals {
		b.addDiagnostic(res, curve.ConfigurationWarning,
			fmt.Sprintf("m = %d intervals is too few for a smooth curve; use m > %d", m, curve.SmoothIntervals-1))
	}

	clamped := 0
	maxAlpha := 0.0
	for i := 0; i < m; i++ {
		alpha := config.Level + float64(i)/float64(m)
		if alpha > 1+alphaTolerance {
			clamped++
			maxAlpha = alpha
		}

		crit, err := dist.TwoSidedCritical(math.Min(alpha, 1))
		if err != nil {
			metrics.BuildsTotal.WithLabelValues(metrics.ResultDomainError).Inc()
			return nil, errors.DomainError(fmt.Errorf("%w: alpha_%d = %g: %v", core.ErrDomain, i, alpha, err))
		}

		half := crit * sd
		res.Intervals[i] = curve.ConfidenceInterval{
			Alpha: alpha,
			Lower: estimate.EffectSize - half,
			Upper: estimate.EffectSize + half,
		}
	}

	if clamped > 0 {
		b.addDiagnostic(res, curve.RangeAdvisory,
			fmt.Sprintf("%d of %d alphas exceed 1 (max %.4f); those intervals use alpha = 1 and collapse onto the estimate",
				clamped, m, maxAlpha))
	}

	metrics.BuildsTotal.WithLabelValues(metrics.ResultOK).Inc()
	metrics.IntervalsEmitted.Observe(float64(m))
	b.logger.Debug("built curve df=%d sd=%.6g aucc=%.6g m=%d", dist.DegreesOfFreedom(), sd, res.AUCC, m)

	if b.verbose {
		line, err := AUCCLine(res)
		if err != nil {
			return nil, err
		}
		b.logger.Info("%s", line)
		if b.report != nil {
			fmt.Fprintln(b.report, line)
		}
	}

	return res, nil
}

func (b *Builder) addDiagnostic(res *curve.Result, kind curve.DiagnosticKind, message string) {
	res.Diagnostics = append(res.Diagnostics, curve.Diagnostic{Kind: kind, Message: message})
	metrics.DiagnosticsTotal.WithLabelValues(string(kind)).Inc()
	b.logger.Warn("%s: %s", kind, message)
}

// CorrectedSD is sqrt((1/(k*r) + n2/n1) * variance).
// The naive standard error ignores the overlap between training sets across
// folds and repetitions and understates the variance.
func CorrectedSD(design curve.CrossValidationDesign, variance float64) float64 {
	return math.Sqrt(design.CorrectionFactor() * variance)
}

// ClosedFormAUCC is 4/sqrt(2*pi) * sd, the area between the bound curves over
// alpha in (0, 1) under the normal approximation of the t critical value.
func ClosedFormAUCC(sd float64) float64 {
	return 2 * distributions.HalfNormalMeanDeviation() * sd
}

func validate(design curve.CrossValidationDesign, estimate curve.EffectEstimate, config curve.CurveConfig) error {
	if config.Intervals < 1 {
		return errors.WithCode(errors.CodeValidationError,
			fmt.Errorf("%w: m = %d must be at least 1", core.ErrIntervalCount, config.Intervals))
	}
	if math.IsNaN(config.Level) || config.Level <= 0 || config.Level >= 1 {
		return errors.WithCode(errors.CodeValidationError,
			fmt.Errorf("%w: level = %g must lie in (0, 1)", core.ErrLevel, config.Level))
	}
	if design.Repetitions < 1 || design.Folds < 1 {
		return errors.DomainError(fmt.Errorf("%w: repetitions and folds must be positive (r=%d, k=%d)",
			core.ErrDegreesOfFreedom, design.Repetitions, design.Folds))
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"n1", design.TrainSize},
		{"n2", design.TestSize},
		{"effect_size", estimate.EffectSize},
		{"variance", estimate.Variance},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.DomainError(core.NewNonFiniteError(f.name, f.value))
		}
	}

	if design.DegreesOfFreedom() <= 0 {
		return errors.DomainError(core.NewDegreesOfFreedomError(design.Repetitions, design.Folds))
	}
	if design.TrainSize <= 0 {
		return errors.DomainError(core.NewTrainSizeError(design.TrainSize))
	}
	if design.TestSize < 0 {
		return errors.InvalidInput(fmt.Sprintf("n2 = %g must not be negative", design.TestSize))
	}
	if estimate.Variance < 0 {
		return errors.DomainError(fmt.Errorf("%w: variance = %g must not be negative", core.ErrDomain, estimate.Variance))
	}
	return nil
}
