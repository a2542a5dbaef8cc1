package curve

import (
	"bytes"
	"math"
	"testing"

	"confcurve/domain/core"
	"confcurve/domain/curve"
	"confcurve/internal"
	"confcurve/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenFold is the worked example: one repetition of 10-fold CV on 100 rows.
var (
	tenFold  = curve.CrossValidationDesign{Repetitions: 1, Folds: 10, TrainSize: 90, TestSize: 10}
	estimate = curve.EffectEstimate{EffectSize: 0.05, Variance: 0.0004}
)

func quietBuilder() *Builder {
	return NewBuilder(internal.NewLoggerTo(&bytes.Buffer{}, internal.LogLevelError))
}

func TestBuildWorkedExample(t *testing.T) {
	res, err := quietBuilder().Build(tenFold, estimate, curve.DefaultCurveConfig())
	require.NoError(t, err)

	// sqrt((1/10 + 10/90) * 0.0004)
	assert.InDelta(t, 0.00918937, res.SD, 1e-7)
	assert.InDelta(t, 0.01466411, res.AUCC, 1e-7)
	require.Equal(t, 100, res.Len())

	first := res.Intervals[0]
	assert.InDelta(t, 0.01, first.Alpha, 1e-12)
	assert.InDelta(t, 0.0201361, first.Lower, 1e-6)
	assert.InDelta(t, 0.0798639, first.Upper, 1e-6)

	last := res.Intervals[99]
	assert.InDelta(t, 1.0, last.Alpha, 1e-12)
	assert.InDelta(t, 0.05, last.Lower, 1e-12)
	assert.InDelta(t, 0.05, last.Upper, 1e-12)

	assert.Empty(t, res.Diagnostics)
}

func TestBuildShorthandMatchesBuilder(t *testing.T) {
	res, err := Build(1, 10, 90, 10, 0.05, 0.0004, 100, 0.01)
	require.NoError(t, err)

	expected, err := quietBuilder().Build(tenFold, estimate, curve.DefaultCurveConfig())
	require.NoError(t, err)
	assert.Equal(t, expected.Intervals, res.Intervals)
	assert.Equal(t, expected.AUCC, res.AUCC)
}

func TestBuildInvariants(t *testing.T) {
	tests := []struct {
		name     string
		design   curve.CrossValidationDesign
		estimate curve.EffectEstimate
		config   curve.CurveConfig
	}{
		{"worked example", tenFold, estimate, curve.DefaultCurveConfig()},
		{"repeated 5x2", curve.CrossValidationDesign{Repetitions: 5, Folds: 2, TrainSize: 50, TestSize: 50}, curve.EffectEstimate{EffectSize: -0.12, Variance: 0.01}, curve.CurveConfig{Intervals: 250, Level: 0.001}},
		{"ten by ten", curve.CrossValidationDesign{Repetitions: 10, Folds: 10, TrainSize: 900, TestSize: 100}, curve.EffectEstimate{EffectSize: 0.3, Variance: 2.5}, curve.CurveConfig{Intervals: 37, Level: 0.02}},
		{"alphas beyond one", tenFold, estimate, curve.CurveConfig{Intervals: 20, Level: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := quietBuilder().Build(tt.design, tt.estimate, tt.config)
			require.NoError(t, err)
			require.Equal(t, tt.config.Intervals, res.Len())

			effect := tt.estimate.EffectSize
			for i, ci := range res.Intervals {
				assert.LessOrEqual(t, ci.Lower, effect, "row %d", i)
				assert.GreaterOrEqual(t, ci.Upper, effect, "row %d", i)
				assert.InDelta(t, ci.Upper-effect, effect-ci.Lower, 1e-12, "symmetry row %d", i)

				if i == 0 {
					continue
				}
				prev := res.Intervals[i-1]
				assert.Greater(t, ci.Alpha, prev.Alpha, "alpha must strictly increase at row %d", i)
				assert.LessOrEqual(t, ci.Width(), prev.Width()+1e-15, "width must not grow at row %d", i)
			}
		})
	}
}

func TestBuildAlignedColumns(t *testing.T) {
	res, err := quietBuilder().Build(tenFold, estimate, curve.CurveConfig{Intervals: 15, Level: 0.01})
	require.NoError(t, err)

	alphas, lowers, uppers := res.Alphas(), res.Lowers(), res.Uppers()
	require.Len(t, alphas, 15)
	require.Len(t, lowers, 15)
	require.Len(t, uppers, 15)
	for i, ci := range res.Intervals {
		assert.Equal(t, ci.Alpha, alphas[i])
		assert.Equal(t, ci.Lower, lowers[i])
		assert.Equal(t, ci.Upper, uppers[i])
	}
}

func TestAUCCDependsOnlyOnSD(t *testing.T) {
	base, err := quietBuilder().Build(tenFold, estimate, curve.DefaultCurveConfig())
	require.NoError(t, err)

	shifted, err := quietBuilder().Build(tenFold, curve.EffectEstimate{EffectSize: -3, Variance: estimate.Variance}, curve.CurveConfig{Intervals: 17, Level: 0.05})
	require.NoError(t, err)
	assert.Equal(t, base.AUCC, shifted.AUCC)

	for _, c := range []float64{0.25, 4, 9, 100} {
		scaled, err := quietBuilder().Build(tenFold, curve.EffectEstimate{EffectSize: estimate.EffectSize, Variance: c * estimate.Variance}, curve.DefaultCurveConfig())
		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt(c)*base.SD, scaled.SD, 1e-12, "c=%v", c)
		assert.InDelta(t, math.Sqrt(c)*base.AUCC, scaled.AUCC, 1e-12, "c=%v", c)
	}
}

func TestBuildZeroVarianceCollapses(t *testing.T) {
	res, err := quietBuilder().Build(tenFold, curve.EffectEstimate{EffectSize: 0.07, Variance: 0}, curve.DefaultCurveConfig())
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.SD)
	assert.Equal(t, 0.0, res.AUCC)
	assert.True(t, res.IsDegenerate())
	for _, ci := range res.Intervals {
		assert.Equal(t, 0.07, ci.Lower)
		assert.Equal(t, 0.07, ci.Upper)
	}
}

func TestBuildDiagnostics(t *testing.T) {
	tests := []struct {
		name          string
		config        curve.CurveConfig
		expectWarning bool
		expectRange   bool
	}{
		{"default config is clean", curve.DefaultCurveConfig(), false, false},
		{"ten intervals warns", curve.CurveConfig{Intervals: 10, Level: 0.01}, true, false},
		{"single interval warns", curve.CurveConfig{Intervals: 1, Level: 0.05}, true, false},
		{"eleven intervals is smooth", curve.CurveConfig{Intervals: 11, Level: 0.01}, false, false},
		{"large level overflows alpha", curve.CurveConfig{Intervals: 100, Level: 0.2}, false, true},
		{"both", curve.CurveConfig{Intervals: 5, Level: 0.5}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			b := NewBuilder(internal.NewLoggerTo(&logs, internal.LogLevelWarn))

			res, err := b.Build(tenFold, estimate, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.expectWarning, res.HasDiagnostic(curve.ConfigurationWarning))
			assert.Equal(t, tt.expectRange, res.HasDiagnostic(curve.RangeAdvisory))
			assert.Equal(t, len(res.Diagnostics) > 0, logs.Len() > 0, "diagnostics are logged at WARN")
		})
	}
}

func TestBuildRangeAdvisoryKeepsAlphaAndCollapses(t *testing.T) {
	res, err := quietBuilder().Build(tenFold, estimate, curve.CurveConfig{Intervals: 10, Level: 0.5})
	require.NoError(t, err)

	// alphas 0.5, 0.6, ..., 1.4; rows past 1 are kept unclamped but degenerate
	last := res.Intervals[9]
	assert.InDelta(t, 1.4, last.Alpha, 1e-12)
	assert.Equal(t, estimate.EffectSize, last.Lower)
	assert.Equal(t, estimate.EffectSize, last.Upper)
	assert.Contains(t, res.Diagnostics[len(res.Diagnostics)-1].Message, "4 of 10 alphas exceed 1")
}

func TestBuildDomainErrors(t *testing.T) {
	tests := []struct {
		name     string
		design   curve.CrossValidationDesign
		estimate curve.EffectEstimate
		config   curve.CurveConfig
		code     string
		sentinel error
	}{
		{"df zero", curve.CrossValidationDesign{Repetitions: 1, Folds: 1, TrainSize: 90, TestSize: 10}, estimate, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrDegreesOfFreedom},
		{"n1 zero", curve.CrossValidationDesign{Repetitions: 1, Folds: 10, TrainSize: 0, TestSize: 10}, estimate, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrTrainSize},
		{"n1 negative", curve.CrossValidationDesign{Repetitions: 1, Folds: 10, TrainSize: -5, TestSize: 10}, estimate, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrTrainSize},
		{"variance NaN", tenFold, curve.EffectEstimate{EffectSize: 0.05, Variance: math.NaN()}, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrNonFinite},
		{"effect Inf", tenFold, curve.EffectEstimate{EffectSize: math.Inf(1), Variance: 0.1}, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrNonFinite},
		{"negative variance", tenFold, curve.EffectEstimate{EffectSize: 0.05, Variance: -1}, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrDomain},
		{"zero intervals", tenFold, estimate, curve.CurveConfig{Intervals: 0, Level: 0.01}, errors.CodeValidationError, core.ErrIntervalCount},
		{"level zero", tenFold, estimate, curve.CurveConfig{Intervals: 100, Level: 0}, errors.CodeValidationError, core.ErrLevel},
		{"level one", tenFold, estimate, curve.CurveConfig{Intervals: 100, Level: 1}, errors.CodeValidationError, core.ErrLevel},
		{"negative folds", curve.CrossValidationDesign{Repetitions: -1, Folds: -10, TrainSize: 90, TestSize: 10}, estimate, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrDegreesOfFreedom},
		{"zero repetitions", curve.CrossValidationDesign{Repetitions: 0, Folds: 5, TrainSize: 90, TestSize: 10}, estimate, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrDegreesOfFreedom},
		{"subnormal n1 overflows sd", curve.CrossValidationDesign{Repetitions: 1, Folds: 10, TrainSize: 1e-310, TestSize: 10}, curve.EffectEstimate{EffectSize: 0.05, Variance: 1}, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrNonFinite},
		{"huge variance overflows sd", curve.CrossValidationDesign{Repetitions: 1, Folds: 10, TrainSize: 1, TestSize: 10}, curve.EffectEstimate{EffectSize: 0.05, Variance: math.MaxFloat64}, curve.DefaultCurveConfig(), errors.CodeDomainError, core.ErrNonFinite},
		{"negative n2", curve.CrossValidationDesign{Repetitions: 1, Folds: 10, TrainSize: 90, TestSize: -1}, estimate, curve.DefaultCurveConfig(), errors.CodeInvalidInput, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := quietBuilder().Build(tt.design, tt.estimate, tt.config)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.code, errors.GetCode(err))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestBuildDegreesOfFreedomErrorNamesValues(t *testing.T) {
	_, err := Build(1, 1, 90, 10, 0.05, 0.0004, 100, 0.01)
	require.Error(t, err)
	assert.True(t, core.IsDomainError(err))
	assert.Contains(t, err.Error(), "r=1")
	assert.Contains(t, err.Error(), "k=1")
}

func TestBuildVerboseReport(t *testing.T) {
	var report bytes.Buffer
	b := quietBuilder()
	b.SetVerbose(true, &report)

	_, err := b.Build(tenFold, estimate, curve.DefaultCurveConfig())
	require.NoError(t, err)
	assert.Equal(t, "AUCC: 0.0147\n", report.String())

	report.Reset()
	b.SetVerbose(false, &report)
	_, err = b.Build(tenFold, estimate, curve.DefaultCurveConfig())
	require.NoError(t, err)
	assert.Empty(t, report.String())
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := quietBuilder().Build(tenFold, estimate, curve.DefaultCurveConfig())
	require.NoError(t, err)
	b, err := quietBuilder().Build(tenFold, estimate, curve.DefaultCurveConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildLargeIntervalCount(t *testing.T) {
	res, err := quietBuilder().Build(tenFold, estimate, curve.CurveConfig{Intervals: 1000, Level: 0.0005})
	require.NoError(t, err)
	assert.Equal(t, 1000, res.Len())
}
