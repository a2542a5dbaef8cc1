package validation

import (
	"testing"

	"confcurve/domain/curve"
	"confcurve/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Comparisons(t *testing.T) {
	valid := curve.Comparison{
		Name:                  "ok",
		CrossValidationDesign: curve.CrossValidationDesign{Repetitions: 1, Folds: 10, TrainSize: 90, TestSize: 10},
		EffectEstimate:        curve.EffectEstimate{EffectSize: 0.05, Variance: 0.0004},
		CurveConfig:           curve.DefaultCurveConfig(),
	}

	tests := []struct {
		name    string
		mutate  func(c *curve.Comparison)
		wantErr string
	}{
		{"valid", func(c *curve.Comparison) {}, ""},
		{"missing name", func(c *curve.Comparison) { c.Name = "" }, "name failed required"},
		{"zero folds", func(c *curve.Comparison) { c.Folds = 0 }, "k failed required"},
		{"zero train size", func(c *curve.Comparison) { c.TrainSize = 0 }, "n1 failed required"},
		{"negative test size", func(c *curve.Comparison) { c.TestSize = -1 }, "n2 failed gte"},
		{"negative variance", func(c *curve.Comparison) { c.Variance = -0.1 }, "variance failed gte"},
		{"zero intervals", func(c *curve.Comparison) { c.Intervals = 0 }, "m failed min"},
		{"level at one", func(c *curve.Comparison) { c.Level = 1 }, "level failed lt"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := v.Comparisons([]curve.Comparison{c})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), `comparison "`)
		})
	}
}

func TestValidator_Struct_ReportsEveryField(t *testing.T) {
	err := NewValidator().Struct(curve.CrossValidationDesign{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r failed required")
	assert.Contains(t, err.Error(), "k failed required")
	assert.Contains(t, err.Error(), "n1 failed required")
}

func TestValidator_IntervalsTag(t *testing.T) {
	type request struct {
		M *int `json:"m" validate:"omitempty,intervals"`
	}
	intp := func(n int) *int { return &n }

	tests := []struct {
		name    string
		m       *int
		wantErr string
	}{
		{"absent", nil, ""},
		{"one", intp(1), ""},
		{"at limit", intp(MaxRequestIntervals), ""},
		{"explicit zero", intp(0), "m failed min=1"},
		{"over limit", intp(MaxRequestIntervals + 1), "m failed max=100000"},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(request{M: tt.m})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIntervalLimit(t *testing.T) {
	ok := curve.Comparison{Name: "ok", CurveConfig: curve.DefaultCurveConfig()}
	big := curve.Comparison{Name: "big", CurveConfig: curve.CurveConfig{Intervals: MaxRequestIntervals + 1, Level: 0.01}}

	assert.NoError(t, IntervalLimit(ok))
	err := IntervalLimit(ok, big)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
	assert.Contains(t, err.Error(), `comparison "big"`)
}
