package validation

import (
	"fmt"
	"reflect"
	"strings"

	"confcurve/domain/curve"
	"confcurve/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Validator checks comparisons against their struct tags before any build runs,
// so one bad row is reported by name instead of failing mid-batch.
type Validator struct {
	validate *validator.Validate
}

// MaxRequestIntervals bounds m for requests served over HTTP. The builder
// itself sizes the result to any m.
const MaxRequestIntervals = 100000

// NewValidator creates a validator reporting json field names. The
// "intervals" tag checks 1 <= m <= MaxRequestIntervals.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterAlias("intervals", fmt.Sprintf("min=1,max=%d", MaxRequestIntervals))
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates any tagged struct, returning a VALIDATION_ERROR listing each failing field
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validation failed")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.ActualTag(), fe.Param(), fe.Value()))
	}
	return errors.ValidationError(strings.Join(msgs, "; "))
}

// Comparisons validates every comparison, naming the first invalid one
func (v *Validator) Comparisons(comparisons []curve.Comparison) error {
	for _, c := range comparisons {
		if err := v.Struct(c); err != nil {
			return errors.Wrapf(err, "comparison %q", c.Name)
		}
	}
	return nil
}

// IntervalLimit rejects the first comparison asking for more than MaxRequestIntervals intervals
func IntervalLimit(comparisons ...curve.Comparison) error {
	for _, c := range comparisons {
		if c.Intervals > MaxRequestIntervals {
			return errors.ValidationError(fmt.Sprintf("comparison %q: m = %d exceeds the limit of %d",
				c.Name, c.Intervals, MaxRequestIntervals))
		}
	}
	return nil
}
