package curve

import (
	"fmt"
	"math"

	"confcurve/domain/core"
	"confcurve/domain/curve"
	"confcurve/internal/distributions"
	"confcurve/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/integrate"
)

// ReportPrecision is the number of decimals in the textual AUCC report
const ReportPrecision = 4

// IntervalAt evaluates the curve at an arbitrary alpha in (0, 1], independent
// of the sampled grid. Used for the p = 0.05 reference interval.
func IntervalAt(res *curve.Result, alpha float64) (curve.ConfidenceInterval, error) {
	dist, err := distributions.NewStudentsT(res.Design.DegreesOfFreedom())
	if err != nil {
		return curve.ConfidenceInterval{}, errors.DomainError(fmt.Errorf("%w: %v", core.ErrDegreesOfFreedom, err))
	}
	crit, err := dist.TwoSidedCritical(alpha)
	if err != nil {
		return curve.ConfidenceInterval{}, errors.InvalidInput(err.Error())
	}
	half := crit * res.SD
	return curve.ConfidenceInterval{
		Alpha: alpha,
		Lower: res.Estimate.EffectSize - half,
		Upper: res.Estimate.EffectSize + half,
	}, nil
}

// NullPValue is the alpha at which the curve crosses null, i.e. the two-sided
// p-value of the effect against the null value.
func NullPValue(res *curve.Result, null float64) (float64, error) {
	diff := math.Abs(res.Estimate.EffectSize - null)
	if res.IsDegenerate() {
		if diff == 0 {
			return 1, nil
		}
		return 0, nil
	}
	dist, err := distributions.NewStudentsT(res.Design.DegreesOfFreedom())
	if err != nil {
		return math.NaN(), errors.DomainError(fmt.Errorf("%w: %v", core.ErrDegreesOfFreedom, err))
	}
	return dist.TwoSidedPValue(diff / res.SD), nil
}

// EmpiricalAUCC integrates the band width over the emitted alpha grid with the
// trapezoidal rule. It only covers [level, level+(m-1)/m] and uses t rather
// than normal critical values, so it differs from the closed form.
func EmpiricalAUCC(res *curve.Result) float64 {
	if res.Len() < 2 {
		return 0
	}
	return integrate.Trapezoidal(res.Alphas(), res.Widths())
}

// WidthSummary describes how wide the nested intervals are across the family
type WidthSummary struct {
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// SummarizeWidths computes max, mean and median interval width
func SummarizeWidths(res *curve.Result) (WidthSummary, error) {
	widths := stats.Float64Data(res.Widths())
	max, err := widths.Max()
	if err != nil {
		return WidthSummary{}, errors.Wrap(err, "summarize widths")
	}
	mean, err := widths.Mean()
	if err != nil {
		return WidthSummary{}, errors.Wrap(err, "summarize widths")
	}
	median, err := widths.Median()
	if err != nil {
		return WidthSummary{}, errors.Wrap(err, "summarize widths")
	}
	return WidthSummary{Max: max, Mean: mean, Median: median}, nil
}

// RoundAUCC rounds AUCC to ReportPrecision decimals
func RoundAUCC(res *curve.Result) (float64, error) {
	rounded, err := stats.Round(res.AUCC, ReportPrecision)
	if err != nil {
		return 0, errors.Wrap(err, "round AUCC")
	}
	return rounded, nil
}

// AUCCLine is the one-line textual report emitted in verbose mode
func AUCCLine(res *curve.Result) (string, error) {
	rounded, err := RoundAUCC(res)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("AUCC: %.*f", ReportPrecision, rounded), nil
}
