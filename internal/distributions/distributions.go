package distributions

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// StudentsT provides the t-distribution quantities the confidence curve needs.
// The zero value is not usable; construct with NewStudentsT.
type StudentsT struct {
	df   int
	dist distuv.StudentsT
}

// NewStudentsT creates a standard (Mu=0, Sigma=1) t-distribution with df degrees of freedom
func NewStudentsT(degreesOfFreedom int) (*StudentsT, error) {
	if degreesOfFreedom <= 0 {
		return nil, fmt.Errorf("degrees of freedom must be positive, got %d", degreesOfFreedom)
	}
	return &StudentsT{
		df:   degreesOfFreedom,
		dist: distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(degreesOfFreedom)},
	}, nil
}

// DegreesOfFreedom returns the Nu parameter
func (t *StudentsT) DegreesOfFreedom() int {
	return t.df
}

// Quantile computes the inverse CDF. p must lie in [0, 1].
func (t *StudentsT) Quantile(p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return math.NaN(), fmt.Errorf("quantile probability %g outside [0, 1]", p)
	}
	return t.dist.Quantile(p), nil
}

// TwoSidedCritical returns T such that P(|X| <= T) = 1 - alpha, i.e. the
// quantile at 1 - alpha/2. Alpha must lie in (0, 1]; alpha = 1 gives 0.
func (t *StudentsT) TwoSidedCritical(alpha float64) (float64, error) {
	if math.IsNaN(alpha) || alpha <= 0 || alpha > 1 {
		return math.NaN(), fmt.Errorf("alpha %g outside (0, 1]", alpha)
	}
	if alpha == 1 {
		return 0, nil
	}
	return t.Quantile(1 - alpha/2)
}

// TwoSidedPValue computes the two-tailed p-value for a t statistic
func (t *StudentsT) TwoSidedPValue(tStatistic float64) float64 {
	if math.IsNaN(tStatistic) {
		return math.NaN()
	}
	// Survival avoids cancellation in 1-CDF for large |t|
	return 2 * t.dist.Survival(math.Abs(tStatistic))
}

// HalfNormalMeanDeviation is E[max(Z,0)]*2 = 2/sqrt(2*pi), the integral of the
// standard normal two-sided critical value over alpha in (0, 1).
func HalfNormalMeanDeviation() float64 {
	return 2 / math.Sqrt(2*math.Pi)
}
