package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Computation errors
	ErrDomain           = errors.New("computation undefined for inputs")
	ErrDegreesOfFreedom = fmt.Errorf("%w: degrees of freedom", ErrDomain)
	ErrTrainSize        = fmt.Errorf("%w: training set size", ErrDomain)
	ErrNonFinite        = fmt.Errorf("%w: non-finite value", ErrDomain)

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid curve configuration")
	ErrIntervalCount = fmt.Errorf("%w: interval count", ErrInvalidConfig)
	ErrLevel         = fmt.Errorf("%w: level", ErrInvalidConfig)

	// Input errors
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyBatch   = fmt.Errorf("%w: empty batch", ErrInvalidInput)
)

// Error constructors with context
func NewDegreesOfFreedomError(r, k int) error {
	return fmt.Errorf("%w: k*r-1 = %d (r=%d, k=%d) must be positive", ErrDegreesOfFreedom, k*r-1, r, k)
}

func NewTrainSizeError(n1 float64) error {
	return fmt.Errorf("%w: n1 = %g must be positive", ErrTrainSize, n1)
}

func NewNonFiniteError(field string, value float64) error {
	return fmt.Errorf("%w: %s = %g", ErrNonFinite, field, value)
}

// Error checking helpers
func IsDomainError(err error) bool {
	return errors.Is(err, ErrDomain)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
