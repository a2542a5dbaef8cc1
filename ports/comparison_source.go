package ports

import (
	"context"

	"confcurve/domain/curve"
)

// ComparisonSource loads a batch of classifier comparisons from some input
type ComparisonSource interface {
	Load(ctx context.Context) ([]curve.Comparison, error)
}
