package curve

import (
	"context"

	"confcurve/domain/core"
	"confcurve/domain/curve"
	"confcurve/internal/errors"

	"golang.org/x/sync/errgroup"
)

// BatchItem is one built comparison of a batch, in input order
type BatchItem struct {
	RunID  core.RunID    `json:"run_id"`
	Name   string        `json:"name"`
	Result *curve.Result `json:"result"`
}

// BuildBatch builds every comparison with at most workers concurrent builds.
// Comparisons share nothing, so results do not depend on scheduling. The first
// failure cancels the remaining builds and is returned with the comparison name.
func (b *Builder) BuildBatch(ctx context.Context, comparisons []curve.Comparison, workers int) ([]BatchItem, error) {
	if len(comparisons) == 0 {
		return nil, errors.WithCode(errors.CodeInvalidInput, core.ErrEmptyBatch)
	}
	if workers < 1 {
		workers = 1
	}

	items := make([]BatchItem, len(comparisons))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range comparisons {
		i, c := i, c.WithDefaults()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := b.Build(c.CrossValidationDesign, c.EffectEstimate, c.CurveConfig)
			if err != nil {
				return errors.Wrapf(err, "comparison %q", c.Name)
			}
			items[i] = BatchItem{RunID: core.NewRunID(), Name: c.Name, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	b.logger.Info("built %d curves", len(items))
	return items, nil
}
