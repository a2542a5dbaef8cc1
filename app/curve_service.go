package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"confcurve/domain/core"
	"confcurve/domain/curve"
	"confcurve/internal"
	curvecalc "confcurve/internal/curve"
	"confcurve/internal/errors"
	"confcurve/internal/metrics"
	"confcurve/internal/validation"
	"confcurve/ports"
)

// CurveService builds confidence curves and renders them for the CLI, the
// JSON API and the report viewer
type CurveService struct {
	builder   *curvecalc.Builder
	validator *validation.Validator
	renderers map[string]ports.CurveRenderer
	workers   int
	defaults  curve.CurveConfig
	logger    *internal.Logger
}

// Summary holds the figures derived from a built curve
type Summary struct {
	AUCCRounded   float64                  `json:"aucc_rounded"`
	EmpiricalAUCC float64                  `json:"empirical_aucc"`
	CI95          curve.ConfidenceInterval `json:"ci95"`
	NullPValue    float64                  `json:"null_p_value"`
	Widths        curvecalc.WidthSummary   `json:"widths"`
	Widest        curve.ConfidenceInterval `json:"widest"`
}

// CurveRun is one built comparison with its identity and summary
type CurveRun struct {
	RunID       core.RunID     `json:"run_id"`
	Name        string         `json:"name"`
	Fingerprint core.InputHash `json:"fingerprint"`
	Result      *curve.Result  `json:"result"`
	Summary     Summary        `json:"summary"`
	RuntimeMs   int64          `json:"runtime_ms"`
}

// NewCurveService creates a service over the given builder and renderers.
// Later renderers replace earlier ones with the same format.
func NewCurveService(builder *curvecalc.Builder, validator *validation.Validator, workers int, logger *internal.Logger, renderers ...ports.CurveRenderer) *CurveService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if validator == nil {
		validator = validation.NewValidator()
	}
	s := &CurveService{
		builder:   builder,
		validator: validator,
		renderers: make(map[string]ports.CurveRenderer, len(renderers)),
		workers:   workers,
		defaults:  curve.DefaultCurveConfig(),
		logger:    logger.With("CurveService"),
	}
	for _, r := range renderers {
		s.renderers[r.Format()] = r
	}
	return s
}

// SetDefaults changes the m and level used when a comparison leaves them unset
func (s *CurveService) SetDefaults(cfg curve.CurveConfig) {
	s.defaults = cfg
}

func (s *CurveService) withDefaults(c curve.Comparison) curve.Comparison {
	if c.Intervals == 0 {
		c.Intervals = s.defaults.Intervals
	}
	if c.Level == 0 {
		c.Level = s.defaults.Level
	}
	return c.WithDefaults()
}

// Build builds a single comparison; unset m and level take the service defaults
func (s *CurveService) Build(ctx context.Context, c curve.Comparison) (*CurveRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	c = s.withDefaults(c)

	res, err := s.builder.Build(c.CrossValidationDesign, c.EffectEstimate, c.CurveConfig)
	if err != nil {
		return nil, err
	}
	run, err := newCurveRun(core.NewRunID(), c, res)
	if err != nil {
		return nil, err
	}
	run.RuntimeMs = time.Since(start).Milliseconds()
	s.logger.Debug("run %s (%s) fingerprint=%s aucc=%.6g", run.RunID, run.Name, run.Fingerprint.Short(), res.AUCC)
	return run, nil
}

// Batch validates every comparison, then builds them concurrently. Runs are
// returned in input order.
func (s *CurveService) Batch(ctx context.Context, comparisons []curve.Comparison) ([]*CurveRun, error) {
	if len(comparisons) == 0 {
		return nil, errors.WithCode(errors.CodeInvalidInput, core.ErrEmptyBatch)
	}
	defaulted := make([]curve.Comparison, len(comparisons))
	for i, c := range comparisons {
		defaulted[i] = s.withDefaults(c)
	}
	if err := s.validator.Comparisons(defaulted); err != nil {
		return nil, err
	}

	start := time.Now()
	items, err := s.builder.BuildBatch(ctx, defaulted, s.workers)
	if err != nil {
		return nil, err
	}

	runs := make([]*CurveRun, len(items))
	for i, item := range items {
		run, err := newCurveRun(item.RunID, defaulted[i], item.Result)
		if err != nil {
			return nil, errors.Wrapf(err, "comparison %q", item.Name)
		}
		runs[i] = run
	}
	s.logger.Info("batch of %d comparisons built in %s", len(runs), time.Since(start))
	return runs, nil
}

// LoadBatch reads comparisons from a source and builds them
func (s *CurveService) LoadBatch(ctx context.Context, src ports.ComparisonSource) ([]*CurveRun, error) {
	comparisons, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.Batch(ctx, comparisons)
}

// Formats lists the registered renderer formats
func (s *CurveService) Formats() []string {
	out := make([]string, 0, len(s.renderers))
	for f := range s.renderers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Renderer returns the renderer registered for format
func (s *CurveService) Renderer(format string) (ports.CurveRenderer, error) {
	r, ok := s.renderers[format]
	if !ok {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown format %q (available: %v)", format, s.Formats()))
	}
	return r, nil
}

// Render writes res in the given format
func (s *CurveService) Render(ctx context.Context, format string, res *curve.Result, w io.Writer) error {
	r, err := s.Renderer(format)
	if err != nil {
		return err
	}
	if err := r.Render(ctx, res, w); err != nil {
		metrics.RendersTotal.WithLabelValues(format, metrics.ResultError).Inc()
		s.logger.Error("render %s failed: %v", format, err)
		return err
	}
	metrics.RendersTotal.WithLabelValues(format, metrics.ResultOK).Inc()
	return nil
}

func newCurveRun(id core.RunID, c curve.Comparison, res *curve.Result) (*CurveRun, error) {
	summary, err := Summarize(res)
	if err != nil {
		return nil, err
	}
	return &CurveRun{
		RunID:       id,
		Name:        c.Name,
		Fingerprint: Fingerprint(c),
		Result:      res,
		Summary:     summary,
	}, nil
}

// Summarize derives the reported figures from a built curve
func Summarize(res *curve.Result) (Summary, error) {
	rounded, err := curvecalc.RoundAUCC(res)
	if err != nil {
		return Summary{}, err
	}
	ci95, err := curvecalc.IntervalAt(res, curve.ReferencePValue)
	if err != nil {
		return Summary{}, err
	}
	pValue, err := curvecalc.NullPValue(res, 0)
	if err != nil {
		return Summary{}, err
	}
	widths, err := curvecalc.SummarizeWidths(res)
	if err != nil {
		return Summary{}, err
	}
	widest, _ := res.Widest()
	return Summary{
		AUCCRounded:   rounded,
		EmpiricalAUCC: curvecalc.EmpiricalAUCC(res),
		CI95:          ci95,
		NullPValue:    pValue,
		Widths:        widths,
		Widest:        widest,
	}, nil
}

// Fingerprint hashes the build inputs of a comparison; the name is excluded
func Fingerprint(c curve.Comparison) core.InputHash {
	return core.ComputeInputHash(map[string]interface{}{
		"r":           c.Repetitions,
		"k":           c.Folds,
		"n1":          c.TrainSize,
		"n2":          c.TestSize,
		"effect_size": c.EffectSize,
		"variance":    c.Variance,
		"m":           c.Intervals,
		"level":       c.Level,
	})
}
