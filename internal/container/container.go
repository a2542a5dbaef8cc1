package container

import (
	"context"
	"fmt"
	"os"

	"confcurve/adapters/excel"
	"confcurve/adapters/plot"
	"confcurve/adapters/report"
	"confcurve/app"
	"confcurve/internal"
	"confcurve/internal/config"
	curvecalc "confcurve/internal/curve"
	"confcurve/internal/validation"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Core
	Builder   *curvecalc.Builder
	Validator *validation.Validator

	// Services
	CurveService *app.CurveService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewLogger(cfg.Log.Level),
	}

	c.initCore()
	c.initServices()

	return c, nil
}

func (c *Container) initCore() {
	c.Builder = curvecalc.NewBuilder(c.Logger)
	if c.Config.Curve.Verbose {
		c.Builder.SetVerbose(true, os.Stderr)
	}
	c.Validator = validation.NewValidator()
}

// initServices registers every renderer under its format name
func (c *Container) initServices() {
	c.CurveService = app.NewCurveService(
		c.Builder,
		c.Validator,
		c.Config.Batch.Workers,
		c.Logger,
		&report.TextRenderer{Table: true},
		report.NewMarkdownRenderer(""),
		report.NewHTMLRenderer(""),
		plot.NewRenderer(""),
		excel.NewWorkbookRenderer(""),
	)
	c.CurveService.SetDefaults(c.Config.Curve.CurveConfig())
	c.Logger.Debug("curve service ready with formats %v", c.CurveService.Formats())
}

// Shutdown releases resources held by the container
func (c *Container) Shutdown(ctx context.Context) error {
	c.Logger.Info("shutting down")
	return nil
}
