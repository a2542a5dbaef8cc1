package main

import (
	"fmt"
	"io"

	"confcurve/domain/core"
	"confcurve/domain/curve"
	"confcurve/internal/config"
	"confcurve/internal/errors"

	"github.com/spf13/cobra"
)

type buildOptions struct {
	name     string
	r, k, m  int
	n1, n2   float64
	effect   float64
	variance float64
	level    float64
	verbose  bool
	format   string
	out      string
	xlsxPath string
	htmlPath string
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the confidence curve for one comparison",
		Long: `Build the nested interval family for one cross-validated comparison and
write it in the chosen format.

Example: confcurve build --r 1 --k 10 --n1 90 --n2 10 --effect 0.05 --variance 0.0004 --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "comparison", "Comparison name used in report titles")
	cmd.Flags().IntVar(&opts.r, "r", 1, "Number of cross-validation repetitions")
	cmd.Flags().IntVar(&opts.k, "k", 10, "Number of folds per repetition")
	cmd.Flags().Float64Var(&opts.n1, "n1", 0, "Training-set size per fold")
	cmd.Flags().Float64Var(&opts.n2, "n2", 0, "Validation-set size per fold")
	cmd.Flags().Float64Var(&opts.effect, "effect", 0, "Mean performance difference between the two classifiers")
	cmd.Flags().Float64Var(&opts.variance, "variance", 0, "Sample variance of the per-run differences")
	cmd.Flags().IntVar(&opts.m, "m", 0, "Number of nested intervals (CURVE_INTERVALS when unset)")
	cmd.Flags().Float64Var(&opts.level, "level", 0, "Smallest alpha of the family (CURVE_LEVEL when unset)")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Print the AUCC line to stderr")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text|json|markdown|html|xlsx")
	cmd.Flags().StringVar(&opts.out, "out", "", "Write the output to this file instead of stdout")
	cmd.Flags().StringVar(&opts.xlsxPath, "xlsx", "", "Also write an Excel workbook to this file")
	cmd.Flags().StringVar(&opts.htmlPath, "html", "", "Also write an HTML report to this file")
	_ = cmd.MarkFlagRequired("n1")
	_ = cmd.MarkFlagRequired("n2")
	_ = cmd.MarkFlagRequired("variance")

	return cmd
}

func runBuild(cmd *cobra.Command, opts buildOptions) error {
	if cmd.Flags().Changed("m") && opts.m < 1 {
		return errors.WithCode(errors.CodeValidationError,
			fmt.Errorf("%w: --m = %d must be at least 1", core.ErrIntervalCount, opts.m))
	}
	if cmd.Flags().Changed("level") && !(opts.level > 0 && opts.level < 1) {
		return errors.WithCode(errors.CodeValidationError,
			fmt.Errorf("%w: --level = %g must lie in (0, 1)", core.ErrLevel, opts.level))
	}

	c, cfg, err := loadContainer(func(cfg *config.Config) {
		cfg.Curve.Verbose = cfg.Curve.Verbose || opts.verbose
	})
	if err != nil {
		return err
	}
	if cfg.Curve.Verbose {
		c.Builder.SetVerbose(true, cmd.ErrOrStderr())
	}

	run, err := c.CurveService.Build(cmd.Context(), curve.Comparison{
		Name: opts.name,
		CrossValidationDesign: curve.CrossValidationDesign{
			Repetitions: opts.r,
			Folds:       opts.k,
			TrainSize:   opts.n1,
			TestSize:    opts.n2,
		},
		EffectEstimate: curve.EffectEstimate{EffectSize: opts.effect, Variance: opts.variance},
		CurveConfig:    curve.CurveConfig{Intervals: opts.m, Level: opts.level},
	})
	if err != nil {
		return err
	}

	render := func(format string) func(io.Writer) error {
		return func(w io.Writer) error {
			return c.CurveService.Render(cmd.Context(), format, run.Result, w)
		}
	}

	if opts.out != "" {
		path := outputPath(cfg, opts.out)
		if err := writeFile(path, render(opts.format)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", path, opts.format)
	} else if opts.format == "xlsx" {
		return fmt.Errorf("xlsx output needs --out or --xlsx")
	} else if err := render(opts.format)(cmd.OutOrStdout()); err != nil {
		return err
	}

	for format, path := range map[string]string{"xlsx": opts.xlsxPath, "html": opts.htmlPath} {
		if path == "" {
			continue
		}
		path = outputPath(cfg, path)
		if err := writeFile(path, render(format)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", path, format)
	}
	return nil
}
