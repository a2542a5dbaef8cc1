package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"confcurve/adapters/batch"
	"confcurve/adapters/excel"
	"confcurve/app"
	"confcurve/internal/config"

	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var workers int
	var out string

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Build confidence curves for every comparison in a file",
		Long: `Build confidence curves for a batch of comparisons read from a .yaml, .csv or
.xlsx file. Every row needs name, r, k, n1, n2, effect_size and variance;
m and level are optional.

Example: confcurve batch comparisons.yaml --workers 8 --out summary.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], workers, out)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent builds (default BATCH_WORKERS)")
	cmd.Flags().StringVar(&out, "out", "", "Write an Excel summary of all comparisons to this file")

	return cmd
}

func runBatch(cmd *cobra.Command, path string, workers int, out string) error {
	c, cfg, err := loadContainer(func(cfg *config.Config) {
		if workers > 0 {
			cfg.Batch.Workers = workers
		}
	})
	if err != nil {
		return err
	}

	src, err := batch.Open(path)
	if err != nil {
		return err
	}
	runs, err := c.CurveService.LoadBatch(cmd.Context(), src)
	if err != nil {
		return err
	}

	if err := printRuns(cmd.OutOrStdout(), runs); err != nil {
		return err
	}

	if out != "" {
		rows := make([]excel.BatchRow, len(runs))
		for i, run := range runs {
			rows[i] = excel.BatchRow{RunID: run.RunID.String(), Name: run.Name, Result: run.Result}
		}
		dst := outputPath(cfg, out)
		if err := writeFile(dst, func(w io.Writer) error { return excel.WriteBatch(rows, w) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d comparisons)\n", dst, len(runs))
	}
	return nil
}

func printRuns(w io.Writer, runs []*app.CurveRun) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "name\teffect\tsd\taucc\tci95\tp\tdiagnostics")
	for _, run := range runs {
		res := run.Result
		fmt.Fprintf(tw, "%s\t%.4f\t%.6f\t%.4f\t[%.4f, %.4f]\t%.4g\t%d\n",
			run.Name, res.Estimate.EffectSize, res.SD, run.Summary.AUCCRounded,
			run.Summary.CI95.Lower, run.Summary.CI95.Upper, run.Summary.NullPValue, len(res.Diagnostics))
	}
	return tw.Flush()
}
