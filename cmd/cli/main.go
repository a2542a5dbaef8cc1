package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"confcurve/internal/config"
	"confcurve/internal/container"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "confcurve",
		Short: "Confidence curves for cross-validated classifier comparisons",
		Long: `Build nested confidence intervals (a confidence curve) for the difference in
performance of two classifiers estimated by repeated k-fold cross-validation,
using the Nadeau-Bengio corrected resampled t statistic.

Defaults are read from the environment (and an optional .env file):
- CURVE_INTERVALS (default: 100)
- CURVE_LEVEL (default: 0.01)
- LOG_LEVEL (default: INFO)
- BATCH_WORKERS (default: 4)
- OUTPUT_DIR (default: .)`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newBuildCmd(),
		newBatchCmd(),
		newFormatsCmd(),
	)
	return rootCmd
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List output formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadContainer(nil)
			if err != nil {
				return err
			}
			for _, f := range c.CurveService.Formats() {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

// loadContainer reads configuration, lets the command override it, and wires
// the application
func loadContainer(override func(*config.Config)) (*container.Container, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}
	if override != nil {
		override(cfg)
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}

// outputPath resolves relative paths against OUTPUT_DIR
func outputPath(cfg *config.Config, path string) string {
	if filepath.IsAbs(path) || cfg.Output.Dir == "" || cfg.Output.Dir == "." {
		return path
	}
	return filepath.Join(cfg.Output.Dir, path)
}

// writeFile creates path (and its directory) and hands it to write
func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
