package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"confcurve/adapters/excel"
	"confcurve/domain/curve"
	"confcurve/internal/errors"
	"confcurve/ports"

	"gopkg.in/yaml.v3"
)

// File is the YAML batch document
type File struct {
	Defaults    curve.CurveConfig  `yaml:"defaults"`
	Comparisons []curve.Comparison `yaml:"comparisons"`
}

// YAMLSource loads comparisons from a YAML batch file
type YAMLSource struct {
	path string
}

// NewYAMLSource creates a source for the given path
func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{path: path}
}

// Load implements ports.ComparisonSource
func (s *YAMLSource) Load(ctx context.Context) ([]curve.Comparison, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.InvalidInput(fmt.Sprintf("YAML file not found: %s", s.path))
		}
		return nil, errors.Wrap(err, "failed to read YAML file")
	}
	return ParseYAML(raw)
}

// ParseYAML decodes a batch document. Per-comparison m and level fall back
// to the document defaults; values still unset stay zero for the service
// to fill from its configuration.
func ParseYAML(raw []byte) ([]curve.Comparison, error) {
	var doc File
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("invalid YAML batch file: %w", err))
	}

	out := make([]curve.Comparison, len(doc.Comparisons))
	for i, c := range doc.Comparisons {
		if c.Intervals == 0 {
			c.Intervals = doc.Defaults.Intervals
		}
		if c.Level == 0 {
			c.Level = doc.Defaults.Level
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("comparison-%d", i+1)
		}
		out[i] = c
	}
	return out, nil
}

// Open picks a source by file extension: .yaml/.yml, .csv or .xlsx
func Open(path string) (ports.ComparisonSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAMLSource(path), nil
	case ".csv", ".xlsx":
		return excel.NewDataReader(path), nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported batch file %q: use .yaml, .csv or .xlsx", path))
	}
}
