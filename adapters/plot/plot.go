package plot

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"confcurve/domain/curve"
	curvecalc "confcurve/internal/curve"
	"confcurve/internal/errors"
)

// PlotType identifies the kind of plot for the plotting sidecar
type PlotType string

const ConfidenceCurvePlot PlotType = "confidence_curve"

// PlotData is the JSON document consumed by the plotting sidecar
type PlotData struct {
	PlotType  PlotType               `json:"plot_type"`
	Title     string                 `json:"title"`
	Timestamp time.Time              `json:"timestamp"`
	Series    []SeriesData           `json:"series"`
	Config    PlotConfig             `json:"config"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// SeriesData represents a single data series in a plot
type SeriesData struct {
	Name  string                 `json:"name"`
	Type  string                 `json:"type"` // "line", "fill", "hline", "vline", "tick"
	Data  []DataPoint            `json:"data"`
	Style map[string]interface{} `json:"style,omitempty"`
}

// DataPoint is one point; reference lines use only X or only Y
type DataPoint struct {
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Label string   `json:"label,omitempty"`
}

// PlotConfig contains plot-specific configuration
type PlotConfig struct {
	XAxisLabel string `json:"x_axis_label"`
	YAxisLabel string `json:"y_axis_label"`
	XAxisScale string `json:"x_axis_scale"`
	YAxisScale string `json:"y_axis_scale"`
	ShowLegend bool   `json:"show_legend"`
	ShowGrid   bool   `json:"show_grid"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// Renderer turns a curve result into PlotData JSON
type Renderer struct {
	Title string
	Fill  bool
	Null  float64

	now func() time.Time
}

// NewRenderer creates a renderer with shaded regions and the null value at 0
func NewRenderer(title string) *Renderer {
	return &Renderer{Title: title, Fill: true, now: time.Now}
}

// Format implements ports.CurveRenderer
func (r *Renderer) Format() string { return "json" }

// Render implements ports.CurveRenderer
func (r *Renderer) Render(ctx context.Context, res *curve.Result, w io.Writer) error {
	data, err := r.Build(res)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return errors.RenderError(r.Format(), err)
	}
	return nil
}

// Build assembles the plot document: both bound curves against alpha, the
// shaded band between them, the p = 0.05 and null reference lines, and a tick
// at the effect size.
func (r *Renderer) Build(res *curve.Result) (PlotData, error) {
	title := r.Title
	if title == "" {
		title = "Confidence Curve"
	}

	n := res.Len()
	lower := make([]DataPoint, n)
	upper := make([]DataPoint, n)
	for i, ci := range res.Intervals {
		lower[i] = point(ci.Lower, ci.Alpha)
		upper[i] = point(ci.Upper, ci.Alpha)
	}

	series := []SeriesData{
		{Name: "Lower bound", Type: "line", Data: lower, Style: map[string]interface{}{"color": "#2E86AB", "width": 2}},
		{Name: "Upper bound", Type: "line", Data: upper, Style: map[string]interface{}{"color": "#2E86AB", "width": 2}},
	}

	if r.Fill && n > 0 {
		// Upper band, then lower band reversed, closes the polygon
		band := make([]DataPoint, 0, 2*n)
		band = append(band, upper...)
		for i := n - 1; i >= 0; i-- {
			band = append(band, lower[i])
		}
		series = append(series, SeriesData{
			Name:  "Nested intervals",
			Type:  "fill",
			Data:  band,
			Style: map[string]interface{}{"color": "#2E86AB", "alpha": 0.25},
		})
	}

	ref := curve.ReferencePValue
	null := r.Null
	effect := res.Estimate.EffectSize
	series = append(series,
		SeriesData{Name: "p = 0.05", Type: "hline", Data: []DataPoint{{Y: &ref, Label: "p = 0.05"}},
			Style: map[string]interface{}{"color": "#F24236", "dash": "dashed"}},
		SeriesData{Name: "Null effect", Type: "vline", Data: []DataPoint{{X: &null, Label: "null"}},
			Style: map[string]interface{}{"color": "#555555", "dash": "dotted"}},
		SeriesData{Name: "Effect size", Type: "tick", Data: []DataPoint{{X: &effect, Label: "effect"}},
			Style: map[string]interface{}{"color": "#000000"}},
	)

	pValue, err := curvecalc.NullPValue(res, r.Null)
	if err != nil {
		return PlotData{}, errors.RenderError(r.Format(), err)
	}

	now := r.now
	if now == nil {
		now = time.Now
	}

	return PlotData{
		PlotType:  ConfidenceCurvePlot,
		Title:     title,
		Timestamp: now(),
		Series:    series,
		Config: PlotConfig{
			XAxisLabel: "Performance difference",
			YAxisLabel: "p-value (alpha)",
			XAxisScale: "linear",
			YAxisScale: "linear",
			ShowLegend: true,
			ShowGrid:   true,
			Width:      800,
			Height:     600,
		},
		Metrics: map[string]interface{}{
			"aucc":               res.AUCC,
			"empirical_aucc":     curvecalc.EmpiricalAUCC(res),
			"sd":                 res.SD,
			"effect_size":        effect,
			"degrees_of_freedom": res.Design.DegreesOfFreedom(),
			"intervals":          n,
			"level":              res.Config.Level,
			"null_p_value":       pValue,
		},
	}, nil
}

func point(x, y float64) DataPoint {
	return DataPoint{X: &x, Y: &y}
}
