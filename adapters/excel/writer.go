package excel

import (
	"context"
	"fmt"
	"io"

	"confcurve/domain/curve"
	curvecalc "confcurve/internal/curve"
	"confcurve/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	IntervalsSheet = "Intervals"
	SummarySheet   = "Summary"
	BatchSheet     = "Comparisons"
)

var intervalHeaders = []interface{}{"alpha", "confidence", "lower", "upper", "width"}

// WorkbookRenderer renders a curve as an .xlsx workbook with an interval
// table, a summary sheet and a scatter chart of both bound curves.
type WorkbookRenderer struct {
	Title string
	Chart bool
}

// NewWorkbookRenderer creates a renderer that includes the chart
func NewWorkbookRenderer(title string) *WorkbookRenderer {
	return &WorkbookRenderer{Title: title, Chart: true}
}

// Format implements ports.CurveRenderer
func (wr *WorkbookRenderer) Format() string { return "xlsx" }

// Render implements ports.CurveRenderer
func (wr *WorkbookRenderer) Render(ctx context.Context, res *curve.Result, w io.Writer) error {
	f, err := wr.Workbook(res)
	if err != nil {
		return errors.RenderError(wr.Format(), err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.RenderError(wr.Format(), err)
	}
	return nil
}

// Workbook builds the in-memory workbook; callers must Close it
func (wr *WorkbookRenderer) Workbook(res *curve.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", IntervalsSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeIntervals(f, res); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, res); err != nil {
		f.Close()
		return nil, err
	}
	if wr.Chart && res.Len() > 0 {
		if err := wr.addChart(f, res.Len()); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeIntervals(f *excelize.File, res *curve.Result) error {
	if err := f.SetSheetRow(IntervalsSheet, "A1", &intervalHeaders); err != nil {
		return err
	}
	for i, ci := range res.Intervals {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{ci.Alpha, ci.ConfidenceLevel(), ci.Lower, ci.Upper, ci.Width()}
		if err := f.SetSheetRow(IntervalsSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(IntervalsSheet, "A", "E", 14)
}

func writeSummary(f *excelize.File, res *curve.Result) error {
	rounded, err := curvecalc.RoundAUCC(res)
	if err != nil {
		return err
	}
	pValue, err := curvecalc.NullPValue(res, 0)
	if err != nil {
		return err
	}
	ref, err := curvecalc.IntervalAt(res, curve.ReferencePValue)
	if err != nil {
		return err
	}

	rows := [][]interface{}{
		{"field", "value"},
		{"r", res.Design.Repetitions},
		{"k", res.Design.Folds},
		{"n1", res.Design.TrainSize},
		{"n2", res.Design.TestSize},
		{"degrees_of_freedom", res.Design.DegreesOfFreedom()},
		{"effect_size", res.Estimate.EffectSize},
		{"variance", res.Estimate.Variance},
		{"m", res.Config.Intervals},
		{"level", res.Config.Level},
		{"sd", res.SD},
		{"aucc", res.AUCC},
		{"aucc_rounded", rounded},
		{"empirical_aucc", curvecalc.EmpiricalAUCC(res)},
		{"null_p_value", pValue},
		{"ci95_lower", ref.Lower},
		{"ci95_upper", ref.Upper},
	}
	for _, d := range res.Diagnostics {
		rows = append(rows, []interface{}{string(d.Kind), d.Message})
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "B", 22)
}

func (wr *WorkbookRenderer) addChart(f *excelize.File, n int) error {
	title := wr.Title
	if title == "" {
		title = "Confidence Curve"
	}
	last := n + 1
	alphas := fmt.Sprintf("%s!$A$2:$A$%d", IntervalsSheet, last)

	return f.AddChart(IntervalsSheet, "G2", &excelize.Chart{
		Type: excelize.Scatter,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$C$1", IntervalsSheet),
				Categories: fmt.Sprintf("%s!$C$2:$C$%d", IntervalsSheet, last),
				Values:     alphas,
			},
			{
				Name:       fmt.Sprintf("%s!$D$1", IntervalsSheet),
				Categories: fmt.Sprintf("%s!$D$2:$D$%d", IntervalsSheet, last),
				Values:     alphas,
			},
		},
		Title: []excelize.RichTextRun{{Text: title}},
	})
}

// BatchRow is one comparison line of a batch summary workbook
type BatchRow struct {
	RunID  string
	Name   string
	Result *curve.Result
}

// WriteBatch writes one summary row per comparison to w
func WriteBatch(rows []BatchRow, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BatchSheet); err != nil {
		return errors.RenderError("xlsx", err)
	}
	header := []interface{}{"run_id", "name", "effect_size", "variance", "df", "sd", "aucc", "ci95_lower", "ci95_upper", "null_p_value", "diagnostics"}
	if err := f.SetSheetRow(BatchSheet, "A1", &header); err != nil {
		return errors.RenderError("xlsx", err)
	}

	for i, row := range rows {
		res := row.Result
		ref, err := curvecalc.IntervalAt(res, curve.ReferencePValue)
		if err != nil {
			return errors.RenderError("xlsx", err)
		}
		pValue, err := curvecalc.NullPValue(res, 0)
		if err != nil {
			return errors.RenderError("xlsx", err)
		}
		values := []interface{}{
			row.RunID, row.Name, res.Estimate.EffectSize, res.Estimate.Variance,
			res.Design.DegreesOfFreedom(), res.SD, res.AUCC, ref.Lower, ref.Upper, pValue,
			len(res.Diagnostics),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.RenderError("xlsx", err)
		}
		if err := f.SetSheetRow(BatchSheet, cell, &values); err != nil {
			return errors.RenderError("xlsx", err)
		}
	}

	if err := f.Write(w); err != nil {
		return errors.RenderError("xlsx", err)
	}
	return nil
}
