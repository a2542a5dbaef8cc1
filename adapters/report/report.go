package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"confcurve/domain/curve"
	curvecalc "confcurve/internal/curve"
	"confcurve/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// TextRenderer writes the AUCC line, optionally preceded by the interval table
type TextRenderer struct {
	Table bool
}

// Format implements ports.CurveRenderer
func (tr *TextRenderer) Format() string { return "text" }

// Render implements ports.CurveRenderer
func (tr *TextRenderer) Render(ctx context.Context, res *curve.Result, w io.Writer) error {
	if tr.Table {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "alpha\tconfidence\tlower\tupper\t")
		for _, ci := range res.Intervals {
			fmt.Fprintf(tw, "%.4f\t%.4f\t%.6f\t%.6f\t\n", ci.Alpha, ci.ConfidenceLevel(), ci.Lower, ci.Upper)
		}
		if err := tw.Flush(); err != nil {
			return errors.RenderError(tr.Format(), err)
		}
	}
	for _, d := range res.Diagnostics {
		if _, err := fmt.Fprintf(w, "%s: %s\n", d.Kind, d.Message); err != nil {
			return errors.RenderError(tr.Format(), err)
		}
	}
	line, err := curvecalc.AUCCLine(res)
	if err != nil {
		return errors.RenderError(tr.Format(), err)
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return errors.RenderError(tr.Format(), err)
	}
	return nil
}

// MarkdownRenderer writes a Markdown summary of the curve
type MarkdownRenderer struct {
	Title string
	// Rows is how many evenly spaced intervals the table shows (all when <= 0)
	Rows int
}

// NewMarkdownRenderer creates a renderer showing 11 sampled rows
func NewMarkdownRenderer(title string) *MarkdownRenderer {
	return &MarkdownRenderer{Title: title, Rows: 11}
}

// Format implements ports.CurveRenderer
func (mr *MarkdownRenderer) Format() string { return "markdown" }

// Render implements ports.CurveRenderer
func (mr *MarkdownRenderer) Render(ctx context.Context, res *curve.Result, w io.Writer) error {
	md, err := mr.Markdown(res)
	if err != nil {
		return errors.RenderError(mr.Format(), err)
	}
	if _, err := w.Write(md); err != nil {
		return errors.RenderError(mr.Format(), err)
	}
	return nil
}

// Markdown builds the report document
func (mr *MarkdownRenderer) Markdown(res *curve.Result) ([]byte, error) {
	rounded, err := curvecalc.RoundAUCC(res)
	if err != nil {
		return nil, err
	}
	pValue, err := curvecalc.NullPValue(res, 0)
	if err != nil {
		return nil, err
	}
	ref, err := curvecalc.IntervalAt(res, curve.ReferencePValue)
	if err != nil {
		return nil, err
	}
	widths, err := curvecalc.SummarizeWidths(res)
	if err != nil {
		return nil, err
	}

	title := mr.Title
	if title == "" {
		title = "Confidence Curve"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Repeated cross-validation: r = %d, k = %d, n1 = %g, n2 = %g (df = %d).\n\n",
		res.Design.Repetitions, res.Design.Folds, res.Design.TrainSize, res.Design.TestSize, res.Design.DegreesOfFreedom())

	b.WriteString("## Summary\n\n")
	b.WriteString("| Statistic | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Effect size | %.6f |\n", res.Estimate.EffectSize)
	fmt.Fprintf(&b, "| Corrected SD | %.6f |\n", res.SD)
	fmt.Fprintf(&b, "| AUCC | %.*f |\n", curvecalc.ReportPrecision, rounded)
	fmt.Fprintf(&b, "| Empirical AUCC | %.6f |\n", curvecalc.EmpiricalAUCC(res))
	fmt.Fprintf(&b, "| 95%% interval | [%.6f, %.6f] |\n", ref.Lower, ref.Upper)
	fmt.Fprintf(&b, "| p-value vs 0 | %.4g |\n", pValue)
	fmt.Fprintf(&b, "| Mean width | %.6f |\n\n", widths.Mean)

	if len(res.Diagnostics) > 0 {
		b.WriteString("## Diagnostics\n\n")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&b, "- **%s**: %s\n", d.Kind, d.Message)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Nested intervals\n\n")
	b.WriteString("| alpha | confidence | lower | upper |\n|---|---|---|---|\n")
	for _, i := range sampleIndexes(res.Len(), mr.Rows) {
		ci := res.Intervals[i]
		fmt.Fprintf(&b, "| %.4f | %.4f | %.6f | %.6f |\n", ci.Alpha, ci.ConfidenceLevel(), ci.Lower, ci.Upper)
	}
	return b.Bytes(), nil
}

// HTMLRenderer renders the Markdown report to a standalone HTML page
type HTMLRenderer struct {
	md *MarkdownRenderer
}

// NewHTMLRenderer creates an HTML renderer over a Markdown renderer
func NewHTMLRenderer(title string) *HTMLRenderer {
	return &HTMLRenderer{md: NewMarkdownRenderer(title)}
}

// Format implements ports.CurveRenderer
func (hr *HTMLRenderer) Format() string { return "html" }

// Render implements ports.CurveRenderer
func (hr *HTMLRenderer) Render(ctx context.Context, res *curve.Result, w io.Writer) error {
	md, err := hr.md.Markdown(res)
	if err != nil {
		return errors.RenderError(hr.Format(), err)
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: hr.md.Title,
	})
	if _, err := w.Write(markdown.ToHTML(md, p, renderer)); err != nil {
		return errors.RenderError(hr.Format(), err)
	}
	return nil
}

// sampleIndexes picks k evenly spaced indexes from [0, n), always keeping both ends
func sampleIndexes(n, k int) []int {
	if k <= 0 || k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	if k == 1 {
		return []int{0}
	}
	out := make([]int, 0, k)
	last := -1
	for j := 0; j < k; j++ {
		i := j * (n - 1) / (k - 1)
		if i != last {
			out = append(out, i)
			last = i
		}
	}
	return out
}
