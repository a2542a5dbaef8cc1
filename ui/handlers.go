package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"confcurve/domain/curve"
	"confcurve/internal/errors"
	"confcurve/internal/validation"

	"github.com/go-chi/render"
)

// FormValues pre-fills the index form
type FormValues struct {
	R, K, M                             int
	N1, N2, EffectSize, Variance, Level float64
}

type link struct {
	Href  string
	Label string
}

// exampleForm is a single 10-fold run with a 0.05 accuracy difference
var exampleForm = FormValues{R: 1, K: 10, N1: 90, N2: 10, EffectSize: 0.05, Variance: 0.0004, M: curve.DefaultIntervals, Level: curve.DefaultLevel}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := formQuery(exampleForm)
	a.renderTemplate(w, "index.html", map[string]interface{}{
		"Title": a.title,
		"Form":  exampleForm,
		"Links": []link{
			{Href: "/curve?" + q, Label: "HTML report"},
			{Href: "/curve/plot.json?" + q, Label: "plot JSON"},
			{Href: "/curve/summary.json?" + q, Label: "summary JSON"},
			{Href: "/curve/workbook.xlsx?" + q, Label: "Excel workbook"},
		},
	})
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	a.renderFormat(w, r, "html", "text/html; charset=utf-8")
}

func (a *App) handlePlot(w http.ResponseWriter, r *http.Request) {
	a.renderFormat(w, r, "json", "application/json")
}

func (a *App) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="confidence-curve.xlsx"`)
	a.renderFormat(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// handleSummary returns the built run as JSON
func (a *App) handleSummary(w http.ResponseWriter, r *http.Request) {
	c, err := parseComparison(r.URL.Query())
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	run, err := a.service.Build(r.Context(), c)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

func (a *App) renderFormat(w http.ResponseWriter, r *http.Request, format, contentType string) {
	c, err := parseComparison(r.URL.Query())
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	run, err := a.service.Build(r.Context(), c)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := a.service.Render(r.Context(), format, run.Result, &buf); err != nil {
		a.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Run-ID", run.RunID.String())
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("write %s: %v", format, err)
	}
}

func (a *App) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error(), "code": errors.GetCode(err)})
}

// parseComparison reads a comparison from query parameters named like the
// JSON fields. m and level are optional, but when given must be in range.
func parseComparison(q url.Values) (curve.Comparison, error) {
	var (
		c    curve.Comparison
		errs []string
	)
	c.Name = q.Get("name")

	intParam := func(key string, dst *int, required bool) bool {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			if required {
				errs = append(errs, key+" is required")
			}
			return false
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s = %q is not an integer", key, v))
			return false
		}
		*dst = n
		return true
	}
	floatParam := func(key string, dst *float64, required bool) bool {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			if required {
				errs = append(errs, key+" is required")
			}
			return false
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s = %q is not a number", key, v))
			return false
		}
		*dst = f
		return true
	}

	intParam("r", &c.Repetitions, true)
	intParam("k", &c.Folds, true)
	floatParam("n1", &c.TrainSize, true)
	floatParam("n2", &c.TestSize, true)
	floatParam("effect_size", &c.EffectSize, true)
	floatParam("variance", &c.Variance, true)
	hasM := intParam("m", &c.Intervals, false)
	hasLevel := floatParam("level", &c.Level, false)

	if len(errs) > 0 {
		return curve.Comparison{}, errors.InvalidInput(strings.Join(errs, "; "))
	}

	if hasM && (c.Intervals < 1 || c.Intervals > validation.MaxRequestIntervals) {
		errs = append(errs, fmt.Sprintf("m = %d must lie in [1, %d]", c.Intervals, validation.MaxRequestIntervals))
	}
	if hasLevel && !(c.Level > 0 && c.Level < 1) {
		errs = append(errs, fmt.Sprintf("level = %g must lie in (0, 1)", c.Level))
	}
	if len(errs) > 0 {
		return curve.Comparison{}, errors.ValidationError(strings.Join(errs, "; "))
	}
	return c, nil
}

func formQuery(f FormValues) string {
	v := url.Values{}
	v.Set("r", strconv.Itoa(f.R))
	v.Set("k", strconv.Itoa(f.K))
	v.Set("n1", strconv.FormatFloat(f.N1, 'g', -1, 64))
	v.Set("n2", strconv.FormatFloat(f.N2, 'g', -1, 64))
	v.Set("effect_size", strconv.FormatFloat(f.EffectSize, 'g', -1, 64))
	v.Set("variance", strconv.FormatFloat(f.Variance, 'g', -1, 64))
	v.Set("m", strconv.Itoa(f.M))
	v.Set("level", strconv.FormatFloat(f.Level, 'g', -1, 64))
	return v.Encode()
}
