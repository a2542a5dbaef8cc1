package api

import (
	"bytes"
	"net/http"
	"strings"

	"confcurve/app"
	"confcurve/domain/curve"
	"confcurve/internal"
	curvecalc "confcurve/internal/curve"
	"confcurve/internal/errors"
	"confcurve/internal/validation"

	"github.com/gin-gonic/gin"
)

// CurveRequest is the body of POST /v1/curves. Fields are pointers so that a
// missing value is not mistaken for zero: an absent m or level takes the
// configured default, an explicit 0 is rejected.
type CurveRequest struct {
	Name       string   `json:"name"`
	R          *int     `json:"r" validate:"required"`
	K          *int     `json:"k" validate:"required"`
	N1         *float64 `json:"n1" validate:"required"`
	N2         *float64 `json:"n2" validate:"required"`
	EffectSize *float64 `json:"effect_size" validate:"required"`
	Variance   *float64 `json:"variance" validate:"required"`
	M          *int     `json:"m" validate:"omitempty,intervals"`
	Level      *float64 `json:"level" validate:"omitempty,gt=0,lt=1"`
	Verbose    bool     `json:"verbose"`
}

// Comparison converts the request into a domain comparison
func (r CurveRequest) Comparison() curve.Comparison {
	c := curve.Comparison{
		Name:                  r.Name,
		CrossValidationDesign: curve.CrossValidationDesign{Repetitions: *r.R, Folds: *r.K, TrainSize: *r.N1, TestSize: *r.N2},
		EffectEstimate:        curve.EffectEstimate{EffectSize: *r.EffectSize, Variance: *r.Variance},
	}
	if r.M != nil {
		c.Intervals = *r.M
	}
	if r.Level != nil {
		c.Level = *r.Level
	}
	return c
}

// BatchRequest is the body of POST /v1/curves/batch
type BatchRequest struct {
	Comparisons []curve.Comparison `json:"comparisons"`
}

// CurveResponse is a built run, plus the AUCC line when verbose was requested
type CurveResponse struct {
	*app.CurveRun
	Report string `json:"report,omitempty"`
}

// BatchResponse lists the runs of a batch in input order
type BatchResponse struct {
	Count int             `json:"count"`
	Runs  []*app.CurveRun `json:"runs"`
}

var contentTypes = map[string]string{
	"json":     "application/json",
	"text":     "text/plain; charset=utf-8",
	"markdown": "text/markdown; charset=utf-8",
	"html":     "text/html; charset=utf-8",
	"xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// CurveHandler serves confidence curve builds over HTTP
type CurveHandler struct {
	service   *app.CurveService
	validator *validation.Validator
	logger    *internal.Logger
}

// NewCurveHandler creates a new curve handler
func NewCurveHandler(service *app.CurveService, validator *validation.Validator, logger *internal.Logger) *CurveHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if validator == nil {
		validator = validation.NewValidator()
	}
	return &CurveHandler{service: service, validator: validator, logger: logger.With("api")}
}

// BuildCurve builds one curve. With ?format=<name> the rendered artifact is
// returned instead of the JSON run.
func (h *CurveHandler) BuildCurve(c *gin.Context) {
	var req CurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.writeError(c, err)
		return
	}

	run, err := h.service.Build(c.Request.Context(), req.Comparison())
	if err != nil {
		h.writeError(c, err)
		return
	}

	if format := strings.ToLower(c.Query("format")); format != "" {
		h.writeRendered(c, format, run)
		return
	}

	resp := CurveResponse{CurveRun: run}
	if req.Verbose {
		line, err := curvecalc.AUCCLine(run.Result)
		if err != nil {
			h.writeError(c, err)
			return
		}
		resp.Report = line
	}
	c.JSON(http.StatusOK, resp)
}

// BuildBatch builds every comparison in the body concurrently
func (h *CurveHandler) BuildBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}

	if err := validation.IntervalLimit(req.Comparisons...); err != nil {
		h.writeError(c, err)
		return
	}

	runs, err := h.service.Batch(c.Request.Context(), req.Comparisons)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, BatchResponse{Count: len(runs), Runs: runs})
}

// Formats lists the renderer formats accepted by ?format=
func (h *CurveHandler) Formats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": h.service.Formats()})
}

// Health reports liveness
func (h *CurveHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CurveHandler) writeRendered(c *gin.Context, format string, run *app.CurveRun) {
	var buf bytes.Buffer
	if err := h.service.Render(c.Request.Context(), format, run.Result, &buf); err != nil {
		h.writeError(c, err)
		return
	}
	contentType, ok := contentTypes[format]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.Header("X-Run-ID", run.RunID.String())
	if format == "xlsx" {
		c.Header("Content-Disposition", `attachment; filename="curve-`+run.Fingerprint.Short()+`.xlsx"`)
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *CurveHandler) writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		h.logger.Debug("%s %s rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
