package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"confcurve/adapters/plot"
	"confcurve/adapters/report"
	"confcurve/app"
	"confcurve/internal"
	curvecalc "confcurve/internal/curve"
	"confcurve/internal/errors"
	"confcurve/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const tenFoldBody = `{"name":"svm-vs-rf","r":1,"k":10,"n1":90,"n2":10,"effect_size":0.05,"variance":0.0004}`

func newTestServer() *Server {
	logger := internal.NewLoggerTo(io.Discard, internal.LogLevelError)
	svc := app.NewCurveService(curvecalc.NewBuilder(logger), validation.NewValidator(), 2, logger,
		&report.TextRenderer{}, report.NewHTMLRenderer("API"), plot.NewRenderer("API"))
	return NewServer(svc, validation.NewValidator(), logger)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	s := newTestServer()
	do(t, s, http.MethodPost, "/v1/curves", tenFoldBody)

	w := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "confcurve_builds_total")
}

func TestBuildCurve(t *testing.T) {
	w := do(t, newTestServer(), http.MethodPost, "/v1/curves", tenFoldBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		RunID   string `json:"run_id"`
		Name    string `json:"name"`
		Summary struct {
			AUCCRounded float64 `json:"aucc_rounded"`
			NullPValue  float64 `json:"null_p_value"`
		} `json:"summary"`
		Result struct {
			SD        float64 `json:"sd"`
			AUCC      float64 `json:"aucc"`
			Intervals []struct {
				Alpha float64 `json:"alpha"`
				Lower float64 `json:"lower"`
				Upper float64 `json:"upper"`
			} `json:"intervals"`
		} `json:"result"`
		Report string `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "svm-vs-rf", resp.Name)
	assert.Equal(t, 0.0147, resp.Summary.AUCCRounded)
	assert.InDelta(t, 0.009189365834726815, resp.Result.SD, 1e-12)
	require.Len(t, resp.Result.Intervals, 100)
	assert.InDelta(t, 0.0201360723, resp.Result.Intervals[0].Lower, 1e-8)
	assert.InDelta(t, 0.0798639277, resp.Result.Intervals[0].Upper, 1e-8)
	assert.Empty(t, resp.Report)
}

func TestBuildCurve_Verbose(t *testing.T) {
	body := strings.Replace(tenFoldBody, `"name"`, `"verbose":true,"name"`, 1)
	w := do(t, newTestServer(), http.MethodPost, "/v1/curves", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"report":"AUCC: 0.0147"`)
}

func TestBuildCurve_Formats(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"text", "text/plain; charset=utf-8", "AUCC: 0.0147"},
		{"html", "text/html; charset=utf-8", "<title>API</title>"},
		{"json", "application/json", `"plot_type": "confidence_curve"`},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/v1/curves?format="+tt.format, tenFoldBody)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.NotEmpty(t, w.Header().Get("X-Run-ID"))
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestBuildCurve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/v1/curves", `{"r":`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"wrong type", "/v1/curves", `{"r":"one"}`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"missing fields", "/v1/curves", `{"r":1,"k":10}`, http.StatusUnprocessableEntity, errors.CodeValidationError},
		{"single fold", "/v1/curves", strings.Replace(tenFoldBody, `"k":10`, `"k":1`, 1), http.StatusUnprocessableEntity, errors.CodeDomainError},
		{"negative variance", "/v1/curves", strings.Replace(tenFoldBody, `0.0004`, `-0.0004`, 1), http.StatusUnprocessableEntity, errors.CodeDomainError},
		{"level out of range", "/v1/curves", strings.Replace(tenFoldBody, `"name"`, `"level":1.5,"name"`, 1), http.StatusUnprocessableEntity, errors.CodeValidationError},
		{"explicit zero intervals", "/v1/curves", strings.Replace(tenFoldBody, `"name"`, `"m":0,"name"`, 1), http.StatusUnprocessableEntity, errors.CodeValidationError},
		{"explicit zero level", "/v1/curves", strings.Replace(tenFoldBody, `"name"`, `"level":0,"name"`, 1), http.StatusUnprocessableEntity, errors.CodeValidationError},
		{"too many intervals", "/v1/curves", strings.Replace(tenFoldBody, `"name"`, `"m":1000000000,"name"`, 1), http.StatusUnprocessableEntity, errors.CodeValidationError},
		{"negative test size", "/v1/curves", strings.Replace(tenFoldBody, `"n2":10`, `"n2":-1`, 1), http.StatusBadRequest, errors.CodeInvalidInput},
		{"unknown format", "/v1/curves?format=pdf", tenFoldBody, http.StatusBadRequest, errors.CodeInvalidInput},
	}

	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestBuildCurve_SingleFoldMessage(t *testing.T) {
	w := do(t, newTestServer(), http.MethodPost, "/v1/curves", strings.Replace(tenFoldBody, `"k":10`, `"k":1`, 1))
	assert.Contains(t, w.Body.String(), "k*r-1 = 0 (r=1, k=1) must be positive")
}

func TestBuildBatch(t *testing.T) {
	body := `{"comparisons":[
		{"name":"a","r":1,"k":10,"n1":90,"n2":10,"effect_size":0.05,"variance":0.0004},
		{"name":"b","r":10,"k":10,"n1":900,"n2":100,"effect_size":-0.02,"variance":0.001,"m":20}
	]}`
	w := do(t, newTestServer(), http.MethodPost, "/v1/curves/batch", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Count int `json:"count"`
		Runs  []struct {
			Name   string `json:"name"`
			Result struct {
				Intervals []json.RawMessage `json:"intervals"`
			} `json:"result"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "a", resp.Runs[0].Name)
	assert.Equal(t, "b", resp.Runs[1].Name)
	assert.Len(t, resp.Runs[1].Result.Intervals, 20)
}

func TestBuildBatch_Errors(t *testing.T) {
	s := newTestServer()

	w := do(t, s, http.MethodPost, "/v1/curves/batch", `{"comparisons":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/v1/curves/batch",
		`{"comparisons":[{"name":"bad","r":1,"k":1,"n1":90,"n2":10,"effect_size":0.05,"variance":0.0004}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `comparison \"bad\"`)

	w = do(t, s, http.MethodPost, "/v1/curves/batch",
		`{"comparisons":[{"name":"huge","r":1,"k":10,"n1":90,"n2":10,"effect_size":0.05,"variance":0.0004,"m":1000000000}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `comparison \"huge\"`)
}

func TestFormatsEndpoint(t *testing.T) {
	w := do(t, newTestServer(), http.MethodGet, "/v1/formats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"formats":["html","json","text"]}`, w.Body.String())
}
