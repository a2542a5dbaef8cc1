package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"confcurve/app"
	"confcurve/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*
var embeddedFiles embed.FS

// App is the browser-facing report viewer
type App struct {
	router    *chi.Mux
	service   *app.CurveService
	templates *template.Template
	title     string
	logger    *internal.Logger
}

// Config holds viewer configuration
type Config struct {
	Title string
}

// NewApp creates the viewer over a curve service
func NewApp(config Config, service *app.CurveService, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.Title == "" {
		config.Title = "Confidence Curves"
	}

	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		service:   service,
		templates: templates,
		title:     config.Title,
		logger:    logger.With("ui"),
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the viewer routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Route("/curve", func(r chi.Router) {
		r.Get("/", a.handleReport)
		r.Get("/plot.json", a.handlePlot)
		r.Get("/summary.json", a.handleSummary)
		r.Get("/workbook.xlsx", a.handleWorkbook)
	})
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// renderTemplate renders into a buffer first so a template error never
// produces a half-written page
func (a *App) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.Error("template %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Warn("write %s: %v", name, err)
	}
}
