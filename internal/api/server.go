package api

import (
	"context"
	"net/http"
	"time"

	"confcurve/app"
	"confcurve/internal"
	"confcurve/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the JSON API server
type Server struct {
	router  *gin.Engine
	handler *CurveHandler
	logger  *internal.Logger
	http    *http.Server
}

// NewServer creates a server with routes and middleware installed
func NewServer(service *app.CurveService, validator *validation.Validator, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:  gin.New(),
		handler: NewCurveHandler(service, validator, logger),
		logger:  logger.With("http"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handler.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	{
		v1.GET("/formats", s.handler.Formats)
		v1.POST("/curves", s.handler.BuildCurve)
		v1.POST("/curves/batch", s.handler.BuildBatch)
	}
}

// requestLogger logs one line per request at DEBUG
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Handler exposes the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string, readTimeout time.Duration) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
	}
	s.logger.Info("listening on %s", addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
