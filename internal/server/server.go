package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"PredictLens/internal/collector"
	"PredictLens/internal/comparison"
	"PredictLens/internal/forecast"
	"PredictLens/internal/recorder"
)

// Deps are the services the dashboard exposes.
type Deps struct {
	Comparison    *comparison.Service
	Sources       []comparison.Source
	Forecast      *forecast.Service
	Collector     *collector.Collector
	Recorder      recorder.Recorder
	Defaults      forecast.Options
	HistogramBins int
	PreviewRows   int
	Logger        *zap.Logger
}

// Server wraps the Echo HTTP server.
type Server struct {
	echo    *echo.Echo
	deps    Deps
	metrics *Metrics
	logger  *zap.Logger
}

// New creates the server and registers every route.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.HistogramBins <= 0 {
		deps.HistogramBins = comparison.DefaultHistogramBins
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, deps: deps, metrics: NewMetrics(), logger: deps.Logger}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(requestMiddleware(s.metrics, s.logger))

	e.GET("/healthz", s.healthz)
	api := e.Group("/api")
	api.GET("/comparison", s.getComparison)
	api.GET("/comparison/residuals", s.getResiduals)
	api.GET("/comparison/export.xlsx", s.exportComparison)
	api.GET("/forecast", s.getForecast)
	api.GET("/forecast/history.csv", s.exportHistory)
	api.GET("/forecast/runs", s.getForecastRuns)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
