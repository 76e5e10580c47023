package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"PredictLens/internal/comparison"
	"PredictLens/internal/model"
	"PredictLens/internal/recorder"
	"PredictLens/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ComparisonResponse is the body of GET /api/comparison.
type ComparisonResponse struct {
	Sources     []string                 `json:"sources"`
	Columns     []string                 `json:"columns"`
	Metrics     []model.MetricSummary    `json:"metrics"`
	TotalRows   int                      `json:"total_rows"`
	Rows        []model.MergedRow        `json:"rows"`
	ChartSeries []comparison.SeriesPoint `json:"chart_series"`
	Warnings    []comparison.Warning     `json:"warnings"`
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) runComparison() (*comparison.Report, error) {
	rep, err := s.deps.Comparison.Run(s.deps.Sources)
	s.metrics.ObserveRun("comparison", err)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Recorder.RecordComparison(rep.Metrics); err != nil {
		s.logger.Error("record comparison", zap.Error(err))
	}
	return rep, nil
}

func intParam(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

func (s *Server) getComparison(c echo.Context) error {
	limit, err := intParam(c, "rows", s.deps.PreviewRows)
	if err != nil {
		return err
	}
	rep, err := s.runComparison()
	if err != nil {
		return err
	}
	head := rep.Merged.Head(limit)
	warnings := rep.Warnings
	if warnings == nil {
		warnings = []comparison.Warning{}
	}
	return c.JSON(http.StatusOK, ComparisonResponse{
		Sources:     rep.Merged.Sources,
		Columns:     rep.Merged.Columns,
		Metrics:     rep.Metrics,
		TotalRows:   len(rep.Merged.Rows),
		Rows:        head.Rows,
		ChartSeries: comparison.ChartSeries(rep.Merged),
		Warnings:    warnings,
	})
}

func (s *Server) getResiduals(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("model"))
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "model is required")
	}
	bins, err := intParam(c, "bins", s.deps.HistogramBins)
	if err != nil {
		return err
	}
	rep, err := s.runComparison()
	if err != nil {
		return err
	}

	source := ""
	for _, src := range rep.Merged.Sources {
		if model.SourceKey(src) == model.SourceKey(name) {
			source = src
			break
		}
	}
	if source == "" {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown model %q", name))
	}
	ra, err := comparison.AnalyzeResiduals(rep.Merged, source, bins)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ra)
}

func (s *Server) exportComparison(c echo.Context) error {
	rep, err := s.runComparison()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := report.WriteComparisonXLSX(&buf, rep.Merged, rep.Metrics); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="comparison.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) ticker(c echo.Context) string {
	if t := strings.TrimSpace(c.QueryParam("ticker")); t != "" {
		return strings.ToUpper(t)
	}
	return s.deps.Defaults.Ticker
}

func (s *Server) getForecast(c echo.Context) error {
	opts := s.deps.Defaults
	opts.Ticker = s.ticker(c)
	h, err := intParam(c, "horizon", opts.Horizon)
	if err != nil {
		return err
	}
	opts.Horizon = h

	res, err := s.deps.Forecast.Run(c.Request().Context(), opts)
	s.metrics.ObserveRun("forecast", err)
	if err != nil {
		return err
	}
	if err := s.deps.Recorder.RecordForecast(res); err != nil {
		s.logger.Error("record forecast", zap.String("ticker", res.Ticker), zap.Error(err))
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) exportHistory(c echo.Context) error {
	ticker := s.ticker(c)
	hist, err := s.deps.Collector.Collect(c.Request().Context(), ticker, s.deps.Defaults.HistoryDays)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := report.WriteHistoryCSV(&buf, hist.Bars); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s_history.csv"`, ticker))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) getForecastRuns(c echo.Context) error {
	limit, err := intParam(c, "limit", 20)
	if err != nil {
		return err
	}
	runs, err := s.deps.Recorder.RecentForecasts(s.ticker(c), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []recorder.ForecastRun{}
	}
	return c.JSON(http.StatusOK, runs)
}
