package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"PredictLens/internal/collector"
	"PredictLens/internal/comparison"
	"PredictLens/internal/forecast"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		httpErr   *echo.HTTPError
		malformed *comparison.MalformedInputError
		schema    *comparison.SchemaError
		fetchErr  *collector.FetchError
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, forecast.ErrHorizonOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, comparison.ErrNoPredictions), errors.Is(err, collector.ErrNoBars):
		return http.StatusNotFound
	case errors.As(err, &malformed), errors.As(err, &schema), errors.Is(err, forecast.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprint(httpErr.Message)
	}
	return err.Error()
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err))
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, ErrorResponse{Error: errorMessage(err)})
	}
	if err != nil {
		s.logger.Error("write error response", zap.Error(err))
	}
}
