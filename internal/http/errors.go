package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the client-facing text for err.
func errorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
		return fmt.Sprint(he.Message)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return "internal server error"
}

// handleError renders err as {ok:false, error}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request failed",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	resp := ErrorResponse{OK: false, Error: errorMessage(err)}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, resp)
	}
	if werr != nil {
		s.logger.Warn(c.Request().Context(), "failed to write error response", zap.Error(werr))
	}
}
