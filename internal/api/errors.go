package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"olympics/internal/errs"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func statusForCode(code errs.Code) int {
	switch code {
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeInvalid:
		return http.StatusBadRequest
	case errs.CodeUnavailable:
		return http.StatusServiceUnavailable
	case errs.CodeRateLimited:
		return http.StatusTooManyRequests
	case errs.CodeFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler renders coded errors as JSON and falls back to echo's
// default handler for everything else.
func HTTPErrorHandler(logger *slog.Logger, fallback echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var e *errs.E
		if !errors.As(err, &e) {
			fallback(err, c)
			return
		}

		status := statusForCode(e.Code)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "path", c.Request().URL.Path, "error", err)
		}
		body := errorBody{Error: string(e.Code), Message: e.Message}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error("write error response", "error", werr)
		}
	}
}
