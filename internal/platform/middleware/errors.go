package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vitallab/vitallab/internal/platform/vitaldb"
)

// ErrorHandler renders every error as {"detail": "..."}. HTTP errors keep
// their code and message, upstream failures map to 502/503, and anything else
// is logged and reported as a generic 500.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, detail, known := resolve(err)
		if !known || code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().
				Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Int("status", code).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, map[string]string{"detail": detail})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

func resolve(err error) (int, string, bool) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, message(he), true
	}
	var unavailable *vitaldb.RemoteUnavailableError
	if errors.As(err, &unavailable) {
		return http.StatusServiceUnavailable, "remote data source unavailable", true
	}
	var fetch *vitaldb.RemoteFetchError
	if errors.As(err, &fetch) {
		return http.StatusBadGateway, "remote data source error", true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, timeoutDetail, true
	}
	return http.StatusInternalServerError, "internal server error", false
}

func statusOf(err error) int {
	code, _, _ := resolve(err)
	return code
}

func message(he *echo.HTTPError) string {
	switch m := he.Message.(type) {
	case string:
		return m
	case error:
		return m.Error()
	case nil:
		return http.StatusText(he.Code)
	default:
		return fmt.Sprint(m)
	}
}
