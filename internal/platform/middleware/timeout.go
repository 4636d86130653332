package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vitallab/vitallab/internal/platform/metrics"
)

const timeoutDetail = "request processing exceeded the allowed time limit"

// RequestTimeout puts a deadline on each request context. Remote fetches and
// queries observe it through the context and return early. The handler runs
// on the request goroutine, so the response is written only once and by the
// error handler. An error returned after the deadline becomes a 504. A zero or
// negative timeout disables the middleware.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err == nil || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return err
			}
			metrics.APIRequestTimeouts.WithLabelValues(routeOf(c)).Inc()
			return echo.NewHTTPError(http.StatusGatewayTimeout, timeoutDetail).SetInternal(err)
		}
	}
}
