package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vitallab/vitallab/internal/platform/metrics"
)

// Metrics records request counts and latency per route template, so
// /cases/:case_id is one series regardless of the id requested.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}
			route := routeOf(c)
			method := c.Request().Method

			metrics.APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			metrics.APIRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
