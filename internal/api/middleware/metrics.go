// Package middleware provides Echo middleware for the keyword-tracker API.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/keyword-tracker/internal/metrics"
)

// Probe and scrape paths stay out of the request histogram.
var metricsSkipPaths = map[string]struct{}{
	"/metrics": {},
	"/healthz": {},
	"/readyz":  {},
}

var healthGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// Metrics returns Echo middleware that records request duration and status
// per route pattern. Probe paths only drive the healthz/readyz gauges.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := routePath(c)

			if _, skip := metricsSkipPaths[path]; skip {
				err := next(c)
				if g, ok := healthGauges[path]; ok {
					g.Set(boolGauge(responseStatus(c, err) < 300))
				}
				return err
			}

			start := time.Now()
			err := next(c)

			labels := prometheus.Labels{
				"method": c.Request().Method,
				"path":   path,
				"status": strconv.Itoa(responseStatus(c, err)),
			}
			metrics.HTTPRequestDuration.With(labels).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.With(labels).Inc()

			return err
		}
	}
}

func boolGauge(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
