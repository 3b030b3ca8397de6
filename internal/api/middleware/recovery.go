package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/keyword-tracker/internal/metrics"
)

// Recovery turns a handler panic into a 500 problem response shaped like the
// rest of the huma API. The panic is logged with its stack and recorded on
// the request span. http.ErrAbortHandler is re-raised so net/http can abort
// the connection.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if e, ok := r.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(r)
				}

				metrics.HTTPPanicsTotal.Inc()
				msg := fmt.Sprint(r)

				span := trace.SpanFromContext(c.Request().Context())
				span.RecordError(fmt.Errorf("panic: %s", msg))
				span.SetStatus(codes.Error, "panic")

				log.Error("panic recovered",
					"error", msg,
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"request_id", c.Get("request_id"),
					"stack", string(debug.Stack()),
				)

				if c.Response().Committed {
					err = nil
					return
				}
				c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
				err = c.JSON(http.StatusInternalServerError, huma.ErrorModel{
					Title:  http.StatusText(http.StatusInternalServerError),
					Status: http.StatusInternalServerError,
					Detail: "internal server error",
				})
			}()

			return next(c)
		}
	}
}
