package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

// logRecorder serves requests through RequestLog and counts emitted lines.
type logRecorder struct {
	buf     bytes.Buffer
	e       *echo.Echo
	handler echo.HandlerFunc
}

func newLogRecorder(next echo.HandlerFunc) *logRecorder {
	r := &logRecorder{e: echo.New()}
	r.handler = RequestLog(slog.New(slog.NewTextHandler(&r.buf, nil)))(next)
	return r
}

func (r *logRecorder) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	return rec, r.handler(r.e.NewContext(req, rec))
}

func (r *logRecorder) lines() int {
	return strings.Count(r.buf.String(), "\n")
}

func TestRequestLog_Fields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		target     string
		status     int
		reqID      string
		wantFields []string
	}{
		{
			name:   "generated request id",
			method: http.MethodGet,
			target: "/api/v1/tasks",
			status: http.StatusOK,
			wantFields: []string{
				"level=INFO", "method=GET", "path=/api/v1/tasks", "status=200", "duration_ms=", "request_id=",
			},
		},
		{
			name:       "create request",
			method:     http.MethodPost,
			target:     "/api/v1/tasks",
			status:     http.StatusCreated,
			wantFields: []string{"method=POST", "status=201"},
		},
		{
			name:       "client error logs at warn",
			method:     http.MethodGet,
			target:     "/api/v1/tasks/missing",
			status:     http.StatusNotFound,
			wantFields: []string{"level=WARN", "status=404"},
		},
		{
			name:       "caller supplied request id",
			method:     http.MethodGet,
			target:     "/api/v1/quota",
			status:     http.StatusOK,
			reqID:      "batch-7f3a",
			wantFields: []string{"request_id=batch-7f3a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newLogRecorder(func(c echo.Context) error {
				return c.NoContent(tt.status)
			})

			req := httptest.NewRequest(tt.method, tt.target, http.NoBody)
			if tt.reqID != "" {
				req.Header.Set(requestIDHeader, tt.reqID)
			}

			rec, err := r.serve(t, req)
			require.NoError(t, err)

			for _, f := range tt.wantFields {
				assert.Contains(t, r.buf.String(), f)
			}

			got := rec.Header().Get(requestIDHeader)
			require.NotEmpty(t, got)
			if tt.reqID != "" {
				assert.Equal(t, tt.reqID, got)
			}
		})
	}
}

func TestRequestLog_HandlerErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		want      string
		wantError bool
	}{
		{name: "http error carries its code", err: echo.NewHTTPError(http.StatusConflict, "exists"), want: "status=409"},
		{name: "plain error is a 500", err: errors.New("pool closed"), want: "status=500", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newLogRecorder(func(echo.Context) error { return tt.err })
			_, err := r.serve(t, httptest.NewRequest(http.MethodPost, "/api/v1/batch", http.NoBody))
			require.ErrorIs(t, err, tt.err)

			out := r.buf.String()
			assert.Contains(t, out, tt.want)
			assert.Contains(t, out, "level=WARN")
			if tt.wantError {
				assert.Contains(t, out, "error=")
			} else {
				assert.NotContains(t, out, "error=")
			}
		})
	}
}

func TestRequestLog_ProbeSuppression(t *testing.T) {
	t.Parallel()

	// Each step serves one probe request; wantLogged says whether it
	// produced a line.
	type step struct {
		path       string
		status     int
		wantLogged bool
	}

	tests := []struct {
		name  string
		steps []step
	}{
		{
			name: "only the first healthy probe is logged",
			steps: []step{
				{path: "/healthz", status: http.StatusOK, wantLogged: true},
				{path: "/healthz", status: http.StatusOK},
				{path: "/healthz", status: http.StatusOK},
			},
		},
		{
			name: "failures are always logged",
			steps: []step{
				{path: "/readyz", status: http.StatusServiceUnavailable, wantLogged: true},
				{path: "/readyz", status: http.StatusServiceUnavailable, wantLogged: true},
			},
		},
		{
			name: "recovery after failure is logged once",
			steps: []step{
				{path: "/readyz", status: http.StatusOK, wantLogged: true},
				{path: "/readyz", status: http.StatusOK},
				{path: "/readyz", status: http.StatusServiceUnavailable, wantLogged: true},
				{path: "/readyz", status: http.StatusOK, wantLogged: true},
				{path: "/readyz", status: http.StatusOK},
			},
		},
		{
			name: "probe paths are tracked separately",
			steps: []step{
				{path: "/healthz", status: http.StatusOK, wantLogged: true},
				{path: "/readyz", status: http.StatusOK, wantLogged: true},
				{path: "/healthz", status: http.StatusOK},
			},
		},
		{
			name: "api paths are never suppressed",
			steps: []step{
				{path: "/api/v1/tasks", status: http.StatusOK, wantLogged: true},
				{path: "/api/v1/tasks", status: http.StatusOK, wantLogged: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var status int
			r := newLogRecorder(func(c echo.Context) error {
				return c.NoContent(status)
			})

			for i, s := range tt.steps {
				status = s.status
				before := r.lines()
				_, err := r.serve(t, httptest.NewRequest(http.MethodGet, s.path, http.NoBody))
				require.NoError(t, err)
				assert.Equal(t, s.wantLogged, r.lines() > before, "step %d (%s %d)", i, s.path, s.status)
			}
		})
	}
}

func TestRequestLog_TraceID(t *testing.T) {
	t.Parallel()

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	r := newLogRecorder(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", http.NoBody).WithContext(ctx)
	_, err = r.serve(t, req)
	require.NoError(t, err)
	assert.Contains(t, r.buf.String(), "trace_id=4bf92f3577b34da6a3ce929d0e0e4736")

	r.buf.Reset()
	_, err = r.serve(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", http.NoBody))
	require.NoError(t, err)
	assert.NotContains(t, r.buf.String(), "trace_id=")
}
