package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const defaultPingTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store       Pinger
	quota       QuotaSource
	pingTimeout time.Duration
}

// HealthOption configures a HealthHandler.
type HealthOption func(*HealthHandler)

// WithQuotaCheck adds a catalog quota entry to the readiness report.
// An exhausted quota is reported but does not fail readiness.
func WithQuotaCheck(q QuotaSource) HealthOption {
	return func(h *HealthHandler) {
		h.quota = q
	}
}

// WithPingTimeout bounds the store ping made by Readyz.
func WithPingTimeout(d time.Duration) HealthOption {
	return func(h *HealthHandler) {
		if d > 0 {
			h.pingTimeout = d
		}
	}
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(s Pinger, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{store: s, pingTimeout: defaultPingTimeout}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Healthz returns 200 while the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz runs the readiness checks. Only a failed store check turns the
// response into a 503.
func (h *HealthHandler) Readyz(c echo.Context) error {
	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}
	code := http.StatusOK

	if h.store == nil {
		resp.Checks["store"] = "not configured"
	} else {
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.pingTimeout)
		err := h.store.Ping(ctx)
		cancel()
		if err != nil {
			resp.Status = "unavailable"
			resp.Checks["store"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			resp.Checks["store"] = "ok"
		}
	}

	if h.quota != nil {
		switch {
		case !h.quota.Limited():
			resp.Checks["catalog_quota"] = "unlimited"
		case h.quota.Remaining() <= 0:
			resp.Checks["catalog_quota"] = "daily limit reached"
		default:
			resp.Checks["catalog_quota"] = "ok"
		}
	}

	return c.JSON(code, resp)
}
