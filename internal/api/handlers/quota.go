package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// QuotaSource reports catalog API usage.
type QuotaSource interface {
	Limited() bool
	MaxDaily() int64
	DailyCount() int64
	Remaining() int64
	ResetAt() time.Time
}

// QuotaHandler provides the catalog API quota status endpoint.
type QuotaHandler struct {
	rl QuotaSource
}

// NewQuotaHandler creates a new QuotaHandler. A nil source reports zeroes.
func NewQuotaHandler(rl QuotaSource) *QuotaHandler {
	return &QuotaHandler{rl: rl}
}

// QuotaOutput is the response body for the quota endpoint.
type QuotaOutput struct {
	Body struct {
		Limited    bool       `json:"limited"            example:"true"                 doc:"Whether a daily quota is enforced"`
		DailyLimit int64      `json:"daily_limit"        example:"5000"                 doc:"Configured daily API call limit"`
		DailyUsed  int64      `json:"daily_used"         example:"142"                  doc:"API calls used in the current 24-hour window"`
		Remaining  int64      `json:"remaining"          example:"4858"                 doc:"Calls remaining, or -1 without a quota"`
		ResetAt    *time.Time `json:"reset_at,omitempty" example:"2025-06-16T14:30:00Z" doc:"When the current 24-hour window expires"`
	}
}

// GetQuota returns the current catalog API quota status.
func (h *QuotaHandler) GetQuota(_ context.Context, _ *struct{}) (*QuotaOutput, error) {
	resp := &QuotaOutput{}
	if h.rl == nil {
		return resp, nil
	}

	reset := h.rl.ResetAt()
	resp.Body.Limited = h.rl.Limited()
	resp.Body.DailyLimit = h.rl.MaxDaily()
	resp.Body.DailyUsed = h.rl.DailyCount()
	resp.Body.Remaining = h.rl.Remaining()
	resp.Body.ResetAt = &reset

	return resp, nil
}

// RegisterQuotaRoutes registers the quota endpoint with the Huma API.
func RegisterQuotaRoutes(api huma.API, h *QuotaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/api/v1/quota",
		Summary:     "Get catalog API quota status",
		Description: "Returns the current daily catalog call usage, remaining quota, and window reset time.",
		Tags:        []string{"catalog"},
	}, h.GetQuota)
}
