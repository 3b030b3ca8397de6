package client

import (
	"context"
	"time"

	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// BatchResult summarizes a batch run.
type BatchResult struct {
	Tasks     int                  `json:"tasks"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Outcomes  []domain.TaskOutcome `json:"outcomes"`
}

// RunBatch triggers a batch run and waits for it to finish.
func (c *Client) RunBatch(ctx context.Context) (*BatchResult, error) {
	var res BatchResult
	if err := c.post(ctx, "/api/v1/batch", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Quota is the server's catalog API usage.
type Quota struct {
	Limited    bool       `json:"limited"`
	DailyLimit int64      `json:"daily_limit"`
	DailyUsed  int64      `json:"daily_used"`
	Remaining  int64      `json:"remaining"`
	ResetAt    *time.Time `json:"reset_at,omitempty"`
}

// GetQuota returns catalog API usage for the current window.
func (c *Client) GetQuota(ctx context.Context) (*Quota, error) {
	var q Quota
	if err := c.get(ctx, "/api/v1/quota", &q); err != nil {
		return nil, err
	}
	return &q, nil
}
