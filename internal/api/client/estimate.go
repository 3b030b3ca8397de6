package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/donaldgifford/keyword-tracker/internal/api/handlers"
)

// Estimate scores a single keyword. With retry set the server backs off
// between failed attempts.
func (c *Client) Estimate(ctx context.Context, keyword string, retry bool) (*handlers.KeywordView, error) {
	body := map[string]any{"keyword": keyword, "retry": retry}
	var v handlers.KeywordView
	if err := c.post(ctx, "/api/v1/estimate", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

type keywordsResponse struct {
	Keywords []handlers.KeywordView `json:"keywords"`
}

// EstimateCohort scores keywords against their mean views.
func (c *Client) EstimateCohort(ctx context.Context, keywords []string) ([]handlers.KeywordView, error) {
	var resp keywordsResponse
	body := map[string]any{"keywords": keywords}
	if err := c.post(ctx, "/api/v1/estimate/cohort", body, &resp); err != nil {
		return nil, err
	}
	return resp.Keywords, nil
}

// Discover suggests keywords related to seed. A zero limit uses the server default.
func (c *Client) Discover(ctx context.Context, seed string, limit int) ([]handlers.KeywordView, error) {
	params := url.Values{"q": {seed}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp keywordsResponse
	if err := c.get(ctx, withQuery("/api/v1/keywords", params), &resp); err != nil {
		return nil, err
	}
	return resp.Keywords, nil
}
