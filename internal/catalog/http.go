package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/donaldgifford/keyword-tracker/internal/metrics"
)

const (
	defaultBaseURL  = "http://localhost:8089"
	defaultPageSize = 50

	opSearch    = "search"
	opViewCount = "view_count"
	opTags      = "tags"

	maxErrorBody = 512
)

// HTTPClient implements CatalogClient over the catalog's JSON API.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	rateLimiter *RateLimiter
}

// HTTPOption configures the HTTPClient.
type HTTPOption func(*HTTPClient)

// WithBaseURL overrides the catalog API root.
func WithBaseURL(u string) HTTPOption {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithAPIKey sets the key sent as the api_key query parameter.
func WithAPIKey(key string) HTTPOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithRateLimiter injects a rate limiter that enforces per-second and daily
// quota limits. When set, every call goes through Wait() first.
func WithRateLimiter(r *RateLimiter) HTTPOption {
	return func(c *HTTPClient) {
		c.rateLimiter = r
	}
}

// NewHTTPClient creates a new catalog API client. The default transport is
// traced with otelhttp.
func NewHTTPClient(opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search implements CatalogClient.Search. A body without a data array is
// treated as an empty page.
func (c *HTTPClient) Search(ctx context.Context, req SearchRequest) ([]Item, error) {
	var resp searchAPIResponse
	if err := c.getJSON(ctx, opSearch, c.searchURL(req), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ViewCount implements CatalogClient.ViewCount. An absent viewCount field
// is reported as zero.
func (c *HTTPClient) ViewCount(ctx context.Context, id string) (int64, error) {
	var resp viewCountAPIResponse
	u := c.withKey(c.baseURL+"/items/"+url.PathEscape(id)+"/view-count", url.Values{})
	if err := c.getJSON(ctx, opViewCount, u, &resp); err != nil {
		return 0, err
	}
	if resp.ViewCount == nil || *resp.ViewCount < 0 {
		return 0, nil
	}
	return *resp.ViewCount, nil
}

// SearchTags implements CatalogClient.SearchTags.
func (c *HTTPClient) SearchTags(ctx context.Context, term string, limit int) ([]Tag, error) {
	params := url.Values{}
	params.Set("q", term)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp tagsAPIResponse
	if err := c.getJSON(ctx, opTags, c.withKey(c.baseURL+"/search/tags", params), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, op, u string, dst any) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.CatalogDailyLimitHits.Inc()
			}
			return fmt.Errorf("rate limit: %w", err)
		}
		metrics.CatalogDailyUsage.Set(float64(c.rateLimiter.DailyCount()))
	}
	metrics.CatalogCallsTotal.WithLabelValues(op).Inc()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing %s request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: parsing %s response: %w", ErrMalformedBody, op, err)
	}
	return nil
}

func (c *HTTPClient) searchURL(req SearchRequest) string {
	params := url.Values{}
	params.Set("q", req.Query)

	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(max(req.Offset, 0)))

	return c.withKey(c.baseURL+"/search", params)
}

func (c *HTTPClient) withKey(base string, params url.Values) string {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}
