package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/keyword-tracker/internal/catalog"
)

func TestHTTPClient_Search(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        catalog.SearchRequest
		handler    http.HandlerFunc
		wantErr    bool
		wantStatus bool
		wantDecode bool
		wantItems  int
	}{
		{
			name: "successful search with results",
			req:  catalog.SearchRequest{Query: "funny cat", Limit: 50, Offset: 100},
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search", r.URL.Path)
				assert.Equal(t, "funny cat", r.URL.Query().Get("q"))
				assert.Equal(t, "50", r.URL.Query().Get("limit"))
				assert.Equal(t, "100", r.URL.Query().Get("offset"))
				assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"data": [{"id": "a1"}, {"id": "b2"}, {"id": "c3"}]}`))
			},
			wantItems: 3,
		},
		{
			name: "missing data array is an empty page",
			req:  catalog.SearchRequest{Query: "nothing"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"pagination": {"total_count": 0}}`))
			},
			wantItems: 0,
		},
		{
			name: "500 response",
			req:  catalog.SearchRequest{Query: "test"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`upstream exploded`))
			},
			wantErr:    true,
			wantStatus: true,
		},
		{
			name: "malformed body",
			req:  catalog.SearchRequest{Query: "test"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"data": [`))
			},
			wantErr:    true,
			wantDecode: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := catalog.NewHTTPClient(
				catalog.WithBaseURL(srv.URL+"/"),
				catalog.WithAPIKey("test-key"),
			)

			items, err := c.Search(context.Background(), tt.req)
			if tt.wantErr {
				require.Error(t, err)
				var statusErr *catalog.StatusError
				assert.Equal(t, tt.wantStatus, errors.As(err, &statusErr))
				assert.Equal(t, tt.wantDecode, errors.Is(err, catalog.ErrMalformedBody))
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.wantItems)
		})
	}
}

func TestHTTPClient_Search_DefaultLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		assert.Empty(t, r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := catalog.NewHTTPClient(catalog.WithBaseURL(srv.URL))
	items, err := c.Search(context.Background(), catalog.SearchRequest{Query: "x"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHTTPClient_ViewCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		status  int
		want    int64
		wantErr bool
	}{
		{name: "view count present", body: `{"viewCount": 1234}`, status: http.StatusOK, want: 1234},
		{name: "view count absent", body: `{}`, status: http.StatusOK, want: 0},
		{name: "negative view count clamps to zero", body: `{"viewCount": -3}`, status: http.StatusOK, want: 0},
		{name: "not found", body: `{"message": "no such item"}`, status: http.StatusNotFound, wantErr: true},
		{name: "non-numeric view count", body: `{"viewCount": "lots"}`, status: http.StatusOK, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/items/abc%2F1/view-count", r.URL.EscapedPath())
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := catalog.NewHTTPClient(catalog.WithBaseURL(srv.URL))
			got, err := c.ViewCount(context.Background(), "abc/1")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPClient_SearchTags(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tags", r.URL.Path)
		assert.Equal(t, "happy", r.URL.Query().Get("q"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data": [{"name": "happy birthday"}, {"name": "happy dance"}]}`))
	}))
	defer srv.Close()

	c := catalog.NewHTTPClient(catalog.WithBaseURL(srv.URL))
	tags, err := c.SearchTags(context.Background(), "happy", 20)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "happy birthday", tags[0].Name)
}

func TestHTTPClient_RateLimiterQuota(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"viewCount": 1}`))
	}))
	defer srv.Close()

	rl := catalog.NewRateLimiter(100, 10, 1)
	c := catalog.NewHTTPClient(catalog.WithBaseURL(srv.URL), catalog.WithRateLimiter(rl))

	_, err := c.ViewCount(context.Background(), "a")
	require.NoError(t, err)

	_, err = c.ViewCount(context.Background(), "b")
	require.ErrorIs(t, err, catalog.ErrDailyLimitReached)
	assert.Equal(t, int32(1), calls.Load(), "quota rejection must not reach the server")
}
