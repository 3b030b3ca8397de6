package openapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRoutes(t *testing.T) {
	t.Parallel()

	e := echo.New()
	RegisterRoutes(e)

	tests := []struct {
		path     string
		wantCode int
		wantLoc  string
	}{
		{path: "/swagger", wantCode: http.StatusMovedPermanently, wantLoc: "/swagger/index.html"},
		{path: "/swagger/", wantCode: http.StatusMovedPermanently, wantLoc: "/swagger/index.html"},
		{path: "/swagger/index.html", wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantLoc != "" {
				assert.Equal(t, tt.wantLoc, rec.Header().Get("Location"))
			}
		})
	}
}

func TestSwaggerUIPointsAtHumaSpec(t *testing.T) {
	t.Parallel()

	e := echo.New()
	humaecho.New(e, huma.DefaultConfig("keyword-tracker API", "test"))
	RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `url: "`+SpecPath+`"`)

	req = httptest.NewRequest(http.MethodGet, SpecPath, http.NoBody)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "keyword-tracker API")
}
