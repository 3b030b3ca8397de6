// Package catalog provides a media catalog API client abstracted behind an
// interface, plus the pooled, rate-limited Fetcher every estimation goes
// through.
package catalog

import (
	"context"
)

// SearchRequest defines the parameters for one paged catalog search.
type SearchRequest struct {
	Query  string
	Limit  int
	Offset int
}

// CatalogClient defines the raw catalog API. Implementations return errors;
// the Fetcher is responsible for degrading them to neutral values.
type CatalogClient interface {
	Search(ctx context.Context, req SearchRequest) ([]Item, error)
	ViewCount(ctx context.Context, id string) (int64, error)
	SearchTags(ctx context.Context, term string, limit int) ([]Tag, error)
}
