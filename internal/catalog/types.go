package catalog

import (
	"errors"
	"fmt"
)

// Item is one search result. Only the identifier is retained.
type Item struct {
	ID string `json:"id"`
}

// Tag is a related search term suggested by the catalog.
type Tag struct {
	Name string `json:"name"`
}

type searchAPIResponse struct {
	Data []Item `json:"data"`
}

type tagsAPIResponse struct {
	Data []Tag `json:"data"`
}

type viewCountAPIResponse struct {
	ViewCount *int64 `json:"viewCount"`
}

// ErrMalformedBody is returned when a catalog response cannot be decoded.
var ErrMalformedBody = errors.New("malformed catalog response")

// StatusError is returned for non-2xx catalog responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog API error (status %d): %s", e.Code, e.Body)
}
