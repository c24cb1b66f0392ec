package repository

import (
	"context"
	"errors"
)

// ErrContentUnavailable is returned when a page could be reached but yielded no usable content.
var ErrContentUnavailable = errors.New("content unavailable")

// ContentFetcher fetches the current content of a page.
type ContentFetcher interface {
	// Fetch returns the page body. Any error means no content is available.
	Fetch(ctx context.Context, url string) (string, error)
}
