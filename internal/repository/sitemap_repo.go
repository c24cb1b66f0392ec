package repository

import (
	"context"
	"errors"

	"github.com/user/indexnow-service/internal/entity"
)

// ErrSitemapParse is returned when a sitemap document is not valid XML.
var ErrSitemapParse = errors.New("failed to parse sitemap XML")

// SitemapFetcher retrieves and parses sitemaps.
type SitemapFetcher interface {
	// Fetch returns the URL entries of the sitemap at url. Sitemap indexes are
	// expanded one level. A non-success status is reported as *RemoteError.
	Fetch(ctx context.Context, url string) ([]entity.SitemapURL, error)
}
