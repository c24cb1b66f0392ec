package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/indexnow-service/internal/adapter/httpfetch"
	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/repository"
)

// document accepts both <urlset> and <sitemapindex> roots.
type document struct {
	XMLName  xml.Name
	URLs     []entity.SitemapURL `xml:"url"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Getter performs raw GET requests.
type Getter interface {
	Get(ctx context.Context, url string) (*httpfetch.Response, error)
}

// FetcherImpl retrieves sitemaps and expands sitemap indexes one level deep.
type FetcherImpl struct {
	getter Getter
}

// NewFetcher creates a sitemap fetcher on top of getter.
func NewFetcher(getter Getter) *FetcherImpl {
	return &FetcherImpl{getter: getter}
}

// Fetch returns the entries of the sitemap at url. For a sitemap index each
// child sitemap is fetched and its entries are returned ahead of any entries
// of the index document itself. Children that fail are logged and skipped.
func (f *FetcherImpl) Fetch(ctx context.Context, url string) ([]entity.SitemapURL, error) {
	doc, err := f.fetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	urls := []entity.SitemapURL{}
	for _, child := range doc.Sitemaps {
		loc := strings.TrimSpace(child.Loc)
		if loc == "" {
			continue
		}
		childDoc, err := f.fetchDocument(ctx, loc)
		if err != nil {
			slog.Error("Failed to fetch sub-sitemap", "sitemap", loc, "error", err)
			continue
		}
		urls = appendEntries(urls, childDoc.URLs)
	}
	return appendEntries(urls, doc.URLs), nil
}

func (f *FetcherImpl) fetchDocument(ctx context.Context, url string) (*document, error) {
	resp, err := f.getter.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &repository.RemoteError{StatusCode: resp.StatusCode, Status: resp.Status, Body: resp.Body}
	}
	return parse(resp.Body)
}

func parse(body string) (*document, error) {
	doc := &document{}
	if err := xml.Unmarshal([]byte(body), doc); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrSitemapParse, err)
	}
	return doc, nil
}

func appendEntries(dst, src []entity.SitemapURL) []entity.SitemapURL {
	for _, u := range src {
		u.Loc = strings.TrimSpace(u.Loc)
		if u.Loc == "" {
			continue
		}
		u.LastMod = strings.TrimSpace(u.LastMod)
		u.ChangeFreq = strings.TrimSpace(u.ChangeFreq)
		u.Priority = strings.TrimSpace(u.Priority)
		dst = append(dst, u)
	}
	return dst
}
