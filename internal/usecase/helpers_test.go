package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/user/indexnow-service/internal/adapter/memory"
	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/repository"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) *SiteManager {
	t.Helper()
	m := NewSiteManager(memory.NewStore())
	m.now = func() time.Time { return fixedNow }
	n := 0
	m.newID = func() string {
		n++
		return fmt.Sprintf("site-%d", n)
	}
	return m
}

func createSite(t *testing.T, m *SiteManager, name string) *entity.Site {
	t.Helper()
	site, err := m.CreateSite(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateSite(%q) error = %v", name, err)
	}
	return site
}

// fakeFetcher serves content from a map; URLs not in the map fail.
type fakeFetcher struct {
	mu      sync.Mutex
	content map[string]string
	calls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	c, ok := f.content[url]
	if !ok {
		return "", repository.ErrContentUnavailable
	}
	return c, nil
}

func (f *fakeFetcher) set(url, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content[url] = content
}

// fakeIndexNow records the size of each payload and fails the call with
// index failAt (1-based) using failErr.
type fakeIndexNow struct {
	sizes   []int
	payload []entity.SubmitPayload
	failAt  int
	failErr error
}

func (c *fakeIndexNow) Submit(ctx context.Context, p entity.SubmitPayload) error {
	c.sizes = append(c.sizes, len(p.URLList))
	c.payload = append(c.payload, p)
	if c.failAt == len(c.sizes) {
		return c.failErr
	}
	return nil
}

type fakeSitemaps struct {
	urls []entity.SitemapURL
	err  error
}

func (s *fakeSitemaps) Fetch(ctx context.Context, url string) ([]entity.SitemapURL, error) {
	return s.urls, s.err
}

var errStoreDown = errors.New("store down")

// brokenStore fails every write.
type brokenStore struct {
	repository.StateStore
}

func (s brokenStore) Write(ctx context.Context, data *entity.AppData) error {
	return errStoreDown
}
