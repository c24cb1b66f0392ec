package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/indexnow-service/internal/repository"
)

// DefaultUserAgent identifies the service to fetched sites.
const DefaultUserAgent = "IndexNower/1.0"

// Body size limits. The sitemap protocol caps an uncompressed sitemap at 50 MiB.
const (
	DefaultMaxBodyBytes = 10 << 20
	SitemapMaxBodyBytes = 50 << 20
)

// ErrBodyTooLarge is returned instead of a truncated body.
var ErrBodyTooLarge = fmt.Errorf("%w: response body exceeds size limit", repository.ErrContentUnavailable)

// Response is the raw outcome of a page fetch.
type Response struct {
	StatusCode int
	Status     string
	Body       string
}

// OK reports whether the response has a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// FetcherImpl fetches pages over plain HTTP with a fixed user agent.
type FetcherImpl struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// Option configures a FetcherImpl.
type Option func(*FetcherImpl)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *FetcherImpl) { f.client = c }
}

// WithUserAgent replaces the user agent header.
func WithUserAgent(ua string) Option {
	return func(f *FetcherImpl) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodyBytes replaces the body size limit.
func WithMaxBodyBytes(n int64) Option {
	return func(f *FetcherImpl) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// NewFetcher creates a fetcher with the given request timeout.
func NewFetcher(timeout time.Duration, opts ...Option) *FetcherImpl {
	f := &FetcherImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
		maxBody:   DefaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Get performs the request and returns the response whatever its status.
// An error is only returned when no complete response was received; a body
// over the size limit yields ErrBodyTooLarge.
func (f *FetcherImpl) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("%s: %w (%d bytes)", url, ErrBodyTooLarge, f.maxBody)
	}
	return &Response{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}, nil
}

// Fetch implements repository.ContentFetcher. Non-2xx statuses are returned
// as *repository.RemoteError and an empty body as repository.ErrContentUnavailable.
func (f *FetcherImpl) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.Get(ctx, url)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", &repository.RemoteError{StatusCode: resp.StatusCode, Status: resp.Status, Body: resp.Body}
	}
	if resp.Body == "" {
		return "", repository.ErrContentUnavailable
	}
	return resp.Body, nil
}
