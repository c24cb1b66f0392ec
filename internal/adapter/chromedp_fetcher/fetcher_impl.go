package chromedp_fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/indexnow-service/internal/repository"
)

// ChromedpFetcher renders pages in headless Chrome before fingerprinting,
// for sites whose content is produced by JavaScript.
type ChromedpFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	userAgent   string
}

// NewChromedpFetcher starts a local headless Chrome allocator, or connects to
// a running instance when wsURL is set.
func NewChromedpFetcher(wsURL, userAgent string, pageLoadTimeout time.Duration) *ChromedpFetcher {
	var allocCtx context.Context
	var cancel context.CancelFunc
	if wsURL != "" {
		allocCtx, cancel = chromedp.NewRemoteAllocator(context.Background(), wsURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(userAgent),
		)
		allocCtx, cancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	return &ChromedpFetcher{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		timeout:     pageLoadTimeout,
		userAgent:   userAgent,
	}
}

// Close shuts down the browser allocator.
func (c *ChromedpFetcher) Close() {
	c.allocCancel()
}

// Fetch navigates to url and returns the rendered document HTML.
func (c *ChromedpFetcher) Fetch(ctx context.Context, url string) (string, error) {
	taskCtx, cancel := chromedp.NewContext(c.allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.timeout)
	defer cancelTimeout()

	// Stop the task when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		mu         sync.Mutex
		statusCode int64
		statusText string
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		// The first document response is the page itself, later ones are frames.
		if statusCode == 0 {
			statusCode = resp.Response.Status
			statusText = resp.Response.StatusText
		}
	})

	var html string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"User-Agent": c.userAgent}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		slog.Warn("Failed to render URL", "url", url, "error", err)
		return "", err
	}

	mu.Lock()
	code, text := statusCode, statusText
	mu.Unlock()
	if code >= 400 {
		return "", &repository.RemoteError{StatusCode: int(code), Status: text}
	}
	if html == "" {
		return "", repository.ErrContentUnavailable
	}

	slog.Debug("Rendered URL", "url", url, "status", code, "bytes", len(html))
	return html, nil
}
