package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/repository"
	"github.com/user/indexnow-service/pkg/fingerprint"
	"github.com/user/indexnow-service/pkg/metrics"
)

// Reconciler merges freshly observed URLs and their current content into
// the stored URL entries of a site.
type Reconciler struct {
	sites       *SiteManager
	fetcher     repository.ContentFetcher
	sitemaps    repository.SitemapFetcher
	fingerprint fingerprint.Func
	concurrency int
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithConcurrency bounds the number of parallel content fetches. Values
// below 2 keep reconciliation strictly sequential.
func WithConcurrency(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithFingerprint replaces the raw content fingerprint.
func WithFingerprint(fn fingerprint.Func) ReconcilerOption {
	return func(r *Reconciler) {
		if fn != nil {
			r.fingerprint = fn
		}
	}
}

// NewReconciler creates a Reconciler. sitemaps may be nil when
// ReconcileSitemap is not used.
func NewReconciler(sites *SiteManager, fetcher repository.ContentFetcher, sitemaps repository.SitemapFetcher, opts ...ReconcilerOption) *Reconciler {
	metrics.Init()
	r := &Reconciler{
		sites:       sites,
		fetcher:     fetcher,
		sitemaps:    sitemaps,
		fingerprint: fingerprint.Content,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type reconcileResult struct {
	entry entity.URLEntry
	err   error
	done  bool
}

// Reconcile fetches the content of every URL, derives its status against
// the entry stored at write time and writes the results. It returns the
// touched entries in input order; duplicate URLs are processed once.
//
// Fetch failures never abort the batch. On cancellation the entries
// processed so far are returned together with the context error.
func (r *Reconciler) Reconcile(ctx context.Context, siteID string, urls []entity.DiscoveredURL) ([]entity.URLEntry, error) {
	site, err := r.sites.GetSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	siteID = site.ID

	inputs := dedupe(urls)
	if len(inputs) == 0 {
		return []entity.URLEntry{}, nil
	}

	results := make([]reconcileResult, len(inputs))
	if r.concurrency <= 1 {
		for i, in := range inputs {
			results[i] = r.reconcileOne(ctx, siteID, in)
			if results[i].err != nil {
				break
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.concurrency)
		for i, in := range inputs {
			g.Go(func() error {
				results[i] = r.reconcileOne(ctx, siteID, in)
				return nil
			})
		}
		g.Wait()
	}

	entries := make([]entity.URLEntry, 0, len(inputs))
	var firstErr error
	for _, res := range results {
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		if res.done {
			entries = append(entries, res.entry)
		}
	}
	slog.Info("Reconciled URLs", "site_id", siteID, "requested", len(inputs), "processed", len(entries))
	return entries, firstErr
}

// ReconcileSitemap reconciles every URL listed in the sitemap at sitemapURL.
func (r *Reconciler) ReconcileSitemap(ctx context.Context, siteID, sitemapURL string) ([]entity.URLEntry, error) {
	if r.sitemaps == nil {
		return nil, fmt.Errorf("%w: sitemap fetching is not configured", ErrInvalidInput)
	}
	if _, err := r.sites.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	entries, err := r.sitemaps.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap %s: %w", sitemapURL, err)
	}
	discovered := make([]entity.DiscoveredURL, 0, len(entries))
	for _, e := range entries {
		discovered = append(discovered, e.Discovered())
	}
	return r.Reconcile(ctx, siteID, discovered)
}

func (r *Reconciler) reconcileOne(ctx context.Context, siteID string, in entity.DiscoveredURL) reconcileResult {
	if err := ctx.Err(); err != nil {
		return reconcileResult{err: err}
	}

	content, err := r.fetcher.Fetch(ctx, in.URL)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return reconcileResult{err: ctxErr}
	}
	if err != nil || content == "" {
		metrics.ContentFetchFailures.Inc()
		slog.Warn("No content available for URL", "url", in.URL, "error", err)
		content = ""
	}

	// Derive against the stored entry so concurrent submissions are not undone.
	stored, err := r.sites.UpdateURLEntryFunc(ctx, siteID, in.URL, func(prev entity.URLEntry, hadPrev bool) entity.URLEntry {
		return deriveEntry(in, content, prev, hadPrev, r.fingerprint)
	})
	if err != nil {
		return reconcileResult{err: fmt.Errorf("failed to store entry for %s: %w", in.URL, err)}
	}
	metrics.ReconciledURLsTotal.WithLabelValues(stored.Status.String()).Inc()
	return reconcileResult{entry: stored, done: true}
}

// deriveEntry applies the status rules. An empty content means none was available.
func deriveEntry(in entity.DiscoveredURL, content string, prev entity.URLEntry, hadPrev bool, fp fingerprint.Func) entity.URLEntry {
	entry := entity.URLEntry{URL: in.URL, LastModified: in.LastModified}
	if hadPrev {
		entry.LastSubmitted = prev.LastSubmitted
		if entry.LastModified == nil {
			entry.LastModified = prev.LastModified
		}
	}

	if content == "" {
		if hadPrev {
			entry.ContentHash = prev.ContentHash
			entry.Status = carriedStatus(prev.Status)
		} else {
			entry.Status = entity.StatusPending
		}
		return entry
	}

	entry.ContentHash = fp(content)
	switch {
	case !hadPrev || prev.ContentHash == "":
		entry.Status = entity.StatusPending
	case prev.ContentHash != entry.ContentHash:
		entry.Status = entity.StatusChanged
	default:
		entry.Status = carriedStatus(prev.Status)
	}
	return entry
}

func carriedStatus(s entity.Status) entity.Status {
	switch s {
	case entity.StatusPending, entity.StatusSubmitted, entity.StatusChanged, entity.StatusError:
		return s
	case entity.StatusUnknown:
		return entity.StatusPending
	}
	return entity.StatusPending
}

func dedupe(urls []entity.DiscoveredURL) []entity.DiscoveredURL {
	seen := make(map[string]struct{}, len(urls))
	out := make([]entity.DiscoveredURL, 0, len(urls))
	for _, u := range urls {
		if u.URL == "" {
			continue
		}
		if _, ok := seen[u.URL]; ok {
			continue
		}
		seen[u.URL] = struct{}{}
		out = append(out, u)
	}
	return out
}
