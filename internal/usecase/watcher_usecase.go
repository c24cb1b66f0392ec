package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/pkg/metrics"
)

// Watcher periodically re-checks every tracked URL of every site and
// optionally submits what turned pending or changed.
type Watcher struct {
	schedule   *cronexpr.Expression
	sites      *SiteManager
	reconciler *Reconciler
	submitter  *Submitter
	autoSubmit bool
	now        func() time.Time
}

// NewWatcher parses schedule as a cron expression. submitter is only used
// when autoSubmit is set.
func NewWatcher(schedule string, sites *SiteManager, reconciler *Reconciler, submitter *Submitter, autoSubmit bool) (*Watcher, error) {
	expr, err := cronexpr.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid watch schedule %q: %v", ErrInvalidInput, schedule, err)
	}
	if autoSubmit && submitter == nil {
		return nil, fmt.Errorf("%w: auto submit requires a submitter", ErrInvalidInput)
	}
	metrics.Init()
	return &Watcher{
		schedule:   expr,
		sites:      sites,
		reconciler: reconciler,
		submitter:  submitter,
		autoSubmit: autoSubmit,
		now:        time.Now,
	}, nil
}

// Start runs a pass at every scheduled time until ctx ends.
func (w *Watcher) Start(ctx context.Context) error {
	slog.Info("Watcher started", "auto_submit", w.autoSubmit)
	for {
		next := w.schedule.Next(w.now())
		if next.IsZero() {
			slog.Warn("Watch schedule has no future activation, stopping watcher")
			<-ctx.Done()
			return ctx.Err()
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("Watcher stopped")
			return ctx.Err()
		case <-timer.C:
			if err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Watcher pass failed", "error", err)
			}
		}
	}
}

// RunOnce re-checks all sites once. Failures of single sites are logged
// and do not stop the pass; only a failure to list the sites is returned.
func (w *Watcher) RunOnce(ctx context.Context) error {
	sites, err := w.sites.ListSites(ctx)
	if err != nil {
		metrics.WatcherRunsTotal.WithLabelValues("failed").Inc()
		return err
	}

	failures := 0
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.checkSite(ctx, site); err != nil {
			failures++
			slog.Error("Watcher failed to check site", "site_id", site.ID, "site", site.Name, "error", err)
		}
	}

	result := "success"
	if failures > 0 {
		result = "partial_failure"
	}
	metrics.WatcherRunsTotal.WithLabelValues(result).Inc()
	slog.Info("Watcher pass finished", "sites", len(sites), "failures", failures)
	return nil
}

func (w *Watcher) checkSite(ctx context.Context, site *entity.Site) error {
	if len(site.URLs) == 0 {
		return nil
	}
	urls := make([]entity.DiscoveredURL, 0, len(site.URLs))
	for _, entry := range sortedEntries(site) {
		urls = append(urls, entity.DiscoveredURL{URL: entry.URL})
	}
	entries, err := w.reconciler.Reconcile(ctx, site.ID, urls)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	due := 0
	for _, e := range entries {
		if e.Status.NeedsSubmission() {
			due++
		}
	}
	slog.Info("Watcher checked site", "site_id", site.ID, "urls", len(entries), "due", due)

	if !w.autoSubmit || due == 0 {
		return nil
	}
	result, err := w.submitter.SubmitPending(ctx, site.ID, nil)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("submit: %s", result.Message)
	}
	return nil
}
