// Package app wires adapters and usecases from the configuration. Both
// binaries build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/user/indexnow-service/internal/adapter/chromedp_fetcher"
	"github.com/user/indexnow-service/internal/adapter/file"
	"github.com/user/indexnow-service/internal/adapter/httpfetch"
	"github.com/user/indexnow-service/internal/adapter/indexnow"
	"github.com/user/indexnow-service/internal/adapter/memory"
	redis_adapter "github.com/user/indexnow-service/internal/adapter/redis"
	"github.com/user/indexnow-service/internal/adapter/sitemap"
	"github.com/user/indexnow-service/internal/adapter/sqlstore"
	"github.com/user/indexnow-service/internal/repository"
	"github.com/user/indexnow-service/internal/usecase"
	"github.com/user/indexnow-service/pkg/config"
	"github.com/user/indexnow-service/pkg/fingerprint"
)

// App holds the wired components.
type App struct {
	Store      repository.StateStore
	Pages      repository.ContentFetcher
	Sitemaps   repository.SitemapFetcher
	IndexNow   repository.IndexNowClient
	Sites      *usecase.SiteManager
	Reconciler *usecase.Reconciler
	Submitter  *usecase.Submitter

	closers []func() error
}

// New builds the components described by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store

	httpFetcher := httpfetch.NewFetcher(cfg.FetchTimeout(), httpfetch.WithUserAgent(cfg.UserAgent))
	a.Sitemaps = sitemap.NewFetcher(httpfetch.NewFetcher(cfg.FetchTimeout(),
		httpfetch.WithUserAgent(cfg.UserAgent),
		httpfetch.WithMaxBodyBytes(httpfetch.SitemapMaxBodyBytes),
	))
	a.Pages = httpFetcher
	if cfg.FetchMode == config.FetchModeChrome {
		chrome := chromedp_fetcher.NewChromedpFetcher(cfg.ChromeWSURL, cfg.UserAgent, cfg.FetchTimeout())
		a.closers = append(a.closers, func() error { chrome.Close(); return nil })
		a.Pages = chrome
		slog.Info("Using headless Chrome for content fetches", "remote", cfg.ChromeWSURL != "")
	}

	a.IndexNow = indexnow.NewClient(cfg.IndexNowEndpoint, &http.Client{Timeout: cfg.FetchTimeout()})

	a.Sites = usecase.NewSiteManager(a.Store)
	a.Reconciler = usecase.NewReconciler(a.Sites, a.Pages, a.Sitemaps,
		usecase.WithConcurrency(cfg.ReconcileConcurrency),
		usecase.WithFingerprint(fingerprint.ForMode(cfg.FingerprintMode)),
	)
	a.Submitter = usecase.NewSubmitter(a.IndexNow, a.Sites)
	return a, nil
}

// NewWatcher builds the scheduled re-check from cfg. It returns nil when no
// schedule is configured.
func (a *App) NewWatcher(cfg *config.Config) (*usecase.Watcher, error) {
	if cfg.WatchSchedule == "" {
		return nil, nil
	}
	return usecase.NewWatcher(cfg.WatchSchedule, a.Sites, a.Reconciler, a.Submitter, cfg.AutoSubmit)
}

// Close releases store connections and browsers.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (repository.StateStore, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return memory.NewStore(), nil
	case config.BackendFile:
		slog.Info("Using file state store", "path", cfg.StorePath)
		return file.NewStore(cfg.StorePath), nil
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := redis_adapter.NewStore(rdb)
		if err := store.Ping(ctx); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("unable to connect to Redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		slog.Info("Redis connection established", "addr", cfg.RedisAddr)
		return store, nil
	case config.BackendPostgres:
		store, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		slog.Info("PostgreSQL connection established")
		return store, nil
	case config.BackendSQLite:
		store, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("unable to open sqlite database: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		slog.Info("SQLite database opened", "path", cfg.SQLitePath)
		return store, nil
	}
	return nil, fmt.Errorf("storage backend %s not supported", cfg.StoreBackend)
}
