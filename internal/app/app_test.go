package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/user/indexnow-service/internal/adapter/file"
	"github.com/user/indexnow-service/internal/adapter/httpfetch"
	"github.com/user/indexnow-service/internal/adapter/memory"
	"github.com/user/indexnow-service/internal/adapter/sqlstore"
	"github.com/user/indexnow-service/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return cfg
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		backend string
		check   func(t *testing.T, a *App)
	}{
		{backend: config.BackendMemory, check: func(t *testing.T, a *App) {
			if _, ok := a.Store.(*memory.StoreImpl); !ok {
				t.Errorf("Store = %T, want memory", a.Store)
			}
		}},
		{backend: config.BackendFile, check: func(t *testing.T, a *App) {
			if _, ok := a.Store.(*file.StoreImpl); !ok {
				t.Errorf("Store = %T, want file", a.Store)
			}
		}},
		{backend: config.BackendSQLite, check: func(t *testing.T, a *App) {
			if _, ok := a.Store.(*sqlstore.StoreImpl); !ok {
				t.Errorf("Store = %T, want sqlstore", a.Store)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.StoreBackend = tt.backend
			cfg.StorePath = filepath.Join(dir, "state.json")
			cfg.SQLitePath = filepath.Join(dir, "state.db")

			a, err := New(ctx, cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer a.Close()
			tt.check(t, a)

			if _, ok := a.Pages.(*httpfetch.FetcherImpl); !ok {
				t.Errorf("Pages = %T, want http fetcher", a.Pages)
			}
			site, err := a.Sites.CreateSite(ctx, "wired")
			if err != nil {
				t.Fatalf("CreateSite() error = %v", err)
			}
			if got, err := a.Sites.ActiveSite(ctx); err != nil || got.ID != site.ID {
				t.Errorf("ActiveSite() = %v, %v", got, err)
			}
		})
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "etcd"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("New() error = nil, want unsupported backend")
	}
}

func TestNewWatcher(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = config.BackendMemory
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if w, err := a.NewWatcher(cfg); w != nil || err != nil {
		t.Errorf("NewWatcher() without schedule = %v, %v, want nil, nil", w, err)
	}
	cfg.WatchSchedule = "@hourly"
	if w, err := a.NewWatcher(cfg); w == nil || err != nil {
		t.Errorf("NewWatcher() = %v, %v", w, err)
	}
}
