package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.ServerPort != "3001" {
		t.Errorf("ServerPort = %q, want 3001", cfg.ServerPort)
	}
	if cfg.StoreBackend != BackendFile {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendFile)
	}
	if cfg.IndexNowEndpoint != "https://api.indexnow.org/IndexNow" {
		t.Errorf("IndexNowEndpoint = %q", cfg.IndexNowEndpoint)
	}
	if cfg.UserAgent != "IndexNower/1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.FetchTimeout() != 30*time.Second {
		t.Errorf("FetchTimeout() = %v", cfg.FetchTimeout())
	}
	if cfg.ReconcileConcurrency != 1 {
		t.Errorf("ReconcileConcurrency = %d", cfg.ReconcileConcurrency)
	}
}

func TestLoadFile_Environment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AUTO_SUBMIT", "true")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test,")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.ServerPort != "9090" || cfg.StoreBackend != BackendRedis || cfg.RedisDB != 3 || !cfg.AutoSubmit {
		t.Errorf("environment not applied: %+v", cfg)
	}
	want := []string{"https://a.test", "https://b.test"}
	if got := cfg.AllowedOrigins(); !reflect.DeepEqual(got, want) {
		t.Errorf("AllowedOrigins() = %v, want %v", got, want)
	}
}

func TestLoadFile_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("FETCH_MODE=chrome\nFINGERPRINT_MODE=text\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.FetchMode != FetchModeChrome || cfg.FingerprintMode != "text" {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{StoreBackend: BackendFile, FetchMode: FetchModeHTTP, FingerprintMode: "raw",
			ReconcileConcurrency: 1, FetchTimeoutSeconds: 30}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.StoreBackend = "s3" }},
		{"fetch mode", func(c *Config) { c.FetchMode = "curl" }},
		{"fingerprint", func(c *Config) { c.FingerprintMode = "sha1" }},
		{"concurrency", func(c *Config) { c.ReconcileConcurrency = 0 }},
		{"timeout", func(c *Config) { c.FetchTimeoutSeconds = 0 }},
	}
	ok := base()
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() on valid config error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() accepted an invalid config")
			}
		})
	}
}
