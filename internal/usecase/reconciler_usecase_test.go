package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/pkg/fingerprint"
)

func discovered(urls ...string) []entity.DiscoveredURL {
	out := make([]entity.DiscoveredURL, 0, len(urls))
	for _, u := range urls {
		out = append(out, entity.DiscoveredURL{URL: u})
	}
	return out
}

func TestReconciler_StatusRules(t *testing.T) {
	submittedAt := fixedNow.Add(-24 * time.Hour)
	helloHash := fingerprint.Content("hello")

	tests := []struct {
		name     string
		prior    *entity.URLEntry
		content  *string
		wantHash string
		want     entity.Status
	}{
		{
			name:     "new url with content",
			content:  strPtr("hello"),
			wantHash: helloHash,
			want:     entity.StatusPending,
		},
		{
			name:     "unchanged submitted stays submitted",
			prior:    &entity.URLEntry{ContentHash: helloHash, Status: entity.StatusSubmitted, LastSubmitted: &submittedAt},
			content:  strPtr("hello"),
			wantHash: helloHash,
			want:     entity.StatusSubmitted,
		},
		{
			name:     "unchanged pending stays pending",
			prior:    &entity.URLEntry{ContentHash: helloHash, Status: entity.StatusPending},
			content:  strPtr("hello"),
			wantHash: helloHash,
			want:     entity.StatusPending,
		},
		{
			name:     "unchanged error stays error",
			prior:    &entity.URLEntry{ContentHash: helloHash, Status: entity.StatusError},
			content:  strPtr("hello"),
			wantHash: helloHash,
			want:     entity.StatusError,
		},
		{
			name:     "changed content on submitted entry",
			prior:    &entity.URLEntry{ContentHash: "old", Status: entity.StatusSubmitted, LastSubmitted: &submittedAt},
			content:  strPtr("hello"),
			wantHash: helloHash,
			want:     entity.StatusChanged,
		},
		{
			name:     "changed content on pending entry",
			prior:    &entity.URLEntry{ContentHash: "old", Status: entity.StatusPending},
			content:  strPtr("hello"),
			wantHash: helloHash,
			want:     entity.StatusChanged,
		},
		{
			name:     "stored entry without fingerprint",
			prior:    &entity.URLEntry{Status: entity.StatusSubmitted, LastSubmitted: &submittedAt},
			content:  strPtr("hello"),
			wantHash: helloHash,
			want:     entity.StatusPending,
		},
		{
			name:     "fetch failure without entry",
			wantHash: "",
			want:     entity.StatusPending,
		},
		{
			name:     "fetch failure carries entry over",
			prior:    &entity.URLEntry{ContentHash: "old", Status: entity.StatusSubmitted, LastSubmitted: &submittedAt},
			wantHash: "old",
			want:     entity.StatusSubmitted,
		},
		{
			name:     "empty body counts as unavailable",
			prior:    &entity.URLEntry{ContentHash: "old", Status: entity.StatusChanged},
			content:  strPtr(""),
			wantHash: "old",
			want:     entity.StatusChanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			const u = "https://a.test/page"
			m := newTestManager(t)
			site := createSite(t, m, "a")
			if tt.prior != nil {
				prior := *tt.prior
				prior.URL = u
				if _, err := m.UpdateURLEntry(ctx, site.ID, prior); err != nil {
					t.Fatal(err)
				}
			}
			fetcher := &fakeFetcher{content: map[string]string{}}
			if tt.content != nil {
				fetcher.set(u, *tt.content)
			}

			got, err := NewReconciler(m, fetcher, nil).Reconcile(ctx, site.ID, discovered(u))
			if err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("Reconcile() returned %d entries, want 1", len(got))
			}
			if got[0].Status != tt.want || got[0].ContentHash != tt.wantHash {
				t.Errorf("entry = {status: %s, hash: %q}, want {status: %s, hash: %q}", got[0].Status, got[0].ContentHash, tt.want, tt.wantHash)
			}
			if tt.prior != nil && !reflect.DeepEqual(got[0].LastSubmitted, tt.prior.LastSubmitted) {
				t.Errorf("LastSubmitted = %v, want %v", got[0].LastSubmitted, tt.prior.LastSubmitted)
			}

			stored, _ := m.URLEntries(ctx, site.ID)
			if len(stored) != 1 || !reflect.DeepEqual(stored[0], got[0]) {
				t.Errorf("stored = %+v, want %+v", stored, got[0])
			}
		})
	}
}

func TestReconciler_IdempotentAfterSubmission(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	site := createSite(t, m, "a")
	fetcher := &fakeFetcher{content: map[string]string{"https://a.test/": "v1"}}
	r := NewReconciler(m, fetcher, nil)

	first, _ := r.Reconcile(ctx, site.ID, discovered("https://a.test/"))
	if err := m.MarkSubmitted(ctx, site.ID, []string{"https://a.test/"}, fixedNow); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		again, err := r.Reconcile(ctx, site.ID, discovered("https://a.test/"))
		if err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
		if again[0].Status != entity.StatusSubmitted || again[0].ContentHash != first[0].ContentHash {
			t.Errorf("pass %d entry = %+v, want submitted with hash %s", i, again[0], first[0].ContentHash)
		}
	}

	fetcher.set("https://a.test/", "v2")
	changed, _ := r.Reconcile(ctx, site.ID, discovered("https://a.test/"))
	if changed[0].Status != entity.StatusChanged {
		t.Errorf("after content change status = %s, want changed", changed[0].Status)
	}
}

func TestReconciler_InputHandling(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	site := createSite(t, m, "a")
	fetcher := &fakeFetcher{content: map[string]string{
		"https://a.test/1": "one",
		"https://a.test/2": "two",
	}}
	r := NewReconciler(m, fetcher, nil)

	empty, err := r.Reconcile(ctx, site.ID, nil)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("Reconcile(nil) = %v, %v, want empty non-nil slice", empty, err)
	}

	modified := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	input := []entity.DiscoveredURL{
		{URL: "https://a.test/2", LastModified: &modified},
		{URL: "https://a.test/1"},
		{URL: "https://a.test/2"},
		{URL: "https://a.test/missing"},
	}
	got, err := r.Reconcile(ctx, site.ID, input)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	var urls []string
	for _, e := range got {
		urls = append(urls, e.URL)
	}
	if want := []string{"https://a.test/2", "https://a.test/1", "https://a.test/missing"}; !reflect.DeepEqual(urls, want) {
		t.Errorf("Reconcile() urls = %v, want %v (input order, duplicates once)", urls, want)
	}
	if want := []string{"https://a.test/2", "https://a.test/1", "https://a.test/missing"}; !reflect.DeepEqual(fetcher.calls, want) {
		t.Errorf("fetches = %v, want %v", fetcher.calls, want)
	}
	if got[0].LastModified == nil || !got[0].LastModified.Equal(modified) {
		t.Errorf("LastModified = %v, want %v", got[0].LastModified, modified)
	}
	if got[2].Status != entity.StatusPending || got[2].ContentHash != "" {
		t.Errorf("unavailable entry = %+v", got[2])
	}
}

func TestReconciler_MissingSite(t *testing.T) {
	m := newTestManager(t)
	fetcher := &fakeFetcher{content: map[string]string{}}
	_, err := NewReconciler(m, fetcher, nil).Reconcile(context.Background(), "nope", discovered("https://a.test/"))
	if !errors.Is(err, ErrSiteNotFound) {
		t.Errorf("Reconcile() error = %v, want ErrSiteNotFound", err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("fetcher called %d times, want 0", len(fetcher.calls))
	}
}

// cancellingFetcher cancels the batch context after its first fetch.
type cancellingFetcher struct {
	fakeFetcher
	cancel context.CancelFunc
}

func (f *cancellingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	c, err := f.fakeFetcher.Fetch(ctx, url)
	if len(f.calls) == 1 {
		return c, err
	}
	f.cancel()
	return "", ctx.Err()
}

func TestReconciler_CancellationReturnsPartialResults(t *testing.T) {
	m := newTestManager(t)
	site := createSite(t, m, "a")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &cancellingFetcher{
		fakeFetcher: fakeFetcher{content: map[string]string{"https://a.test/1": "one", "https://a.test/2": "two"}},
		cancel:      cancel,
	}
	got, err := NewReconciler(m, fetcher, nil).Reconcile(ctx, site.ID, discovered("https://a.test/1", "https://a.test/2", "https://a.test/3"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Reconcile() error = %v, want context.Canceled", err)
	}
	if len(got) != 1 || got[0].URL != "https://a.test/1" {
		t.Errorf("Reconcile() = %+v, want only the first entry", got)
	}
	stored, _ := m.URLEntries(context.Background(), site.ID)
	if len(stored) != 1 {
		t.Errorf("stored %d entries, want 1", len(stored))
	}
}

func TestReconciler_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	site := createSite(t, m, "a")
	content := map[string]string{}
	var urls []string
	for _, p := range []string{"a", "b", "c", "d", "e", "f"} {
		u := "https://a.test/" + p
		urls = append(urls, u)
		content[u] = "content " + p
	}
	delete(content, "https://a.test/c")

	got, err := NewReconciler(m, &fakeFetcher{content: content}, nil, WithConcurrency(3)).Reconcile(ctx, site.ID, discovered(urls...))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(got) != len(urls) {
		t.Fatalf("Reconcile() returned %d entries, want %d", len(got), len(urls))
	}
	for i, e := range got {
		if e.URL != urls[i] {
			t.Errorf("entry %d url = %s, want %s", i, e.URL, urls[i])
		}
		wantHash := ""
		if c, ok := content[e.URL]; ok {
			wantHash = fingerprint.Content(c)
		}
		if e.ContentHash != wantHash || e.Status != entity.StatusPending {
			t.Errorf("entry %s = %+v, want pending with hash %q", e.URL, e, wantHash)
		}
	}
}

func TestReconciler_TextFingerprint(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	site := createSite(t, m, "a")
	fetcher := &fakeFetcher{content: map[string]string{"https://a.test/": `<html><body><p>Hi</p><script>var n="1"</script></body></html>`}}
	r := NewReconciler(m, fetcher, nil, WithFingerprint(fingerprint.Text))

	if _, err := r.Reconcile(ctx, site.ID, discovered("https://a.test/")); err != nil {
		t.Fatal(err)
	}
	if err := m.MarkSubmitted(ctx, site.ID, []string{"https://a.test/"}, fixedNow); err != nil {
		t.Fatal(err)
	}
	fetcher.set("https://a.test/", `<html><body><p>Hi</p><script>var n="2"</script></body></html>`)
	got, _ := r.Reconcile(ctx, site.ID, discovered("https://a.test/"))
	if got[0].Status != entity.StatusSubmitted {
		t.Errorf("status after script-only change = %s, want submitted", got[0].Status)
	}
}

func TestReconciler_ReconcileSitemap(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	site := createSite(t, m, "a")
	sitemaps := &fakeSitemaps{urls: []entity.SitemapURL{
		{Loc: "https://a.test/p1", LastMod: "2024-02-03"},
		{Loc: "https://a.test/p2", LastMod: "not a date"},
	}}
	fetcher := &fakeFetcher{content: map[string]string{"https://a.test/p1": "p1"}}

	got, err := NewReconciler(m, fetcher, sitemaps).ReconcileSitemap(ctx, site.ID, "https://a.test/sitemap.xml")
	if err != nil {
		t.Fatalf("ReconcileSitemap() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReconcileSitemap() = %+v", got)
	}
	wantMod := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	if got[0].LastModified == nil || !got[0].LastModified.Equal(wantMod) {
		t.Errorf("LastModified = %v, want %v", got[0].LastModified, wantMod)
	}
	if got[1].LastModified != nil {
		t.Errorf("unparsable lastmod gave %v, want nil", got[1].LastModified)
	}

	sitemaps.err = errors.New("boom")
	if _, err := NewReconciler(m, fetcher, sitemaps).ReconcileSitemap(ctx, site.ID, "https://a.test/sitemap.xml"); err == nil {
		t.Error("ReconcileSitemap() error = nil, want fetch error")
	}
}

// hookFetcher runs hook after each fetch, before the entry is written.
type hookFetcher struct {
	fakeFetcher
	hook func(url string)
}

func (f *hookFetcher) Fetch(ctx context.Context, url string) (string, error) {
	c, err := f.fakeFetcher.Fetch(ctx, url)
	if f.hook != nil {
		f.hook(url)
	}
	return c, err
}

func TestReconciler_KeepsSubmissionMadeDuringFetch(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	site := createSite(t, m, "a")
	urls := discovered("https://a.test/1", "https://a.test/2")

	fetcher := &hookFetcher{fakeFetcher: fakeFetcher{content: map[string]string{
		"https://a.test/1": "one",
		"https://a.test/2": "two",
	}}}
	r := NewReconciler(m, fetcher, nil)
	if _, err := r.Reconcile(ctx, site.ID, urls); err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}

	ackAt := fixedNow.Add(time.Minute)
	fetcher.hook = func(url string) {
		if err := m.MarkSubmitted(ctx, site.ID, []string{url}, ackAt); err != nil {
			t.Errorf("MarkSubmitted(%s) error = %v", url, err)
		}
	}
	got, err := r.Reconcile(ctx, site.ID, urls)
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	for _, e := range got {
		if e.Status != entity.StatusSubmitted {
			t.Errorf("%s status = %v, want submitted", e.URL, e.Status)
		}
	}

	entries, err := m.URLEntries(ctx, site.ID)
	if err != nil {
		t.Fatalf("URLEntries() error = %v", err)
	}
	for _, e := range entries {
		if e.Status != entity.StatusSubmitted || e.LastSubmitted == nil || !e.LastSubmitted.Equal(ackAt) {
			t.Errorf("stored %s = %+v, want submitted at %v", e.URL, e, ackAt)
		}
	}
}

func TestReconciler_PreservesStoredLastModified(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	site := createSite(t, m, "a")
	r := NewReconciler(m, &fakeFetcher{content: map[string]string{"https://a.test/1": "one"}}, nil)

	modified := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	if _, err := r.Reconcile(ctx, site.ID, []entity.DiscoveredURL{{URL: "https://a.test/1", LastModified: &modified}}); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	got, err := r.Reconcile(ctx, site.ID, discovered("https://a.test/1"))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if got[0].LastModified == nil || !got[0].LastModified.Equal(modified) {
		t.Errorf("LastModified = %v, want %v", got[0].LastModified, modified)
	}
}
