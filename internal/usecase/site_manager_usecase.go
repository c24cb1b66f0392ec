package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/repository"
)

// SettingsPatch carries a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	APIKey      *string `json:"apiKey,omitempty"`
	Host        *string `json:"host,omitempty"`
	KeyLocation *string `json:"keyLocation,omitempty"`
}

// SiteManager reads and mutates the state document. Every mutation is a
// whole-document read-modify-write serialised by a mutex.
//
// Operations taking a site id resolve an empty id to the active site.
type SiteManager struct {
	store repository.StateStore
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// NewSiteManager creates a SiteManager over store.
func NewSiteManager(store repository.StateStore) *SiteManager {
	return &SiteManager{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Load returns a copy of the whole document.
func (m *SiteManager) Load(ctx context.Context) (*entity.AppData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read(ctx)
}

// Save replaces the whole document.
func (m *SiteManager) Save(ctx context.Context, data *entity.AppData) error {
	if data == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidInput)
	}
	doc := data.Clone()
	if err := entity.Migrate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(ctx, doc)
}

// ListSites returns all sites ordered by name, then id.
func (m *SiteManager) ListSites(ctx context.Context) ([]*entity.Site, error) {
	data, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}
	return sortedSites(data), nil
}

// GetSite returns the site with id.
func (m *SiteManager) GetSite(ctx context.Context, id string) (*entity.Site, error) {
	data, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}
	return lookupSite(data, id)
}

// ActiveSite returns the active site, or ErrNoActiveSite.
func (m *SiteManager) ActiveSite(ctx context.Context) (*entity.Site, error) {
	return m.GetSite(ctx, "")
}

// CreateSite adds a site with empty settings and makes it the active site.
func (m *SiteManager) CreateSite(ctx context.Context, name string) (*entity.Site, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: site name is required", ErrInvalidInput)
	}
	now := m.now()
	site := &entity.Site{
		ID:        m.newID(),
		Name:      name,
		URLs:      map[string]entity.URLEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := m.update(ctx, func(data *entity.AppData) error {
		data.Sites[site.ID] = site.Clone()
		data.SetActive(site.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

// RenameSite changes the display name of a site.
func (m *SiteManager) RenameSite(ctx context.Context, id, name string) (*entity.Site, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: site name is required", ErrInvalidInput)
	}
	var renamed *entity.Site
	err := m.updateSite(ctx, id, func(site *entity.Site) error {
		site.Name = name
		renamed = site
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renamed.Clone(), nil
}

// SelectSite makes id the active site.
func (m *SiteManager) SelectSite(ctx context.Context, id string) error {
	return m.update(ctx, func(data *entity.AppData) error {
		if _, ok := data.Sites[id]; !ok {
			return fmt.Errorf("%w: %s", ErrSiteNotFound, id)
		}
		data.SetActive(id)
		return nil
	})
}

// DeleteSite removes a site. When it was the active site, the first
// remaining site in ListSites order becomes active, or none.
func (m *SiteManager) DeleteSite(ctx context.Context, id string) error {
	return m.update(ctx, func(data *entity.AppData) error {
		if _, ok := data.Sites[id]; !ok {
			return fmt.Errorf("%w: %s", ErrSiteNotFound, id)
		}
		wasActive := data.ActiveSiteID != nil && *data.ActiveSiteID == id
		delete(data.Sites, id)
		if wasActive || data.ActiveSite() == nil {
			next := ""
			if remaining := sortedSites(data); len(remaining) > 0 {
				next = remaining[0].ID
			}
			data.SetActive(next)
		}
		return nil
	})
}

// GetSettings returns the settings of a site.
func (m *SiteManager) GetSettings(ctx context.Context, id string) (entity.SiteSettings, error) {
	site, err := m.GetSite(ctx, id)
	if err != nil {
		return entity.SiteSettings{}, err
	}
	return site.Settings, nil
}

// UpdateSettings applies the non-nil fields of patch.
func (m *SiteManager) UpdateSettings(ctx context.Context, id string, patch SettingsPatch) (entity.SiteSettings, error) {
	var settings entity.SiteSettings
	err := m.updateSite(ctx, id, func(site *entity.Site) error {
		if patch.APIKey != nil {
			site.Settings.APIKey = strings.TrimSpace(*patch.APIKey)
		}
		if patch.Host != nil {
			site.Settings.Host = strings.TrimSpace(*patch.Host)
		}
		if patch.KeyLocation != nil {
			site.Settings.KeyLocation = strings.TrimSpace(*patch.KeyLocation)
		}
		settings = site.Settings
		return nil
	})
	return settings, err
}

// URLEntries returns the entries of a site ordered by URL.
func (m *SiteManager) URLEntries(ctx context.Context, id string) ([]entity.URLEntry, error) {
	site, err := m.GetSite(ctx, id)
	if err != nil {
		return nil, err
	}
	return sortedEntries(site), nil
}

// UpdateURLEntry merges entry into the stored entry for entry.URL and
// returns the result. An empty ContentHash, a nil LastSubmitted or
// LastModified and StatusUnknown all keep the stored value; a new entry
// without a status is pending.
func (m *SiteManager) UpdateURLEntry(ctx context.Context, id string, entry entity.URLEntry) (entity.URLEntry, error) {
	if entry.URL == "" {
		return entity.URLEntry{}, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	var merged entity.URLEntry
	err := m.updateSite(ctx, id, func(site *entity.Site) error {
		stored, ok := site.URLs[entry.URL]
		merged = mergeEntry(stored, ok, entry)
		site.URLs[entry.URL] = merged
		return nil
	})
	return merged.Clone(), err
}

// UpdateURLEntryFunc replaces the entry for url with the result of fn,
// which receives the currently stored entry. fn runs under the store lock
// and must not block.
func (m *SiteManager) UpdateURLEntryFunc(ctx context.Context, id, url string, fn func(prev entity.URLEntry, ok bool) entity.URLEntry) (entity.URLEntry, error) {
	if url == "" {
		return entity.URLEntry{}, fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	var next entity.URLEntry
	err := m.updateSite(ctx, id, func(site *entity.Site) error {
		prev, ok := site.URLs[url]
		next = fn(prev.Clone(), ok)
		next.URL = url
		site.URLs[url] = next
		return nil
	})
	return next.Clone(), err
}

func mergeEntry(stored entity.URLEntry, exists bool, in entity.URLEntry) entity.URLEntry {
	out := stored.Clone()
	out.URL = in.URL
	if in.ContentHash != "" {
		out.ContentHash = in.ContentHash
	}
	if in.LastSubmitted != nil {
		t := *in.LastSubmitted
		out.LastSubmitted = &t
	}
	if in.LastModified != nil {
		t := *in.LastModified
		out.LastModified = &t
	}
	switch in.Status {
	case entity.StatusPending, entity.StatusSubmitted, entity.StatusChanged, entity.StatusError:
		out.Status = in.Status
	case entity.StatusUnknown:
		if !exists || out.Status == entity.StatusUnknown {
			out.Status = entity.StatusPending
		}
	}
	return out
}

// RemoveURLEntry stops tracking url. Removing an untracked URL is not an error.
func (m *SiteManager) RemoveURLEntry(ctx context.Context, id, url string) error {
	return m.updateSite(ctx, id, func(site *entity.Site) error {
		delete(site.URLs, url)
		return nil
	})
}

// ClearHistory removes every URL entry of a site.
func (m *SiteManager) ClearHistory(ctx context.Context, id string) error {
	return m.updateSite(ctx, id, func(site *entity.Site) error {
		site.URLs = map[string]entity.URLEntry{}
		return nil
	})
}

// MarkSubmitted marks the tracked entries among urls as submitted at the
// given time, in a single write. URLs the site does not track are ignored.
func (m *SiteManager) MarkSubmitted(ctx context.Context, id string, urls []string, at time.Time) error {
	if len(urls) == 0 {
		return nil
	}
	at = at.UTC()
	return m.updateSite(ctx, id, func(site *entity.Site) error {
		for _, u := range urls {
			entry, ok := site.URLs[u]
			if !ok {
				continue
			}
			ts := at
			entry.Status = entity.StatusSubmitted
			entry.LastSubmitted = &ts
			site.URLs[u] = entry
		}
		return nil
	})
}

// read must be called with mu held.
func (m *SiteManager) read(ctx context.Context) (*entity.AppData, error) {
	data, err := m.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if data == nil {
		return entity.NewAppData(), nil
	}
	if data.Sites == nil {
		data.Sites = map[string]*entity.Site{}
	}
	return data, nil
}

// write must be called with mu held.
func (m *SiteManager) write(ctx context.Context, data *entity.AppData) error {
	if err := m.store.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

func (m *SiteManager) update(ctx context.Context, fn func(data *entity.AppData) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.read(ctx)
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	return m.write(ctx, data)
}

func (m *SiteManager) updateSite(ctx context.Context, id string, fn func(site *entity.Site) error) error {
	return m.update(ctx, func(data *entity.AppData) error {
		site, err := lookupSite(data, id)
		if err != nil {
			return err
		}
		if site.URLs == nil {
			site.URLs = map[string]entity.URLEntry{}
		}
		if err := fn(site); err != nil {
			return err
		}
		site.UpdatedAt = m.now()
		return nil
	})
}

func lookupSite(data *entity.AppData, id string) (*entity.Site, error) {
	if id == "" {
		site := data.ActiveSite()
		if site == nil {
			return nil, ErrNoActiveSite
		}
		return site, nil
	}
	site, ok := data.Sites[id]
	if !ok || site == nil {
		return nil, fmt.Errorf("%w: %s", ErrSiteNotFound, id)
	}
	return site, nil
}

func sortedSites(data *entity.AppData) []*entity.Site {
	sites := make([]*entity.Site, 0, len(data.Sites))
	for _, s := range data.Sites {
		if s != nil {
			sites = append(sites, s)
		}
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Name != sites[j].Name {
			return sites[i].Name < sites[j].Name
		}
		return sites[i].ID < sites[j].ID
	})
	return sites
}

func sortedEntries(site *entity.Site) []entity.URLEntry {
	entries := make([]entity.URLEntry, 0, len(site.URLs))
	for _, e := range site.URLs {
		entries = append(entries, e.Clone())
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].URL < entries[j].URL })
	return entries
}
