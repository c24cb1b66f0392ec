package entity

import "time"

// SitemapURL is a single <url> entry of a sitemap.
type SitemapURL struct {
	Loc        string `json:"loc" xml:"loc"`
	LastMod    string `json:"lastmod,omitempty" xml:"lastmod,omitempty"`
	ChangeFreq string `json:"changefreq,omitempty" xml:"changefreq,omitempty"`
	Priority   string `json:"priority,omitempty" xml:"priority,omitempty"`
}

var lastModLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
	"2006-01",
	"2006",
}

// LastModified parses the W3C datetime in LastMod. It returns nil when the
// value is absent or not parseable.
func (u SitemapURL) LastModified() *time.Time {
	if u.LastMod == "" {
		return nil
	}
	for _, layout := range lastModLayouts {
		if t, err := time.Parse(layout, u.LastMod); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Discovered converts the sitemap entry into reconciliation input.
func (u SitemapURL) Discovered() DiscoveredURL {
	return DiscoveredURL{URL: u.Loc, LastModified: u.LastModified()}
}
