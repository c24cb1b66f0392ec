package entity

import (
	"fmt"
	"time"
)

// SiteSettings holds the IndexNow credentials of a site.
type SiteSettings struct {
	APIKey      string `json:"apiKey" yaml:"apiKey"`
	Host        string `json:"host" yaml:"host"`
	KeyLocation string `json:"keyLocation" yaml:"keyLocation"`
}

// ResolvedKeyLocation returns the configured key location or the default
// location IndexNow derives from host and key.
func (s SiteSettings) ResolvedKeyLocation() string {
	if s.KeyLocation != "" {
		return s.KeyLocation
	}
	return fmt.Sprintf("https://%s/%s.txt", s.Host, s.APIKey)
}

// Site is a tracked web site with its settings and URL entries keyed by URL.
type Site struct {
	ID        string              `json:"id" yaml:"id"`
	Name      string              `json:"name" yaml:"name"`
	Settings  SiteSettings        `json:"settings" yaml:"settings"`
	URLs      map[string]URLEntry `json:"urls" yaml:"urls"`
	CreatedAt time.Time           `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt" yaml:"updatedAt"`
}

// Clone returns a deep copy of the site.
func (s *Site) Clone() *Site {
	if s == nil {
		return nil
	}
	c := *s
	c.URLs = make(map[string]URLEntry, len(s.URLs))
	for k, v := range s.URLs {
		c.URLs[k] = v.Clone()
	}
	return &c
}
