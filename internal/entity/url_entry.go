package entity

import "time"

// URLEntry is the tracked state of a single URL.
type URLEntry struct {
	URL           string     `json:"url" yaml:"url"`
	ContentHash   string     `json:"contentHash" yaml:"contentHash"`
	LastSubmitted *time.Time `json:"lastSubmitted" yaml:"lastSubmitted"`
	Status        Status     `json:"status" yaml:"status"`
	LastModified  *time.Time `json:"lastModified,omitempty" yaml:"lastModified,omitempty"`
}

// Clone returns a copy that shares no pointers with e.
func (e URLEntry) Clone() URLEntry {
	c := e
	if e.LastSubmitted != nil {
		t := *e.LastSubmitted
		c.LastSubmitted = &t
	}
	if e.LastModified != nil {
		t := *e.LastModified
		c.LastModified = &t
	}
	return c
}

// DiscoveredURL is a URL handed to reconciliation, optionally with the
// modification time reported by a sitemap.
type DiscoveredURL struct {
	URL          string
	LastModified *time.Time
}
