package entity

import "fmt"

// CurrentVersion is the document version written by this service.
const CurrentVersion = 1

// AppData is the root state document.
type AppData struct {
	Version      int              `json:"version" yaml:"version"`
	Sites        map[string]*Site `json:"sites" yaml:"sites"`
	ActiveSiteID *string          `json:"activeSiteId" yaml:"activeSiteId"`
}

// NewAppData returns an empty document.
func NewAppData() *AppData {
	return &AppData{Version: CurrentVersion, Sites: map[string]*Site{}}
}

// ActiveSite returns the active site, or nil when there is none or the
// pointer references a missing site.
func (d *AppData) ActiveSite() *Site {
	if d.ActiveSiteID == nil {
		return nil
	}
	return d.Sites[*d.ActiveSiteID]
}

// SetActive points the active site at id, or clears it when id is empty.
func (d *AppData) SetActive(id string) {
	if id == "" {
		d.ActiveSiteID = nil
		return
	}
	d.ActiveSiteID = &id
}

// Clone returns a deep copy of the document.
func (d *AppData) Clone() *AppData {
	c := &AppData{Version: d.Version, Sites: make(map[string]*Site, len(d.Sites))}
	for id, s := range d.Sites {
		c.Sites[id] = s.Clone()
	}
	if d.ActiveSiteID != nil {
		c.SetActive(*d.ActiveSiteID)
	}
	return c
}

// Migrate upgrades a decoded document to CurrentVersion in place.
// Documents written before versioning have version 0.
func Migrate(d *AppData) error {
	switch {
	case d.Version > CurrentVersion:
		return fmt.Errorf("state document version %d is newer than supported version %d", d.Version, CurrentVersion)
	case d.Version == 0:
		if d.Sites == nil {
			d.Sites = map[string]*Site{}
		}
		for id, s := range d.Sites {
			if s == nil {
				delete(d.Sites, id)
				continue
			}
			if s.URLs == nil {
				s.URLs = map[string]URLEntry{}
			}
		}
		d.Version = CurrentVersion
	}
	if d.Sites == nil {
		d.Sites = map[string]*Site{}
	}
	return nil
}
