package response

import "github.com/user/indexnow-service/internal/entity"

type SitemapResponse struct {
	URLs []entity.SitemapURL `json:"urls"`
}

type ProxySubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SiteListResponse struct {
	Sites        []*entity.Site `json:"sites"`
	ActiveSiteID *string        `json:"activeSiteId"`
}

// URLListResponse lists a site's entries ordered by URL together with counts.
type URLListResponse struct {
	URLs      []entity.URLEntry `json:"urls"`
	Total     int               `json:"total"`
	Pending   int               `json:"pending"`
	Submitted int               `json:"submitted"`
}

// ReconcileResponse lists the entries touched by a reconcile. Incomplete is
// set when the run was cut short; the listed entries are stored regardless.
type ReconcileResponse struct {
	URLs       []entity.URLEntry `json:"urls"`
	Incomplete bool              `json:"incomplete,omitempty"`
	Error      string            `json:"error,omitempty"`
}

func NewURLListResponse(entries []entity.URLEntry) URLListResponse {
	resp := URLListResponse{URLs: entries, Total: len(entries)}
	for _, e := range entries {
		switch e.Status {
		case entity.StatusPending, entity.StatusChanged:
			resp.Pending++
		case entity.StatusSubmitted:
			resp.Submitted++
		case entity.StatusError, entity.StatusUnknown:
		}
	}
	return resp
}
