package request

import "github.com/user/indexnow-service/internal/entity"

// ProxySubmitRequest is forwarded to IndexNow as is.
type ProxySubmitRequest = entity.SubmitPayload

type CreateSiteRequest struct {
	Name string `json:"name"`
}

type RenameSiteRequest struct {
	Name string `json:"name"`
}

// UpdateSettingsRequest only changes the fields that are present.
type UpdateSettingsRequest struct {
	APIKey      *string `json:"apiKey"`
	Host        *string `json:"host"`
	KeyLocation *string `json:"keyLocation"`
}

// AddURLsRequest names URLs to track. Exactly one source must be set:
// an explicit list, pasted text (one URL per line, or an HTML document
// whose links are used) or a sitemap URL.
type AddURLsRequest struct {
	URLs    []string `json:"urls"`
	Text    string   `json:"text"`
	Sitemap string   `json:"sitemap"`
}

// SubmitRequest optionally restricts a submission to the given URLs.
type SubmitRequest struct {
	URLs []string `json:"urls"`
}
