package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/user/indexnow-service/internal/delivery/http/request"
	"github.com/user/indexnow-service/internal/delivery/http/response"
	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/usecase"
	"github.com/user/indexnow-service/pkg/utils"
)

func siteID(r *http.Request) string {
	return chi.URLParam(r, "siteID")
}

func (h *Handler) HandleListSites(w http.ResponseWriter, r *http.Request) {
	data, err := h.sites.Load(r.Context())
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	sites, err := h.sites.ListSites(r.Context())
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	resp := response.SiteListResponse{Sites: sites}
	if active := data.ActiveSite(); active != nil {
		resp.ActiveSiteID = &active.ID
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSiteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	site, err := h.sites.CreateSite(r.Context(), req.Name)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, site)
}

func (h *Handler) HandleActiveSite(w http.ResponseWriter, r *http.Request) {
	site, err := h.sites.ActiveSite(r.Context())
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, site)
}

func (h *Handler) HandleGetSite(w http.ResponseWriter, r *http.Request) {
	site, err := h.sites.GetSite(r.Context(), siteID(r))
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, site)
}

func (h *Handler) HandleRenameSite(w http.ResponseWriter, r *http.Request) {
	var req request.RenameSiteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	site, err := h.sites.RenameSite(r.Context(), siteID(r), req.Name)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, site)
}

func (h *Handler) HandleDeleteSite(w http.ResponseWriter, r *http.Request) {
	if err := h.sites.DeleteSite(r.Context(), siteID(r)); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSelectSite(w http.ResponseWriter, r *http.Request) {
	id := siteID(r)
	if err := h.sites.SelectSite(r.Context(), id); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"activeSiteId": id})
}

func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.sites.GetSettings(r.Context(), siteID(r))
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateSettingsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	settings, err := h.sites.UpdateSettings(r.Context(), siteID(r), usecase.SettingsPatch{
		APIKey:      req.APIKey,
		Host:        req.Host,
		KeyLocation: req.KeyLocation,
	})
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) HandleListURLs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.sites.URLEntries(r.Context(), siteID(r))
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.NewURLListResponse(entries))
}

// HandleAddURLs reconciles the URLs named by the request and returns the touched entries.
func (h *Handler) HandleAddURLs(w http.ResponseWriter, r *http.Request) {
	var req request.AddURLsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sources := 0
	for _, set := range []bool{len(req.URLs) > 0, strings.TrimSpace(req.Text) != "", req.Sitemap != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		h.writeJSONError(w, "Exactly one of urls, text or sitemap is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	id := siteID(r)

	if req.Sitemap != "" {
		entries, err := h.reconciler.ReconcileSitemap(ctx, id, req.Sitemap)
		h.writeReconcileResult(w, r, entries, err)
		return
	}

	var urls []string
	if len(req.URLs) > 0 {
		for _, u := range req.URLs {
			u = strings.TrimSpace(u)
			if !utils.IsValidURL(u) {
				h.writeJSONError(w, fmt.Sprintf("Invalid URL: %q", u), http.StatusBadRequest)
				return
			}
			urls = append(urls, u)
		}
	} else {
		extracted, err := h.extractFromText(r, id, req.Text)
		if err != nil {
			h.writeUsecaseError(w, r, err)
			return
		}
		urls = extracted
	}
	if len(urls) == 0 {
		h.writeJSONError(w, "No valid URLs found", http.StatusBadRequest)
		return
	}

	discovered := make([]entity.DiscoveredURL, 0, len(urls))
	for _, u := range urls {
		discovered = append(discovered, entity.DiscoveredURL{URL: u})
	}
	entries, err := h.reconciler.Reconcile(ctx, id, discovered)
	h.writeReconcileResult(w, r, entries, err)
}

// writeReconcileResult reports a run that was cut short by the request
// deadline or a disconnect as 504 together with the entries already stored.
func (h *Handler) writeReconcileResult(w http.ResponseWriter, r *http.Request, entries []entity.URLEntry, err error) {
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, response.ReconcileResponse{URLs: entries})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		slog.Warn("Reconcile interrupted", "path", r.URL.Path, "processed", len(entries), "error", err)
		if entries == nil {
			entries = []entity.URLEntry{}
		}
		h.writeJSON(w, http.StatusGatewayTimeout, response.ReconcileResponse{
			URLs:       entries,
			Incomplete: true,
			Error:      "Reconciliation interrupted: " + err.Error(),
		})
	default:
		h.writeUsecaseError(w, r, err)
	}
}

// extractFromText reads one URL per line, or the links of an HTML document
// resolved against the site's host.
func (h *Handler) extractFromText(r *http.Request, id, text string) ([]string, error) {
	if !utils.LooksLikeHTML(text) {
		return utils.ExtractURLsFromText(text), nil
	}
	settings, err := h.sites.GetSettings(r.Context(), id)
	if err != nil {
		return nil, err
	}
	var base *url.URL
	if settings.Host != "" {
		base = &url.URL{Scheme: "https", Host: settings.Host, Path: "/"}
	}
	urls, err := utils.ExtractURLsFromHTML(text, base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return urls, nil
}

func (h *Handler) HandleClearURLs(w http.ResponseWriter, r *http.Request) {
	if err := h.sites.ClearHistory(r.Context(), siteID(r)); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRemoveURL(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}
	if err := h.sites.RemoveURLEntry(r.Context(), siteID(r), rawURL); err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSubmitSite submits the site's pending and changed URLs. The body is optional.
func (h *Handler) HandleSubmitSite(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.submitter.SubmitPending(r.Context(), siteID(r), req.URLs)
	if err != nil {
		h.writeUsecaseError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
