package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/user/indexnow-service/internal/delivery/http/request"
	"github.com/user/indexnow-service/internal/delivery/http/response"
	"github.com/user/indexnow-service/internal/repository"
)

// HandleSitemap fetches and parses a sitemap on behalf of the caller.
func (h *Handler) HandleSitemap(w http.ResponseWriter, r *http.Request) {
	sitemapURL := r.URL.Query().Get("url")
	if sitemapURL == "" {
		h.writeJSONError(w, "URL parameter is required", http.StatusBadRequest)
		return
	}

	urls, err := h.sitemaps.Fetch(r.Context(), sitemapURL)
	if err != nil {
		var remoteErr *repository.RemoteError
		switch {
		case errors.As(err, &remoteErr):
			h.writeJSONError(w, "Failed to fetch sitemap: "+http.StatusText(remoteErr.StatusCode), remoteErr.StatusCode)
		case errors.Is(err, repository.ErrSitemapParse):
			h.writeJSONError(w, "Failed to parse sitemap XML", http.StatusBadRequest)
		case errors.Is(err, repository.ErrContentUnavailable):
			h.writeJSONError(w, "Failed to fetch sitemap: "+err.Error(), http.StatusBadRequest)
		default:
			slog.Error("Failed to fetch sitemap", "url", sitemapURL, "error", err)
			h.writeJSONError(w, fmt.Sprintf("Failed to fetch sitemap: %s", err), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, response.SitemapResponse{URLs: urls})
}

// HandleSubmit forwards a submission payload to IndexNow.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req request.ProxySubmitRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	// An empty urlList is forwarded; only a missing one is rejected.
	if req.Host == "" || req.Key == "" || req.URLList == nil {
		h.writeJSONError(w, "Missing required fields: host, key, urlList", http.StatusBadRequest)
		return
	}

	if err := h.indexNow.Submit(r.Context(), req); err != nil {
		var remoteErr *repository.RemoteError
		if errors.As(err, &remoteErr) {
			h.writeJSONError(w, remoteErr.Body, remoteErr.StatusCode)
			return
		}
		slog.Error("Failed to submit to IndexNow", "host", req.Host, "error", err)
		h.writeJSONError(w, fmt.Sprintf("Failed to submit to IndexNow: %s", err), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.ProxySubmitResponse{Success: true, Message: "URLs submitted successfully"})
}

// HandleFetchContent returns the raw body of a page. Failures are reported
// through the status code only.
func (h *Handler) HandleFetchContent(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("url")
	if pageURL == "" {
		h.writeJSONError(w, "URL parameter is required", http.StatusBadRequest)
		return
	}

	body, err := h.pages.Fetch(r.Context(), pageURL)
	if err != nil {
		var remoteErr *repository.RemoteError
		switch {
		case errors.As(err, &remoteErr):
			w.WriteHeader(remoteErr.StatusCode)
		case errors.Is(err, repository.ErrContentUnavailable):
			w.WriteHeader(http.StatusOK)
		default:
			slog.Warn("Failed to fetch content", "url", pageURL, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Error("Failed to write content response", "url", pageURL, "error", err)
	}
}
