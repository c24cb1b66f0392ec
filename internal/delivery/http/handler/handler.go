package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/indexnow-service/internal/repository"
	"github.com/user/indexnow-service/internal/usecase"
)

// Dependencies are the collaborators the handlers serve.
type Dependencies struct {
	Sites      *usecase.SiteManager
	Reconciler *usecase.Reconciler
	Submitter  *usecase.Submitter
	Sitemaps   repository.SitemapFetcher
	Pages      repository.ContentFetcher
	IndexNow   repository.IndexNowClient
}

type Handler struct {
	sites      *usecase.SiteManager
	reconciler *usecase.Reconciler
	submitter  *usecase.Submitter
	sitemaps   repository.SitemapFetcher
	pages      repository.ContentFetcher
	indexNow   repository.IndexNowClient
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		sites:      deps.Sites,
		reconciler: deps.Reconciler,
		submitter:  deps.Submitter,
		sitemaps:   deps.Sitemaps,
		pages:      deps.Pages,
		indexNow:   deps.IndexNow,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeUsecaseError maps usecase errors onto HTTP statuses.
func (h *Handler) writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrSiteNotFound), errors.Is(err, usecase.ErrNoActiveSite):
		h.writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvalidInput):
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, new(*repository.RemoteError)), errors.Is(err, repository.ErrSitemapParse),
		errors.Is(err, repository.ErrContentUnavailable):
		h.writeJSONError(w, err.Error(), http.StatusBadGateway)
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
