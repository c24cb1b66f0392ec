package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/indexnow-service/internal/delivery/http/handler"
	"github.com/user/indexnow-service/internal/delivery/http/middleware"
	"github.com/user/indexnow-service/pkg/metrics"
)

// Options tune the router.
type Options struct {
	// AllowedOrigins for CORS. Empty allows every origin.
	AllowedOrigins []string
	// RequestTimeout bounds each request. Zero means 60s.
	RequestTimeout time.Duration
}

func New(h *handler.Handler, opts Options) http.Handler {
	metrics.Init()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(chimw.Timeout(timeout))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)

		// Proxy endpoints used by browser clients that cannot call third parties directly.
		r.Get("/sitemap", h.HandleSitemap)
		r.Post("/submit", h.HandleSubmit)
		r.Get("/fetch-content", h.HandleFetchContent)

		r.Route("/sites", func(r chi.Router) {
			r.Get("/", h.HandleListSites)
			r.Post("/", h.HandleCreateSite)
			r.Get("/active", h.HandleActiveSite)

			r.Route("/{siteID}", func(r chi.Router) {
				r.Get("/", h.HandleGetSite)
				r.Patch("/", h.HandleRenameSite)
				r.Delete("/", h.HandleDeleteSite)
				r.Post("/select", h.HandleSelectSite)

				r.Get("/settings", h.HandleGetSettings)
				r.Put("/settings", h.HandleUpdateSettings)

				r.Get("/urls", h.HandleListURLs)
				r.Post("/urls", h.HandleAddURLs)
				r.Delete("/urls", h.HandleClearURLs)
				r.Delete("/urls/entry", h.HandleRemoveURL)

				r.Post("/submit", h.HandleSubmitSite)
			})
		})
	})

	return r
}
