// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/audiolog/internal/config"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter constructs a Router from an already-built handler set.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	mwConfig := DefaultMiddlewareConfig()
	if len(cfg.API.CORSOrigins) > 0 {
		mwConfig.CORSAllowedOrigins = cfg.API.CORSOrigins
	}
	if cfg.API.RateLimitReqs > 0 {
		mwConfig.RateLimitRequests = cfg.API.RateLimitReqs
	}
	if cfg.API.RateLimitWindow > 0 {
		mwConfig.RateLimitWindow = cfg.API.RateLimitWindow
	}

	return &Router{
		handler:    handler,
		middleware: NewMiddleware(mwConfig),
	}
}

// Setup builds the full route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order. CORS must be
	// global so OPTIONS preflight requests are answered.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())
	r.Use(RequestLogging)

	// Health endpoints: permissive rate limiting so external monitors
	// can poll frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Read-only statistics endpoints. Results are cached server-side,
	// so the rate limit mainly guards against runaway dashboards.
	r.Route("/api/v1/stats", func(r chi.Router) {
		r.Use(router.middleware.RateLimitStats())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)

		r.Get("/top-artists", router.handler.TopArtists)
		r.Get("/top-albums", router.handler.TopAlbums)
		r.Get("/top-tracks", router.handler.TopTracks)
		r.Get("/chart", router.handler.Chart)
		r.Get("/summary", router.handler.Summary)
		r.Get("/recent-tracks", router.handler.RecentTracks)
	})

	// Entity detail endpoints. The {ref} parameter accepts a numeric id
	// or an exact name.
	r.Route("/api/v1/artists", func(r chi.Router) {
		r.Use(router.middleware.RateLimitStats())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Get("/{ref}", router.handler.ArtistDetail)
	})
	r.Route("/api/v1/albums", func(r chi.Router) {
		r.Use(router.middleware.RateLimitStats())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Get("/{ref}", router.handler.AlbumDetail)
	})

	// Import endpoint: strict rate limiting, a bulk import is expensive
	// and clears the result cache.
	r.Route("/api/v1/import", func(r chi.Router) {
		r.Use(router.middleware.RateLimitImport())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Post("/", router.handler.Import)
	})

	// Prometheus scrape endpoint.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
