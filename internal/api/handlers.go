// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/audiolog/internal/config"
	"github.com/tomtom215/audiolog/internal/logging"
	"github.com/tomtom215/audiolog/internal/stats"
)

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	stats    *stats.Service
	importer ImportRunner
	health   HealthChecker
	cfg      *config.Config
}

// HealthChecker is the readiness surface the handlers need from the
// store. *database.DB satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
	CatalogVersion(ctx context.Context) (int64, error)
}

// NewHandler creates the API handlers.
func NewHandler(statsService *stats.Service, imp ImportRunner, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{
		stats:    statsService,
		importer: imp,
		health:   health,
		cfg:      cfg,
	}
}

// TopArtists handles GET /api/v1/stats/top-artists.
func (h *Handler) TopArtists(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, stats.TargetArtist)
}

// TopAlbums handles GET /api/v1/stats/top-albums.
func (h *Handler) TopAlbums(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, stats.TargetAlbum)
}

// TopTracks handles GET /api/v1/stats/top-tracks.
func (h *Handler) TopTracks(w http.ResponseWriter, r *http.Request) {
	h.rank(w, r, stats.TargetTrack)
}

func (h *Handler) rank(w http.ResponseWriter, r *http.Request, target string) {
	rw := NewResponseWriter(w, r)

	req := RankRequest{
		Period: r.URL.Query().Get("period"),
		From:   r.URL.Query().Get("from"),
		To:     r.URL.Query().Get("to"),
		Limit:  getIntParam(r, "limit", 0),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	artistID, ok := getInt64Param(rw, r, "artist_id")
	if !ok {
		return
	}
	albumID, ok := getInt64Param(rw, r, "album_id")
	if !ok {
		return
	}

	result, err := h.stats.Rank(r.Context(), stats.RankQuery{
		Target:   target,
		Period:   req.Period,
		FromDate: req.From,
		ToDate:   req.To,
		Limit:    req.Limit,
		ArtistID: artistID,
		AlbumID:  albumID,
		Now:      time.Now(),
	})
	if err != nil {
		respondStatsError(rw, err)
		return
	}

	rw.Success(result)
}

// Chart handles GET /api/v1/stats/chart.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := ChartRequest{
		Granularity: r.URL.Query().Get("granularity"),
		Period:      r.URL.Query().Get("period"),
		From:        r.URL.Query().Get("from"),
		To:          r.URL.Query().Get("to"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	artistID, ok := getInt64Param(rw, r, "artist_id")
	if !ok {
		return
	}
	albumID, ok := getInt64Param(rw, r, "album_id")
	if !ok {
		return
	}

	result, err := h.stats.Chart(r.Context(), stats.ChartQuery{
		Granularity: req.Granularity,
		Period:      req.Period,
		FromDate:    req.From,
		ToDate:      req.To,
		ArtistID:    artistID,
		AlbumID:     albumID,
		Now:         time.Now(),
	})
	if err != nil {
		respondStatsError(rw, err)
		return
	}

	rw.Success(result)
}

// Summary handles GET /api/v1/stats/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	result, err := h.stats.Summary(r.Context(), time.Now())
	if err != nil {
		respondStatsError(rw, err)
		return
	}

	rw.Success(result)
}

// RecentTracks handles GET /api/v1/stats/recent-tracks.
func (h *Handler) RecentTracks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := RecentRequest{Limit: getIntParam(r, "limit", 0)}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	result, err := h.stats.RecentTracks(r.Context(), req.Limit)
	if err != nil {
		respondStatsError(rw, err)
		return
	}

	rw.Success(result)
}

// ArtistDetail handles GET /api/v1/artists/{ref}.
func (h *Handler) ArtistDetail(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := h.detailRequest(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	result, err := h.stats.ArtistDetail(r.Context(), stats.DetailQuery{
		Ref:      req.Ref,
		Period:   req.Period,
		FromDate: req.From,
		ToDate:   req.To,
		Limit:    req.Limit,
		Now:      time.Now(),
	})
	if err != nil {
		respondStatsError(rw, err)
		return
	}

	rw.Success(result)
}

// AlbumDetail handles GET /api/v1/albums/{ref}.
func (h *Handler) AlbumDetail(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := h.detailRequest(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	result, err := h.stats.AlbumDetail(r.Context(), stats.DetailQuery{
		Ref:      req.Ref,
		Period:   req.Period,
		FromDate: req.From,
		ToDate:   req.To,
		Limit:    req.Limit,
		Now:      time.Now(),
	})
	if err != nil {
		respondStatsError(rw, err)
		return
	}

	rw.Success(result)
}

func (h *Handler) detailRequest(r *http.Request) DetailRequest {
	return DetailRequest{
		Ref:    chi.URLParam(r, "ref"),
		Period: r.URL.Query().Get("period"),
		From:   r.URL.Query().Get("from"),
		To:     r.URL.Query().Get("to"),
		Limit:  getIntParam(r, "limit", 0),
	}
}

// HealthLive handles GET /api/v1/health/live. Always 200 while the
// process accepts connections.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready. 503 until the store
// answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.health.Ping(r.Context()); err != nil {
		logging.Warn().Err(err).Msg("Readiness check failed")
		rw.ServiceUnavailable("database not ready")
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}

// Health handles GET /api/v1/health with store state details.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := map[string]interface{}{
		"status":   "ok",
		"database": "ok",
	}
	if err := h.health.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = "unavailable"
	} else if version, err := h.health.CatalogVersion(r.Context()); err == nil {
		status["catalog_version"] = version
	}

	rw.Success(status)
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getInt64Param extracts an optional positive int64 query parameter.
// Writes a 400 and returns ok=false when the value is present but not a
// positive integer.
func getInt64Param(rw *ResponseWriter, r *http.Request, key string) (*int64, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, true
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 1 {
		rw.Error(http.StatusBadRequest, ErrCodeInvalidParameter, key+" must be a positive integer")
		return nil, false
	}
	return &id, true
}
