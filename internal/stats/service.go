// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

// Package stats is the listening-statistics engine: time window
// resolution, rankings, calendar-aligned time series, entity drill-down,
// and the dashboard summary.
//
// The engine reads through the narrow Store interface and never calls
// the clock: every operation takes the reference time from its query so
// results are reproducible and cacheable. Computed results are cached
// with a key that includes the reference time truncated to the minute.
package stats

import (
	"context"
	"time"

	"github.com/tomtom215/audiolog/internal/cache"
	"github.com/tomtom215/audiolog/internal/config"
	"github.com/tomtom215/audiolog/internal/database"
	"github.com/tomtom215/audiolog/internal/logging"
	"github.com/tomtom215/audiolog/internal/metrics"
	"github.com/tomtom215/audiolog/internal/models"
)

// Store is the read surface the engine needs from the scrobble store.
// *database.DB satisfies it; tests substitute an in-memory fake.
type Store interface {
	TopArtists(ctx context.Context, filter database.EventFilter, limit int) ([]models.RankedArtist, error)
	TopAlbums(ctx context.Context, filter database.EventFilter, limit int) ([]models.RankedAlbum, error)
	TopTracks(ctx context.Context, filter database.EventFilter, limit int) ([]models.RankedTrack, error)
	CountScrobbles(ctx context.Context, filter database.EventFilter) (int, error)
	DistinctCounts(ctx context.Context, filter database.EventFilter) (artists, albums, tracks int, err error)
	FirstLastScrobble(ctx context.Context, filter database.EventFilter) (first, last *time.Time, err error)
	ScrobbleTimestamps(ctx context.Context, filter database.EventFilter) ([]time.Time, error)
	RecentTracks(ctx context.Context, limit int) ([]models.RecentTrack, error)
	TrackDurationStats(ctx context.Context) (avgSeconds float64, withDuration int, err error)

	ArtistByID(ctx context.Context, id int64) (*models.Artist, error)
	ArtistByMBID(ctx context.Context, mbid string) (*models.Artist, error)
	ArtistByName(ctx context.Context, name string) (*models.Artist, error)
	AlbumByID(ctx context.Context, id int64) (*models.Album, error)
	AlbumByMBID(ctx context.Context, mbid string) (*models.Album, error)
	AlbumByName(ctx context.Context, name string) (*models.Album, error)
}

// Service computes listening statistics over a Store, caching results.
type Service struct {
	store Store
	cache *cache.Cache
	cfg   *config.StatsConfig
	loc   *time.Location
}

// New creates a statistics service. The cache may be nil, in which case
// every query recomputes.
func New(store Store, resultCache *cache.Cache, cfg *config.StatsConfig) *Service {
	return &Service{
		store: store,
		cache: resultCache,
		cfg:   cfg,
		loc:   cfg.Location(),
	}
}

// Invalidate drops every cached result. Wired to the store's
// bulk-mutation callback so imports take effect immediately.
func (s *Service) Invalidate() {
	if s.cache == nil {
		return
	}
	s.cache.Clear()
	metrics.RecordCacheInvalidation()
	logging.Debug().Msg("Statistics cache cleared")
}

// cached returns the cached value for (op, params) when present.
func (s *Service) cached(op string, params interface{}) (interface{}, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, ok := s.cache.Get(cache.GenerateKey(op, params))
	if ok {
		metrics.RecordCacheHit("stats")
	} else {
		metrics.RecordCacheMiss("stats")
	}
	return value, ok
}

// store stores a computed result for (op, params).
func (s *Service) storeResult(op string, params, value interface{}) {
	if s.cache == nil {
		return
	}
	s.cache.Set(cache.GenerateKey(op, params), value)
}
