// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/audiolog/internal/cache"
	"github.com/tomtom215/audiolog/internal/models"
)

// Ranking targets.
const (
	TargetArtist = "artist"
	TargetAlbum  = "album"
	TargetTrack  = "track"
)

var validTargets = []string{TargetArtist, TargetAlbum, TargetTrack}

// RankQuery describes a ranking request. Now is the caller's reference
// time; ArtistID and AlbumID optionally scope the ranking to one
// entity's events.
type RankQuery struct {
	Target   string
	Period   string
	FromDate string
	ToDate   string
	Limit    int
	ArtistID *int64
	AlbumID  *int64
	Now      time.Time
}

// rankCacheParams is the cache identity of a ranking request. Now is
// pre-truncated to the minute.
type rankCacheParams struct {
	Target   string    `json:"target"`
	Period   string    `json:"period"`
	FromDate string    `json:"from_date"`
	ToDate   string    `json:"to_date"`
	Limit    int       `json:"limit"`
	ArtistID *int64    `json:"artist_id"`
	AlbumID  *int64    `json:"album_id"`
	Now      time.Time `json:"now"`
}

// Rank returns the most-played entities of the requested target inside
// the resolved window. Entries are ordered by play count descending with
// ties broken by exact display name ascending, then id ascending, so the
// order is total and stable across runs. An empty window yields an empty
// list, not an error.
func (s *Service) Rank(ctx context.Context, q RankQuery) (*models.RankResponse, error) {
	target, err := validateTarget(q.Target)
	if err != nil {
		return nil, err
	}

	limit, err := s.validateLimit(q.Limit)
	if err != nil {
		return nil, err
	}

	window, err := ResolveWindow(q.Period, q.FromDate, q.ToDate, q.Now, s.loc)
	if err != nil {
		return nil, err
	}

	params := rankCacheParams{
		Target:   target,
		Period:   window.Period,
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Limit:    limit,
		ArtistID: q.ArtistID,
		AlbumID:  q.AlbumID,
		Now:      cache.TruncateNow(q.Now),
	}
	if hit, ok := s.cached("rank", params); ok {
		if resp, ok := hit.(*models.RankResponse); ok {
			return resp, nil
		}
	}

	filter := window.Filter()
	filter.ArtistID = q.ArtistID
	filter.AlbumID = q.AlbumID

	resp := &models.RankResponse{
		Target: target,
		Window: window.Info(),
	}

	switch target {
	case TargetArtist:
		resp.Artists, err = s.store.TopArtists(ctx, filter, limit)
	case TargetAlbum:
		resp.Albums, err = s.store.TopAlbums(ctx, filter, limit)
	case TargetTrack:
		resp.Tracks, err = s.store.TopTracks(ctx, filter, limit)
	}
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	resp.Total, err = s.store.CountScrobbles(ctx, filter)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	s.storeResult("rank", params, resp)
	return resp, nil
}

func validateTarget(target string) (string, error) {
	for _, valid := range validTargets {
		if target == valid {
			return target, nil
		}
	}
	return "", ErrInvalidParameter("target", fmt.Sprintf("unknown target %q", target), validTargets...)
}

// validateLimit applies the configured default and bounds. Zero means
// "not given" and takes the default; anything outside [1, max] is
// rejected rather than clamped.
func (s *Service) validateLimit(limit int) (int, error) {
	if limit == 0 {
		return s.cfg.DefaultLimit, nil
	}
	if limit < 1 || limit > s.cfg.MaxLimit {
		return 0, ErrInvalidParameter("limit",
			fmt.Sprintf("must be between 1 and %d", s.cfg.MaxLimit))
	}
	return limit, nil
}
