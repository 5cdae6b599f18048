// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package stats

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tomtom215/audiolog/internal/cache"
	"github.com/tomtom215/audiolog/internal/database"
	"github.com/tomtom215/audiolog/internal/models"
)

// DetailQuery describes a drill-down request. Ref is resolved as a
// surrogate id, then a MusicBrainz id, then an exact name. Window
// parameters scope the nested rankings and chart; the basic facts are
// always all-time.
type DetailQuery struct {
	Ref      string
	Period   string
	FromDate string
	ToDate   string
	Limit    int
	Now      time.Time
}

type detailCacheParams struct {
	EntityType string    `json:"entity_type"`
	Ref        string    `json:"ref"`
	Period     string    `json:"period"`
	FromDate   string    `json:"from_date"`
	ToDate     string    `json:"to_date"`
	Limit      int       `json:"limit"`
	Now        time.Time `json:"now"`
}

// ArtistDetail resolves an artist reference and assembles its
// drill-down view.
func (s *Service) ArtistDetail(ctx context.Context, q DetailQuery) (*models.ArtistDetail, error) {
	limit, err := s.validateLimit(q.Limit)
	if err != nil {
		return nil, err
	}
	window, err := ResolveWindow(q.Period, q.FromDate, q.ToDate, q.Now, s.loc)
	if err != nil {
		return nil, err
	}

	params := detailCacheParams{
		EntityType: "artist",
		Ref:        q.Ref,
		Period:     window.Period,
		FromDate:   q.FromDate,
		ToDate:     q.ToDate,
		Limit:      limit,
		Now:        cache.TruncateNow(q.Now),
	}
	if hit, ok := s.cached("detail", params); ok {
		if detail, ok := hit.(*models.ArtistDetail); ok {
			return detail, nil
		}
	}

	artist, err := s.resolveArtist(ctx, q.Ref)
	if err != nil {
		return nil, err
	}

	allTime := database.EventFilter{ArtistID: &artist.ID}

	playCount, err := s.store.CountScrobbles(ctx, allTime)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	_, albumCount, trackCount, err := s.store.DistinctCounts(ctx, allTime)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	first, last, err := s.store.FirstLastScrobble(ctx, allTime)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	windowed := window.Filter()
	windowed.ArtistID = &artist.ID

	topAlbums, err := s.store.TopAlbums(ctx, windowed, limit)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	topTracks, err := s.store.TopTracks(ctx, windowed, limit)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	chart, err := s.Chart(ctx, ChartQuery{
		Granularity: GranularityAuto,
		Period:      q.Period,
		FromDate:    q.FromDate,
		ToDate:      q.ToDate,
		ArtistID:    &artist.ID,
		Now:         q.Now,
	})
	if err != nil {
		return nil, err
	}

	detail := &models.ArtistDetail{
		Artist:      *artist,
		PlayCount:   playCount,
		TrackCount:  trackCount,
		AlbumCount:  albumCount,
		FirstPlayed: first,
		LastPlayed:  last,
		TopAlbums:   topAlbums,
		TopTracks:   topTracks,
		Chart:       chart,
	}
	s.storeResult("detail", params, detail)
	return detail, nil
}

// AlbumDetail resolves an album reference and assembles its drill-down
// view.
func (s *Service) AlbumDetail(ctx context.Context, q DetailQuery) (*models.AlbumDetail, error) {
	limit, err := s.validateLimit(q.Limit)
	if err != nil {
		return nil, err
	}
	window, err := ResolveWindow(q.Period, q.FromDate, q.ToDate, q.Now, s.loc)
	if err != nil {
		return nil, err
	}

	params := detailCacheParams{
		EntityType: "album",
		Ref:        q.Ref,
		Period:     window.Period,
		FromDate:   q.FromDate,
		ToDate:     q.ToDate,
		Limit:      limit,
		Now:        cache.TruncateNow(q.Now),
	}
	if hit, ok := s.cached("detail", params); ok {
		if detail, ok := hit.(*models.AlbumDetail); ok {
			return detail, nil
		}
	}

	album, err := s.resolveAlbum(ctx, q.Ref)
	if err != nil {
		return nil, err
	}

	artist, err := s.store.ArtistByID(ctx, album.ArtistID)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	allTime := database.EventFilter{AlbumID: &album.ID}

	playCount, err := s.store.CountScrobbles(ctx, allTime)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	_, _, trackCount, err := s.store.DistinctCounts(ctx, allTime)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	first, last, err := s.store.FirstLastScrobble(ctx, allTime)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	windowed := window.Filter()
	windowed.AlbumID = &album.ID

	topTracks, err := s.store.TopTracks(ctx, windowed, limit)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	chart, err := s.Chart(ctx, ChartQuery{
		Granularity: GranularityAuto,
		Period:      q.Period,
		FromDate:    q.FromDate,
		ToDate:      q.ToDate,
		AlbumID:     &album.ID,
		Now:         q.Now,
	})
	if err != nil {
		return nil, err
	}

	detail := &models.AlbumDetail{
		Album:       *album,
		ArtistName:  artist.Name,
		PlayCount:   playCount,
		TrackCount:  trackCount,
		FirstPlayed: first,
		LastPlayed:  last,
		TopTracks:   topTracks,
		Chart:       chart,
	}
	s.storeResult("detail", params, detail)
	return detail, nil
}

// resolveArtist tries the reference as a surrogate id, then a
// MusicBrainz id, then an exact case-sensitive name.
func (s *Service) resolveArtist(ctx context.Context, ref string) (*models.Artist, error) {
	if ref == "" {
		return nil, ErrInvalidParameter("ref", "must not be empty")
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		artist, err := s.store.ArtistByID(ctx, id)
		if err == nil {
			return artist, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, ErrStoreUnavailable(err)
		}
	}

	artist, err := s.store.ArtistByMBID(ctx, ref)
	if err == nil {
		return artist, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, ErrStoreUnavailable(err)
	}

	artist, err = s.store.ArtistByName(ctx, ref)
	if err == nil {
		return artist, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, ErrStoreUnavailable(err)
	}

	return nil, ErrNotFound("artist", ref)
}

func (s *Service) resolveAlbum(ctx context.Context, ref string) (*models.Album, error) {
	if ref == "" {
		return nil, ErrInvalidParameter("ref", "must not be empty")
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		album, err := s.store.AlbumByID(ctx, id)
		if err == nil {
			return album, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, ErrStoreUnavailable(err)
		}
	}

	album, err := s.store.AlbumByMBID(ctx, ref)
	if err == nil {
		return album, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, ErrStoreUnavailable(err)
	}

	album, err = s.store.AlbumByName(ctx, ref)
	if err == nil {
		return album, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, ErrStoreUnavailable(err)
	}

	return nil, ErrNotFound("album", ref)
}
