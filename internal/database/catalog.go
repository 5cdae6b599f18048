// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/audiolog/internal/models"
)

// ArtistByID returns the artist with the given surrogate id, or
// ErrNotFound.
func (db *DB) ArtistByID(ctx context.Context, id int64) (*models.Artist, error) {
	return db.queryArtist(ctx, "SELECT id, name, mbid, url FROM artists WHERE id = ?", id)
}

// ArtistByMBID returns the artist with the given MusicBrainz id. When
// duplicate rows share an mbid, the lowest id wins.
func (db *DB) ArtistByMBID(ctx context.Context, mbid string) (*models.Artist, error) {
	return db.queryArtist(ctx,
		"SELECT id, name, mbid, url FROM artists WHERE mbid = ? ORDER BY id LIMIT 1", mbid)
}

// ArtistByName returns the artist with the exact (case-sensitive) name.
func (db *DB) ArtistByName(ctx context.Context, name string) (*models.Artist, error) {
	return db.queryArtist(ctx,
		"SELECT id, name, mbid, url FROM artists WHERE name = ? ORDER BY id LIMIT 1", name)
}

func (db *DB) queryArtist(ctx context.Context, query string, args ...interface{}) (*models.Artist, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var a models.Artist
	err := db.scanRow(ctx, "artist_lookup", "artists", query, args, &a.ID, &a.Name, &a.MBID, &a.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query artist: %w", err)
	}
	return &a, nil
}

// AlbumByID returns the album with the given surrogate id, or
// ErrNotFound.
func (db *DB) AlbumByID(ctx context.Context, id int64) (*models.Album, error) {
	return db.queryAlbum(ctx,
		"SELECT id, name, artist_id, mbid, url FROM albums WHERE id = ?", id)
}

// AlbumByMBID returns the album with the given MusicBrainz id.
func (db *DB) AlbumByMBID(ctx context.Context, mbid string) (*models.Album, error) {
	return db.queryAlbum(ctx,
		"SELECT id, name, artist_id, mbid, url FROM albums WHERE mbid = ? ORDER BY id LIMIT 1", mbid)
}

// AlbumByName returns the album with the exact (case-sensitive) name.
// Names are only unique per artist, so the lowest id wins on collision.
func (db *DB) AlbumByName(ctx context.Context, name string) (*models.Album, error) {
	return db.queryAlbum(ctx,
		"SELECT id, name, artist_id, mbid, url FROM albums WHERE name = ? ORDER BY id LIMIT 1", name)
}

func (db *DB) queryAlbum(ctx context.Context, query string, args ...interface{}) (*models.Album, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var a models.Album
	err := db.scanRow(ctx, "album_lookup", "albums", query, args, &a.ID, &a.Name, &a.ArtistID, &a.MBID, &a.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query album: %w", err)
	}
	return &a, nil
}

// TrackByID returns the track with the given surrogate id, or
// ErrNotFound.
func (db *DB) TrackByID(ctx context.Context, id int64) (*models.Track, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var t models.Track
	err := db.scanRow(ctx, "track_lookup", "tracks",
		"SELECT id, name, artist_id, album_id, mbid, url, duration FROM tracks WHERE id = ?",
		[]interface{}{id}, &t.ID, &t.Name, &t.ArtistID, &t.AlbumID, &t.MBID, &t.URL, &t.Duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track: %w", err)
	}
	return &t, nil
}

// CatalogVersion returns the current catalog version. The version is
// bumped by every committed bulk mutation.
func (db *DB) CatalogVersion(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int64
	err := db.scanRow(ctx, "catalog_version", "catalog_meta",
		"SELECT value FROM catalog_meta WHERE key = 'catalog_version'", nil, &version)
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog version: %w", err)
	}
	return version, nil
}
