// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// initialize creates tables, indexes, and seeds the catalog version.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	if err := db.createIndexes(); err != nil {
		return err
	}
	return db.seedMeta()
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the table creation SQL statements.
//
// Surrogate ids come from sequences; MusicBrainz ids (mbid) are kept as
// plain nullable TEXT because upstream data frequently lacks them.
// Timestamps are stored as UTC TIMESTAMP.
func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS artists_id_seq`,
		`CREATE SEQUENCE IF NOT EXISTS albums_id_seq`,
		`CREATE SEQUENCE IF NOT EXISTS tracks_id_seq`,
		`CREATE SEQUENCE IF NOT EXISTS scrobbles_id_seq`,

		`CREATE TABLE IF NOT EXISTS artists (
			id BIGINT PRIMARY KEY DEFAULT nextval('artists_id_seq'),
			name TEXT NOT NULL,
			mbid TEXT,
			url TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS albums (
			id BIGINT PRIMARY KEY DEFAULT nextval('albums_id_seq'),
			name TEXT NOT NULL,
			artist_id BIGINT NOT NULL,
			mbid TEXT,
			url TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS tracks (
			id BIGINT PRIMARY KEY DEFAULT nextval('tracks_id_seq'),
			name TEXT NOT NULL,
			artist_id BIGINT NOT NULL,
			album_id BIGINT,
			mbid TEXT,
			url TEXT,
			duration INTEGER
		)`,

		// UNIQUE(track_id, timestamp) lets bulk import rely on
		// ON CONFLICT DO NOTHING for scrobble-level deduplication.
		`CREATE TABLE IF NOT EXISTS scrobbles (
			id BIGINT PRIMARY KEY DEFAULT nextval('scrobbles_id_seq'),
			track_id BIGINT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			source_ref_id TEXT,
			UNIQUE (track_id, timestamp)
		)`,

		`CREATE TABLE IF NOT EXISTS catalog_meta (
			key TEXT PRIMARY KEY,
			value BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS import_batches (
			id UUID PRIMARY KEY,
			mode TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			rows_read INTEGER NOT NULL DEFAULT 0,
			rows_skipped INTEGER NOT NULL DEFAULT 0,
			scrobbles_added INTEGER NOT NULL DEFAULT 0,
			artists_created INTEGER NOT NULL DEFAULT 0,
			albums_created INTEGER NOT NULL DEFAULT 0,
			tracks_created INTEGER NOT NULL DEFAULT 0,
			catalog_version BIGINT NOT NULL DEFAULT 0
		)`,
	}
}

// createIndexes creates indexes for the common query patterns: window
// scans over scrobbles, catalog joins, and entity resolution by mbid or
// exact name.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_scrobbles_timestamp ON scrobbles(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_scrobbles_track ON scrobbles(track_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album_id)`,
		`CREATE INDEX IF NOT EXISTS idx_albums_artist ON albums(artist_id)`,
		`CREATE INDEX IF NOT EXISTS idx_artists_mbid ON artists(mbid)`,
		`CREATE INDEX IF NOT EXISTS idx_albums_mbid ON albums(mbid)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_mbid ON tracks(mbid)`,
		`CREATE INDEX IF NOT EXISTS idx_artists_name ON artists(name)`,
		`CREATE INDEX IF NOT EXISTS idx_albums_name ON albums(name)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_name ON tracks(name)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}

// seedMeta ensures the catalog version row exists.
func (db *DB) seedMeta() error {
	ctx, cancel := schemaContext()
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO catalog_meta (key, value) VALUES ('catalog_version', 0)
		 ON CONFLICT (key) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("failed to seed catalog version: %w", err)
	}
	return nil
}
