// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/audiolog/internal/models"
)

// eventJoin is the FROM clause shared by every scrobble query. Filter
// conditions reference the `s` and `t` aliases.
const eventJoin = `FROM scrobbles s
	JOIN tracks t ON t.id = s.track_id`

// TopArtists returns the most-played artists inside the filter window,
// ordered by play count descending with deterministic tie-breaks: exact
// display name ascending (case-sensitive), then surrogate id ascending.
func (db *DB) TopArtists(ctx context.Context, filter EventFilter, limit int) ([]models.RankedArtist, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses, args := buildEventConditions(filter)
	query := `SELECT a.id, a.name, a.mbid, COUNT(*) AS play_count
	` + eventJoin + `
	JOIN artists a ON a.id = t.artist_id` +
		whereClause(clauses) + `
	GROUP BY a.id, a.name, a.mbid
	ORDER BY play_count DESC, a.name ASC, a.id ASC
	LIMIT ?`
	args = append(args, limit)

	rows, err := db.queryRows(ctx, "top_artists", "scrobbles", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top artists: %w", err)
	}
	defer closeWithLog(rows, "top artists rows")

	var results []models.RankedArtist
	for rows.Next() {
		var r models.RankedArtist
		var mbid sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &mbid, &r.PlayCount); err != nil {
			return nil, fmt.Errorf("failed to scan artist row: %w", err)
		}
		if mbid.Valid {
			r.MBID = mbid.String
		}
		r.Key = models.ArtistKey(nullableString(mbid), r.Name).String()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artist rows: %w", err)
	}

	return results, nil
}

// TopAlbums returns the most-played albums inside the filter window as a
// flat list carrying the owning artist's name. Scrobbles of tracks
// without an album reference are not represented here.
func (db *DB) TopAlbums(ctx context.Context, filter EventFilter, limit int) ([]models.RankedAlbum, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses, args := buildEventConditions(filter)
	query := `SELECT al.id, al.name, al.artist_id, ar.name, al.mbid, COUNT(*) AS play_count
	` + eventJoin + `
	JOIN albums al ON al.id = t.album_id
	JOIN artists ar ON ar.id = al.artist_id` +
		whereClause(clauses) + `
	GROUP BY al.id, al.name, al.artist_id, ar.name, al.mbid
	ORDER BY play_count DESC, al.name ASC, al.id ASC
	LIMIT ?`
	args = append(args, limit)

	rows, err := db.queryRows(ctx, "top_albums", "scrobbles", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top albums: %w", err)
	}
	defer closeWithLog(rows, "top albums rows")

	var results []models.RankedAlbum
	for rows.Next() {
		var r models.RankedAlbum
		var mbid sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.ArtistID, &r.ArtistName, &mbid, &r.PlayCount); err != nil {
			return nil, fmt.Errorf("failed to scan album row: %w", err)
		}
		if mbid.Valid {
			r.MBID = mbid.String
		}
		r.Key = models.AlbumKey(nullableString(mbid), r.ArtistID, r.Name).String()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate album rows: %w", err)
	}

	return results, nil
}

// TopTracks returns the most-played tracks inside the filter window.
// AlbumName is nil for tracks without an album reference.
func (db *DB) TopTracks(ctx context.Context, filter EventFilter, limit int) ([]models.RankedTrack, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses, args := buildEventConditions(filter)
	query := `SELECT t.id, t.name, t.artist_id, ar.name, al.name, t.mbid, COUNT(*) AS play_count
	` + eventJoin + `
	JOIN artists ar ON ar.id = t.artist_id
	LEFT JOIN albums al ON al.id = t.album_id` +
		whereClause(clauses) + `
	GROUP BY t.id, t.name, t.artist_id, ar.name, al.name, t.mbid
	ORDER BY play_count DESC, t.name ASC, t.id ASC
	LIMIT ?`
	args = append(args, limit)

	rows, err := db.queryRows(ctx, "top_tracks", "scrobbles", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top tracks: %w", err)
	}
	defer closeWithLog(rows, "top tracks rows")

	var results []models.RankedTrack
	for rows.Next() {
		var r models.RankedTrack
		var albumName, mbid sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.ArtistID, &r.ArtistName, &albumName, &mbid, &r.PlayCount); err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		if albumName.Valid {
			r.AlbumName = &albumName.String
		}
		if mbid.Valid {
			r.MBID = mbid.String
		}
		r.Key = models.TrackKey(nullableString(mbid), r.Name).String()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate track rows: %w", err)
	}

	return results, nil
}

// CountScrobbles returns the number of scrobbles matching the filter.
func (db *DB) CountScrobbles(ctx context.Context, filter EventFilter) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses, args := buildEventConditions(filter)
	query := `SELECT COUNT(*) ` + eventJoin + whereClause(clauses)

	var count int
	if err := db.scanRow(ctx, "count_scrobbles", "scrobbles", query, args, &count); err != nil {
		return 0, fmt.Errorf("failed to count scrobbles: %w", err)
	}
	return count, nil
}

// DistinctCounts returns the number of distinct artists, albums, and
// tracks among the scrobbles matching the filter. Tracks without an
// album do not contribute to the album count.
func (db *DB) DistinctCounts(ctx context.Context, filter EventFilter) (artists, albums, tracks int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses, args := buildEventConditions(filter)
	query := `SELECT COUNT(DISTINCT t.artist_id), COUNT(DISTINCT t.album_id), COUNT(DISTINCT s.track_id)
	` + eventJoin + whereClause(clauses)

	if err := db.scanRow(ctx, "distinct_counts", "scrobbles", query, args, &artists, &albums, &tracks); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count distinct entities: %w", err)
	}
	return artists, albums, tracks, nil
}

// FirstLastScrobble returns the earliest and latest scrobble timestamps
// matching the filter, via a direct min/max scan. Both are nil when no
// scrobbles match.
func (db *DB) FirstLastScrobble(ctx context.Context, filter EventFilter) (first, last *time.Time, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses, args := buildEventConditions(filter)
	query := `SELECT MIN(s.timestamp), MAX(s.timestamp) ` + eventJoin + whereClause(clauses)

	var minTS, maxTS sql.NullTime
	if err := db.scanRow(ctx, "first_last", "scrobbles", query, args, &minTS, &maxTS); err != nil {
		return nil, nil, fmt.Errorf("failed to query first/last scrobble: %w", err)
	}
	if minTS.Valid {
		t := minTS.Time.UTC()
		first = &t
	}
	if maxTS.Valid {
		t := maxTS.Time.UTC()
		last = &t
	}
	return first, last, nil
}

// ScrobbleTimestamps returns the UTC timestamps of all scrobbles
// matching the filter in ascending order. The bucketer assigns each one
// to a calendar bucket in the display timezone.
func (db *DB) ScrobbleTimestamps(ctx context.Context, filter EventFilter) ([]time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses, args := buildEventConditions(filter)
	query := `SELECT s.timestamp ` + eventJoin + whereClause(clauses) + `
	ORDER BY s.timestamp ASC`

	rows, err := db.queryRows(ctx, "timestamps", "scrobbles", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrobble timestamps: %w", err)
	}
	defer closeWithLog(rows, "scrobble timestamp rows")

	var timestamps []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan timestamp: %w", err)
		}
		timestamps = append(timestamps, ts.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timestamp rows: %w", err)
	}

	return timestamps, nil
}

// RecentTracks returns the newest scrobbles with their track, artist,
// and album names. Ties on timestamp break by insertion order, newest
// first.
func (db *DB) RecentTracks(ctx context.Context, limit int) ([]models.RecentTrack, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT t.name, ar.name, al.name, s.timestamp
	` + eventJoin + `
	JOIN artists ar ON ar.id = t.artist_id
	LEFT JOIN albums al ON al.id = t.album_id
	ORDER BY s.timestamp DESC, s.id DESC
	LIMIT ?`

	rows, err := db.queryRows(ctx, "recent_tracks", "scrobbles", query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent tracks: %w", err)
	}
	defer closeWithLog(rows, "recent track rows")

	var results []models.RecentTrack
	for rows.Next() {
		var r models.RecentTrack
		var albumName sql.NullString
		var ts time.Time
		if err := rows.Scan(&r.Track, &r.Artist, &albumName, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan recent track row: %w", err)
		}
		if albumName.Valid {
			r.Album = &albumName.String
		}
		r.Timestamp = ts.UTC()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent track rows: %w", err)
	}

	return results, nil
}

// TrackDurationStats returns the average duration in seconds across
// catalog tracks with a known duration, and how many such tracks exist.
// The average is 0 when no track has a duration.
func (db *DB) TrackDurationStats(ctx context.Context) (avgSeconds float64, withDuration int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var avg sql.NullFloat64
	err = db.scanRow(ctx, "duration_stats", "tracks",
		"SELECT AVG(duration), COUNT(*) FROM tracks WHERE duration IS NOT NULL",
		nil, &avg, &withDuration)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query track duration stats: %w", err)
	}
	if avg.Valid {
		avgSeconds = avg.Float64
	}
	return avgSeconds, withDuration, nil
}

// nullableString converts a NullString to the *string form the key
// constructors take.
func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
