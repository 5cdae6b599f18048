// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/audiolog/internal/logging"
	"github.com/tomtom215/audiolog/internal/models"
)

// Import modes. Append adds to the existing history; replace wipes all
// scrobbles first while keeping the entity catalog.
const (
	ImportModeAppend  = "append"
	ImportModeReplace = "replace"
)

// catalogIndex resolves incoming entities against the existing catalog.
// Lookup tries the MusicBrainz id first, then the exact text key, so an
// incoming row without an mbid still matches an entity imported with
// one.
type catalogIndex struct {
	byMBID map[string]int64
	byText map[string]int64
}

func newCatalogIndex() *catalogIndex {
	return &catalogIndex{
		byMBID: make(map[string]int64),
		byText: make(map[string]int64),
	}
}

func (ci *catalogIndex) add(mbid *string, textKey string, id int64) {
	if mbid != nil && *mbid != "" {
		ci.byMBID[*mbid] = mbid64(ci.byMBID[*mbid], id)
	}
	if _, exists := ci.byText[textKey]; !exists {
		ci.byText[textKey] = id
	}
}

// mbid64 keeps the first id registered for an mbid.
func mbid64(existing, candidate int64) int64 {
	if existing != 0 {
		return existing
	}
	return candidate
}

func (ci *catalogIndex) lookup(mbid *string, textKey string) (int64, bool) {
	if mbid != nil && *mbid != "" {
		if id, ok := ci.byMBID[*mbid]; ok {
			return id, true
		}
	}
	id, ok := ci.byText[textKey]
	return id, ok
}

// ImportScrobbles loads rows into the store in a single transaction.
//
// Entities are deduplicated by canonical key (mbid when present, exact
// text otherwise; album and track text keys qualified by artist).
// Scrobbles duplicating an existing (track, timestamp) pair are dropped
// by the store's unique constraint. On success the catalog version is
// bumped and registered bulk-mutation callbacks fire.
// rowsSkipped counts source rows the parser rejected before this call;
// it is carried through to the batch record and the result.
func (db *DB) ImportScrobbles(ctx context.Context, mode string, rows []models.ScrobbleImport, rowsSkipped, batchSize int) (*models.ImportResult, error) {
	if mode != ImportModeAppend && mode != ImportModeReplace {
		return nil, fmt.Errorf("invalid import mode %q", mode)
	}
	if batchSize <= 0 {
		batchSize = 1000
	}

	db.importMu.Lock()
	defer db.importMu.Unlock()

	started := time.Now()
	batchID := uuid.New()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Warn().Err(rbErr).Msg("Failed to roll back import transaction")
			}
		}
	}()

	if mode == ImportModeReplace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM scrobbles"); err != nil {
			return nil, fmt.Errorf("failed to clear scrobbles for replace import: %w", err)
		}
	}

	result := &models.ImportResult{
		BatchID:     batchID.String(),
		Mode:        mode,
		RowsRead:    len(rows) + rowsSkipped,
		RowsSkipped: rowsSkipped,
	}

	artists, albums, tracks, err := db.loadCatalogIndexes(ctx, tx)
	if err != nil {
		return nil, err
	}

	// Resolve entities row by row, then insert scrobbles in batches.
	scrobbles := make([]scrobbleInsert, 0, len(rows))
	for _, row := range rows {
		artistID, created, err := resolveArtist(ctx, tx, artists, row)
		if err != nil {
			return nil, err
		}
		if created {
			result.ArtistsCreated++
		}

		var albumID *int64
		if row.Album != "" {
			id, created, err := resolveAlbum(ctx, tx, albums, row, artistID)
			if err != nil {
				return nil, err
			}
			if created {
				result.AlbumsCreated++
			}
			albumID = &id
		}

		trackID, created, err := resolveTrack(ctx, tx, tracks, row, artistID, albumID)
		if err != nil {
			return nil, err
		}
		if created {
			result.TracksCreated++
		}

		scrobbles = append(scrobbles, scrobbleInsert{
			trackID:   trackID,
			timestamp: row.Timestamp.UTC(),
		})
	}

	added, err := insertScrobbleBatches(ctx, tx, scrobbles, batchSize)
	if err != nil {
		return nil, err
	}
	result.ScrobblesAdded = added

	version, err := bumpCatalogVersion(ctx, tx)
	if err != nil {
		return nil, err
	}
	result.CatalogVersion = version

	if err := recordImportBatch(ctx, tx, batchID, started, result); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import transaction: %w", err)
	}
	committed = true

	result.Duration = time.Since(started)
	result.DurationMs = result.Duration.Milliseconds()

	logging.Info().
		Str("batch_id", result.BatchID).
		Str("mode", mode).
		Int("scrobbles_added", result.ScrobblesAdded).
		Int("artists_created", result.ArtistsCreated).
		Int("albums_created", result.AlbumsCreated).
		Int("tracks_created", result.TracksCreated).
		Int64("catalog_version", result.CatalogVersion).
		Dur("duration", result.Duration).
		Msg("Import committed")

	db.notifyBulkMutation()

	return result, nil
}

type scrobbleInsert struct {
	trackID   int64
	timestamp time.Time
}

// loadCatalogIndexes reads the whole entity catalog into memory. The
// catalog is small relative to the scrobble history, so this is cheaper
// than a lookup query per row.
func (db *DB) loadCatalogIndexes(ctx context.Context, tx *sql.Tx) (artists, albums, tracks *catalogIndex, err error) {
	artists = newCatalogIndex()
	albums = newCatalogIndex()
	tracks = newCatalogIndex()

	rows, err := tx.QueryContext(ctx, "SELECT id, name, mbid FROM artists")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load artist catalog: %w", err)
	}
	for rows.Next() {
		var id int64
		var name string
		var mbid sql.NullString
		if err := rows.Scan(&id, &name, &mbid); err != nil {
			closeQuietly(rows)
			return nil, nil, nil, fmt.Errorf("failed to scan artist catalog row: %w", err)
		}
		artists.add(nullableString(mbid), name, id)
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return nil, nil, nil, fmt.Errorf("failed to iterate artist catalog: %w", err)
	}
	closeQuietly(rows)

	rows, err = tx.QueryContext(ctx, "SELECT id, name, artist_id, mbid FROM albums")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load album catalog: %w", err)
	}
	for rows.Next() {
		var id, artistID int64
		var name string
		var mbid sql.NullString
		if err := rows.Scan(&id, &name, &artistID, &mbid); err != nil {
			closeQuietly(rows)
			return nil, nil, nil, fmt.Errorf("failed to scan album catalog row: %w", err)
		}
		albums.add(nullableString(mbid), albumTextKey(artistID, name), id)
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return nil, nil, nil, fmt.Errorf("failed to iterate album catalog: %w", err)
	}
	closeQuietly(rows)

	rows, err = tx.QueryContext(ctx, "SELECT id, name, artist_id, mbid FROM tracks")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load track catalog: %w", err)
	}
	for rows.Next() {
		var id, artistID int64
		var name string
		var mbid sql.NullString
		if err := rows.Scan(&id, &name, &artistID, &mbid); err != nil {
			closeQuietly(rows)
			return nil, nil, nil, fmt.Errorf("failed to scan track catalog row: %w", err)
		}
		tracks.add(nullableString(mbid), trackTextKey(artistID, name), id)
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return nil, nil, nil, fmt.Errorf("failed to iterate track catalog: %w", err)
	}
	closeQuietly(rows)

	return artists, albums, tracks, nil
}

func albumTextKey(artistID int64, name string) string {
	return fmt.Sprintf("%d\x00%s", artistID, name)
}

func trackTextKey(artistID int64, name string) string {
	return fmt.Sprintf("%d\x00%s", artistID, name)
}

func resolveArtist(ctx context.Context, tx *sql.Tx, idx *catalogIndex, row models.ScrobbleImport) (int64, bool, error) {
	if id, ok := idx.lookup(row.ArtistMBID, row.Artist); ok {
		return id, false, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		"INSERT INTO artists (name, mbid) VALUES (?, ?) RETURNING id",
		row.Artist, row.ArtistMBID).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert artist %q: %w", row.Artist, err)
	}
	idx.add(row.ArtistMBID, row.Artist, id)
	return id, true, nil
}

func resolveAlbum(ctx context.Context, tx *sql.Tx, idx *catalogIndex, row models.ScrobbleImport, artistID int64) (int64, bool, error) {
	textKey := albumTextKey(artistID, row.Album)
	if id, ok := idx.lookup(row.AlbumMBID, textKey); ok {
		return id, false, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		"INSERT INTO albums (name, artist_id, mbid) VALUES (?, ?, ?) RETURNING id",
		row.Album, artistID, row.AlbumMBID).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert album %q: %w", row.Album, err)
	}
	idx.add(row.AlbumMBID, textKey, id)
	return id, true, nil
}

func resolveTrack(ctx context.Context, tx *sql.Tx, idx *catalogIndex, row models.ScrobbleImport, artistID int64, albumID *int64) (int64, bool, error) {
	textKey := trackTextKey(artistID, row.Track)
	if id, ok := idx.lookup(row.TrackMBID, textKey); ok {
		return id, false, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx,
		"INSERT INTO tracks (name, artist_id, album_id, mbid, duration) VALUES (?, ?, ?, ?, ?) RETURNING id",
		row.Track, artistID, albumID, row.TrackMBID, row.Duration).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert track %q: %w", row.Track, err)
	}
	idx.add(row.TrackMBID, textKey, id)
	return id, true, nil
}

// insertScrobbleBatches inserts scrobbles in multi-row batches. The
// unique (track_id, timestamp) constraint plus ON CONFLICT DO NOTHING
// drops duplicates, including duplicates within the incoming data.
func insertScrobbleBatches(ctx context.Context, tx *sql.Tx, scrobbles []scrobbleInsert, batchSize int) (int, error) {
	added := 0
	for start := 0; start < len(scrobbles); start += batchSize {
		end := start + batchSize
		if end > len(scrobbles) {
			end = len(scrobbles)
		}
		batch := scrobbles[start:end]

		placeholders := make([]string, len(batch))
		args := make([]interface{}, 0, len(batch)*2)
		for i, s := range batch {
			placeholders[i] = "(?, ?)"
			args = append(args, s.trackID, s.timestamp)
		}

		query := "INSERT INTO scrobbles (track_id, timestamp) VALUES " +
			strings.Join(placeholders, ", ") +
			" ON CONFLICT (track_id, timestamp) DO NOTHING"

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return added, fmt.Errorf("failed to insert scrobble batch: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return added, fmt.Errorf("failed to read scrobble batch result: %w", err)
		}
		added += int(affected)
	}
	return added, nil
}

func bumpCatalogVersion(ctx context.Context, tx *sql.Tx) (int64, error) {
	var version int64
	err := tx.QueryRowContext(ctx,
		"UPDATE catalog_meta SET value = value + 1 WHERE key = 'catalog_version' RETURNING value").
		Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to bump catalog version: %w", err)
	}
	return version, nil
}

func recordImportBatch(ctx context.Context, tx *sql.Tx, batchID uuid.UUID, started time.Time, result *models.ImportResult) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO import_batches
		 (id, mode, started_at, finished_at, rows_read, rows_skipped, scrobbles_added,
		  artists_created, albums_created, tracks_created, catalog_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batchID, result.Mode, started.UTC(), time.Now().UTC(),
		result.RowsRead, result.RowsSkipped, result.ScrobblesAdded,
		result.ArtistsCreated, result.AlbumsCreated, result.TracksCreated,
		result.CatalogVersion)
	if err != nil {
		return fmt.Errorf("failed to record import batch: %w", err)
	}
	return nil
}
