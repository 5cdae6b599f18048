// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/audiolog/internal/logging"
	"github.com/tomtom215/audiolog/internal/models"
)

// Column layout of a scrobble CSV. The first four columns are required;
// the rest are optional and may be absent entirely.
const (
	colArtist = iota
	colAlbum
	colTrack
	colTimestamp
	colArtistMBID
	colAlbumMBID
	colTrackMBID
	colDuration

	minColumns = 4
)

// Parse reads a scrobble CSV into import rows.
//
// Expected columns: artist,album,track,timestamp and optionally
// artist_mbid,album_mbid,track_mbid,duration. A header row is detected
// and skipped. Timestamps are RFC 3339 or Unix seconds. Rows missing an
// artist, track, or parsable timestamp are skipped and counted; an
// unreadable stream is an error.
func Parse(r io.Reader) ([]models.ScrobbleImport, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // optional trailing columns
	reader.TrimLeadingSpace = true

	var rows []models.ScrobbleImport
	skipped := 0
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV at line %d: %w", line+1, err)
		}
		line++

		if line == 1 && isHeaderRow(record) {
			continue
		}

		row, ok := parseRecord(record)
		if !ok {
			skipped++
			logging.Debug().Int("line", line).Msg("Skipping malformed import row")
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

// isHeaderRow detects a header by its timestamp column: real rows have
// a parsable timestamp there, headers have a column name.
func isHeaderRow(record []string) bool {
	if len(record) < minColumns {
		return false
	}
	_, err := parseTimestamp(record[colTimestamp])
	return err != nil && strings.EqualFold(strings.TrimSpace(record[colArtist]), "artist")
}

func parseRecord(record []string) (models.ScrobbleImport, bool) {
	if len(record) < minColumns {
		return models.ScrobbleImport{}, false
	}

	artist := strings.TrimSpace(record[colArtist])
	track := strings.TrimSpace(record[colTrack])
	if artist == "" || track == "" {
		return models.ScrobbleImport{}, false
	}

	ts, err := parseTimestamp(record[colTimestamp])
	if err != nil {
		return models.ScrobbleImport{}, false
	}

	row := models.ScrobbleImport{
		Artist:    artist,
		Album:     strings.TrimSpace(record[colAlbum]),
		Track:     track,
		Timestamp: ts,
	}

	row.ArtistMBID = optionalField(record, colArtistMBID)
	row.AlbumMBID = optionalField(record, colAlbumMBID)
	row.TrackMBID = optionalField(record, colTrackMBID)

	if len(record) > colDuration {
		if seconds, err := strconv.Atoi(strings.TrimSpace(record[colDuration])); err == nil && seconds > 0 {
			row.Duration = &seconds
		}
	}

	return row, true
}

func optionalField(record []string, col int) *string {
	if len(record) <= col {
		return nil
	}
	value := strings.TrimSpace(record[col])
	if value == "" {
		return nil
	}
	return &value
}

// parseTimestamp accepts RFC 3339 or Unix seconds.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}

	if unix, err := strconv.ParseInt(value, 10, 64); err == nil && unix > 0 {
		return time.Unix(unix, 0).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
