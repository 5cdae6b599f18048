// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package database

import (
	"strings"
	"time"
)

// EventFilter narrows scrobble queries to a time window and an optional
// entity scope. All fields are optional and combine with AND.
//
// The window is half-open: Start is inclusive, End is exclusive. Nil
// means unbounded on that side. Scope ids refer to the surrogate ids in
// the catalog tables.
type EventFilter struct {
	Start    *time.Time
	End      *time.Time
	ArtistID *int64
	AlbumID  *int64
	TrackID  *int64
}

// buildEventConditions turns an EventFilter into WHERE clause fragments
// and their arguments. The fragments reference the standard aliases used
// by every scrobble query: `s` for scrobbles and `t` for tracks.
func buildEventConditions(filter EventFilter) ([]string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}

	if filter.Start != nil {
		clauses = append(clauses, "s.timestamp >= ?")
		args = append(args, filter.Start.UTC())
	}
	if filter.End != nil {
		clauses = append(clauses, "s.timestamp < ?")
		args = append(args, filter.End.UTC())
	}
	if filter.ArtistID != nil {
		clauses = append(clauses, "t.artist_id = ?")
		args = append(args, *filter.ArtistID)
	}
	if filter.AlbumID != nil {
		clauses = append(clauses, "t.album_id = ?")
		args = append(args, *filter.AlbumID)
	}
	if filter.TrackID != nil {
		clauses = append(clauses, "s.track_id = ?")
		args = append(args, *filter.TrackID)
	}

	return clauses, args
}

// whereClause joins condition fragments into a WHERE clause, or returns
// an empty string when there are no conditions.
func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}
