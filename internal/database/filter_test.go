// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package database

import (
	"testing"
	"time"
)

func TestBuildEventConditionsEmpty(t *testing.T) {
	clauses, args := buildEventConditions(EventFilter{})
	if len(clauses) != 0 || len(args) != 0 {
		t.Errorf("empty filter produced %v / %v", clauses, args)
	}
	if got := whereClause(clauses); got != "" {
		t.Errorf("whereClause = %q, want empty", got)
	}
}

func TestBuildEventConditionsFull(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	artistID := int64(3)
	albumID := int64(7)
	trackID := int64(11)

	clauses, args := buildEventConditions(EventFilter{
		Start:    &start,
		End:      &end,
		ArtistID: &artistID,
		AlbumID:  &albumID,
		TrackID:  &trackID,
	})

	want := []string{
		"s.timestamp >= ?",
		"s.timestamp < ?",
		"t.artist_id = ?",
		"t.album_id = ?",
		"s.track_id = ?",
	}
	if len(clauses) != len(want) {
		t.Fatalf("got %d clauses, want %d", len(clauses), len(want))
	}
	for i := range want {
		if clauses[i] != want[i] {
			t.Errorf("clause %d = %q, want %q", i, clauses[i], want[i])
		}
	}
	if len(args) != 5 {
		t.Errorf("got %d args, want 5", len(args))
	}

	where := whereClause(clauses)
	if where != " WHERE s.timestamp >= ? AND s.timestamp < ? AND t.artist_id = ? AND t.album_id = ? AND s.track_id = ?" {
		t.Errorf("whereClause = %q", where)
	}
}

func TestBuildEventConditionsNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	start := time.Date(2022, 1, 1, 5, 0, 0, 0, loc)

	_, args := buildEventConditions(EventFilter{Start: &start})
	got, ok := args[0].(time.Time)
	if !ok {
		t.Fatalf("arg type %T, want time.Time", args[0])
	}
	if got.Location() != time.UTC {
		t.Errorf("start location = %v, want UTC", got.Location())
	}
	if !got.Equal(start) {
		t.Errorf("conversion changed the instant: %v vs %v", got, start)
	}
}
