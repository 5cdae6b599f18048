// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

// Package models defines the domain entities and API response shapes.
//
// The catalog model is a plain star schema: a Scrobble references a
// Track, a Track references an Artist and optionally an Album, an Album
// references an Artist. Entities are deduplicated at import time by
// canonical key (MusicBrainz ID when known, exact text otherwise) and are
// never merged again at query time.
package models

import (
	"fmt"
	"time"
)

// Artist represents a music artist.
type Artist struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	MBID *string `json:"mbid,omitempty"` // MusicBrainz ID
	URL  *string `json:"url,omitempty"`
}

// Album represents a music album owned by exactly one artist.
type Album struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	ArtistID int64   `json:"artist_id"`
	MBID     *string `json:"mbid,omitempty"`
	URL      *string `json:"url,omitempty"`
}

// Track represents a music track. The album reference is optional:
// singles and tracks scrobbled without album metadata are valid.
type Track struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	ArtistID int64   `json:"artist_id"`
	AlbumID  *int64  `json:"album_id,omitempty"`
	MBID     *string `json:"mbid,omitempty"`
	URL      *string `json:"url,omitempty"`
	Duration *int    `json:"duration,omitempty"` // seconds
}

// Scrobble is one immutable play event. Timestamps are stored in UTC.
type Scrobble struct {
	ID          int64     `json:"id"`
	TrackID     int64     `json:"track_id"`
	Timestamp   time.Time `json:"timestamp"`
	SourceRefID *string   `json:"source_ref_id,omitempty"` // reference id from the scrobbling service
}

// ScrobbleImport is one parsed play event headed for bulk import.
// Album fields are empty for tracks scrobbled without album metadata.
type ScrobbleImport struct {
	Artist     string
	Album      string
	Track      string
	Timestamp  time.Time
	ArtistMBID *string
	AlbumMBID  *string
	TrackMBID  *string
	Duration   *int // seconds, when the source provides it
}

// EntityKey is the canonical deduplication identity of an entity: the
// external catalog id (MBID) when present, otherwise the exact display
// text. Album text keys are additionally qualified by the owning artist
// id so two artists can have same-named albums. The key is resolved once
// at import time and stored; query-time code only reads it.
type EntityKey struct {
	MBID     string `json:"mbid,omitempty"`
	Text     string `json:"text,omitempty"`
	ArtistID int64  `json:"artist_id,omitempty"` // set for album text keys only
}

// ArtistKey returns the canonical key for an artist.
func ArtistKey(mbid *string, name string) EntityKey {
	if mbid != nil && *mbid != "" {
		return EntityKey{MBID: *mbid}
	}
	return EntityKey{Text: name}
}

// AlbumKey returns the canonical key for an album.
func AlbumKey(mbid *string, artistID int64, name string) EntityKey {
	if mbid != nil && *mbid != "" {
		return EntityKey{MBID: *mbid}
	}
	return EntityKey{Text: name, ArtistID: artistID}
}

// TrackKey returns the canonical key for a track.
func TrackKey(mbid *string, name string) EntityKey {
	if mbid != nil && *mbid != "" {
		return EntityKey{MBID: *mbid}
	}
	return EntityKey{Text: name}
}

// String renders the key in a stable, human-readable form.
func (k EntityKey) String() string {
	if k.MBID != "" {
		return "mbid:" + k.MBID
	}
	if k.ArtistID != 0 {
		return fmt.Sprintf("text:%d:%s", k.ArtistID, k.Text)
	}
	return "text:" + k.Text
}
