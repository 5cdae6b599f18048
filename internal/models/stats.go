// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package models

import (
	"time"
)

// RankedArtist is one row of a top-artists ranking.
type RankedArtist struct {
	ID        int64  `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	MBID      string `json:"mbid,omitempty"`
	PlayCount int    `json:"play_count"`
}

// RankedAlbum is one row of a top-albums ranking. Albums are ranked as a
// flat list and always carry the owning artist's display name.
type RankedAlbum struct {
	ID         int64  `json:"id"`
	Key        string `json:"key"`
	Name       string `json:"name"`
	ArtistID   int64  `json:"artist_id"`
	ArtistName string `json:"artist_name"`
	MBID       string `json:"mbid,omitempty"`
	PlayCount  int    `json:"play_count"`
}

// RankedTrack is one row of a top-tracks ranking. AlbumName is nil for
// tracks without an album reference, never a placeholder string.
type RankedTrack struct {
	ID         int64   `json:"id"`
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	ArtistID   int64   `json:"artist_id"`
	ArtistName string  `json:"artist_name"`
	AlbumName  *string `json:"album_name,omitempty"`
	MBID       string  `json:"mbid,omitempty"`
	PlayCount  int     `json:"play_count"`
}

// RankResponse is the result of a ranking query. Total counts every
// event in the window regardless of grouping, for share calculations.
type RankResponse struct {
	Target  string         `json:"target"`
	Window  WindowInfo     `json:"window"`
	Artists []RankedArtist `json:"artists,omitempty"`
	Albums  []RankedAlbum  `json:"albums,omitempty"`
	Tracks  []RankedTrack  `json:"tracks,omitempty"`
	Total   int            `json:"total_plays_in_window"`
}

// WindowInfo describes the resolved query window in the response.
type WindowInfo struct {
	Period string     `json:"period,omitempty"`
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`
}

// ChartBucket is one calendar-aligned histogram bucket. StartDate and
// EndDate are calendar dates in the display timezone; EndDate is the
// last day covered by the bucket (inclusive), matching chart tooltips.
type ChartBucket struct {
	Label     string `json:"label"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	PlayCount int    `json:"play_count"`
}

// ChartResponse is the result of a time-series query. Buckets are
// gapless: every calendar bucket between window start and end is present
// even with a zero count.
type ChartResponse struct {
	Granularity string        `json:"granularity"`
	Window      WindowInfo    `json:"window"`
	Buckets     []ChartBucket `json:"buckets"`
	Total       int           `json:"total_plays_in_window"`
}

// ArtistDetail is the drill-down view for one artist.
type ArtistDetail struct {
	Artist      Artist         `json:"artist"`
	PlayCount   int            `json:"play_count"`
	TrackCount  int            `json:"track_count"`
	AlbumCount  int            `json:"album_count"`
	FirstPlayed *time.Time     `json:"first_played,omitempty"`
	LastPlayed  *time.Time     `json:"last_played,omitempty"`
	TopAlbums   []RankedAlbum  `json:"top_albums"`
	TopTracks   []RankedTrack  `json:"top_tracks"`
	Chart       *ChartResponse `json:"chart,omitempty"`
}

// AlbumDetail is the drill-down view for one album.
type AlbumDetail struct {
	Album       Album          `json:"album"`
	ArtistName  string         `json:"artist_name"`
	PlayCount   int            `json:"play_count"`
	TrackCount  int            `json:"track_count"`
	FirstPlayed *time.Time     `json:"first_played,omitempty"`
	LastPlayed  *time.Time     `json:"last_played,omitempty"`
	TopTracks   []RankedTrack  `json:"top_tracks"`
	Chart       *ChartResponse `json:"chart,omitempty"`
}

// RecentTrack is one row of the recent-tracks listing.
type RecentTrack struct {
	Track     string    `json:"track"`
	Artist    string    `json:"artist"`
	Album     *string   `json:"album,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityStats summarizes recent listening activity. Daily averages are
// defined as zero when the day count is zero.
type ActivityStats struct {
	Plays7Days     int        `json:"plays_7_days"`
	Plays30Days    int        `json:"plays_30_days"`
	DailyAvg7Days  float64    `json:"daily_average_7_days"`
	DailyAvg30Days float64    `json:"daily_average_30_days"`
	LastPlayed     *time.Time `json:"last_played,omitempty"`
}

// ListeningTime estimates total listening time from the average known
// track duration. The 210 second fallback matches the common 3.5 minute
// song length when no duration metadata exists.
type ListeningTime struct {
	EstimatedSeconds   int64   `json:"estimated_total_seconds"`
	EstimatedHours     float64 `json:"estimated_total_hours"`
	AvgTrackDuration   float64 `json:"average_track_duration_seconds"`
	TracksWithDuration int     `json:"tracks_with_duration"`
}

// ListeningStreak counts consecutive days with at least one play, with
// days taken in the display timezone. The current streak is zero unless
// its latest day is today or yesterday.
type ListeningStreak struct {
	Current   int     `json:"current_streak"`
	Longest   int     `json:"longest_streak"`
	StartDate *string `json:"streak_start_date,omitempty"`
}

// Summary is the all-time dashboard response.
type Summary struct {
	TotalPlays    int             `json:"total_plays"`
	UniqueArtists int             `json:"unique_artists"`
	UniqueAlbums  int             `json:"unique_albums"`
	UniqueTracks  int             `json:"unique_tracks"`
	TopArtist     *RankedArtist   `json:"top_artist,omitempty"`
	TopAlbum      *RankedAlbum    `json:"top_album,omitempty"`
	TopTrack      *RankedTrack    `json:"top_track,omitempty"`
	Activity      ActivityStats   `json:"activity"`
	Streak        ListeningStreak `json:"streak"`
	ListeningTime ListeningTime   `json:"listening_time"`
}

// ImportResult reports a completed bulk import.
type ImportResult struct {
	BatchID        string        `json:"batch_id"`
	Mode           string        `json:"mode"` // "append" or "replace"
	RowsRead       int           `json:"rows_read"`
	RowsSkipped    int           `json:"rows_skipped"`
	ScrobblesAdded int           `json:"scrobbles_added"`
	ArtistsCreated int           `json:"artists_created"`
	AlbumsCreated  int           `json:"albums_created"`
	TracksCreated  int           `json:"tracks_created"`
	Duration       time.Duration `json:"-"`
	DurationMs     int64         `json:"duration_ms"`
	CatalogVersion int64         `json:"catalog_version"`
}
