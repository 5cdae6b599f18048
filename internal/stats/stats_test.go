// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/audiolog/internal/cache"
	"github.com/tomtom215/audiolog/internal/config"
	"github.com/tomtom215/audiolog/internal/database"
	"github.com/tomtom215/audiolog/internal/models"
)

func testStatsConfig() *config.StatsConfig {
	return &config.StatsConfig{
		Timezone:     "UTC",
		CacheTTL:     5 * time.Minute,
		BucketCap:    400,
		DefaultLimit: 10,
		MaxLimit:     100,
	}
}

// newTestService builds a service over a real in-memory store.
func newTestService(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "256MB",
		Threads:   1,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	resultCache := cache.New(time.Minute)
	t.Cleanup(resultCache.Close)

	svc := New(db, resultCache, testStatsConfig())
	db.OnBulkMutation(svc.Invalidate)
	return svc, db
}

func seed(t *testing.T, db *database.DB, rows []models.ScrobbleImport) {
	t.Helper()
	if _, err := db.ImportScrobbles(context.Background(), database.ImportModeAppend, rows, 0, 100); err != nil {
		t.Fatalf("seed import failed: %v", err)
	}
}

func play(artist, album, track string, ts time.Time) models.ScrobbleImport {
	return models.ScrobbleImport{Artist: artist, Album: album, Track: track, Timestamp: ts}
}

func utc(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

// failingStore implements Store with every method returning the same
// error, for exercising the StoreUnavailable mapping.
type failingStore struct {
	err error
}

func newFailingStore() *failingStore {
	return &failingStore{err: errors.New("connection refused")}
}

func (f *failingStore) TopArtists(context.Context, database.EventFilter, int) ([]models.RankedArtist, error) {
	return nil, f.err
}

func (f *failingStore) TopAlbums(context.Context, database.EventFilter, int) ([]models.RankedAlbum, error) {
	return nil, f.err
}

func (f *failingStore) TopTracks(context.Context, database.EventFilter, int) ([]models.RankedTrack, error) {
	return nil, f.err
}

func (f *failingStore) CountScrobbles(context.Context, database.EventFilter) (int, error) {
	return 0, f.err
}

func (f *failingStore) DistinctCounts(context.Context, database.EventFilter) (int, int, int, error) {
	return 0, 0, 0, f.err
}

func (f *failingStore) FirstLastScrobble(context.Context, database.EventFilter) (*time.Time, *time.Time, error) {
	return nil, nil, f.err
}

func (f *failingStore) ScrobbleTimestamps(context.Context, database.EventFilter) ([]time.Time, error) {
	return nil, f.err
}

func (f *failingStore) RecentTracks(context.Context, int) ([]models.RecentTrack, error) {
	return nil, f.err
}

func (f *failingStore) TrackDurationStats(context.Context) (float64, int, error) {
	return 0, 0, f.err
}

func (f *failingStore) ArtistByID(context.Context, int64) (*models.Artist, error) {
	return nil, f.err
}

func (f *failingStore) ArtistByMBID(context.Context, string) (*models.Artist, error) {
	return nil, f.err
}

func (f *failingStore) ArtistByName(context.Context, string) (*models.Artist, error) {
	return nil, f.err
}

func (f *failingStore) AlbumByID(context.Context, int64) (*models.Album, error) {
	return nil, f.err
}

func (f *failingStore) AlbumByMBID(context.Context, string) (*models.Album, error) {
	return nil, f.err
}

func (f *failingStore) AlbumByName(context.Context, string) (*models.Album, error) {
	return nil, f.err
}
