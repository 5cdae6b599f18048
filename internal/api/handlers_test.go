// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/audiolog/internal/cache"
	"github.com/tomtom215/audiolog/internal/config"
	"github.com/tomtom215/audiolog/internal/database"
	"github.com/tomtom215/audiolog/internal/importer"
	"github.com/tomtom215/audiolog/internal/stats"
)

func testConfig() *config.Config {
	return &config.Config{
		Stats: config.StatsConfig{
			Timezone:     "UTC",
			CacheTTL:     time.Minute,
			BucketCap:    400,
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		Import: config.ImportConfig{
			BatchSize:    100,
			MaxBodyBytes: 1 << 20,
		},
	}
}

// newTestServer builds the full stack over a real in-memory store and
// returns a running test server.
func newTestServer(t *testing.T) *httptest.Server {
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

	cfg := testConfig()
	svc := stats.New(db, resultCache, &cfg.Stats)
	db.OnBulkMutation(svc.Invalidate)

	imp := importer.New(&cfg.Import, db)
	handler := NewHandler(svc, imp, db, cfg)
	router := NewRouter(handler, cfg)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

// seedCSV uploads a scrobble history through the import endpoint.
func seedCSV(t *testing.T, srv *httptest.Server, csvBody string) {
	t.Helper()

	resp, err := http.Post(srv.URL+"/api/v1/import", "text/csv", strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("import request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed import returned status %d", resp.StatusCode)
	}
}

// testCSV builds a small listening history: three plays of one track by
// Nova, two plays by Cinder, one play by Aria, all in January 2025.
func testCSV() string {
	var b strings.Builder
	b.WriteString("artist,album,track,timestamp\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "Nova,Aurora,Daybreak,2025-01-%02dT10:00:00Z\n", 10+i)
	}
	for i := 0; i < 2; i++ {
		fmt.Fprintf(&b, "Cinder,Embers,Ashfall,2025-01-%02dT12:00:00Z\n", 10+i)
	}
	b.WriteString("Aria,Skylines,Horizon,2025-01-15T08:00:00Z\n")
	return b.String()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func getEnvelope(t *testing.T, srv *httptest.Server, path string) (int, envelope) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("GET %s: failed to decode response: %v", path, err)
	}
	return resp.StatusCode, env
}

func TestTopArtistsOrdering(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	status, env := getEnvelope(t, srv, "/api/v1/stats/top-artists?period=all")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got error: %+v", env.Error)
	}

	var data struct {
		Artists []struct {
			Name      string `json:"name"`
			PlayCount int    `json:"play_count"`
		} `json:"artists"`
		Total int `json:"total_plays_in_window"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}

	if len(data.Artists) != 3 {
		t.Fatalf("expected 3 artists, got %d", len(data.Artists))
	}
	if data.Artists[0].Name != "Nova" || data.Artists[0].PlayCount != 3 {
		t.Errorf("expected Nova with 3 plays first, got %q with %d", data.Artists[0].Name, data.Artists[0].PlayCount)
	}
	if data.Artists[1].Name != "Cinder" || data.Artists[1].PlayCount != 2 {
		t.Errorf("expected Cinder with 2 plays second, got %q with %d", data.Artists[1].Name, data.Artists[1].PlayCount)
	}
	if data.Total != 6 {
		t.Errorf("expected 6 total plays in window, got %d", data.Total)
	}
}

func TestTopArtistsLimitValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		path string
	}{
		{"limit too large", "/api/v1/stats/top-artists?limit=101"},
		{"limit zero", "/api/v1/stats/top-artists?limit=-1"},
		{"bad period token", "/api/v1/stats/top-artists?period=14d"},
		{"bad date format", "/api/v1/stats/top-artists?from=2025/01/01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := getEnvelope(t, srv, tt.path)
			if status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", status)
			}
			if env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
				t.Errorf("expected %s error, got %+v", ErrCodeValidationFailed, env.Error)
			}
		})
	}
}

func TestTopTracksScopedByArtistID(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	status, env := getEnvelope(t, srv, "/api/v1/stats/top-tracks?period=all&artist_id=1")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var data struct {
		Tracks []struct {
			Name string `json:"name"`
		} `json:"tracks"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if len(data.Tracks) != 1 {
		t.Fatalf("expected exactly 1 track for artist 1, got %d", len(data.Tracks))
	}
}

func TestTopTracksBadArtistID(t *testing.T) {
	srv := newTestServer(t)

	for _, raw := range []string{"abc", "0", "-3"} {
		status, env := getEnvelope(t, srv, "/api/v1/stats/top-tracks?artist_id="+raw)
		if status != http.StatusBadRequest {
			t.Errorf("artist_id=%s: expected 400, got %d", raw, status)
		}
		if env.Error == nil || env.Error.Code != ErrCodeInvalidParameter {
			t.Errorf("artist_id=%s: expected %s, got %+v", raw, ErrCodeInvalidParameter, env.Error)
		}
	}
}

func TestChartZeroFilledBuckets(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	status, env := getEnvelope(t, srv,
		"/api/v1/stats/chart?granularity=daily&from=2025-01-10&to=2025-01-12")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	var data struct {
		Buckets []struct {
			Label     string `json:"label"`
			PlayCount int    `json:"play_count"`
		} `json:"buckets"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}

	// Three calendar days, each present even when empty.
	if len(data.Buckets) != 3 {
		t.Fatalf("expected 3 daily buckets, got %d", len(data.Buckets))
	}
	if data.Buckets[0].Label != "2025-01-10" {
		t.Errorf("expected first bucket 2025-01-10, got %s", data.Buckets[0].Label)
	}
	if data.Buckets[0].PlayCount != 2 {
		t.Errorf("expected 2 plays on 2025-01-10, got %d", data.Buckets[0].PlayCount)
	}
}

func TestChartDefaultGranularity(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	status, env := getEnvelope(t, srv, "/api/v1/stats/chart?period=all")
	if status != http.StatusOK {
		t.Fatalf("expected 200 without granularity param, got %d", status)
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got error: %+v", env.Error)
	}

	var data struct {
		Granularity string `json:"granularity"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Granularity != "monthly" && data.Granularity != "yearly" {
		t.Errorf("expected auto-resolved granularity, got %q", data.Granularity)
	}
}

func TestChartTooManyBuckets(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	status, env := getEnvelope(t, srv,
		"/api/v1/stats/chart?granularity=daily&from=2020-01-01&to=2025-01-01")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if env.Error == nil || env.Error.Code != ErrCodeTooManyBuckets {
		t.Errorf("expected %s, got %+v", ErrCodeTooManyBuckets, env.Error)
	}
}

func TestSummaryCounts(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	status, env := getEnvelope(t, srv, "/api/v1/stats/summary")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	var data struct {
		TotalPlays    int `json:"total_plays"`
		UniqueArtists int `json:"unique_artists"`
		UniqueTracks  int `json:"unique_tracks"`
		TopArtist     *struct {
			Name string `json:"name"`
		} `json:"top_artist"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.TotalPlays != 6 {
		t.Errorf("expected 6 plays, got %d", data.TotalPlays)
	}
	if data.UniqueArtists != 3 {
		t.Errorf("expected 3 unique artists, got %d", data.UniqueArtists)
	}
	if data.UniqueTracks != 3 {
		t.Errorf("expected 3 unique tracks, got %d", data.UniqueTracks)
	}
	if data.TopArtist == nil || data.TopArtist.Name != "Nova" {
		t.Errorf("expected top artist Nova, got %+v", data.TopArtist)
	}
}

func TestRecentTracks(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	status, env := getEnvelope(t, srv, "/api/v1/stats/recent-tracks?limit=2")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	var data []struct {
		Track     string    `json:"track"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("expected 2 recent tracks, got %d", len(data))
	}
	if data[0].Timestamp.Before(data[1].Timestamp) {
		t.Errorf("recent tracks not in descending time order")
	}

	status, env = getEnvelope(t, srv, "/api/v1/stats/recent-tracks?limit=51")
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for limit=51, got %d", status)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
		t.Errorf("expected %s, got %+v", ErrCodeValidationFailed, env.Error)
	}
}

func TestArtistDetailByNameAndID(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	for _, ref := range []string{"Nova", "1"} {
		status, env := getEnvelope(t, srv, "/api/v1/artists/"+ref+"?period=all")
		if status != http.StatusOK {
			t.Fatalf("ref=%s: expected 200, got %d", ref, status)
		}
		var data struct {
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
			PlayCount int `json:"play_count"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("ref=%s: failed to decode data: %v", ref, err)
		}
		if data.Artist.Name != "Nova" {
			t.Errorf("ref=%s: expected artist Nova, got %q", ref, data.Artist.Name)
		}
		if data.PlayCount != 3 {
			t.Errorf("ref=%s: expected 3 plays, got %d", ref, data.PlayCount)
		}
	}
}

func TestArtistDetailNotFound(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	status, env := getEnvelope(t, srv, "/api/v1/artists/Nobody")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("expected %s, got %+v", ErrCodeNotFound, env.Error)
	}
}

func TestAlbumDetail(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	status, env := getEnvelope(t, srv, "/api/v1/albums/Aurora?period=all")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var data struct {
		Album struct {
			Name string `json:"name"`
		} `json:"album"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Album.Name != "Aurora" {
		t.Errorf("expected album Aurora, got %q", data.Album.Name)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, env := getEnvelope(t, srv, "/api/v1/health/live")
	if status != http.StatusOK || !env.Success {
		t.Errorf("live: expected 200 success, got %d %+v", status, env.Error)
	}

	status, env = getEnvelope(t, srv, "/api/v1/health/ready")
	if status != http.StatusOK || !env.Success {
		t.Errorf("ready: expected 200 success, got %d %+v", status, env.Error)
	}

	status, env = getEnvelope(t, srv, "/api/v1/health")
	if status != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", status)
	}
	var data struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.Status != "ok" || data.Database != "ok" {
		t.Errorf("expected ok/ok, got %s/%s", data.Status, data.Database)
	}
}

func TestImportReplaceMode(t *testing.T) {
	srv := newTestServer(t)
	seedCSV(t, srv, testCSV())

	replacement := "artist,album,track,timestamp\nSolo,Single,OnlyTrack,2025-02-01T00:00:00Z\n"
	resp, err := http.Post(srv.URL+"/api/v1/import?mode=replace", "text/csv", strings.NewReader(replacement))
	if err != nil {
		t.Fatalf("replace import failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	status, env := getEnvelope(t, srv, "/api/v1/stats/summary")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var data struct {
		TotalPlays int `json:"total_plays"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if data.TotalPlays != 1 {
		t.Errorf("expected 1 play after replace, got %d", data.TotalPlays)
	}
}

func TestImportRejectsBadMode(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/import?mode=merge", "text/csv", strings.NewReader(testCSV()))
	if err != nil {
		t.Fatalf("import request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad mode, got %d", resp.StatusCode)
	}
}

func TestImportRejectsEmptyBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/import", "text/csv", strings.NewReader(""))
	if err != nil {
		t.Fatalf("import request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty body, got %d", resp.StatusCode)
	}
}

func TestImportMultipartUpload(t *testing.T) {
	srv := newTestServer(t)

	var body strings.Builder
	boundary := "testboundary123"
	body.WriteString("--" + boundary + "\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"mode\"\r\n\r\nappend\r\n")
	body.WriteString("--" + boundary + "\r\n")
	body.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"history.csv\"\r\n")
	body.WriteString("Content-Type: text/csv\r\n\r\n")
	body.WriteString(testCSV())
	body.WriteString("\r\n--" + boundary + "--\r\n")

	resp, err := http.Post(srv.URL+"/api/v1/import",
		"multipart/form-data; boundary="+boundary, strings.NewReader(body.String()))
	if err != nil {
		t.Fatalf("multipart import failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	var result struct {
		ScrobblesAdded int `json:"scrobbles_added"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if result.ScrobblesAdded != 6 {
		t.Errorf("expected 6 scrobbles added, got %d", result.ScrobblesAdded)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /metrics, got %d", resp.StatusCode)
	}
}
