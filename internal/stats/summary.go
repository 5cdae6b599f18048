// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/audiolog/internal/cache"
	"github.com/tomtom215/audiolog/internal/database"
	"github.com/tomtom215/audiolog/internal/models"
)

// fallbackTrackDuration is assumed when no track in the catalog has a
// known duration, in seconds.
const fallbackTrackDuration = 210

// Recent-tracks limits are independent of the ranking limits.
const (
	recentDefaultLimit = 10
	recentMaxLimit     = 50
)

type summaryCacheParams struct {
	Now time.Time `json:"now"`
}

// Summary assembles the dashboard overview: all-time totals, the top
// entity per category, recent activity, and the listening-time
// estimate. All derived averages define x/0 = 0.
func (s *Service) Summary(ctx context.Context, now time.Time) (*models.Summary, error) {
	params := summaryCacheParams{Now: cache.TruncateNow(now)}
	if hit, ok := s.cached("summary", params); ok {
		if summary, ok := hit.(*models.Summary); ok {
			return summary, nil
		}
	}

	allTime := database.EventFilter{}

	totalPlays, err := s.store.CountScrobbles(ctx, allTime)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	artists, albums, tracks, err := s.store.DistinctCounts(ctx, allTime)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	summary := &models.Summary{
		TotalPlays:    totalPlays,
		UniqueArtists: artists,
		UniqueAlbums:  albums,
		UniqueTracks:  tracks,
	}

	topArtists, err := s.store.TopArtists(ctx, allTime, 1)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	if len(topArtists) > 0 {
		summary.TopArtist = &topArtists[0]
	}

	topAlbums, err := s.store.TopAlbums(ctx, allTime, 1)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	if len(topAlbums) > 0 {
		summary.TopAlbum = &topAlbums[0]
	}

	topTracks, err := s.store.TopTracks(ctx, allTime, 1)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	if len(topTracks) > 0 {
		summary.TopTrack = &topTracks[0]
	}

	activity, err := s.activityStats(ctx, now)
	if err != nil {
		return nil, err
	}
	summary.Activity = *activity

	timestamps, err := s.store.ScrobbleTimestamps(ctx, allTime)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	summary.Streak = listeningStreak(timestamps, now, s.loc)

	listening, err := s.listeningTime(ctx, totalPlays)
	if err != nil {
		return nil, err
	}
	summary.ListeningTime = *listening

	s.storeResult("summary", params, summary)
	return summary, nil
}

// RecentTracks returns the newest scrobbles. The limit is independent
// of the ranking limits: 1 to 50, default 10.
func (s *Service) RecentTracks(ctx context.Context, limit int) ([]models.RecentTrack, error) {
	if limit == 0 {
		limit = recentDefaultLimit
	}
	if limit < 1 || limit > recentMaxLimit {
		return nil, ErrInvalidParameter("limit",
			fmt.Sprintf("must be between 1 and %d", recentMaxLimit))
	}

	recent, err := s.store.RecentTracks(ctx, limit)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	if recent == nil {
		recent = []models.RecentTrack{}
	}
	return recent, nil
}

func (s *Service) activityStats(ctx context.Context, now time.Time) (*models.ActivityStats, error) {
	end := now.UTC()
	start7 := end.AddDate(0, 0, -7)
	start30 := end.AddDate(0, 0, -30)

	plays7, err := s.store.CountScrobbles(ctx, database.EventFilter{Start: &start7, End: &end})
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	plays30, err := s.store.CountScrobbles(ctx, database.EventFilter{Start: &start30, End: &end})
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}
	_, last, err := s.store.FirstLastScrobble(ctx, database.EventFilter{})
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	return &models.ActivityStats{
		Plays7Days:     plays7,
		Plays30Days:    plays30,
		DailyAvg7Days:  safeDiv(float64(plays7), 7),
		DailyAvg30Days: safeDiv(float64(plays30), 30),
		LastPlayed:     last,
	}, nil
}

// listeningTime estimates total listening time as plays multiplied by
// the average known track duration, falling back to a typical track
// length when the catalog has no durations at all.
func (s *Service) listeningTime(ctx context.Context, totalPlays int) (*models.ListeningTime, error) {
	avg, withDuration, err := s.store.TrackDurationStats(ctx)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	if withDuration == 0 {
		avg = fallbackTrackDuration
	}

	seconds := int64(float64(totalPlays) * avg)
	return &models.ListeningTime{
		EstimatedSeconds:   seconds,
		EstimatedHours:     safeDiv(float64(seconds), 3600),
		AvgTrackDuration:   avg,
		TracksWithDuration: withDuration,
	}, nil
}

// listeningStreak finds runs of consecutive days with at least one
// play. Days are taken in the display timezone from ascending
// timestamps. The current streak counts backwards from the newest play
// day, and only while that day is today or yesterday; an older last
// play means the streak is broken, not paused.
func listeningStreak(timestamps []time.Time, now time.Time, loc *time.Location) models.ListeningStreak {
	var days []time.Time
	for _, ts := range timestamps {
		d := dayStart(ts.In(loc))
		if len(days) == 0 || d.After(days[len(days)-1]) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return models.ListeningStreak{}
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	streak := models.ListeningStreak{Longest: longest}

	yesterday := dayStart(now.In(loc)).AddDate(0, 0, -1)
	latest := days[len(days)-1]
	if latest.Before(yesterday) {
		return streak
	}

	start := len(days) - 1
	for start > 0 && days[start-1].AddDate(0, 0, 1).Equal(days[start]) {
		start--
	}
	streak.Current = len(days) - start
	startDate := days[start].Format("2006-01-02")
	streak.StartDate = &startDate
	return streak
}

// dayStart returns midnight of t's calendar day in t's location.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// safeDiv divides defining x/0 = 0.
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
