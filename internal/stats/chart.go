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
	"github.com/tomtom215/audiolog/internal/models"
)

// Chart granularities.
const (
	GranularityDaily   = "daily"
	GranularityMonthly = "monthly"
	GranularityYearly  = "yearly"
	GranularityAuto    = "auto"
)

var validGranularities = []string{GranularityDaily, GranularityMonthly, GranularityYearly, GranularityAuto}

// autoYearlyThreshold is the window span beyond which auto granularity
// switches from monthly to yearly.
const autoYearlyThreshold = 366 * 24 * time.Hour

// ChartQuery describes a time-series request. Scope fields narrow the
// series to one entity's events.
type ChartQuery struct {
	Granularity string
	Period      string
	FromDate    string
	ToDate      string
	ArtistID    *int64
	AlbumID     *int64
	Now         time.Time
}

type chartCacheParams struct {
	Granularity string    `json:"granularity"`
	Period      string    `json:"period"`
	FromDate    string    `json:"from_date"`
	ToDate      string    `json:"to_date"`
	ArtistID    *int64    `json:"artist_id"`
	AlbumID     *int64    `json:"album_id"`
	Now         time.Time `json:"now"`
}

// Chart builds a calendar-aligned, zero-filled play count series.
//
// Buckets are aligned to day, month, or year boundaries in the display
// timezone via calendar arithmetic, so a monthly bucket is February
// regardless of its length and a daily bucket is 23 or 25 hours across
// a DST change. Every bucket between the effective start and end is
// present even with a zero count. When the series would exceed the
// configured cap the request fails rather than silently coarsening.
func (s *Service) Chart(ctx context.Context, q ChartQuery) (*models.ChartResponse, error) {
	if q.Granularity == "" {
		q.Granularity = GranularityAuto
	}
	if err := validateGranularity(q.Granularity); err != nil {
		return nil, err
	}

	window, err := ResolveWindow(q.Period, q.FromDate, q.ToDate, q.Now, s.loc)
	if err != nil {
		return nil, err
	}

	params := chartCacheParams{
		Granularity: q.Granularity,
		Period:      window.Period,
		FromDate:    q.FromDate,
		ToDate:      q.ToDate,
		ArtistID:    q.ArtistID,
		AlbumID:     q.AlbumID,
		Now:         cache.TruncateNow(q.Now),
	}
	if hit, ok := s.cached("chart", params); ok {
		if resp, ok := hit.(*models.ChartResponse); ok {
			return resp, nil
		}
	}

	filter := window.Filter()
	filter.ArtistID = q.ArtistID
	filter.AlbumID = q.AlbumID

	// An unbounded window still charts [earliest event, now): bound the
	// store read so Total and the bucketed set describe the same
	// interval even when rows carry future timestamps.
	if filter.End == nil {
		chartEnd := q.Now.UTC()
		filter.End = &chartEnd
	}

	timestamps, err := s.store.ScrobbleTimestamps(ctx, filter)
	if err != nil {
		return nil, ErrStoreUnavailable(err)
	}

	// For an unbounded window the series starts at the earliest event
	// and ends at the caller's reference time.
	start, end, empty := effectiveBounds(window, timestamps, q.Now)
	if empty {
		resp := &models.ChartResponse{
			Granularity: q.Granularity,
			Window:      window.Info(),
			Buckets:     []models.ChartBucket{},
		}
		s.storeResult("chart", params, resp)
		return resp, nil
	}

	granularity := resolveAutoGranularity(q.Granularity, start, end)

	buckets, err := buildBuckets(timestamps, start, end, granularity, s.loc, s.cfg.BucketCap)
	if err != nil {
		return nil, err
	}

	resp := &models.ChartResponse{
		Granularity: granularity,
		Window:      window.Info(),
		Buckets:     buckets,
		Total:       len(timestamps),
	}
	s.storeResult("chart", params, resp)
	return resp, nil
}

func validateGranularity(granularity string) error {
	for _, valid := range validGranularities {
		if granularity == valid {
			return nil
		}
	}
	return ErrInvalidParameter("granularity",
		fmt.Sprintf("unknown granularity %q", granularity), validGranularities...)
}

// effectiveBounds resolves the concrete series interval. Returns
// empty=true when there is nothing to chart (unbounded window over an
// empty store).
func effectiveBounds(window Window, timestamps []time.Time, now time.Time) (start, end time.Time, empty bool) {
	if window.Start != nil {
		start = *window.Start
	} else {
		if len(timestamps) == 0 {
			return time.Time{}, time.Time{}, true
		}
		start = timestamps[0]
	}

	if window.End != nil {
		end = *window.End
	} else {
		end = now.UTC()
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, true
	}
	return start, end, false
}

// resolveAutoGranularity picks yearly for long windows, monthly
// otherwise. Explicit granularities pass through.
func resolveAutoGranularity(granularity string, start, end time.Time) string {
	if granularity != GranularityAuto {
		return granularity
	}
	if end.Sub(start) > autoYearlyThreshold {
		return GranularityYearly
	}
	return GranularityMonthly
}

// buildBuckets assigns each timestamp to its calendar bucket in the
// display timezone and zero-fills the gaps. timestamps must be in
// ascending order; [start, end) is half-open in UTC.
func buildBuckets(timestamps []time.Time, start, end time.Time, granularity string, loc *time.Location, bucketCap int) ([]models.ChartBucket, error) {
	bucketStart := alignToBucket(start.In(loc), granularity)

	var buckets []models.ChartBucket
	idx := 0
	for bucketStart.Before(end) {
		next := advanceBucket(bucketStart, granularity)

		if len(buckets) >= bucketCap {
			return nil, ErrTooManyBuckets(countBuckets(bucketStart, end, granularity)+len(buckets), bucketCap)
		}

		count := 0
		for idx < len(timestamps) && timestamps[idx].In(loc).Before(next) {
			// Events before the first bucket cannot occur: the first
			// bucket is aligned downward from the window start.
			count++
			idx++
		}

		buckets = append(buckets, models.ChartBucket{
			Label:     bucketLabel(bucketStart, granularity),
			StartDate: bucketStart.Format(dateLayout),
			EndDate:   next.AddDate(0, 0, -1).Format(dateLayout),
			PlayCount: count,
		})

		bucketStart = next
	}

	if buckets == nil {
		buckets = []models.ChartBucket{}
	}
	return buckets, nil
}

// alignToBucket truncates t down to its calendar bucket boundary.
func alignToBucket(t time.Time, granularity string) time.Time {
	switch granularity {
	case GranularityDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	case GranularityMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default: // yearly
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	}
}

// advanceBucket steps to the next calendar boundary. AddDate handles
// month lengths and leap years; DST shifts fall out of the location.
func advanceBucket(t time.Time, granularity string) time.Time {
	switch granularity {
	case GranularityDaily:
		return t.AddDate(0, 0, 1)
	case GranularityMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(1, 0, 0)
	}
}

// countBuckets counts remaining boundaries for the over-cap error
// message without materializing them.
func countBuckets(from, end time.Time, granularity string) int {
	n := 0
	for from.Before(end) {
		from = advanceBucket(from, granularity)
		n++
	}
	return n
}

func bucketLabel(t time.Time, granularity string) string {
	switch granularity {
	case GranularityDaily:
		return t.Format("2006-01-02")
	case GranularityMonthly:
		return t.Format("Jan 2006")
	default:
		return t.Format("2006")
	}
}
