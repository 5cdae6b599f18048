// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package stats

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/audiolog/internal/models"
)

func TestBuildBucketsDailyZeroFilled(t *testing.T) {
	start := utc(2023, 1, 1, 0)
	end := utc(2023, 1, 6, 0)
	timestamps := []time.Time{
		utc(2023, 1, 1, 10),
		utc(2023, 1, 1, 22),
		utc(2023, 1, 4, 5),
	}

	buckets, err := buildBuckets(timestamps, start, end, GranularityDaily, time.UTC, 400)
	if err != nil {
		t.Fatalf("buildBuckets failed: %v", err)
	}
	if len(buckets) != 5 {
		t.Fatalf("got %d buckets, want 5", len(buckets))
	}

	wantCounts := []int{2, 0, 0, 1, 0}
	for i, want := range wantCounts {
		if buckets[i].PlayCount != want {
			t.Errorf("bucket %d count = %d, want %d", i, buckets[i].PlayCount, want)
		}
	}
	if buckets[0].Label != "2023-01-01" {
		t.Errorf("daily label = %q, want 2023-01-01", buckets[0].Label)
	}
	if buckets[0].StartDate != "2023-01-01" || buckets[0].EndDate != "2023-01-01" {
		t.Errorf("daily bucket dates = %s..%s", buckets[0].StartDate, buckets[0].EndDate)
	}
}

func TestBuildBucketsMonthlyCalendarAligned(t *testing.T) {
	// Window starting mid-January aligns its first bucket to Jan 1.
	start := utc(2023, 1, 15, 0)
	end := utc(2023, 4, 10, 0)
	timestamps := []time.Time{
		utc(2023, 1, 20, 0),
		utc(2023, 2, 28, 23),
		utc(2023, 3, 1, 0),
	}

	buckets, err := buildBuckets(timestamps, start, end, GranularityMonthly, time.UTC, 400)
	if err != nil {
		t.Fatalf("buildBuckets failed: %v", err)
	}
	if len(buckets) != 4 {
		t.Fatalf("got %d buckets, want 4 (Jan-Apr)", len(buckets))
	}

	wantLabels := []string{"Jan 2023", "Feb 2023", "Mar 2023", "Apr 2023"}
	wantCounts := []int{1, 1, 1, 0}
	for i := range wantLabels {
		if buckets[i].Label != wantLabels[i] {
			t.Errorf("bucket %d label = %q, want %q", i, buckets[i].Label, wantLabels[i])
		}
		if buckets[i].PlayCount != wantCounts[i] {
			t.Errorf("bucket %d count = %d, want %d", i, buckets[i].PlayCount, wantCounts[i])
		}
	}

	// February's end date respects the month length.
	if buckets[1].EndDate != "2023-02-28" {
		t.Errorf("Feb end date = %q, want 2023-02-28", buckets[1].EndDate)
	}
}

func TestBuildBucketsLeapFebruary(t *testing.T) {
	start := utc(2024, 2, 1, 0)
	end := utc(2024, 3, 1, 0)

	buckets, err := buildBuckets(nil, start, end, GranularityMonthly, time.UTC, 400)
	if err != nil {
		t.Fatalf("buildBuckets failed: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(buckets))
	}
	if buckets[0].EndDate != "2024-02-29" {
		t.Errorf("leap Feb end date = %q, want 2024-02-29", buckets[0].EndDate)
	}
}

func TestBuildBucketsDisplayTimezoneAssignment(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	// 23:30 UTC on Jan 31 is already Feb 1 in Berlin.
	start := utc(2023, 1, 1, 0)
	end := utc(2023, 3, 1, 0)
	timestamps := []time.Time{
		time.Date(2023, 1, 31, 23, 30, 0, 0, time.UTC),
	}

	buckets, err := buildBuckets(timestamps, start, end, GranularityMonthly, loc, 400)
	if err != nil {
		t.Fatalf("buildBuckets failed: %v", err)
	}

	var jan, feb int
	for _, b := range buckets {
		switch b.Label {
		case "Jan 2023":
			jan = b.PlayCount
		case "Feb 2023":
			feb = b.PlayCount
		}
	}
	if jan != 0 || feb != 1 {
		t.Errorf("Jan=%d Feb=%d, want the event in February (display tz)", jan, feb)
	}
}

func TestBuildBucketsCapExceeded(t *testing.T) {
	start := utc(2020, 1, 1, 0)
	end := utc(2023, 1, 1, 0)

	_, err := buildBuckets(nil, start, end, GranularityDaily, time.UTC, 400)
	if KindOf(err) != KindTooManyBuckets {
		t.Errorf("kind = %v, want TooManyBuckets", KindOf(err))
	}
}

func TestResolveAutoGranularity(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  string
	}{
		{"short span monthly", utc(2023, 1, 1, 0), utc(2023, 6, 1, 0), GranularityMonthly},
		{"exactly 366 days monthly", utc(2022, 1, 1, 0), utc(2023, 1, 2, 0), GranularityMonthly},
		{"long span yearly", utc(2020, 1, 1, 0), utc(2023, 1, 1, 0), GranularityYearly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveAutoGranularity(GranularityAuto, tt.start, tt.end)
			if got != tt.want {
				t.Errorf("resolveAutoGranularity = %q, want %q", got, tt.want)
			}
		})
	}

	if got := resolveAutoGranularity(GranularityDaily, utc(2020, 1, 1, 0), utc(2023, 1, 1, 0)); got != GranularityDaily {
		t.Errorf("explicit granularity changed to %q", got)
	}
}

func TestChartRejectsUnknownGranularity(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Chart(context.Background(), ChartQuery{
		Granularity: "weekly",
		Now:         time.Now(),
	})
	if KindOf(err) != KindInvalidParameter {
		t.Errorf("kind = %v, want InvalidParameter", KindOf(err))
	}
}

func TestChartDefaultsToAutoGranularity(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, []models.ScrobbleImport{
		play("The Beatles", "Abbey Road", "Come Together", utc(2023, 1, 5, 12)),
	})

	resp, err := svc.Chart(context.Background(), ChartQuery{
		Period: "all",
		Now:    utc(2023, 3, 1, 0),
	})
	if err != nil {
		t.Fatalf("Chart without granularity failed: %v", err)
	}
	// Auto over a two-month span resolves to monthly.
	if resp.Granularity != GranularityMonthly {
		t.Errorf("granularity = %q, want %q", resp.Granularity, GranularityMonthly)
	}
	if resp.Total != 1 {
		t.Errorf("Total = %d, want 1", resp.Total)
	}
}

func TestChartAllTimeExcludesFutureEvents(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, []models.ScrobbleImport{
		play("The Beatles", "Abbey Road", "Come Together", utc(2023, 1, 1, 12)),
		play("The Beatles", "Abbey Road", "Come Together", utc(2024, 2, 1, 12)),
	})

	resp, err := svc.Chart(context.Background(), ChartQuery{
		Granularity: GranularityYearly,
		Period:      "all",
		Now:         utc(2023, 6, 1, 0),
	})
	if err != nil {
		t.Fatalf("Chart failed: %v", err)
	}

	// The 2024 row is after the reference time; it belongs to neither
	// the total nor any bucket.
	if resp.Total != 1 {
		t.Errorf("Total = %d, want 1", resp.Total)
	}
	sum := 0
	for _, b := range resp.Buckets {
		sum += b.PlayCount
	}
	if sum != resp.Total {
		t.Errorf("bucket sum %d != total %d", sum, resp.Total)
	}
	if len(resp.Buckets) != 1 || resp.Buckets[0].Label != "2023" {
		t.Errorf("buckets = %+v, want single 2023 bucket", resp.Buckets)
	}
}

func TestChartEmptyStoreAllTime(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Chart(context.Background(), ChartQuery{
		Granularity: GranularityMonthly,
		Period:      "all",
		Now:         utc(2023, 6, 1, 0),
	})
	if err != nil {
		t.Fatalf("Chart failed: %v", err)
	}
	if len(resp.Buckets) != 0 {
		t.Errorf("empty store produced %d buckets, want 0", len(resp.Buckets))
	}
	if resp.Total != 0 {
		t.Errorf("Total = %d, want 0", resp.Total)
	}
}

func TestChartYearlyAllTime(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, []models.ScrobbleImport{
		play("The Beatles", "Abbey Road", "Come Together", utc(2022, 1, 1, 12)),
		play("The Beatles", "Abbey Road", "Come Together", utc(2022, 6, 15, 12)),
		play("The Beatles", "Abbey Road", "Come Together", utc(2023, 1, 1, 12)),
	})

	resp, err := svc.Chart(context.Background(), ChartQuery{
		Granularity: GranularityYearly,
		Period:      "all",
		Now:         utc(2023, 1, 2, 0),
	})
	if err != nil {
		t.Fatalf("Chart failed: %v", err)
	}

	if len(resp.Buckets) != 2 {
		t.Fatalf("got %d buckets, want 2 (2022, 2023)", len(resp.Buckets))
	}
	if resp.Buckets[0].Label != "2022" || resp.Buckets[0].PlayCount != 2 {
		t.Errorf("2022 bucket = %+v, want count 2", resp.Buckets[0])
	}
	if resp.Buckets[1].Label != "2023" || resp.Buckets[1].PlayCount != 1 {
		t.Errorf("2023 bucket = %+v, want count 1", resp.Buckets[1])
	}
	if resp.Total != 3 {
		t.Errorf("Total = %d, want 3", resp.Total)
	}
}

func TestChartScopedToArtist(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db, []models.ScrobbleImport{
		play("A", "X", "One", utc(2023, 1, 5, 0)),
		play("B", "Y", "Two", utc(2023, 1, 6, 0)),
	})

	artist, err := db.ArtistByName(context.Background(), "A")
	if err != nil {
		t.Fatalf("artist lookup failed: %v", err)
	}

	resp, err := svc.Chart(context.Background(), ChartQuery{
		Granularity: GranularityMonthly,
		Period:      "all",
		ArtistID:    &artist.ID,
		Now:         utc(2023, 2, 1, 0),
	})
	if err != nil {
		t.Fatalf("Chart failed: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("scoped Total = %d, want 1", resp.Total)
	}
}

func TestChartStoreFailure(t *testing.T) {
	svc := New(newFailingStore(), nil, testStatsConfig())

	_, err := svc.Chart(context.Background(), ChartQuery{
		Granularity: GranularityMonthly,
		Period:      "30d",
		Now:         time.Now(),
	})
	if KindOf(err) != KindStoreUnavailable {
		t.Errorf("kind = %v, want StoreUnavailable", KindOf(err))
	}
}
