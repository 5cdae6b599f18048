// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package stats

import (
	"testing"
	"time"
)

func TestResolveWindowPeriodTokens(t *testing.T) {
	now := time.Date(2023, 1, 2, 15, 30, 45, 0, time.UTC)

	tests := []struct {
		period    string
		wantStart time.Time
	}{
		{"7d", now.AddDate(0, 0, -7)},
		{"30d", now.AddDate(0, 0, -30)},
		{"90d", now.AddDate(0, 0, -90)},
		{"180d", now.AddDate(0, 0, -180)},
		{"365d", now.AddDate(0, 0, -365)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			w, err := ResolveWindow(tt.period, "", "", now, time.UTC)
			if err != nil {
				t.Fatalf("ResolveWindow failed: %v", err)
			}
			if w.Period != tt.period {
				t.Errorf("Period = %q, want %q", w.Period, tt.period)
			}
			if w.Start == nil || !w.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", w.Start, tt.wantStart)
			}
			if w.End == nil || !w.End.Equal(now) {
				t.Errorf("End = %v, want %v (end-exclusive now)", w.End, now)
			}
		})
	}
}

func TestResolveWindowAll(t *testing.T) {
	now := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	for _, period := range []string{"all", ""} {
		w, err := ResolveWindow(period, "", "", now, time.UTC)
		if err != nil {
			t.Fatalf("ResolveWindow(%q) failed: %v", period, err)
		}
		if w.Period != "all" {
			t.Errorf("Period = %q, want all", w.Period)
		}
		if w.Start != nil || w.End != nil {
			t.Errorf("all window has bounds %v/%v, want nil/nil", w.Start, w.End)
		}
	}
}

func TestResolveWindowUnknownToken(t *testing.T) {
	now := time.Now()

	for _, period := range []string{"14d", "1y", "week", "7D"} {
		_, err := ResolveWindow(period, "", "", now, time.UTC)
		if KindOf(err) != KindInvalidParameter {
			t.Errorf("ResolveWindow(%q) kind = %v, want InvalidParameter", period, KindOf(err))
		}
	}
}

func TestResolveWindowExplicitRange(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	w, err := ResolveWindow("", "2023-01-10", "2023-01-20", now, time.UTC)
	if err != nil {
		t.Fatalf("ResolveWindow failed: %v", err)
	}
	if w.Period != "custom" {
		t.Errorf("Period = %q, want custom", w.Period)
	}

	wantStart := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2023, 1, 21, 0, 0, 0, 0, time.UTC) // to_date inclusive
	if w.Start == nil || !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", w.Start, wantStart)
	}
	if w.End == nil || !w.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", w.End, wantEnd)
	}
}

func TestResolveWindowExplicitRangeInDisplayTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	w, err := ResolveWindow("", "2023-01-10", "", now, loc)
	if err != nil {
		t.Fatalf("ResolveWindow failed: %v", err)
	}

	// Midnight Berlin in January is 23:00 UTC the day before.
	wantStart := time.Date(2023, 1, 9, 23, 0, 0, 0, time.UTC)
	if w.Start == nil || !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", w.Start, wantStart)
	}
}

func TestResolveWindowRangeTakesPrecedenceOverPeriod(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	w, err := ResolveWindow("30d", "2023-01-10", "2023-01-20", now, time.UTC)
	if err != nil {
		t.Fatalf("ResolveWindow failed: %v", err)
	}
	if w.Period != "custom" {
		t.Errorf("Period = %q, want custom when explicit range given", w.Period)
	}
	wantStart := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	if w.Start == nil || !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want explicit range start", w.Start)
	}
}

func TestResolveWindowOneSidedRanges(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	w, err := ResolveWindow("", "2023-01-10", "", now, time.UTC)
	if err != nil {
		t.Fatalf("from-only failed: %v", err)
	}
	if w.Start == nil || w.End != nil {
		t.Errorf("from-only bounds = %v/%v, want start/nil", w.Start, w.End)
	}

	w, err = ResolveWindow("", "", "2023-01-20", now, time.UTC)
	if err != nil {
		t.Fatalf("to-only failed: %v", err)
	}
	if w.Start != nil || w.End == nil {
		t.Errorf("to-only bounds = %v/%v, want nil/end", w.Start, w.End)
	}
}

func TestResolveWindowRejectsBadDates(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		fromDate string
		toDate   string
	}{
		{"unparsable from", "10.01.2023", ""},
		{"unparsable to", "", "January 20"},
		{"from after to", "2023-02-01", "2023-01-01"},
		{"month out of range", "2023-13-01", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveWindow("", tt.fromDate, tt.toDate, now, time.UTC)
			if KindOf(err) != KindInvalidParameter {
				t.Errorf("kind = %v, want InvalidParameter", KindOf(err))
			}
		})
	}
}

func TestResolveWindowSameDayRange(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	w, err := ResolveWindow("", "2023-01-10", "2023-01-10", now, time.UTC)
	if err != nil {
		t.Fatalf("same-day range failed: %v", err)
	}
	if w.End.Sub(*w.Start) != 24*time.Hour {
		t.Errorf("same-day window spans %v, want 24h", w.End.Sub(*w.Start))
	}
}

func TestWindowFilter(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	w := Window{Period: "custom", Start: &start, End: &end}

	f := w.Filter()
	if f.Start == nil || !f.Start.Equal(start) || f.End == nil || !f.End.Equal(end) {
		t.Errorf("Filter() = %+v", f)
	}

	info := w.Info()
	if info.Period != "custom" || info.Start == nil || info.End == nil {
		t.Errorf("Info() = %+v", info)
	}
}
