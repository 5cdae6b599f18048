// Audiolog - Music Listening Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audiolog

package stats

import (
	"time"

	"github.com/tomtom215/audiolog/internal/database"
	"github.com/tomtom215/audiolog/internal/models"
)

// dateLayout is the wire format for explicit window boundaries.
const dateLayout = "2006-01-02"

// validPeriods are the accepted relative window tokens.
var validPeriods = []string{"7d", "30d", "90d", "180d", "365d", "all"}

// periodDays maps each relative token to its day count.
var periodDays = map[string]int{
	"7d":   7,
	"30d":  30,
	"90d":  90,
	"180d": 180,
	"365d": 365,
}

// Window is a resolved half-open UTC interval [Start, End). A nil bound
// is unbounded on that side; the all-time window has both bounds nil.
type Window struct {
	Period string
	Start  *time.Time
	End    *time.Time
}

// Filter converts the window into a store filter.
func (w Window) Filter() database.EventFilter {
	return database.EventFilter{Start: w.Start, End: w.End}
}

// Info converts the window into its response representation.
func (w Window) Info() models.WindowInfo {
	return models.WindowInfo{Period: w.Period, Start: w.Start, End: w.End}
}

// ResolveWindow turns request parameters into a concrete UTC window.
//
// An explicit from/to date range takes precedence over a period token.
// Dates are interpreted at midnight in the display timezone and the end
// date is inclusive on the calendar (end bound = toDate + 1 day). A
// relative token "Nd" resolves to [now - N days, now); "all" and the
// empty period are unbounded. now is supplied by the caller so the
// engine never reads the clock.
func ResolveWindow(period, fromDate, toDate string, now time.Time, loc *time.Location) (Window, error) {
	if fromDate != "" || toDate != "" {
		return resolveExplicitRange(fromDate, toDate, loc)
	}

	if period == "" || period == "all" {
		return Window{Period: "all"}, nil
	}

	days, ok := periodDays[period]
	if !ok {
		return Window{}, ErrInvalidParameter("period", "unknown period token", validPeriods...)
	}

	end := now.UTC()
	start := end.AddDate(0, 0, -days)
	return Window{Period: period, Start: &start, End: &end}, nil
}

func resolveExplicitRange(fromDate, toDate string, loc *time.Location) (Window, error) {
	w := Window{Period: "custom"}

	var from, to time.Time
	if fromDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, fromDate, loc)
		if err != nil {
			return Window{}, ErrInvalidParameter("from_date", "expected YYYY-MM-DD")
		}
		from = parsed
		start := from.UTC()
		w.Start = &start
	}
	if toDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, toDate, loc)
		if err != nil {
			return Window{}, ErrInvalidParameter("to_date", "expected YYYY-MM-DD")
		}
		to = parsed
		end := to.AddDate(0, 0, 1).UTC()
		w.End = &end
	}

	if fromDate != "" && toDate != "" && from.After(to) {
		return Window{}, ErrInvalidParameter("from_date", "must not be after to_date")
	}

	return w, nil
}
