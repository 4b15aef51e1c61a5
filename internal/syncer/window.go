// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package syncer

import (
	"fmt"
	"time"

	"github.com/toeirei/garmin-health-data/internal/model"
)

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to its calendar date, expressed as UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD calendar date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// Empty reports whether the window covers no day.
func (w Window) Empty() bool {
	return w.Start.IsZero() || w.End.IsZero() || w.Start.After(w.End)
}

// Days lists every calendar day in the window.
func (w Window) Days() []time.Time {
	if w.Empty() {
		return nil
	}
	var out []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (w Window) String() string {
	if w.Empty() {
		return "empty"
	}
	return w.Start.Format(model.DateLayout) + ".." + w.End.Format(model.DateLayout)
}

// resolveWindow picks the days to fetch for one data type. An explicit start
// wins over the stored state, which wins over the lookback default.
func resolveWindow(today, start, end time.Time, state *model.SyncState, lookbackDays int) (Window, error) {
	w := Window{End: today}
	if !end.IsZero() {
		w.End = Day(end)
	}
	switch {
	case !start.IsZero():
		w.Start = Day(start)
	case state != nil && state.LastSyncedDate != "":
		last, err := ParseDay(state.LastSyncedDate)
		if err != nil {
			return Window{}, fmt.Errorf("sync state %s: %w", state.DataType, err)
		}
		w.Start = last.AddDate(0, 0, 1)
	default:
		if lookbackDays < 1 {
			lookbackDays = 1
		}
		w.Start = w.End.AddDate(0, 0, -(lookbackDays - 1))
	}
	return w, nil
}

// completedThrough is the date stored in sync_state after fetching w. Today is
// still accumulating data, so it is never marked complete.
func completedThrough(w Window, today time.Time) time.Time {
	if !w.End.Before(today) {
		return today.AddDate(0, 0, -1)
	}
	return w.End
}
