// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package syncer

import (
	"testing"
	"time"

	"github.com/toeirei/garmin-health-data/internal/model"
)

func TestResolveWindow(t *testing.T) {
	day := Day(today)
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		state *model.SyncState
		want  string
	}{
		{name: "lookback", want: "2026-05-08..2026-05-10"},
		{name: "state", state: &model.SyncState{LastSyncedDate: "2026-05-05"}, want: "2026-05-06..2026-05-10"},
		{name: "explicit start wins", start: date("2026-05-01"), state: &model.SyncState{LastSyncedDate: "2026-05-05"}, want: "2026-05-01..2026-05-10"},
		{name: "explicit end", end: date("2026-05-07"), want: "2026-05-05..2026-05-07"},
		{name: "up to date", state: &model.SyncState{LastSyncedDate: "2026-05-10"}, want: "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := resolveWindow(day, tt.start, tt.end, tt.state, 3)
			if err != nil {
				t.Fatalf("resolveWindow: %v", err)
			}
			if got := w.String(); got != tt.want {
				t.Fatalf("window = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveWindow_BadState(t *testing.T) {
	_, err := resolveWindow(Day(today), time.Time{}, time.Time{}, &model.SyncState{DataType: model.DataSleep, LastSyncedDate: "yesterday"}, 3)
	if err == nil {
		t.Fatalf("expected error for malformed state date")
	}
}

func TestCompletedThrough(t *testing.T) {
	day := Day(today)
	if got := completedThrough(Window{Start: day, End: day}, day); !got.Equal(day.AddDate(0, 0, -1)) {
		t.Fatalf("today must not be marked complete, got %s", got)
	}
	past := day.AddDate(0, 0, -3)
	if got := completedThrough(Window{Start: past, End: past}, day); !got.Equal(past) {
		t.Fatalf("got %s, want %s", got, past)
	}
}

func TestWindowDays(t *testing.T) {
	w := Window{Start: date("2026-02-27"), End: date("2026-03-02")}
	if n := len(w.Days()); n != 4 {
		t.Fatalf("days = %d, want 4", n)
	}
	if (Window{}).Days() != nil {
		t.Fatalf("empty window must have no days")
	}
}
