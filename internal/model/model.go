// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model holds the domain types shared between the Garmin client, the
// sync engine and the store. Optional measurements use the zero value for
// "not reported".
package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of calendar dates used by Garmin Connect and the store.
const DateLayout = "2006-01-02"

// DataType names one category of health data that can be synchronized.
type DataType string

const (
	DataActivities      DataType = "activities"
	DataSleep           DataType = "sleep"
	DataDailySummary    DataType = "daily_summary"
	DataHeartRate       DataType = "heart_rate"
	DataBodyComposition DataType = "body_composition"
)

// AllDataTypes lists every supported data type in sync order.
func AllDataTypes() []DataType {
	return []DataType{DataActivities, DataSleep, DataDailySummary, DataHeartRate, DataBodyComposition}
}

// ParseDataTypes parses a list of data type names. An empty list selects all
// types. Unknown names are rejected.
func ParseDataTypes(names []string) ([]DataType, error) {
	if len(names) == 0 {
		return AllDataTypes(), nil
	}
	known := make(map[DataType]bool)
	for _, dt := range AllDataTypes() {
		known[dt] = true
	}
	seen := make(map[DataType]bool)
	var out []DataType
	for _, n := range names {
		dt := DataType(strings.TrimSpace(strings.ToLower(n)))
		if dt == "" {
			continue
		}
		if !known[dt] {
			return nil, fmt.Errorf("unknown data type %q", n)
		}
		if seen[dt] {
			continue
		}
		seen[dt] = true
		out = append(out, dt)
	}
	if len(out) == 0 {
		return AllDataTypes(), nil
	}
	return out, nil
}

// Activity is a recorded workout.
type Activity struct {
	ID              int64
	Name            string
	Type            string
	StartTimeGMT    time.Time
	StartTimeLocal  time.Time
	DurationSeconds float64
	DistanceMeters  float64
	Calories        float64
	AverageHR       int
	MaxHR           int
	Steps           int
	// Raw is the unmodified JSON returned by Garmin Connect.
	Raw string
}

// String returns a short human readable description.
func (a Activity) String() string {
	return fmt.Sprintf("%s (%s, %s)", a.Name, a.Type, a.StartTimeLocal.Format("2006-01-02 15:04"))
}

// Sleep summarizes one night of sleep keyed by the calendar date it ends on.
type Sleep struct {
	CalendarDate string
	SleepStart   time.Time
	SleepEnd     time.Time
	DeepSeconds  int
	LightSeconds int
	REMSeconds   int
	AwakeSeconds int
	Score        int
}

// TotalSeconds returns the time spent asleep.
func (s Sleep) TotalSeconds() int {
	return s.DeepSeconds + s.LightSeconds + s.REMSeconds
}

// DailySummary is the per-day wellness rollup.
type DailySummary struct {
	CalendarDate             string
	TotalSteps               int
	TotalKilocalories        float64
	ActiveKilocalories       float64
	RestingHeartRate         int
	MinHeartRate             int
	MaxHeartRate             int
	AverageStress            int
	FloorsAscended           float64
	ModerateIntensityMinutes int
	VigorousIntensityMinutes int
}

// HeartRateSample is one intraday heart rate reading.
type HeartRateSample struct {
	Timestamp time.Time
	BPM       int
}

// BodyComposition is one weigh-in.
type BodyComposition struct {
	SamplePK        int64
	MeasuredAt      time.Time
	WeightGrams     float64
	BMI             float64
	BodyFatPercent  float64
	MuscleMassGrams float64
}

// Profile identifies the Garmin Connect user.
type Profile struct {
	DisplayName string
	FullName    string
}

// SyncState records how far a data type has been synchronized.
type SyncState struct {
	DataType       DataType
	LastSyncedDate string
	UpdatedAt      time.Time
}

// Sync run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// SyncRun is the audit record of one sync invocation.
type SyncRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	DataTypes  string
	Records    int
	Error      string
}

// Dump is the full content of the store, used by export.
type Dump struct {
	ExportedAt       time.Time         `json:"exported_at"`
	Activities       []Activity        `json:"activities"`
	Sleep            []Sleep           `json:"sleep"`
	DailySummaries   []DailySummary    `json:"daily_summaries"`
	HeartRates       []HeartRateSample `json:"heart_rates"`
	BodyCompositions []BodyComposition `json:"body_compositions"`
	SyncState        []SyncState       `json:"sync_state"`
}
