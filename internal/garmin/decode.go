// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package garmin

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/toeirei/garmin-health-data/internal/model"
)

// timestampLayout is used by the activity list for start times.
const timestampLayout = "2006-01-02 15:04:05"

type profileJSON struct {
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
}

type activityJSON struct {
	ActivityID   int64  `json:"activityId"`
	ActivityName string `json:"activityName"`
	ActivityType struct {
		TypeKey string `json:"typeKey"`
	} `json:"activityType"`
	StartTimeGMT   string   `json:"startTimeGMT"`
	StartTimeLocal string   `json:"startTimeLocal"`
	Duration       *float64 `json:"duration"`
	Distance       *float64 `json:"distance"`
	Calories       *float64 `json:"calories"`
	AverageHR      *float64 `json:"averageHR"`
	MaxHR          *float64 `json:"maxHR"`
	Steps          *float64 `json:"steps"`
}

func decodeActivity(raw json.RawMessage) (model.Activity, error) {
	var a activityJSON
	if err := json.Unmarshal(raw, &a); err != nil {
		return model.Activity{}, fmt.Errorf("decode activity: %w", err)
	}
	if a.ActivityID == 0 {
		return model.Activity{}, fmt.Errorf("decode activity: missing activityId")
	}
	gmt, err := parseTimestamp(a.StartTimeGMT)
	if err != nil {
		return model.Activity{}, fmt.Errorf("activity %d: %w", a.ActivityID, err)
	}
	local, err := parseTimestamp(a.StartTimeLocal)
	if err != nil {
		return model.Activity{}, fmt.Errorf("activity %d: %w", a.ActivityID, err)
	}
	return model.Activity{
		ID:              a.ActivityID,
		Name:            a.ActivityName,
		Type:            a.ActivityType.TypeKey,
		StartTimeGMT:    gmt,
		StartTimeLocal:  local,
		DurationSeconds: f64(a.Duration),
		DistanceMeters:  f64(a.Distance),
		Calories:        f64(a.Calories),
		AverageHR:       roundInt(a.AverageHR),
		MaxHR:           roundInt(a.MaxHR),
		Steps:           roundInt(a.Steps),
		Raw:             string(raw),
	}, nil
}

type sleepJSON struct {
	DailySleepDTO *struct {
		CalendarDate           string   `json:"calendarDate"`
		SleepStartTimestampGMT *int64   `json:"sleepStartTimestampGMT"`
		SleepEndTimestampGMT   *int64   `json:"sleepEndTimestampGMT"`
		DeepSleepSeconds       *float64 `json:"deepSleepSeconds"`
		LightSleepSeconds      *float64 `json:"lightSleepSeconds"`
		REMSleepSeconds        *float64 `json:"remSleepSeconds"`
		AwakeSleepSeconds      *float64 `json:"awakeSleepSeconds"`
		SleepScores            *struct {
			Overall *struct {
				Value *float64 `json:"value"`
			} `json:"overall"`
		} `json:"sleepScores"`
	} `json:"dailySleepDTO"`
}

func (s sleepJSON) toModel(day time.Time) (model.Sleep, error) {
	d := s.DailySleepDTO
	if d == nil || d.SleepStartTimestampGMT == nil || d.SleepEndTimestampGMT == nil {
		return model.Sleep{}, ErrNoData
	}
	out := model.Sleep{
		CalendarDate: d.CalendarDate,
		SleepStart:   time.UnixMilli(*d.SleepStartTimestampGMT).UTC(),
		SleepEnd:     time.UnixMilli(*d.SleepEndTimestampGMT).UTC(),
		DeepSeconds:  roundInt(d.DeepSleepSeconds),
		LightSeconds: roundInt(d.LightSleepSeconds),
		REMSeconds:   roundInt(d.REMSleepSeconds),
		AwakeSeconds: roundInt(d.AwakeSleepSeconds),
	}
	if out.CalendarDate == "" {
		out.CalendarDate = day.Format(model.DateLayout)
	}
	if d.SleepScores != nil && d.SleepScores.Overall != nil {
		out.Score = roundInt(d.SleepScores.Overall.Value)
	}
	return out, nil
}

type dailySummaryJSON struct {
	CalendarDate             string   `json:"calendarDate"`
	TotalSteps               *float64 `json:"totalSteps"`
	TotalKilocalories        *float64 `json:"totalKilocalories"`
	ActiveKilocalories       *float64 `json:"activeKilocalories"`
	RestingHeartRate         *float64 `json:"restingHeartRate"`
	MinHeartRate             *float64 `json:"minHeartRate"`
	MaxHeartRate             *float64 `json:"maxHeartRate"`
	AverageStressLevel       *float64 `json:"averageStressLevel"`
	FloorsAscended           *float64 `json:"floorsAscended"`
	ModerateIntensityMinutes *float64 `json:"moderateIntensityMinutes"`
	VigorousIntensityMinutes *float64 `json:"vigorousIntensityMinutes"`
}

func (s dailySummaryJSON) toModel(day time.Time) (model.DailySummary, error) {
	if s.TotalSteps == nil && s.TotalKilocalories == nil && s.RestingHeartRate == nil {
		return model.DailySummary{}, ErrNoData
	}
	out := model.DailySummary{
		CalendarDate:             s.CalendarDate,
		TotalSteps:               roundInt(s.TotalSteps),
		TotalKilocalories:        f64(s.TotalKilocalories),
		ActiveKilocalories:       f64(s.ActiveKilocalories),
		RestingHeartRate:         roundInt(s.RestingHeartRate),
		MinHeartRate:             roundInt(s.MinHeartRate),
		MaxHeartRate:             roundInt(s.MaxHeartRate),
		FloorsAscended:           f64(s.FloorsAscended),
		ModerateIntensityMinutes: roundInt(s.ModerateIntensityMinutes),
		VigorousIntensityMinutes: roundInt(s.VigorousIntensityMinutes),
	}
	// Garmin reports -1/-2 when stress was not measured.
	if stress := roundInt(s.AverageStressLevel); stress > 0 {
		out.AverageStress = stress
	}
	if out.CalendarDate == "" {
		out.CalendarDate = day.Format(model.DateLayout)
	}
	return out, nil
}

type heartRateJSON struct {
	HeartRateValues [][]*float64 `json:"heartRateValues"`
}

func (h heartRateJSON) toModel() []model.HeartRateSample {
	out := make([]model.HeartRateSample, 0, len(h.HeartRateValues))
	for _, pair := range h.HeartRateValues {
		if len(pair) < 2 || pair[0] == nil || pair[1] == nil {
			continue
		}
		out = append(out, model.HeartRateSample{
			Timestamp: time.UnixMilli(int64(*pair[0])).UTC(),
			BPM:       roundInt(pair[1]),
		})
	}
	return out
}

type weightRangeJSON struct {
	DateWeightList []struct {
		SamplePK   int64    `json:"samplePk"`
		Date       *int64   `json:"date"`
		Weight     *float64 `json:"weight"`
		BMI        *float64 `json:"bmi"`
		BodyFat    *float64 `json:"bodyFat"`
		MuscleMass *float64 `json:"muscleMass"`
	} `json:"dateWeightList"`
}

func (w weightRangeJSON) toModel() []model.BodyComposition {
	out := make([]model.BodyComposition, 0, len(w.DateWeightList))
	for _, e := range w.DateWeightList {
		if e.SamplePK == 0 || e.Date == nil {
			continue
		}
		out = append(out, model.BodyComposition{
			SamplePK:        e.SamplePK,
			MeasuredAt:      time.UnixMilli(*e.Date).UTC(),
			WeightGrams:     f64(e.Weight),
			BMI:             f64(e.BMI),
			BodyFatPercent:  f64(e.BodyFat),
			MuscleMassGrams: f64(e.MuscleMass),
		})
	}
	return out
}

func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(timestampLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

func f64(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func roundInt(v *float64) int {
	if v == nil {
		return 0
	}
	return int(math.Round(*v))
}
