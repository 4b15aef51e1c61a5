// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/toeirei/garmin-health-data/internal/model"

// --- Mapping helpers (centralized conversions) ---

func activityToRow(a model.Activity) ActivityRow {
	return ActivityRow{
		ActivityID:      a.ID,
		Name:            a.Name,
		ActivityType:    a.Type,
		StartTimeGMT:    a.StartTimeGMT.UTC(),
		StartTimeLocal:  a.StartTimeLocal,
		DurationSeconds: a.DurationSeconds,
		DistanceMeters:  a.DistanceMeters,
		Calories:        a.Calories,
		AverageHR:       a.AverageHR,
		MaxHR:           a.MaxHR,
		Steps:           a.Steps,
		Raw:             a.Raw,
	}
}

func activityRowToModel(r ActivityRow) model.Activity {
	return model.Activity{
		ID:              r.ActivityID,
		Name:            r.Name,
		Type:            r.ActivityType,
		StartTimeGMT:    r.StartTimeGMT,
		StartTimeLocal:  r.StartTimeLocal,
		DurationSeconds: r.DurationSeconds,
		DistanceMeters:  r.DistanceMeters,
		Calories:        r.Calories,
		AverageHR:       r.AverageHR,
		MaxHR:           r.MaxHR,
		Steps:           r.Steps,
		Raw:             r.Raw,
	}
}

func sleepToRow(s model.Sleep) SleepRow {
	return SleepRow{
		CalendarDate: s.CalendarDate,
		SleepStart:   s.SleepStart.UTC(),
		SleepEnd:     s.SleepEnd.UTC(),
		DeepSeconds:  s.DeepSeconds,
		LightSeconds: s.LightSeconds,
		REMSeconds:   s.REMSeconds,
		AwakeSeconds: s.AwakeSeconds,
		SleepScore:   s.Score,
	}
}

func sleepRowToModel(r SleepRow) model.Sleep {
	return model.Sleep{
		CalendarDate: r.CalendarDate,
		SleepStart:   r.SleepStart,
		SleepEnd:     r.SleepEnd,
		DeepSeconds:  r.DeepSeconds,
		LightSeconds: r.LightSeconds,
		REMSeconds:   r.REMSeconds,
		AwakeSeconds: r.AwakeSeconds,
		Score:        r.SleepScore,
	}
}

func dailySummaryToRow(d model.DailySummary) DailySummaryRow {
	return DailySummaryRow{
		CalendarDate:             d.CalendarDate,
		TotalSteps:               d.TotalSteps,
		TotalKilocalories:        d.TotalKilocalories,
		ActiveKilocalories:       d.ActiveKilocalories,
		RestingHeartRate:         d.RestingHeartRate,
		MinHeartRate:             d.MinHeartRate,
		MaxHeartRate:             d.MaxHeartRate,
		AverageStress:            d.AverageStress,
		FloorsAscended:           d.FloorsAscended,
		ModerateIntensityMinutes: d.ModerateIntensityMinutes,
		VigorousIntensityMinutes: d.VigorousIntensityMinutes,
	}
}

func dailySummaryRowToModel(r DailySummaryRow) model.DailySummary {
	return model.DailySummary{
		CalendarDate:             r.CalendarDate,
		TotalSteps:               r.TotalSteps,
		TotalKilocalories:        r.TotalKilocalories,
		ActiveKilocalories:       r.ActiveKilocalories,
		RestingHeartRate:         r.RestingHeartRate,
		MinHeartRate:             r.MinHeartRate,
		MaxHeartRate:             r.MaxHeartRate,
		AverageStress:            r.AverageStress,
		FloorsAscended:           r.FloorsAscended,
		ModerateIntensityMinutes: r.ModerateIntensityMinutes,
		VigorousIntensityMinutes: r.VigorousIntensityMinutes,
	}
}

func heartRateToRow(h model.HeartRateSample) HeartRateRow {
	return HeartRateRow{SampledAt: h.Timestamp.UTC(), BPM: h.BPM}
}

func heartRateRowToModel(r HeartRateRow) model.HeartRateSample {
	return model.HeartRateSample{Timestamp: r.SampledAt, BPM: r.BPM}
}

func bodyCompositionToRow(b model.BodyComposition) BodyCompositionRow {
	return BodyCompositionRow{
		SamplePK:        b.SamplePK,
		MeasuredAt:      b.MeasuredAt.UTC(),
		WeightGrams:     b.WeightGrams,
		BMI:             b.BMI,
		BodyFatPercent:  b.BodyFatPercent,
		MuscleMassGrams: b.MuscleMassGrams,
	}
}

func bodyCompositionRowToModel(r BodyCompositionRow) model.BodyComposition {
	return model.BodyComposition{
		SamplePK:        r.SamplePK,
		MeasuredAt:      r.MeasuredAt,
		WeightGrams:     r.WeightGrams,
		BMI:             r.BMI,
		BodyFatPercent:  r.BodyFatPercent,
		MuscleMassGrams: r.MuscleMassGrams,
	}
}

func syncStateRowToModel(r SyncStateRow) model.SyncState {
	return model.SyncState{DataType: model.DataType(r.DataType), LastSyncedDate: r.LastSyncedDate, UpdatedAt: r.UpdatedAt}
}

func syncRunToRow(r model.SyncRun) SyncRunRow {
	return SyncRunRow{
		ID:         r.ID,
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		Status:     r.Status,
		DataTypes:  r.DataTypes,
		Records:    r.Records,
		Error:      r.Error,
	}
}

func syncRunRowToModel(r SyncRunRow) model.SyncRun {
	return model.SyncRun{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Status:     r.Status,
		DataTypes:  r.DataTypes,
		Records:    r.Records,
		Error:      r.Error,
	}
}
