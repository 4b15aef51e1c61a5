// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Command debug_export syncs a week of synthetic data from a mock Garmin
// client into an in-memory store and writes the resulting export. It is a
// probe for the sync and export pipeline that needs no Garmin account.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/toeirei/garmin-health-data/internal/db"
	"github.com/toeirei/garmin-health-data/internal/export"
	"github.com/toeirei/garmin-health-data/internal/garmin"
	"github.com/toeirei/garmin-health-data/internal/model"
	"github.com/toeirei/garmin-health-data/internal/syncer"
)

const probeDays = 7

func main() {
	out := filepath.Join(os.TempDir(), export.DefaultFileName(time.Now()))
	if len(os.Args) > 1 {
		out = os.Args[1]
	}
	if err := run(context.Background(), os.Stdout, out, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, out string, now time.Time) error {
	store, err := db.NewStoreFromDSN(ctx, db.TypeSQLite, "file:debprobe?mode=memory&cache=shared")
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	end := syncer.Day(now)
	s := syncer.New(syntheticClient(), store, syncer.Options{
		Start: end.AddDate(0, 0, -(probeDays - 1)),
		End:   end,
	})
	s.SetClock(func() time.Time { return now })
	res, err := s.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "run %s: %d records\n", res.RunID, res.Records)

	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	for _, dt := range model.AllDataTypes() {
		fmt.Fprintf(w, "%s: %d\n", dt, counts[dt])
	}

	filename := export.FileName(out)
	if _, err := export.ToFile(ctx, store, filename, now); err != nil {
		return err
	}
	fmt.Fprintf(w, "export: %s\n", filename)
	return nil
}

func syntheticClient() *garmin.MockClient {
	return garmin.NewMockClient(nil, garmin.MockClientOverwrites{
		Activities: func(_ context.Context, start, end time.Time, offset, _ int) ([]model.Activity, error) {
			if offset > 0 {
				return nil, nil
			}
			var out []model.Activity
			for d := start; !d.After(end); d = d.AddDate(0, 0, 2) {
				at := d.Add(7 * time.Hour)
				out = append(out, model.Activity{
					ID:              at.Unix(),
					Name:            "Morning Run",
					Type:            "running",
					StartTimeGMT:    at,
					StartTimeLocal:  at,
					DurationSeconds: 1800,
					DistanceMeters:  5000,
					Calories:        350,
					AverageHR:       145,
					MaxHR:           171,
				})
			}
			return out, nil
		},
		Sleep: func(_ context.Context, day time.Time) (model.Sleep, error) {
			return model.Sleep{
				CalendarDate: day.Format(time.DateOnly),
				SleepStart:   day.Add(-2 * time.Hour),
				SleepEnd:     day.Add(6 * time.Hour),
				DeepSeconds:  5400,
				LightSeconds: 14400,
				REMSeconds:   5400,
				AwakeSeconds: 1200,
				Score:        80,
			}, nil
		},
		DailySummary: func(_ context.Context, day time.Time) (model.DailySummary, error) {
			return model.DailySummary{
				CalendarDate:      day.Format(time.DateOnly),
				TotalSteps:        8000 + day.Day()*100,
				TotalKilocalories: 2300,
				RestingHeartRate:  52,
			}, nil
		},
		HeartRates: func(_ context.Context, day time.Time) ([]model.HeartRateSample, error) {
			var out []model.HeartRateSample
			for h := 0; h < 24; h += 6 {
				out = append(out, model.HeartRateSample{Timestamp: day.Add(time.Duration(h) * time.Hour), BPM: 55 + h})
			}
			return out, nil
		},
		BodyComposition: func(_ context.Context, start, _ time.Time) ([]model.BodyComposition, error) {
			at := start.Add(8 * time.Hour)
			return []model.BodyComposition{{SamplePK: at.Unix(), MeasuredAt: at, WeightGrams: 72000, BMI: 22.5}}, nil
		},
	})
}
