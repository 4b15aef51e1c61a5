// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package syncer copies Garmin Connect data into the local store.
//
// Every data type is synchronized over its own window of calendar days:
// fetches fan out with bounded concurrency, while all writes for a data type
// happen in one transaction on the calling goroutine together with the
// advance of its sync state.
package syncer // import "github.com/toeirei/garmin-health-data/internal/syncer"

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/toeirei/garmin-health-data/internal/db"
	"github.com/toeirei/garmin-health-data/internal/garmin"
	"github.com/toeirei/garmin-health-data/internal/logging"
	"github.com/toeirei/garmin-health-data/internal/model"
)

// Defaults applied by New for unset Options fields.
const (
	DefaultLookbackDays     = 30
	DefaultConcurrency      = 4
	DefaultActivityPageSize = 100
)

// Options controls what a Syncer fetches.
type Options struct {
	// Start and End bound the window explicitly. Zero values fall back to
	// the stored sync state (start) and today (end).
	Start time.Time
	End   time.Time

	// DataTypes to synchronize; empty means all.
	DataTypes []model.DataType

	LookbackDays     int
	Concurrency      int
	ActivityPageSize int
}

// TypeResult reports the outcome for one data type.
type TypeResult struct {
	DataType model.DataType
	Window   Window
	Records  int
	Err      error
}

// Result summarizes a run.
type Result struct {
	RunID   string
	Types   []TypeResult
	Records int
}

// Syncer copies data from a Fetcher into a Store.
type Syncer struct {
	fetcher garmin.Fetcher
	store   db.Store
	opts    Options
	now     func() time.Time
}

// New returns a Syncer with defaults applied to opts.
func New(fetcher garmin.Fetcher, store db.Store, opts Options) *Syncer {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ActivityPageSize <= 0 {
		opts.ActivityPageSize = DefaultActivityPageSize
	}
	if len(opts.DataTypes) == 0 {
		opts.DataTypes = model.AllDataTypes()
	}
	return &Syncer{fetcher: fetcher, store: store, opts: opts, now: time.Now}
}

// SetClock overrides the clock used to determine today.
func (s *Syncer) SetClock(now func() time.Time) { s.now = now }

// Run synchronizes every configured data type. A failing data type does not
// stop the others; the returned error joins all failures.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	if !s.opts.Start.IsZero() && !s.opts.End.IsZero() && s.opts.Start.After(s.opts.End) {
		return nil, fmt.Errorf("start date %s is after end date %s",
			s.opts.Start.Format(model.DateLayout), s.opts.End.Format(model.DateLayout))
	}

	run, err := s.store.StartRun(ctx, s.opts.DataTypes)
	if err != nil {
		return nil, err
	}
	res := &Result{RunID: run.ID}
	today := Day(s.now())

	var errs []error
	for _, dt := range s.opts.DataTypes {
		tr := s.syncType(ctx, dt, today)
		res.Types = append(res.Types, tr)
		res.Records += tr.Records
		if tr.Err != nil {
			logging.Errorf("sync %s failed: %v", dt, tr.Err)
			errs = append(errs, fmt.Errorf("%s: %w", dt, tr.Err))
			continue
		}
		logging.Infof("synced %s: %d records (%s)", dt, tr.Records, tr.Window)
	}
	runErr := errors.Join(errs...)

	run.Records = res.Records
	run.Status = model.RunSucceeded
	if runErr != nil {
		run.Status = model.RunFailed
		run.Error = runErr.Error()
	}
	// Record the outcome even when ctx was cancelled mid-run.
	if err := s.store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return res, runErr
}

func (s *Syncer) syncType(ctx context.Context, dt model.DataType, today time.Time) TypeResult {
	tr := TypeResult{DataType: dt}
	state, err := s.store.GetSyncState(ctx, dt)
	if err != nil {
		tr.Err = err
		return tr
	}
	tr.Window, err = resolveWindow(today, s.opts.Start, s.opts.End, state, s.opts.LookbackDays)
	if err != nil {
		tr.Err = err
		return tr
	}
	if tr.Window.Empty() {
		logging.Debugf("sync %s: nothing to do", dt)
		return tr
	}

	write, err := s.fetch(ctx, dt, tr.Window)
	if err != nil {
		tr.Err = err
		return tr
	}

	through := completedThrough(tr.Window, today)
	tr.Err = s.store.InTx(ctx, func(tx db.Store) error {
		n, err := write(ctx, tx)
		if err != nil {
			return err
		}
		tr.Records = n
		if state != nil && state.LastSyncedDate >= through.Format(model.DateLayout) {
			return nil
		}
		return tx.SetSyncState(ctx, dt, through.Format(model.DateLayout))
	})
	if tr.Err != nil {
		tr.Records = 0
	}
	return tr
}

// writeFunc persists fetched data and returns the number of records written.
type writeFunc func(ctx context.Context, st db.Store) (int, error)

func (s *Syncer) fetch(ctx context.Context, dt model.DataType, w Window) (writeFunc, error) {
	switch dt {
	case model.DataActivities:
		acts, err := s.fetchActivities(ctx, w)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, st db.Store) (int, error) { return st.UpsertActivities(ctx, acts) }, nil

	case model.DataSleep:
		nights, err := fetchDays(ctx, s.opts.Concurrency, w, func(ctx context.Context, day time.Time) ([]model.Sleep, error) {
			v, err := s.fetcher.Sleep(ctx, day)
			if err != nil {
				return nil, err
			}
			return []model.Sleep{v}, nil
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, st db.Store) (int, error) { return st.UpsertSleep(ctx, nights) }, nil

	case model.DataDailySummary:
		days, err := fetchDays(ctx, s.opts.Concurrency, w, func(ctx context.Context, day time.Time) ([]model.DailySummary, error) {
			v, err := s.fetcher.DailySummary(ctx, day)
			if err != nil {
				return nil, err
			}
			return []model.DailySummary{v}, nil
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, st db.Store) (int, error) { return st.UpsertDailySummaries(ctx, days) }, nil

	case model.DataHeartRate:
		samples, err := fetchDays(ctx, s.opts.Concurrency, w, s.fetcher.HeartRates)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, st db.Store) (int, error) { return st.UpsertHeartRates(ctx, samples) }, nil

	case model.DataBodyComposition:
		bc, err := s.fetcher.BodyComposition(ctx, w.Start, w.End)
		if err != nil && !errors.Is(err, garmin.ErrNoData) {
			return nil, err
		}
		return func(ctx context.Context, st db.Store) (int, error) { return st.UpsertBodyCompositions(ctx, bc) }, nil
	}
	return nil, fmt.Errorf("unknown data type %q", dt)
}

// fetchActivities pages through the window until a short page comes back.
func (s *Syncer) fetchActivities(ctx context.Context, w Window) ([]model.Activity, error) {
	var out []model.Activity
	limit := s.opts.ActivityPageSize
	for offset := 0; ; offset += limit {
		page, err := s.fetcher.Activities(ctx, w.Start, w.End, offset, limit)
		if err != nil && !errors.Is(err, garmin.ErrNoData) {
			return nil, fmt.Errorf("activities page at offset %d: %w", offset, err)
		}
		out = append(out, page...)
		if len(page) < limit {
			return out, nil
		}
	}
}

// fetchDays calls fn for every day of w with at most limit calls in flight.
// Days without data are skipped. Results keep calendar order.
func fetchDays[T any](ctx context.Context, limit int, w Window, fn func(context.Context, time.Time) ([]T, error)) ([]T, error) {
	days := w.Days()
	results := make([][]T, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, day := range days {
		g.Go(func() error {
			v, err := fn(gctx, day)
			if errors.Is(err, garmin.ErrNoData) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", day.Format(model.DateLayout), err)
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []T
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
