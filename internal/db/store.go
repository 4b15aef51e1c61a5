// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/toeirei/garmin-health-data/internal/model"
	"github.com/uptrace/bun"
)

// Store defines the persistence operations used by the sync engine and the CLI.
type Store interface {
	UpsertActivities(ctx context.Context, activities []model.Activity) (int, error)
	UpsertSleep(ctx context.Context, sleep []model.Sleep) (int, error)
	UpsertDailySummaries(ctx context.Context, summaries []model.DailySummary) (int, error)
	UpsertHeartRates(ctx context.Context, samples []model.HeartRateSample) (int, error)
	UpsertBodyCompositions(ctx context.Context, samples []model.BodyComposition) (int, error)

	// GetSyncState returns (nil, nil) when the data type was never synchronized.
	GetSyncState(ctx context.Context, dt model.DataType) (*model.SyncState, error)
	SetSyncState(ctx context.Context, dt model.DataType, lastSyncedDate string) error
	ListSyncStates(ctx context.Context) ([]model.SyncState, error)

	StartRun(ctx context.Context, dataTypes []model.DataType) (*model.SyncRun, error)
	FinishRun(ctx context.Context, run *model.SyncRun) error
	RecentRuns(ctx context.Context, limit int) ([]model.SyncRun, error)

	Counts(ctx context.Context) (map[model.DataType]int, error)
	Export(ctx context.Context) (*model.Dump, error)

	// InTx runs fn against a Store bound to a single transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}

// BunStore implements Store on any bun.IDB (*bun.DB, bun.Conn or bun.Tx).
type BunStore struct {
	db    bun.IDB
	owned *bun.DB
	now   func() time.Time
}

var _ Store = (*BunStore)(nil)

// NewBunStore wraps an existing connection. The caller keeps ownership of it.
func NewBunStore(idb bun.IDB) *BunStore {
	return &BunStore{db: idb, now: time.Now}
}

// DB exposes the underlying Bun handle for callers that need raw access.
func (s *BunStore) DB() bun.IDB {
	return s.db
}

// Close releases the connection pool if the store opened it.
func (s *BunStore) Close() error {
	if s.owned == nil {
		return nil
	}
	return s.owned.Close()
}

// InTx runs fn in a transaction; fn's error rolls the transaction back.
func (s *BunStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(&BunStore{db: tx, now: s.now})
	})
}

// upsertRows writes rows in chunks, replacing cols on key conflicts. Rows
// with a repeated key keep the last occurrence; Postgres rejects a statement
// that updates the same row twice.
func upsertRows[T any](ctx context.Context, idb bun.IDB, rows []T, keyOf func(T) string, key string, cols ...string) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	pos := make(map[string]int, len(rows))
	deduped := make([]T, 0, len(rows))
	for _, r := range rows {
		k := keyOf(r)
		if i, ok := pos[k]; ok {
			deduped[i] = r
			continue
		}
		pos[k] = len(deduped)
		deduped = append(deduped, r)
	}
	for _, rg := range chunkRanges(len(deduped), upsertChunkSize) {
		chunk := deduped[rg[0]:rg[1]]
		q := onConflictUpdate(idb, idb.NewInsert().Model(&chunk), key, cols...)
		if _, err := q.Exec(ctx); err != nil {
			return 0, err
		}
	}
	return len(deduped), nil
}

func (s *BunStore) UpsertActivities(ctx context.Context, activities []model.Activity) (int, error) {
	rows := make([]ActivityRow, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, activityToRow(a))
	}
	n, err := upsertRows(ctx, s.db, rows, func(r ActivityRow) string { return fmt.Sprint(r.ActivityID) }, "activity_id",
		"name", "activity_type", "start_time_gmt", "start_time_local", "duration_seconds", "distance_meters",
		"calories", "average_hr", "max_hr", "steps", "raw")
	if err != nil {
		return 0, fmt.Errorf("upsert activities: %w", err)
	}
	return n, nil
}

func (s *BunStore) UpsertSleep(ctx context.Context, sleep []model.Sleep) (int, error) {
	rows := make([]SleepRow, 0, len(sleep))
	for _, sl := range sleep {
		rows = append(rows, sleepToRow(sl))
	}
	n, err := upsertRows(ctx, s.db, rows, func(r SleepRow) string { return r.CalendarDate }, "calendar_date",
		"sleep_start", "sleep_end", "deep_seconds", "light_seconds", "rem_seconds", "awake_seconds", "sleep_score")
	if err != nil {
		return 0, fmt.Errorf("upsert sleep: %w", err)
	}
	return n, nil
}

func (s *BunStore) UpsertDailySummaries(ctx context.Context, summaries []model.DailySummary) (int, error) {
	rows := make([]DailySummaryRow, 0, len(summaries))
	for _, d := range summaries {
		rows = append(rows, dailySummaryToRow(d))
	}
	n, err := upsertRows(ctx, s.db, rows, func(r DailySummaryRow) string { return r.CalendarDate }, "calendar_date",
		"total_steps", "total_kilocalories", "active_kilocalories", "resting_heart_rate", "min_heart_rate",
		"max_heart_rate", "average_stress", "floors_ascended", "moderate_intensity_minutes", "vigorous_intensity_minutes")
	if err != nil {
		return 0, fmt.Errorf("upsert daily summaries: %w", err)
	}
	return n, nil
}

func (s *BunStore) UpsertHeartRates(ctx context.Context, samples []model.HeartRateSample) (int, error) {
	rows := make([]HeartRateRow, 0, len(samples))
	for _, h := range samples {
		rows = append(rows, heartRateToRow(h))
	}
	n, err := upsertRows(ctx, s.db, rows, func(r HeartRateRow) string { return r.SampledAt.Format(time.RFC3339Nano) }, "sampled_at", "bpm")
	if err != nil {
		return 0, fmt.Errorf("upsert heart rates: %w", err)
	}
	return n, nil
}

func (s *BunStore) UpsertBodyCompositions(ctx context.Context, samples []model.BodyComposition) (int, error) {
	rows := make([]BodyCompositionRow, 0, len(samples))
	for _, b := range samples {
		rows = append(rows, bodyCompositionToRow(b))
	}
	n, err := upsertRows(ctx, s.db, rows, func(r BodyCompositionRow) string { return fmt.Sprint(r.SamplePK) }, "sample_pk",
		"measured_at", "weight_grams", "bmi", "body_fat_percent", "muscle_mass_grams")
	if err != nil {
		return 0, fmt.Errorf("upsert body compositions: %w", err)
	}
	return n, nil
}

// GetSyncState returns the stored progress for dt, or nil if there is none.
func (s *BunStore) GetSyncState(ctx context.Context, dt model.DataType) (*model.SyncState, error) {
	var row SyncStateRow
	err := s.db.NewSelect().Model(&row).Where("data_type = ?", string(dt)).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sync state %s: %w", dt, err)
	}
	st := syncStateRowToModel(row)
	return &st, nil
}

// SetSyncState records lastSyncedDate as the newest fully synchronized day for dt.
func (s *BunStore) SetSyncState(ctx context.Context, dt model.DataType, lastSyncedDate string) error {
	row := SyncStateRow{DataType: string(dt), LastSyncedDate: lastSyncedDate, UpdatedAt: s.now().UTC()}
	q := onConflictUpdate(s.db, s.db.NewInsert().Model(&row), "data_type", "last_synced_date", "updated_at")
	if _, err := q.Exec(ctx); err != nil {
		return fmt.Errorf("set sync state %s: %w", dt, err)
	}
	return nil
}

func (s *BunStore) ListSyncStates(ctx context.Context) ([]model.SyncState, error) {
	var rows []SyncStateRow
	if err := s.db.NewSelect().Model(&rows).Order("data_type").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list sync states: %w", err)
	}
	out := make([]model.SyncState, 0, len(rows))
	for _, r := range rows {
		out = append(out, syncStateRowToModel(r))
	}
	return out, nil
}

// StartRun inserts a sync run in the running state.
func (s *BunStore) StartRun(ctx context.Context, dataTypes []model.DataType) (*model.SyncRun, error) {
	names := make([]string, 0, len(dataTypes))
	for _, dt := range dataTypes {
		names = append(names, string(dt))
	}
	run := model.SyncRun{
		ID:        newRunID(),
		StartedAt: s.now().UTC(),
		Status:    model.RunRunning,
		DataTypes: joinNames(names),
	}
	row := syncRunToRow(run)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return nil, fmt.Errorf("start sync run: %w", MapDBError(err))
	}
	return &run, nil
}

// FinishRun stores the final status, record count and error of run.
func (s *BunStore) FinishRun(ctx context.Context, run *model.SyncRun) error {
	if run == nil {
		return errors.New("finish sync run: nil run")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = s.now().UTC()
	}
	row := syncRunToRow(*run)
	res, err := s.db.NewUpdate().Model(&row).Column("finished_at", "status", "records", "error").WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("finish sync run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish sync run %s: %w", run.ID, sql.ErrNoRows)
	}
	return nil
}

// RecentRuns returns the newest runs first.
func (s *BunStore) RecentRuns(ctx context.Context, limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []SyncRunRow
	if err := s.db.NewSelect().Model(&rows).Order("started_at DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	out := make([]model.SyncRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, syncRunRowToModel(r))
	}
	return out, nil
}

// Counts returns the number of stored rows per data type.
func (s *BunStore) Counts(ctx context.Context) (map[model.DataType]int, error) {
	tables := map[model.DataType]any{
		model.DataActivities:      (*ActivityRow)(nil),
		model.DataSleep:           (*SleepRow)(nil),
		model.DataDailySummary:    (*DailySummaryRow)(nil),
		model.DataHeartRate:       (*HeartRateRow)(nil),
		model.DataBodyComposition: (*BodyCompositionRow)(nil),
	}
	out := make(map[model.DataType]int, len(tables))
	for dt, m := range tables {
		n, err := s.db.NewSelect().Model(m).Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", dt, err)
		}
		out[dt] = n
	}
	return out, nil
}

// Export reads every stored row.
func (s *BunStore) Export(ctx context.Context) (*model.Dump, error) {
	dump := &model.Dump{ExportedAt: s.now().UTC()}

	var acts []ActivityRow
	if err := s.db.NewSelect().Model(&acts).Order("activity_id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("export activities: %w", err)
	}
	for _, r := range acts {
		dump.Activities = append(dump.Activities, activityRowToModel(r))
	}

	var sleep []SleepRow
	if err := s.db.NewSelect().Model(&sleep).Order("calendar_date").Scan(ctx); err != nil {
		return nil, fmt.Errorf("export sleep: %w", err)
	}
	for _, r := range sleep {
		dump.Sleep = append(dump.Sleep, sleepRowToModel(r))
	}

	var summaries []DailySummaryRow
	if err := s.db.NewSelect().Model(&summaries).Order("calendar_date").Scan(ctx); err != nil {
		return nil, fmt.Errorf("export daily summaries: %w", err)
	}
	for _, r := range summaries {
		dump.DailySummaries = append(dump.DailySummaries, dailySummaryRowToModel(r))
	}

	var hr []HeartRateRow
	if err := s.db.NewSelect().Model(&hr).Order("sampled_at").Scan(ctx); err != nil {
		return nil, fmt.Errorf("export heart rates: %w", err)
	}
	for _, r := range hr {
		dump.HeartRates = append(dump.HeartRates, heartRateRowToModel(r))
	}

	var body []BodyCompositionRow
	if err := s.db.NewSelect().Model(&body).Order("measured_at").Scan(ctx); err != nil {
		return nil, fmt.Errorf("export body compositions: %w", err)
	}
	for _, r := range body {
		dump.BodyCompositions = append(dump.BodyCompositions, bodyCompositionRowToModel(r))
	}

	states, err := s.ListSyncStates(ctx)
	if err != nil {
		return nil, err
	}
	dump.SyncState = states
	return dump, nil
}
