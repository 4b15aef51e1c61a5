// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// ActivityRow maps the `activities` table.
type ActivityRow struct {
	bun.BaseModel   `bun:"table:activities"`
	ActivityID      int64     `bun:"activity_id,pk"`
	Name            string    `bun:"name"`
	ActivityType    string    `bun:"activity_type,type:varchar(64)"`
	StartTimeGMT    time.Time `bun:"start_time_gmt"`
	StartTimeLocal  time.Time `bun:"start_time_local"`
	DurationSeconds float64   `bun:"duration_seconds,nullzero"`
	DistanceMeters  float64   `bun:"distance_meters,nullzero"`
	Calories        float64   `bun:"calories,nullzero"`
	AverageHR       int       `bun:"average_hr,nullzero"`
	MaxHR           int       `bun:"max_hr,nullzero"`
	Steps           int       `bun:"steps,nullzero"`
	Raw             string    `bun:"raw,type:text,nullzero"`
}

// SleepRow maps the `sleep_sessions` table.
type SleepRow struct {
	bun.BaseModel `bun:"table:sleep_sessions"`
	CalendarDate  string    `bun:"calendar_date,pk,type:varchar(10)"`
	SleepStart    time.Time `bun:"sleep_start,nullzero"`
	SleepEnd      time.Time `bun:"sleep_end,nullzero"`
	DeepSeconds   int       `bun:"deep_seconds,nullzero"`
	LightSeconds  int       `bun:"light_seconds,nullzero"`
	REMSeconds    int       `bun:"rem_seconds,nullzero"`
	AwakeSeconds  int       `bun:"awake_seconds,nullzero"`
	SleepScore    int       `bun:"sleep_score,nullzero"`
}

// DailySummaryRow maps the `daily_summaries` table.
type DailySummaryRow struct {
	bun.BaseModel            `bun:"table:daily_summaries"`
	CalendarDate             string  `bun:"calendar_date,pk,type:varchar(10)"`
	TotalSteps               int     `bun:"total_steps,nullzero"`
	TotalKilocalories        float64 `bun:"total_kilocalories,nullzero"`
	ActiveKilocalories       float64 `bun:"active_kilocalories,nullzero"`
	RestingHeartRate         int     `bun:"resting_heart_rate,nullzero"`
	MinHeartRate             int     `bun:"min_heart_rate,nullzero"`
	MaxHeartRate             int     `bun:"max_heart_rate,nullzero"`
	AverageStress            int     `bun:"average_stress,nullzero"`
	FloorsAscended           float64 `bun:"floors_ascended,nullzero"`
	ModerateIntensityMinutes int     `bun:"moderate_intensity_minutes,nullzero"`
	VigorousIntensityMinutes int     `bun:"vigorous_intensity_minutes,nullzero"`
}

// HeartRateRow maps the `heart_rate_samples` table.
type HeartRateRow struct {
	bun.BaseModel `bun:"table:heart_rate_samples"`
	SampledAt     time.Time `bun:"sampled_at,pk"`
	BPM           int       `bun:"bpm,notnull"`
}

// BodyCompositionRow maps the `body_compositions` table.
type BodyCompositionRow struct {
	bun.BaseModel   `bun:"table:body_compositions"`
	SamplePK        int64     `bun:"sample_pk,pk"`
	MeasuredAt      time.Time `bun:"measured_at"`
	WeightGrams     float64   `bun:"weight_grams,nullzero"`
	BMI             float64   `bun:"bmi,nullzero"`
	BodyFatPercent  float64   `bun:"body_fat_percent,nullzero"`
	MuscleMassGrams float64   `bun:"muscle_mass_grams,nullzero"`
}

// SyncStateRow maps the `sync_state` table.
type SyncStateRow struct {
	bun.BaseModel  `bun:"table:sync_state"`
	DataType       string    `bun:"data_type,pk,type:varchar(32)"`
	LastSyncedDate string    `bun:"last_synced_date,type:varchar(10)"`
	UpdatedAt      time.Time `bun:"updated_at"`
}

// SyncRunRow maps the `sync_runs` table.
type SyncRunRow struct {
	bun.BaseModel `bun:"table:sync_runs"`
	ID            string    `bun:"id,pk,type:varchar(36)"`
	StartedAt     time.Time `bun:"started_at"`
	FinishedAt    time.Time `bun:"finished_at,nullzero"`
	Status        string    `bun:"status,type:varchar(16)"`
	DataTypes     string    `bun:"data_types"`
	Records       int       `bun:"records"`
	Error         string    `bun:"error,type:text,nullzero"`
}

// Models returns the row types that make up the schema, in creation order.
func Models() []any {
	return []any{
		(*ActivityRow)(nil),
		(*SleepRow)(nil),
		(*DailySummaryRow)(nil),
		(*HeartRateRow)(nil),
		(*BodyCompositionRow)(nil),
		(*SyncStateRow)(nil),
		(*SyncRunRow)(nil),
	}
}

// CreateSchema creates every table declared by Models that does not exist yet.
func CreateSchema(ctx context.Context, idb bun.IDB) error {
	for _, m := range Models() {
		if _, err := idb.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	if idb.Dialect().Name() != dialect.MySQL {
		// MySQL has no CREATE INDEX IF NOT EXISTS; the primary keys cover its queries.
		if _, err := idb.NewCreateIndex().Model((*ActivityRow)(nil)).Index("idx_activities_start_time_gmt").
			Column("start_time_gmt").IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create activities index: %w", err)
		}
	}
	return nil
}

// DropSchema drops every table declared by Models, in reverse creation order.
func DropSchema(ctx context.Context, idb bun.IDB) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if _, err := idb.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", models[i], err)
		}
	}
	return nil
}

// TableNames lists the user tables present in the connected database.
func TableNames(ctx context.Context, idb bun.IDB) ([]string, error) {
	var query string
	switch idb.Dialect().Name() {
	case dialect.PG:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name"
	case dialect.MySQL:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	default:
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	}
	var names []string
	if err := QueryRawInto(ctx, idb, &names, query); err != nil {
		return nil, err
	}
	return names, nil
}
