// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"os"
	"testing"

	"github.com/toeirei/garmin-health-data/internal/model"
)

// Cross-backend integration checks. These tests run only when the
// corresponding DSN environment variable is set.
func TestCrossBackend_Postgres(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set; skipping Postgres integration test")
	}
	exerciseBackend(t, TypePostgres, dsn)
}

func TestCrossBackend_MySQL(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set; skipping MySQL integration test")
	}
	exerciseBackend(t, TypeMySQL, dsn)
}

func exerciseBackend(t *testing.T, dbType, dsn string) {
	t.Helper()
	ctx := t.Context()
	s, err := NewStoreFromDSN(ctx, dbType, dsn)
	if err != nil {
		t.Fatalf("%s NewStoreFromDSN failed: %v", dbType, err)
	}
	t.Cleanup(func() {
		_ = DropSchema(ctx, s.DB())
		_ = s.Close()
	})

	day := []model.DailySummary{{CalendarDate: "2026-05-01", TotalSteps: 100}}
	for i := 0; i < 2; i++ {
		if _, err := s.UpsertDailySummaries(ctx, day); err != nil {
			t.Fatalf("upsert #%d: %v", i, err)
		}
	}
	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[model.DataDailySummary] != 1 {
		t.Fatalf("expected one row after repeated upsert, got %d", counts[model.DataDailySummary])
	}
}
