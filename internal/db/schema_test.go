// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"testing"
)

func TestCreateSchema_CreatesAllTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	names, err := TableNames(ctx, s.DB())
	if err != nil {
		t.Fatalf("TableNames failed: %v", err)
	}
	want := []string{"activities", "body_compositions", "daily_summaries", "heart_rate_samples", "sleep_sessions", "sync_runs", "sync_state"}
	if len(names) != len(want) {
		t.Fatalf("tables = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("tables = %v, want %v", names, want)
		}
	}

	// Running it again must be a no-op.
	if err := CreateSchema(ctx, s.DB()); err != nil {
		t.Fatalf("second CreateSchema failed: %v", err)
	}
}

func TestDropSchema_RemovesAllTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := DropSchema(ctx, s.DB()); err != nil {
		t.Fatalf("DropSchema failed: %v", err)
	}
	names, err := TableNames(ctx, s.DB())
	if err != nil {
		t.Fatalf("TableNames failed: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no tables after DropSchema, got %v", names)
	}
	// Dropping an already empty schema is fine.
	if err := DropSchema(ctx, s.DB()); err != nil {
		t.Fatalf("second DropSchema failed: %v", err)
	}
}

func TestModels_MatchTables(t *testing.T) {
	if got := len(Models()); got != 7 {
		t.Fatalf("expected 7 models, got %d", got)
	}
}
