// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore opens a file-backed SQLite store in the test's temp dir and
// closes it when the test ends.
func newTestStore(t *testing.T) *BunStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "store.db")
	s, err := NewStoreFromDSN(context.Background(), TypeSQLite, dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fixedClock pins the store's clock for deterministic timestamps.
func fixedClock(s *BunStore, at time.Time) {
	s.now = func() time.Time { return at }
}
