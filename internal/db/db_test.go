// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpen_UnsupportedType(t *testing.T) {
	if _, err := Open("oracle", "whatever"); err == nil {
		t.Fatalf("expected error for unsupported database type")
	}
}

func TestOpen_UsesInjectedOpener(t *testing.T) {
	prev := sqlOpenFunc
	defer func() { sqlOpenFunc = prev }()

	var gotDriver, gotDSN string
	boom := errors.New("boom")
	sqlOpenFunc = func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return nil, boom
	}
	if _, err := Open(TypePostgres, "host=localhost"); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if gotDriver != "pgx" || gotDSN != "host=localhost" {
		t.Fatalf("unexpected open call: driver=%q dsn=%q", gotDriver, gotDSN)
	}
}

func TestSqliteDSN_AddsBusyTimeout(t *testing.T) {
	cases := map[string]string{
		"/tmp/a.db":                           "/tmp/a.db?_pragma=busy_timeout(5000)",
		"file:/tmp/a.db?cache=shared":         "file:/tmp/a.db?cache=shared&_pragma=busy_timeout(5000)",
		":memory:":                            ":memory:",
		"file:x?mode=memory&cache=shared":     "file:x?mode=memory&cache=shared",
		"/tmp/b.db?_pragma=journal_mode(WAL)": "/tmp/b.db?_pragma=journal_mode(WAL)",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpen_MemoryForcesSingleConnection(t *testing.T) {
	t.Setenv("GARMIN_DB_MAX_OPEN_CONNS", "")
	bdb, err := Open(TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = bdb.Close() }()
	if got := bdb.DB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d, want 1", got)
	}
	if err := CreateSchema(context.Background(), bdb); err != nil {
		t.Fatalf("CreateSchema on :memory: failed: %v", err)
	}
}

func TestOpen_PoolSizeFromEnv(t *testing.T) {
	t.Setenv("GARMIN_DB_MAX_OPEN_CONNS", "3")
	bdb, err := Open(TypeSQLite, "file:pool_env?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = bdb.Close() }()
	if got := bdb.DB.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("MaxOpenConnections = %d, want 3", got)
	}
}

func TestNewStoreFromDSN_ReportsOpenErrors(t *testing.T) {
	_, err := NewStoreFromDSN(context.Background(), "nope", "x")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
}
