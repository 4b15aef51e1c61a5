// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"testing"

	"github.com/uptrace/bun/dialect"
	_ "modernc.org/sqlite"
)

func TestCreateBunDB_SelectsDialect(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	cases := map[string]dialect.Name{
		TypeSQLite:   dialect.SQLite,
		TypePostgres: dialect.PG,
		TypeMySQL:    dialect.MySQL,
		"unknown":    dialect.SQLite,
	}
	for dbType, want := range cases {
		b := createBunDB(sqlDB, dbType)
		if b == nil {
			t.Fatalf("createBunDB returned nil for %s", dbType)
		}
		if got := b.Dialect().Name(); got != want {
			t.Fatalf("%s: dialect %s, want %s", dbType, got, want)
		}
	}
}
