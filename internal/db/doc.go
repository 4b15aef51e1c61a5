// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db is the relational store for downloaded Garmin data.
//
// The schema is declared once by the bun row types returned from Models();
// CreateSchema and DropSchema create and drop every declared table. The same
// code runs against SQLite (default), Postgres and MySQL.
//
// Writes are idempotent upserts keyed by each table's natural key, so a day
// can be re-synchronized any number of times without duplicating rows.
//
// Testing notes
//   - Prefer NewStoreFromDSN(ctx, "sqlite", "file:<name>?mode=memory&cache=shared")
//     for tests that need real SQL semantics.
//   - internal/testutil provides engine and session fixtures on a temp file.
package db
