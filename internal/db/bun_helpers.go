// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// execRawProvider is a small interface used to accept *bun.DB, bun.Conn or
// bun.Tx since all of them expose NewRaw.
type execRawProvider interface {
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// ExecRaw executes a raw SQL statement using the provided Bun DB or transaction.
func ExecRaw(ctx context.Context, exec execRawProvider, query string, args ...interface{}) (sql.Result, error) {
	return exec.NewRaw(query, args...).Exec(ctx)
}

// QueryRawInto runs a raw query and scans the result into dest using Bun's RawQuery.Scan.
func QueryRawInto(ctx context.Context, exec execRawProvider, dest interface{}, query string, args ...interface{}) error {
	return exec.NewRaw(query, args...).Scan(ctx, dest)
}

// onConflictUpdate turns an insert into an upsert on key, overwriting cols
// with the incoming values. MySQL spells this differently from SQLite and
// Postgres.
func onConflictUpdate(idb bun.IDB, q *bun.InsertQuery, key string, cols ...string) *bun.InsertQuery {
	if idb.Dialect().Name() == dialect.MySQL {
		q = q.On("DUPLICATE KEY UPDATE")
		for _, c := range cols {
			q = q.Set(c + " = VALUES(" + c + ")")
		}
		return q
	}
	q = q.On("CONFLICT (" + key + ") DO UPDATE")
	for _, c := range cols {
		q = q.Set(c + " = EXCLUDED." + c)
	}
	return q
}

// upsertChunkSize bounds the number of rows per INSERT so large days stay
// below the bind-variable limits of every backend.
const upsertChunkSize = 200

// chunkRanges splits n items into [start,end) ranges of at most size.
func chunkRanges(n, size int) [][2]int {
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
