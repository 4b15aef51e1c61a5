// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db // import "github.com/toeirei/garmin-health-data/internal/db"

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	// SQL drivers for the optional server backends.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// Supported database types.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
)

// driverName maps a configured database type to the registered sql driver.
func driverName(dbType string) string {
	// The pgx stdlib registers driver name "pgx"; map "postgres" to that driver.
	if dbType == TypePostgres {
		return "pgx"
	}
	return dbType
}

// sqliteDSN adds a busy timeout to file-backed SQLite DSNs so a concurrent
// reader does not fail a sync with SQLITE_BUSY.
func sqliteDSN(dsn string) string {
	if dsn == ":memory:" || strings.Contains(dsn, "_pragma=") || strings.Contains(dsn, "mode=memory") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// Open opens the database identified by dbType and dsn and wraps it in a
// *bun.DB using the matching dialect. The schema is not touched; callers use
// CreateSchema for that.
func Open(dbType, dsn string) (*bun.DB, error) {
	switch dbType {
	case TypeSQLite, TypePostgres, TypeMySQL:
	default:
		return nil, fmt.Errorf("unsupported database type: '%s'", dbType)
	}
	if dbType == TypeSQLite {
		dsn = sqliteDSN(dsn)
	}

	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName(dbType), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pool defaults are conservative; a single user tool rarely needs more.
	// Values can be overridden via environment variables.
	const (
		defaultMaxOpenConns    = 8
		defaultMaxIdleConns    = 8
		defaultConnMaxLifetime = 5 * time.Minute
	)
	maxOpen := envInt("GARMIN_DB_MAX_OPEN_CONNS", defaultMaxOpenConns)
	maxIdle := envInt("GARMIN_DB_MAX_IDLE_CONNS", defaultMaxIdleConns)

	// Every connection to ":memory:" gets its own private database, so the
	// schema would be invisible to the second connection.
	if dbType == TypeSQLite && dsn == ":memory:" {
		maxOpen = 1
		maxIdle = 1
	}
	connMax := time.Duration(envInt("GARMIN_DB_CONN_MAX_LIFETIME_SECONDS", int(defaultConnMaxLifetime/time.Second))) * time.Second
	connIdle := envInt("GARMIN_DB_CONN_MAX_IDLE_SECONDS", 60)

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(connMax)
	sqlDB.SetConnMaxIdleTime(time.Duration(connIdle) * time.Second)

	dbLogf("db: opened %s driver in %s (conn max open=%d, idle=%ds, maxLifetime=%s)", driverName(dbType), time.Since(start), maxOpen, connIdle, connMax)
	return createBunDB(sqlDB, dbType), nil
}

// createBunDB constructs a *bun.DB for the provided *sql.DB and dbType.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case TypePostgres:
		return bun.NewDB(sqlDB, pgdialect.New())
	case TypeMySQL:
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// NewStoreFromDSN opens the database, creates any missing tables and returns a
// Store that owns the connection pool.
func NewStoreFromDSN(ctx context.Context, dbType, dsn string) (*BunStore, error) {
	bdb, err := Open(dbType, dsn)
	if err != nil {
		return nil, err
	}
	schemaStart := time.Now()
	if err := CreateSchema(ctx, bdb); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	dbLogf("db: schema for %s ready in %s", dbType, time.Since(schemaStart))
	s := NewBunStore(bdb)
	s.owned = bdb
	return s, nil
}

// MaintenanceOptions tunes RunDBMaintenance.
type MaintenanceOptions struct {
	SkipIntegrity bool
	Timeout       time.Duration
}

// RunDBMaintenance performs engine-specific maintenance tasks for the given
// database. For SQLite this runs PRAGMA optimize, VACUUM, a WAL checkpoint
// and an integrity check. For Postgres it runs VACUUM ANALYZE. For MySQL it
// runs OPTIMIZE TABLE for all tables.
func RunDBMaintenance(ctx context.Context, dbType, dsn string, opts MaintenanceOptions) error {
	if dbType == TypeSQLite {
		dsn = sqliteDSN(dsn)
	}
	sqlDB, err := sqlOpenFunc(driverName(dbType), dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for maintenance: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch dbType {
	case TypeSQLite:
		// PRAGMA optimize is not useful everywhere (e.g. in-memory filesystems).
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
			dbLogf("db: sqlite optimize failed (ignored): %v", err)
		}
		if _, err := sqlDB.ExecContext(ctx, "VACUUM;"); err != nil {
			return fmt.Errorf("sqlite vacuum failed: %w", err)
		}
		_, _ = sqlDB.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);")
		if !opts.SkipIntegrity {
			var res string
			if err := sqlDB.QueryRowContext(ctx, "PRAGMA integrity_check;").Scan(&res); err != nil {
				return fmt.Errorf("sqlite integrity_check failed: %w", err)
			}
			if res != "ok" {
				return fmt.Errorf("sqlite integrity_check failed: %s", res)
			}
		}
	case TypePostgres:
		if _, err := sqlDB.ExecContext(ctx, "VACUUM ANALYZE;"); err != nil {
			return fmt.Errorf("postgres vacuum failed: %w", err)
		}
	case TypeMySQL:
		rows, err := sqlDB.QueryContext(ctx, "SHOW TABLES")
		if err != nil {
			return fmt.Errorf("mysql show tables failed: %w", err)
		}
		var tables []string
		for rows.Next() {
			var table string
			if err := rows.Scan(&table); err != nil {
				_ = rows.Close()
				return fmt.Errorf("mysql read table name failed: %w", err)
			}
			tables = append(tables, table)
		}
		_ = rows.Close()
		var lastErr error
		for _, table := range tables {
			if _, err := sqlDB.ExecContext(ctx, fmt.Sprintf("OPTIMIZE TABLE `%s`", table)); err != nil {
				dbLogf("db: mysql optimize table %s failed: %v", table, err)
				lastErr = err
			}
		}
		if lastErr != nil {
			return fmt.Errorf("mysql optimize encountered errors: %w", lastErr)
		}
	default:
		return fmt.Errorf("unsupported db type for maintenance: %s", dbType)
	}
	return nil
}
