// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil provides test fixtures: a temporary SQLite engine and
// session, a mock Garmin client, a client constructor substitute and a token
// directory. Every fixture releases its resources through t.Cleanup.
package testutil // import "github.com/toeirei/garmin-health-data/internal/testutil"

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/uptrace/bun"

	"github.com/toeirei/garmin-health-data/internal/db"
	"github.com/toeirei/garmin-health-data/internal/garmin"
	"github.com/toeirei/garmin-health-data/internal/tokens"
)

// TestDBName is the file name used by TempDBPath.
const TestDBName = "test_garmin.db"

// TempDBPath returns a database path inside a fresh temp dir. The file does
// not exist yet.
func TempDBPath(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), TestDBName)
}

// DBEngine opens a SQLite engine at path with the full schema. On cleanup
// every table is dropped and the engine is closed.
func DBEngine(t testing.TB, path string) *bun.DB {
	t.Helper()
	ctx := context.Background()
	engine, err := db.Open(db.TypeSQLite, path)
	if err != nil {
		t.Fatalf("open test engine: %v", err)
	}
	t.Cleanup(func() {
		if err := db.DropSchema(ctx, engine); err != nil {
			t.Errorf("drop test schema: %v", err)
		}
		if err := engine.Close(); err != nil {
			t.Errorf("close test engine: %v", err)
		}
	})
	if err := db.CreateSchema(ctx, engine); err != nil {
		t.Fatalf("create test schema: %v", err)
	}
	return engine
}

// DBSession opens a session on engine that is closed when the test ends,
// including when it fails.
func DBSession(t testing.TB, engine *bun.DB) *db.Session {
	t.Helper()
	s, err := db.NewSession(context.Background(), engine)
	if err != nil {
		t.Fatalf("open test session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// MockGarminClient returns a client whose Login succeeds without network
// access and whose Session holds a usable token.
func MockGarminClient(t testing.TB) *garmin.MockClient {
	t.Helper()
	return garmin.NewMockClient(nil, garmin.MockClientOverwrites{
		Login: func(context.Context) error { return nil },
	})
}

// ClientClass stands in for the Garmin client constructor.
type ClientClass struct {
	Client *garmin.MockClient

	mu      sync.Mutex
	configs []garmin.Config
}

// New is the substituted constructor. It always returns the same client.
func (c *ClientClass) New(cfg garmin.Config) garmin.Client {
	c.mu.Lock()
	c.configs = append(c.configs, cfg)
	c.mu.Unlock()
	return c.Client
}

// Calls returns how many clients were constructed.
func (c *ClientClass) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.configs)
}

// Configs returns the configs passed to each construction.
func (c *ClientClass) Configs() []garmin.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]garmin.Config(nil), c.configs...)
}

// MockGarminClass routes garmin.New to client for the rest of the test.
func MockGarminClass(t testing.TB, client *garmin.MockClient) *ClientClass {
	t.Helper()
	class := &ClientClass{Client: client}
	restore := garmin.SetFactory(class.New)
	t.Cleanup(restore)
	return class
}

// TokenDir returns an existing, empty token directory.
func TokenDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), tokens.DirName)
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatalf("create token dir: %v", err)
	}
	return dir
}
