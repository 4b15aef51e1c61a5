// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

// Session pins one connection of an engine for a unit of work. It must be
// closed to return the connection to the pool; Close is safe to call twice.
type Session struct {
	conn   bun.Conn
	mu     sync.Mutex
	closed bool
}

// NewSession checks out a dedicated connection from bdb.
func NewSession(ctx context.Context, bdb *bun.DB) (*Session, error) {
	conn, err := bdb.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &Session{conn: conn}, nil
}

// DB returns the session's connection as a bun.IDB.
func (s *Session) DB() bun.IDB {
	return s.conn
}

// Store returns a Store bound to the session's connection.
func (s *Session) Store() *BunStore {
	return NewBunStore(s.conn)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
