// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"testing"
)

func TestMapDBError_DuplicateStrings(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"mysql duplicate entry", errors.New("Error 1062: Duplicate entry '42' for key 'PRIMARY'")},
		{"postgres unique violation", errors.New(`ERROR: duplicate key value violates unique constraint "sync_runs_pkey" (SQLSTATE 23505)`)},
		{"sqlite unique constraint", errors.New("UNIQUE constraint failed: sync_runs.id")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if mapped := MapDBError(c.err); !errors.Is(mapped, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got: %v", mapped)
			}
		})
	}
}

func TestMapDBError_NonDuplicatePassthrough(t *testing.T) {
	if MapDBError(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	e := errors.New("connection refused")
	if mapped := MapDBError(e); mapped != e {
		t.Fatalf("expected original error to be returned unchanged, got: %v", mapped)
	}
}

func TestStartRun_DuplicateIDMapsToErrDuplicate(t *testing.T) {
	s := newTestStore(t)
	orig := newRunID
	newRunID = func() string { return "fixed-run-id" }
	t.Cleanup(func() { newRunID = orig })

	if _, err := s.StartRun(t.Context(), nil); err != nil {
		t.Fatalf("first StartRun: %v", err)
	}
	if _, err := s.StartRun(t.Context(), nil); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
