// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package syncer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("every tuesday", func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestScheduler_Next(t *testing.T) {
	s, err := NewScheduler("30 6 * * *", func(context.Context) error { return nil })
	require.NoError(t, err)
	from := time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 2, 6, 30, 0, 0, time.UTC), s.Next(from))
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s, err := NewScheduler("@every 1h", func(context.Context) error { return nil })
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
}

func TestScheduler_SkipsBusyTicksAndWaitsForRunningJob(t *testing.T) {
	var started, finished atomic.Int32
	release := make(chan struct{})
	running := make(chan struct{}, 1)
	s, err := NewScheduler("@every 1s", func(context.Context) error {
		started.Add(1)
		select {
		case running <- struct{}{}:
		default:
		}
		<-release
		finished.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-running:
	case <-time.After(5 * time.Second):
		t.Fatalf("job never started")
	}
	// Let at least two more ticks pass while the job is blocked.
	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, int32(1), started.Load(), "ticks during a running job must be skipped")

	cancel()
	select {
	case <-done:
		t.Fatalf("Run returned while the job was still running")
	case <-time.After(300 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after the job finished")
	}
	assert.Equal(t, int32(1), started.Load())
	assert.Equal(t, int32(1), finished.Load())
}
