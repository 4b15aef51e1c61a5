// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package garmin talks to the Garmin Connect JSON API.
//
// A Client is built through New, which goes through a replaceable package
// factory so that tests can hand out a mock without touching callers.
package garmin // import "github.com/toeirei/garmin-health-data/internal/garmin"

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/toeirei/garmin-health-data/internal/model"
)

// DefaultBaseURL is the Garmin Connect API host.
const DefaultBaseURL = "https://connectapi.garmin.com"

// Authenticator resumes and exposes the Garmin Connect authentication.
type Authenticator interface {
	// Login authenticates the client. It takes no arguments: credentials
	// come from the token directory configured on the client.
	Login(ctx context.Context) error

	// Session returns the token handle used to persist and resume the
	// authentication. Never nil.
	Session() *Session
}

// Fetcher downloads health data. Single-day lookups return ErrNoData when
// Garmin has nothing recorded for that day.
type Fetcher interface {
	Profile(ctx context.Context) (model.Profile, error)

	// Activities returns one page of activities started between start and
	// end (inclusive calendar days), newest first.
	Activities(ctx context.Context, start, end time.Time, offset, limit int) ([]model.Activity, error)

	Sleep(ctx context.Context, day time.Time) (model.Sleep, error)

	DailySummary(ctx context.Context, day time.Time) (model.DailySummary, error)

	HeartRates(ctx context.Context, day time.Time) ([]model.HeartRateSample, error)

	BodyComposition(ctx context.Context, start, end time.Time) ([]model.BodyComposition, error)
}

// Client is an authenticated Fetcher.
type Client interface {
	Authenticator
	Fetcher
}

// Config holds everything needed to build a Client.
type Config struct {
	BaseURL  string
	TokenDir string

	// RequestsPerSecond <= 0 disables client side pacing.
	RequestsPerSecond float64
	Burst             int

	MaxRetries     int
	RetryBaseDelay time.Duration
	MaxRetryDelay  time.Duration

	UserAgent  string
	HTTPClient *http.Client
}

// NewDefaultConfig returns a Config with conservative pacing and retries.
func NewDefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		RequestsPerSecond: 2,
		Burst:             4,
		MaxRetries:        3,
		RetryBaseDelay:    time.Second,
		MaxRetryDelay:     time.Minute,
		UserAgent:         "garmin-health-data",
	}
}

// Factory builds a Client from a Config.
type Factory func(cfg Config) Client

var (
	factoryMu sync.RWMutex
	factory   Factory = func(cfg Config) Client { return NewHTTPClient(cfg) }
)

// New builds a Client through the current factory.
func New(cfg Config) Client {
	factoryMu.RLock()
	f := factory
	factoryMu.RUnlock()
	return f(cfg)
}

// SetFactory replaces the client factory and returns a func restoring the
// previous one.
func SetFactory(f Factory) (restore func()) {
	factoryMu.Lock()
	prev := factory
	factory = f
	factoryMu.Unlock()
	return func() {
		factoryMu.Lock()
		factory = prev
		factoryMu.Unlock()
	}
}
