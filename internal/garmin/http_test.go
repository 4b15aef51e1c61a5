// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package garmin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toeirei/garmin-health-data/internal/tokens"
)

func writeTestTokens(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), tokens.DirName)
	err := tokens.NewDir(dir).Save(tokens.Set{OAuth2: &tokens.OAuth2Token{
		TokenType:   "Bearer",
		AccessToken: "test-token",
		ExpiresAt:   expiresAt.Unix(),
	}})
	require.NoError(t, err)
	return dir
}

func newTestClient(t *testing.T, h http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := NewDefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.TokenDir = writeTestTokens(t, time.Now().Add(time.Hour))
	cfg.RequestsPerSecond = 0
	cfg.RetryBaseDelay = time.Millisecond
	cfg.MaxRetryDelay = 5 * time.Millisecond
	c := NewHTTPClient(cfg)
	return c, srv
}

func profileHandler(next http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/userprofile-service/socialProfile", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"displayName":"runner42","fullName":"Test Runner"}`))
	})
	if next != nil {
		mux.HandleFunc("/", next)
	}
	return mux
}

func TestLogin_LoadsTokensAndSendsBearer(t *testing.T) {
	var auth atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/userprofile-service/socialProfile", func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"displayName":"runner42"}`))
	})
	c, _ := newTestClient(t, mux)

	require.NoError(t, c.Login(context.Background()))
	assert.Equal(t, "Bearer test-token", auth.Load())
	assert.True(t, c.Session().Authenticated())
}

func TestLogin_NoTokens(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.TokenDir = filepath.Join(t.TempDir(), "missing")
	err := NewHTTPClient(cfg).Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLogin_ExpiredToken(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.TokenDir = writeTestTokens(t, time.Now().Add(-time.Hour))
	err := NewHTTPClient(cfg).Login(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLogin_RejectedToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	err := c.Login(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestActivities_DecodesPage(t *testing.T) {
	var query atomic.Value
	c, _ := newTestClient(t, profileHandler(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(`[{"activityId":101,"activityName":"Morning Run","activityType":{"typeKey":"running"},
			"startTimeGMT":"2026-05-01 05:00:00","startTimeLocal":"2026-05-01 07:00:00",
			"duration":1800.5,"distance":5000,"calories":400,"averageHR":150.4,"maxHR":171,"steps":5200}]`))
	}))
	require.NoError(t, c.Login(context.Background()))

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	acts, err := c.Activities(context.Background(), day, day, 20, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	a := acts[0]
	assert.Equal(t, int64(101), a.ID)
	assert.Equal(t, "running", a.Type)
	assert.Equal(t, 150, a.AverageHR)
	assert.Equal(t, time.Date(2026, 5, 1, 5, 0, 0, 0, time.UTC), a.StartTimeGMT)
	assert.Contains(t, a.Raw, `"activityId":101`)
	assert.Equal(t, "endDate=2026-05-01&limit=10&start=20&startDate=2026-05-01", query.Load())
}

func TestSleep_UsesDisplayNameAndHandlesMissingNight(t *testing.T) {
	var path atomic.Value
	calls := 0
	c, _ := newTestClient(t, profileHandler(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{"dailySleepDTO":{"calendarDate":"2026-05-02","sleepStartTimestampGMT":1777672800000,
				"sleepEndTimestampGMT":1777701600000,"deepSleepSeconds":3600,"lightSleepSeconds":14400,
				"remSleepSeconds":5400,"awakeSleepSeconds":600,"sleepScores":{"overall":{"value":82}}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"dailySleepDTO":{"calendarDate":"2026-05-03"}}`))
	}))

	day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	s, err := c.Sleep(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, "/wellness-service/wellness/dailySleepData/runner42", path.Load())
	assert.Equal(t, "2026-05-02", s.CalendarDate)
	assert.Equal(t, 82, s.Score)
	assert.Equal(t, 23400, s.TotalSeconds())

	_, err = c.Sleep(context.Background(), day.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDailySummary_IgnoresNegativeStress(t *testing.T) {
	c, _ := newTestClient(t, profileHandler(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"calendarDate":"2026-05-02","totalSteps":9876,"totalKilocalories":2400.5,
			"restingHeartRate":52,"averageStressLevel":-1}`))
	}))
	d, err := c.DailySummary(context.Background(), time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 9876, d.TotalSteps)
	assert.Equal(t, 52, d.RestingHeartRate)
	assert.Zero(t, d.AverageStress)
}

func TestHeartRates_SkipsNullReadings(t *testing.T) {
	c, _ := newTestClient(t, profileHandler(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"heartRateValues":[[1777680000000,61],[1777680120000,null],[1777680240000,64]]}`))
	}))
	hr, err := c.HeartRates(context.Background(), time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, hr, 2)
	assert.Equal(t, 64, hr[1].BPM)
	assert.Equal(t, time.UnixMilli(1777680000000).UTC(), hr[0].Timestamp)
}

func TestBodyComposition_NotFoundIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	bc, err := c.BodyComposition(context.Background(), day, day)
	require.NoError(t, err)
	assert.Empty(t, bc)
}

func TestRetry_On5xxThenSuccess(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"dateWeightList":[{"samplePk":7,"date":1777680000000,"weight":72500.0,"bmi":22.1}]}`))
	}))
	day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	bc, err := c.BodyComposition(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, bc, 1)
	assert.Equal(t, int64(7), bc[0].SamplePK)
	assert.Equal(t, int32(3), hits.Load())
}

func TestRetry_GivesUpWithRateLimited(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	_, err := c.BodyComposition(context.Background(), day, day)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(c.cfg.MaxRetries+1), hits.Load())
}

func TestRetry_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	_, err := c.Profile(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, apiErr.Retryable())
	assert.Equal(t, int32(1), hits.Load())
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("-4"))
	assert.Zero(t, parseRetryAfter("soon"))
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	assert.Greater(t, parseRetryAfter(future), 50*time.Minute)
}

func TestBackoff_CappedAndHonorsRetryAfter(t *testing.T) {
	c := NewHTTPClient(Config{RetryBaseDelay: time.Second, MaxRetryDelay: 5 * time.Second})
	assert.Equal(t, time.Second, c.backoff(0, 0))
	assert.Equal(t, 4*time.Second, c.backoff(2, 0))
	assert.Equal(t, 5*time.Second, c.backoff(6, 0))
	assert.Equal(t, 2*time.Second, c.backoff(0, 2*time.Second))
}

func TestFetch_ResumesCachedTokensWithoutLogin(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(profileHandler(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"calendarDate":"2026-05-02","totalSteps":1200}`))
	}))
	t.Cleanup(srv.Close)
	cfg := NewDefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.TokenDir = writeTestTokens(t, time.Now().Add(time.Hour))
	cfg.RequestsPerSecond = 0

	d, err := New(cfg).DailySummary(context.Background(), time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1200, d.TotalSteps)
	assert.Equal(t, "Bearer test-token", auth.Load())
}

func TestFetch_WithoutTokensNeverHitsServer(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)
	cfg := NewDefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.TokenDir = filepath.Join(t.TempDir(), "missing")

	day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	_, err := NewHTTPClient(cfg).BodyComposition(context.Background(), day, day)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, hits.Load())
}
