// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package garmin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/toeirei/garmin-health-data/internal/logging"
	"github.com/toeirei/garmin-health-data/internal/model"
)

const maxErrorBody = 512

// HTTPClient is the Client implementation backed by Garmin Connect.
type HTTPClient struct {
	cfg     Config
	base    *url.URL
	http    *http.Client
	session *Session
	limiter *rate.Limiter

	mu          sync.Mutex
	displayName string

	resumeMu sync.Mutex

	sleep func(ctx context.Context, d time.Duration) error
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client from cfg, filling unset fields from
// NewDefaultConfig.
func NewHTTPClient(cfg Config) *HTTPClient {
	def := NewDefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = def.MaxRetryDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		base, _ = url.Parse(DefaultBaseURL)
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	session := NewSession()
	inner := cfg.HTTPClient
	if inner == nil {
		inner = &http.Client{Timeout: 60 * time.Second}
	}
	hc := *inner
	hc.Transport = &bearerTransport{session: session, userAgent: cfg.UserAgent, base: inner.Transport}

	return &HTTPClient{
		cfg:     cfg,
		base:    base,
		http:    &hc,
		session: session,
		limiter: rate.NewLimiter(limit, burst),
		sleep:   sleepCtx,
	}
}

// Session returns the client's token handle.
func (c *HTTPClient) Session() *Session { return c.session }

// Login resumes authentication from the configured token directory and
// verifies the token by fetching the user profile.
func (c *HTTPClient) Login(ctx context.Context) error {
	if err := c.resume(); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	p, err := c.Profile(ctx)
	if err != nil {
		return fmt.Errorf("login: verify token: %w", err)
	}
	logging.Debugf("garmin: authenticated as %s", p.DisplayName)
	return nil
}

// resume loads the cached tokens into a session that is not authenticated
// yet, so a client can fetch without an explicit Login.
func (c *HTTPClient) resume() error {
	c.resumeMu.Lock()
	defer c.resumeMu.Unlock()
	if c.session.Authenticated() {
		return nil
	}
	if c.cfg.TokenDir == "" {
		return fmt.Errorf("no token directory configured: %w", ErrNotAuthenticated)
	}
	if err := c.session.Load(c.cfg.TokenDir); err != nil {
		return err
	}
	_, err := c.session.AccessToken()
	return err
}

// Profile fetches the social profile and remembers the display name used
// by the per-user wellness endpoints.
func (c *HTTPClient) Profile(ctx context.Context) (model.Profile, error) {
	var raw profileJSON
	if err := c.getJSON(ctx, "/userprofile-service/socialProfile", nil, &raw); err != nil {
		return model.Profile{}, err
	}
	if raw.DisplayName == "" {
		return model.Profile{}, fmt.Errorf("profile: empty display name")
	}
	c.mu.Lock()
	c.displayName = raw.DisplayName
	c.mu.Unlock()
	return model.Profile{DisplayName: raw.DisplayName, FullName: raw.FullName}, nil
}

// Activities fetches one page of the activity list. An empty page is not an
// error.
func (c *HTTPClient) Activities(ctx context.Context, start, end time.Time, offset, limit int) ([]model.Activity, error) {
	q := url.Values{}
	q.Set("startDate", start.Format(model.DateLayout))
	q.Set("endDate", end.Format(model.DateLayout))
	q.Set("start", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	var raws []json.RawMessage
	err := c.getJSON(ctx, "/activitylist-service/activities/search/activities", q, &raws)
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]model.Activity, 0, len(raws))
	for _, r := range raws {
		a, err := decodeActivity(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Sleep fetches the night ending on day.
func (c *HTTPClient) Sleep(ctx context.Context, day time.Time) (model.Sleep, error) {
	name, err := c.profileName(ctx)
	if err != nil {
		return model.Sleep{}, err
	}
	q := url.Values{}
	q.Set("date", day.Format(model.DateLayout))
	q.Set("nonSleepBufferMinutes", "60")
	var raw sleepJSON
	if err := c.getJSON(ctx, "/wellness-service/wellness/dailySleepData/"+url.PathEscape(name), q, &raw); err != nil {
		return model.Sleep{}, err
	}
	return raw.toModel(day)
}

// DailySummary fetches the wellness rollup of day.
func (c *HTTPClient) DailySummary(ctx context.Context, day time.Time) (model.DailySummary, error) {
	name, err := c.profileName(ctx)
	if err != nil {
		return model.DailySummary{}, err
	}
	q := url.Values{}
	q.Set("calendarDate", day.Format(model.DateLayout))
	var raw dailySummaryJSON
	if err := c.getJSON(ctx, "/usersummary-service/usersummary/daily/"+url.PathEscape(name), q, &raw); err != nil {
		return model.DailySummary{}, err
	}
	return raw.toModel(day)
}

// HeartRates fetches the intraday heart rate samples of day.
func (c *HTTPClient) HeartRates(ctx context.Context, day time.Time) ([]model.HeartRateSample, error) {
	name, err := c.profileName(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("date", day.Format(model.DateLayout))
	var raw heartRateJSON
	if err := c.getJSON(ctx, "/wellness-service/wellness/dailyHeartRate/"+url.PathEscape(name), q, &raw); err != nil {
		return nil, err
	}
	return raw.toModel(), nil
}

// BodyComposition fetches every weigh-in between start and end.
func (c *HTTPClient) BodyComposition(ctx context.Context, start, end time.Time) ([]model.BodyComposition, error) {
	q := url.Values{}
	q.Set("startDate", start.Format(model.DateLayout))
	q.Set("endDate", end.Format(model.DateLayout))
	var raw weightRangeJSON
	err := c.getJSON(ctx, "/weight-service/weight/dateRange", q, &raw)
	if errors.Is(err, ErrNoData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw.toModel(), nil
}

func (c *HTTPClient) profileName(ctx context.Context) (string, error) {
	c.mu.Lock()
	name := c.displayName
	c.mu.Unlock()
	if name != "" {
		return name, nil
	}
	p, err := c.Profile(ctx)
	if err != nil {
		return "", err
	}
	return p.DisplayName, nil
}

// getJSON performs a paced GET with retries and decodes the body into v.
func (c *HTTPClient) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	endpoint := path
	if err := c.resume(); err != nil {
		return fmt.Errorf("garmin api %s: %w", endpoint, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		body, retryAfter, err := c.do(ctx, u.String(), endpoint)
		if err == nil {
			if len(body) == 0 || string(body) == "null" {
				return ErrNoData
			}
			if err := json.Unmarshal(body, v); err != nil {
				return fmt.Errorf("decode %s: %w", endpoint, err)
			}
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() || attempt == c.cfg.MaxRetries {
			break
		}
		delay := c.backoff(attempt, retryAfter)
		logging.Debugf("garmin: %s returned %d, retrying in %s", endpoint, apiErr.StatusCode, delay)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func (c *HTTPClient) do(ctx context.Context, rawURL, endpoint string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("garmin api %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return nil, 0, &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(string(b)),
		}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("garmin api %s: read body: %w", endpoint, err)
	}
	return b, 0, nil
}

func (c *HTTPClient) backoff(attempt int, retryAfter time.Duration) time.Duration {
	d := retryAfter
	if d <= 0 {
		d = c.cfg.RetryBaseDelay << attempt
	}
	if d > c.cfg.MaxRetryDelay {
		d = c.cfg.MaxRetryDelay
	}
	return d
}

// parseRetryAfter accepts both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
