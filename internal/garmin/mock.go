// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package garmin

import (
	"context"
	"sync"
	"time"

	"github.com/toeirei/garmin-health-data/internal/model"
	"github.com/toeirei/garmin-health-data/internal/tokens"
)

// MockAccessToken is the access token carried by a MockClient session.
const MockAccessToken = "mock-access-token"

type MockClient struct {
	BaseClient Client
	Overwrites MockClientOverwrites

	once    sync.Once
	session *Session

	mu    sync.Mutex
	calls map[string]int
}

type MockClientOverwrites struct {
	Login           func(ctx context.Context) error
	Profile         func(ctx context.Context) (model.Profile, error)
	Activities      func(ctx context.Context, start, end time.Time, offset, limit int) ([]model.Activity, error)
	Sleep           func(ctx context.Context, day time.Time) (model.Sleep, error)
	DailySummary    func(ctx context.Context, day time.Time) (model.DailySummary, error)
	HeartRates      func(ctx context.Context, day time.Time) ([]model.HeartRateSample, error)
	BodyComposition func(ctx context.Context, start, end time.Time) ([]model.BodyComposition, error)
}

var _ Client = (*MockClient)(nil)

// client := NewMockClient(nil, MockClientOverwrites{ /* overwrite Client methods here... */ })
//
// Methods neither overwritten nor backed by base succeed without data.
func NewMockClient(base Client, overwrites MockClientOverwrites) *MockClient {
	return &MockClient{
		BaseClient: base,
		Overwrites: overwrites,
	}
}

// Calls returns how often the named method was invoked.
func (m *MockClient) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockClient) record(method string) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[method]++
	m.mu.Unlock()
}

// --- Client implementation ---

func (m *MockClient) Login(ctx context.Context) error {
	m.record("Login")
	if m.Overwrites.Login != nil {
		return m.Overwrites.Login(ctx)
	} else if m.BaseClient != nil {
		return m.BaseClient.Login(ctx)
	}
	return nil
}

// Session returns the base client's session, or a session holding a
// long-lived fake token.
func (m *MockClient) Session() *Session {
	if m.BaseClient != nil {
		return m.BaseClient.Session()
	}
	m.once.Do(func() {
		m.session = NewSession()
		m.session.SetTokens(tokens.Set{
			OAuth1: &tokens.OAuth1Token{OAuthToken: "mock-oauth1", OAuthTokenSecret: "mock-secret"},
			OAuth2: &tokens.OAuth2Token{
				AccessToken:  MockAccessToken,
				RefreshToken: "mock-refresh-token",
				TokenType:    "Bearer",
				ExpiresAt:    time.Now().Add(24 * 365 * time.Hour).Unix(),
			},
		})
	})
	return m.session
}

func (m *MockClient) Profile(ctx context.Context) (model.Profile, error) {
	m.record("Profile")
	if m.Overwrites.Profile != nil {
		return m.Overwrites.Profile(ctx)
	} else if m.BaseClient != nil {
		return m.BaseClient.Profile(ctx)
	}
	return model.Profile{DisplayName: "mock-user"}, nil
}

func (m *MockClient) Activities(ctx context.Context, start, end time.Time, offset, limit int) ([]model.Activity, error) {
	m.record("Activities")
	if m.Overwrites.Activities != nil {
		return m.Overwrites.Activities(ctx, start, end, offset, limit)
	} else if m.BaseClient != nil {
		return m.BaseClient.Activities(ctx, start, end, offset, limit)
	}
	return nil, nil
}

func (m *MockClient) Sleep(ctx context.Context, day time.Time) (model.Sleep, error) {
	m.record("Sleep")
	if m.Overwrites.Sleep != nil {
		return m.Overwrites.Sleep(ctx, day)
	} else if m.BaseClient != nil {
		return m.BaseClient.Sleep(ctx, day)
	}
	return model.Sleep{}, ErrNoData
}

func (m *MockClient) DailySummary(ctx context.Context, day time.Time) (model.DailySummary, error) {
	m.record("DailySummary")
	if m.Overwrites.DailySummary != nil {
		return m.Overwrites.DailySummary(ctx, day)
	} else if m.BaseClient != nil {
		return m.BaseClient.DailySummary(ctx, day)
	}
	return model.DailySummary{}, ErrNoData
}

func (m *MockClient) HeartRates(ctx context.Context, day time.Time) ([]model.HeartRateSample, error) {
	m.record("HeartRates")
	if m.Overwrites.HeartRates != nil {
		return m.Overwrites.HeartRates(ctx, day)
	} else if m.BaseClient != nil {
		return m.BaseClient.HeartRates(ctx, day)
	}
	return nil, nil
}

func (m *MockClient) BodyComposition(ctx context.Context, start, end time.Time) ([]model.BodyComposition, error) {
	m.record("BodyComposition")
	if m.Overwrites.BodyComposition != nil {
		return m.Overwrites.BodyComposition(ctx, start, end)
	} else if m.BaseClient != nil {
		return m.BaseClient.BodyComposition(ctx, start, end)
	}
	return nil, nil
}
