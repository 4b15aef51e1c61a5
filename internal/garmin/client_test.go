// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package garmin

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/toeirei/garmin-health-data/internal/model"
	"github.com/toeirei/garmin-health-data/internal/tokens"
)

func TestNew_DefaultFactoryBuildsHTTPClient(t *testing.T) {
	c := New(NewDefaultConfig())
	if _, ok := c.(*HTTPClient); !ok {
		t.Fatalf("expected *HTTPClient, got %T", c)
	}
}

func TestSetFactory_RestoresPrevious(t *testing.T) {
	mock := NewMockClient(nil, MockClientOverwrites{})
	restore := SetFactory(func(Config) Client { return mock })
	if got := New(Config{}); got != mock {
		t.Fatalf("expected mock from swapped factory, got %T", got)
	}
	restore()
	if _, ok := New(Config{}).(*HTTPClient); !ok {
		t.Fatalf("factory not restored")
	}
}

func TestMockClient_Defaults(t *testing.T) {
	m := NewMockClient(nil, MockClientOverwrites{})
	if err := m.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	s := m.Session()
	if s == nil || s != m.Session() {
		t.Fatalf("Session must be stable and non-nil")
	}
	tok, err := s.AccessToken()
	if err != nil || tok != MockAccessToken {
		t.Fatalf("AccessToken = %q, %v", tok, err)
	}
	if _, err := m.Sleep(context.Background(), time.Now()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if m.Calls("Login") != 1 || m.Calls("Sleep") != 1 {
		t.Fatalf("unexpected call counts: login=%d sleep=%d", m.Calls("Login"), m.Calls("Sleep"))
	}
}

func TestMockClient_OverwriteWinsOverBase(t *testing.T) {
	base := NewMockClient(nil, MockClientOverwrites{
		Profile: func(context.Context) (model.Profile, error) { return model.Profile{DisplayName: "base"}, nil },
	})
	m := NewMockClient(base, MockClientOverwrites{
		Profile: func(context.Context) (model.Profile, error) { return model.Profile{DisplayName: "over"}, nil },
	})
	p, _ := m.Profile(context.Background())
	if p.DisplayName != "over" {
		t.Fatalf("got %q", p.DisplayName)
	}
	m.Overwrites.Profile = nil
	p, _ = m.Profile(context.Background())
	if p.DisplayName != "base" {
		t.Fatalf("got %q", p.DisplayName)
	}
	if m.Session() != base.Session() {
		t.Fatalf("session should come from base client")
	}
}

func TestSession_DumpAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), tokens.DirName)
	s := NewSession()
	if err := s.Dump(dir); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("dump of empty session: %v", err)
	}
	s.SetTokens(tokens.Set{OAuth2: &tokens.OAuth2Token{AccessToken: "abc", TokenType: "Bearer", ExpiresIn: 3600}})
	if !s.Authenticated() {
		t.Fatalf("expected authenticated session")
	}
	if s.Tokens().OAuth2.ExpiresAt == 0 {
		t.Fatalf("expires_at not derived from expires_in")
	}
	if err := s.Dump(dir); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	loaded := NewSession()
	if err := loaded.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	tok, err := loaded.AccessToken()
	if err != nil || tok != "abc" {
		t.Fatalf("AccessToken = %q, %v", tok, err)
	}
}

func TestSession_LoadMissingDir(t *testing.T) {
	err := NewSession().Load(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
