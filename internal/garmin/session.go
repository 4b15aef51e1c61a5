// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package garmin

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/toeirei/garmin-health-data/internal/tokens"
)

// Session holds the tokens of an authenticated client. It is the handle
// used to persist and resume authentication and is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	tokens tokens.Set
	now    func() time.Time
}

// NewSession returns an empty, unauthenticated session.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// SetTokens replaces the session tokens. A token carrying only expires_in
// gets an absolute expiry computed from the session clock.
func (s *Session) SetTokens(set tokens.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set.OAuth2 != nil {
		t := *set.OAuth2
		if t.ExpiresAt == 0 && t.ExpiresIn > 0 {
			t.ExpiresAt = s.now().Add(time.Duration(t.ExpiresIn) * time.Second).Unix()
		}
		set.OAuth2 = &t
	}
	s.tokens = set
}

// Tokens returns a copy of the current tokens.
func (s *Session) Tokens() tokens.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := tokens.Set{}
	if s.tokens.OAuth1 != nil {
		t := *s.tokens.OAuth1
		out.OAuth1 = &t
	}
	if s.tokens.OAuth2 != nil {
		t := *s.tokens.OAuth2
		out.OAuth2 = &t
	}
	return out
}

// Authenticated reports whether the session holds an unexpired access token.
func (s *Session) Authenticated() bool {
	_, err := s.AccessToken()
	return err == nil
}

// AccessToken returns the bearer token to send, or an error wrapping
// ErrNotAuthenticated.
func (s *Session) AccessToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens.OAuth2 == nil || s.tokens.OAuth2.AccessToken == "" {
		return "", ErrNotAuthenticated
	}
	if s.tokens.OAuth2.Expired(s.now()) {
		return "", ErrTokenExpired
	}
	return s.tokens.OAuth2.AccessToken, nil
}

// Load resumes the session from a token directory.
func (s *Session) Load(dir string) error {
	set, err := tokens.NewDir(dir).Load()
	if err != nil {
		if errors.Is(err, tokens.ErrNoTokens) {
			return fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		return err
	}
	s.SetTokens(*set)
	return nil
}

// Dump writes the session tokens to a token directory.
func (s *Session) Dump(dir string) error {
	set := s.Tokens()
	if set.OAuth2 == nil {
		return fmt.Errorf("dump session: %w", ErrNotAuthenticated)
	}
	return tokens.NewDir(dir).Save(set)
}
