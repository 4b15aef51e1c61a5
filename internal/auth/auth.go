// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package auth resumes Garmin Connect sessions from the token directory and
// manages the tokens stored there.
package auth // import "github.com/toeirei/garmin-health-data/internal/auth"

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/toeirei/garmin-health-data/internal/garmin"
	"github.com/toeirei/garmin-health-data/internal/logging"
	"github.com/toeirei/garmin-health-data/internal/tokens"
)

// Login builds a client through the garmin factory, authenticates it and
// writes the (possibly refreshed) session tokens back to cfg.TokenDir.
func Login(ctx context.Context, cfg garmin.Config) (garmin.Client, error) {
	if cfg.TokenDir == "" {
		p, err := tokens.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfg.TokenDir = p
	}
	if err := tokens.NewDir(cfg.TokenDir).Ensure(); err != nil {
		return nil, err
	}

	client := garmin.New(cfg)
	if err := client.Login(ctx); err != nil {
		return nil, err
	}
	if err := client.Session().Dump(cfg.TokenDir); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	logging.Debugf("auth: session stored in %s", cfg.TokenDir)
	return client, nil
}

// importDoc accepts either a bare OAuth2 token or both tokens keyed by name.
type importDoc struct {
	tokens.OAuth2Token
	OAuth1 *tokens.OAuth1Token `json:"oauth1,omitempty"`
	OAuth2 *tokens.OAuth2Token `json:"oauth2,omitempty"`
}

// ImportToken stores the token JSON read from r in dir.
func ImportToken(dir string, r io.Reader, now time.Time) error {
	var doc importDoc
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	set := tokens.Set{OAuth1: doc.OAuth1, OAuth2: doc.OAuth2}
	if set.OAuth2 == nil {
		t := doc.OAuth2Token
		set.OAuth2 = &t
	}
	if err := set.OAuth2.Validate(); err != nil {
		return err
	}
	if set.OAuth2.ExpiresAt == 0 {
		set.OAuth2.ExpiresAt = now.Add(time.Duration(set.OAuth2.ExpiresIn) * time.Second).Unix()
	}
	if set.OAuth2.TokenType == "" {
		set.OAuth2.TokenType = "Bearer"
	}
	if set.OAuth2.Expired(now) {
		logging.Warnf("imported token already expired at %s", set.OAuth2.Expiry().Format(time.RFC3339))
	}
	return tokens.NewDir(dir).Save(set)
}

// TokenStatus describes what the token directory holds.
type TokenStatus struct {
	Dir       string
	HasTokens bool
	HasOAuth1 bool
	ExpiresAt time.Time
	Expired   bool
}

// Status inspects dir without contacting Garmin Connect. It never creates
// or locks anything and does not wait for a concurrent sync.
func Status(dir string, now time.Time) (TokenStatus, error) {
	st := TokenStatus{Dir: dir}
	set, err := tokens.NewDir(dir).Peek()
	if errors.Is(err, tokens.ErrNoTokens) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.HasTokens = true
	st.HasOAuth1 = set.OAuth1 != nil
	st.ExpiresAt = set.OAuth2.Expiry()
	st.Expired = set.OAuth2.Expired(now)
	return st, nil
}
