// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package tokens manages the on-disk cache of Garmin Connect authentication
// tokens. The layout matches the directory written by the garth library:
// oauth1_token.json and oauth2_token.json inside a ".garminconnect" folder.
package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	// DirName is the conventional name of the token directory.
	DirName = ".garminconnect"

	oauth1File = "oauth1_token.json"
	oauth2File = "oauth2_token.json"
	lockFile   = ".lock"

	// expirySlack refreshes a token slightly before it really expires.
	expirySlack = time.Minute

	lockRetryDelay = 50 * time.Millisecond
)

// lockTimeout bounds how long Load, Save and Clear wait for another holder
// of the directory lock.
var lockTimeout = 5 * time.Second

var (
	// ErrNoTokens is returned when the directory holds no usable tokens.
	ErrNoTokens = errors.New("no cached Garmin Connect tokens")
	// ErrLocked is returned when another process keeps the directory lock
	// for longer than the lock timeout.
	ErrLocked = errors.New("token directory is locked by another process")
)

// OAuth1Token is the long-lived token used to mint OAuth2 tokens.
type OAuth1Token struct {
	OAuthToken             string `json:"oauth_token"`
	OAuthTokenSecret       string `json:"oauth_token_secret"`
	MFAToken               string `json:"mfa_token,omitempty"`
	MFAExpirationTimestamp string `json:"mfa_expiration_timestamp,omitempty"`
	Domain                 string `json:"domain,omitempty"`
}

// OAuth2Token is the bearer token sent to the Connect API.
type OAuth2Token struct {
	Scope                 string `json:"scope,omitempty"`
	JTI                   string `json:"jti,omitempty"`
	TokenType             string `json:"token_type"`
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	ExpiresIn             int64  `json:"expires_in,omitempty"`
	ExpiresAt             int64  `json:"expires_at"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in,omitempty"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at,omitempty"`
}

// Expiry returns the access token expiry time.
func (t OAuth2Token) Expiry() time.Time {
	return time.Unix(t.ExpiresAt, 0)
}

// Expired reports whether the access token is expired (or about to be) at now.
// A token without an expiry is treated as expired.
func (t OAuth2Token) Expired(now time.Time) bool {
	if t.ExpiresAt == 0 {
		return true
	}
	return !now.Add(expirySlack).Before(t.Expiry())
}

// Validate checks the fields required to call the API.
func (t OAuth2Token) Validate() error {
	if t.AccessToken == "" {
		return errors.New("oauth2 token has no access_token")
	}
	if t.ExpiresAt == 0 && t.ExpiresIn == 0 {
		return errors.New("oauth2 token has neither expires_at nor expires_in")
	}
	return nil
}

// Set is the pair of tokens stored in a token directory. OAuth1 is optional.
type Set struct {
	OAuth1 *OAuth1Token
	OAuth2 *OAuth2Token
}

// Dir is a token directory on disk.
type Dir struct {
	path string
	lock *flock.Flock
}

// DefaultPath returns ~/.garminconnect.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// NewDir returns a handle on path. Nothing is created until Ensure or Save.
func NewDir(path string) *Dir {
	return &Dir{path: path, lock: flock.New(filepath.Join(path, lockFile))}
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Ensure creates the directory with owner-only permissions if needed.
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.path, 0o700); err != nil {
		return fmt.Errorf("could not create token directory %s: %w", d.path, err)
	}
	return nil
}

func (d *Dir) exists() (bool, error) {
	_, err := os.Stat(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not access token directory %s: %w", d.path, err)
	}
	return true, nil
}

// withLock runs fn while holding the directory lock. The directory must exist.
func (d *Dir) withLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := d.lock.TryLockContext(ctx, lockRetryDelay)
	if errors.Is(err, context.DeadlineExceeded) || (err == nil && !locked) {
		return ErrLocked
	}
	if err != nil {
		return fmt.Errorf("failed to acquire token lock: %w", err)
	}
	defer func() { _ = d.lock.Unlock() }()
	return fn()
}

// Load reads the cached tokens under the directory lock. It returns
// ErrNoTokens when no OAuth2 token has been stored yet. A missing directory
// is not created.
func (d *Dir) Load() (*Set, error) {
	ok, err := d.exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoTokens
	}
	var set *Set
	err = d.withLock(func() error {
		var err error
		set, err = d.read()
		return err
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Peek reads the cached tokens without taking the lock or touching the
// directory. Token files are only ever replaced by rename, so a reader sees
// either the old or the new token.
func (d *Dir) Peek() (*Set, error) {
	ok, err := d.exists()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoTokens
	}
	return d.read()
}

func (d *Dir) read() (*Set, error) {
	var set Set
	var t2 OAuth2Token
	if err := readJSON(filepath.Join(d.path, oauth2File), &t2); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoTokens
		}
		return nil, err
	}
	set.OAuth2 = &t2

	var t1 OAuth1Token
	if err := readJSON(filepath.Join(d.path, oauth1File), &t1); err == nil {
		set.OAuth1 = &t1
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return &set, nil
}

// Save writes the tokens present in set. A nil OAuth1 token leaves any
// existing oauth1 file untouched.
func (d *Dir) Save(set Set) error {
	if set.OAuth2 == nil {
		return errors.New("save tokens: missing oauth2 token")
	}
	if err := d.Ensure(); err != nil {
		return err
	}
	return d.withLock(func() error {
		if err := writeJSON(filepath.Join(d.path, oauth2File), set.OAuth2); err != nil {
			return err
		}
		if set.OAuth1 != nil {
			if err := writeJSON(filepath.Join(d.path, oauth1File), set.OAuth1); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear removes the cached token files.
func (d *Dir) Clear() error {
	ok, err := d.exists()
	if err != nil || !ok {
		return err
	}
	return d.withLock(func() error {
		for _, name := range []string{oauth1File, oauth2File} {
			if err := os.Remove(filepath.Join(d.path, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("remove %s: %w", name, err)
			}
		}
		return nil
	})
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes atomically through a temp file so a crash never leaves a
// half-written token behind.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
