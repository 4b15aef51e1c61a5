// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package garmin

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotAuthenticated means no valid token is available; run `auth import`.
	ErrNotAuthenticated = errors.New("not authenticated with Garmin Connect")
	// ErrTokenExpired means the cached access token has expired.
	ErrTokenExpired = fmt.Errorf("%w: access token expired", ErrNotAuthenticated)
	// ErrNoData means Garmin Connect has nothing recorded for the request.
	ErrNoData = errors.New("no data")
	// ErrRateLimited is returned when the API keeps answering 429 after retries.
	ErrRateLimited = errors.New("rate limited by Garmin Connect")
)

// APIError describes a non-success HTTP response.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("garmin api %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("garmin api %s: status %d", e.Endpoint, e.StatusCode)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNoData:
		return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusNoContent
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// Retryable reports whether repeating the request may succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
