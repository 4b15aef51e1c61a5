// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package garmin

import (
	"fmt"
	"net/http"
)

// bearerTransport authenticates every request with the session's access token.
type bearerTransport struct {
	session   *Session
	userAgent string
	base      http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	token, err := t.session.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("garmin: cannot get token: %w", err)
	}

	req2 := cloneRequest(req)
	req2.Header.Set("Authorization", "Bearer "+token)
	if t.userAgent != "" {
		req2.Header.Set("User-Agent", t.userAgent)
	}
	req2.Header.Set("Accept", "application/json")
	return base.RoundTrip(req2)
}

// cloneRequest returns a shallow copy of r with its own Header map.
func cloneRequest(r *http.Request) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	r2.Header = make(http.Header, len(r.Header))
	for k, s := range r.Header {
		r2.Header[k] = append([]string(nil), s...)
	}
	return r2
}
