// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"sync/atomic"

	"github.com/toeirei/garmin-health-data/internal/logging"
)

var debugEnabled atomic.Bool

// SetDebug turns SQL-level debug messages on or off. They still need the
// logger at debug level to show up.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

func dbLogf(format string, v ...any) {
	if debugEnabled.Load() {
		logging.With("component", "db").Debugf(format, v...)
	}
}
