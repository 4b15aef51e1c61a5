// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"strings"

	"github.com/google/uuid"
)

// newRunID is a variable so tests can make run ids deterministic.
var newRunID = func() string {
	return uuid.NewString()
}

func joinNames(names []string) string {
	return strings.Join(names, ",")
}
