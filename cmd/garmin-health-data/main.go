// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Command garmin-health-data extracts personal Garmin Connect health data
// into a local database.
package main

import (
	"os"

	"github.com/toeirei/garmin-health-data/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}
