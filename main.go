// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for garmin-health-data.
//
// Usage:
//
//	go run . [flags]
//	./garmin-health-data [flags]
//
// See --help for options.
package main

import (
	"os"

	"github.com/toeirei/garmin-health-data/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
