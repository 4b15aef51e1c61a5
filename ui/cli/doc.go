// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli implements the garmin-health-data command line using Cobra.
// Commands load configuration in PersistentPreRunE and delegate to the
// internal auth, syncer, export and db packages.
package cli
