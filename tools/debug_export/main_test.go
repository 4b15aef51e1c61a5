// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/toeirei/garmin-health-data/internal/export"
)

func TestRunWritesExport(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	out := filepath.Join(t.TempDir(), "probe.json")

	var buf bytes.Buffer
	if err := run(t.Context(), &buf, out, now); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"sleep: 7", "daily_summary: 7", "heart_rate: 28", "body_composition: 1", "activities: 4", "export: " + out + ".zst"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}

	dump, err := export.ReadFile(out + ".zst")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(dump.Sleep) != 7 || len(dump.Activities) != 4 {
		t.Fatalf("unexpected dump: %d sleep, %d activities", len(dump.Sleep), len(dump.Activities))
	}
}
