// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/toeirei/garmin-health-data/internal/export"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [output-file]",
		Short: "Write all stored data to a compressed (zstd) JSON file",
		Long: `Dumps every table of the database into a single Zstandard-compressed JSON file.

If an output file is specified, '.zst' will be appended to the name if it's not already present.
If no output file is specified, 'garmin-health-YYYY-MM-DD.json.zst' is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			outputFile := export.DefaultFileName(now)
			if len(args) == 1 {
				outputFile = export.FileName(args[0])
			}

			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			dump, err := export.ToFile(cmd.Context(), store, outputFile, now)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d activities, %d nights, %d daily summaries, %d heart rate samples, %d weigh-ins to %s\n",
				len(dump.Activities), len(dump.Sleep), len(dump.DailySummaries), len(dump.HeartRates), len(dump.BodyCompositions), outputFile)
			return nil
		},
	}
}
