// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/toeirei/garmin-health-data/internal/auth"
	"github.com/toeirei/garmin-health-data/internal/model"
	"github.com/toeirei/garmin-health-data/internal/syncer"
)

func newSyncCmd() *cobra.Command {
	var start, end, every string
	var dataTypes []string

	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"extract"},
		Short:   "Download new data from Garmin Connect into the database",
		Long: `Fetches every selected data type from the day after its last successful
sync (or the configured lookback window on first run) up to today.

Examples:
  # Sync everything that is new
  garmin-health-data sync

  # Re-fetch a fixed range of sleep data
  garmin-health-data sync --start 2026-01-01 --end 2026-01-31 --data-types sleep

  # Keep syncing every morning at 06:30
  garmin-health-data sync --every "30 6 * * *"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := syncOptions(start, end, dataTypes, cmd.Flags().Changed("data-types"))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if every == "" {
				return runSync(cmd.Context(), out, opts)
			}

			sched, err := syncer.NewScheduler(every, func(ctx context.Context) error {
				return runSync(ctx, out, opts)
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := runSync(ctx, out, opts); err != nil {
				fmt.Fprintf(out, "Sync failed: %v\n", err)
			}
			return sched.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day to fetch (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day to fetch (YYYY-MM-DD, default today)")
	cmd.Flags().StringSliceVar(&dataTypes, "data-types", nil, "Data types to sync (activities, sleep, daily_summary, heart_rate, body_composition)")
	cmd.Flags().StringVar(&every, "every", "", "Keep running and sync on this cron schedule")
	return cmd
}

func syncOptions(start, end string, dataTypes []string, flagSet bool) (syncer.Options, error) {
	opts := syncer.Options{
		LookbackDays: appConfig.Sync.LookbackDays,
		Concurrency:  appConfig.Sync.Concurrency,
	}
	var err error
	if start != "" {
		if opts.Start, err = syncer.ParseDay(start); err != nil {
			return opts, err
		}
	}
	if end != "" {
		if opts.End, err = syncer.ParseDay(end); err != nil {
			return opts, err
		}
	}
	if !flagSet {
		dataTypes = appConfig.Sync.DataTypes
	}
	if opts.DataTypes, err = model.ParseDataTypes(dataTypes); err != nil {
		return opts, err
	}
	return opts, nil
}

func runSync(ctx context.Context, out io.Writer, opts syncer.Options) error {
	cfg, err := garminConfig()
	if err != nil {
		return err
	}
	client, err := auth.Login(ctx, cfg)
	if err != nil {
		return err
	}
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	began := time.Now()
	res, err := syncer.New(client, store, opts).Run(ctx)
	if res != nil {
		rows := make([][]string, 0, len(res.Types))
		for _, tr := range res.Types {
			status := "ok"
			if tr.Err != nil {
				status = tr.Err.Error()
			}
			rows = append(rows, []string{string(tr.DataType), tr.Window.String(), strconv.Itoa(tr.Records), status})
		}
		fmt.Fprintln(out, renderTable([]string{"Data type", "Window", "Records", "Status"}, rows))
		fmt.Fprintf(out, "Run %s: %d records in %s\n", res.RunID, res.Records, time.Since(began).Round(time.Millisecond))
	}
	return err
}
