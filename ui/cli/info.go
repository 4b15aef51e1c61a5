// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/toeirei/garmin-health-data/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show row counts, last sync dates and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			counts, err := store.Counts(ctx)
			if err != nil {
				return err
			}
			states, err := store.ListSyncStates(ctx)
			if err != nil {
				return err
			}
			last := make(map[model.DataType]string, len(states))
			for _, s := range states {
				last[s.DataType] = s.LastSyncedDate
			}

			rows := make([][]string, 0, len(model.AllDataTypes()))
			for _, dt := range model.AllDataTypes() {
				synced := last[dt]
				if synced == "" {
					synced = "never"
				}
				rows = append(rows, []string{string(dt), strconv.Itoa(counts[dt]), synced})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s (%s)\n", appConfig.Database.Dsn, appConfig.Database.Type)
			fmt.Fprintln(out, renderTable([]string{"Data type", "Rows", "Synced through"}, rows))

			runs, err := store.RecentRuns(ctx, 5)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				return nil
			}
			runRows := make([][]string, 0, len(runs))
			for _, r := range runs {
				runRows = append(runRows, []string{
					r.StartedAt.Local().Format(time.DateTime),
					r.Status,
					strconv.Itoa(r.Records),
					r.DataTypes,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Started", "Status", "Records", "Data types"}, runRows))
			return nil
		},
	}
}
