// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toeirei/garmin-health-data/internal/config"
	"github.com/toeirei/garmin-health-data/internal/db"
	"github.com/toeirei/garmin-health-data/internal/garmin"
	"github.com/toeirei/garmin-health-data/internal/logging"
	"github.com/toeirei/garmin-health-data/internal/tokens"
)

const modulePath = "github.com/toeirei/garmin-health-data"

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

var (
	appConfig       config.Config
	cfgFile         string
	verbose         bool
	showVersionFlag bool
)

func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := config.Defaults()
	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	// A missing file is expected on first run: persist the defaults so the
	// user has something to edit.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		if writeErr := config.WriteConfigFile(&appConfig); writeErr != nil {
			logging.Warnf("could not write default config file: %v", writeErr)
		} else {
			logging.Debugf("wrote default config to user config path")
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// Empty values in a user file fall back to the defaults.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
	}
	if appConfig.Sync.LookbackDays <= 0 {
		appConfig.Sync.LookbackDays = defaults["sync.lookback_days"].(int)
	}

	if err := logging.SetLevel(appConfig.Log.Level); err != nil {
		logging.Warnf("%v, keeping current level", err)
	}
	if verbose {
		_ = logging.SetLevel("debug")
		db.SetDebug(true)
	}
	return nil
}

// Execute runs the CLI entrypoint. The cmd/garmin-health-data main package
// should call this function and handle process exit.
func Execute() error {
	return NewRootCmd().Execute()
}

// applyDefaultFlags registers the config override flags shared by every
// subcommand. Flag names equal config keys so viper binds them directly.
func applyDefaultFlags(cmd *cobra.Command) {
	if cmd.PersistentFlags().Lookup("database.type") == nil {
		cmd.PersistentFlags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	}
	if cmd.PersistentFlags().Lookup("database.dsn") == nil {
		cmd.PersistentFlags().String("database.dsn", "./garmin-health.db", "Database connection string (DSN)")
	}
	if cmd.PersistentFlags().Lookup("tokens.dir") == nil {
		cmd.PersistentFlags().String("tokens.dir", "", "Token directory (default ~/.garminconnect)")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}
		if path == "" {
			return nil, nil
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

// NewRootCmd creates and configures a new root cobra command. Every call
// returns a fresh command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "garmin-health-data",
		Short: "Extract your Garmin Connect health data into a local database.",
		Long: `garmin-health-data copies activities, sleep, daily summaries, intraday
heart rate and body composition from Garmin Connect into a local SQLite
(or Postgres/MySQL) database. Re-running a sync only fetches what is new.

Authenticate once with 'garmin-health-data auth import', then run
'garmin-health-data sync'.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				fmt.Fprintln(cmd.OutOrStdout(), compositeVersion())
				os.Exit(0)
			}
			return setupDefaultServices(cmd, args)
		},
	}
	cmd.Version = compositeVersion()

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logs, SQL debug)")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("log.level", "info", "Log level (debug, info, warn, error)")
	applyDefaultFlags(cmd)

	cmd.AddCommand(
		newAuthCmd(),
		newSyncCmd(),
		newInfoCmd(),
		newExportCmd(),
		newDBCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), compositeVersion())
		},
	}
}

func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If info is nil, it reads build info from the
// runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := version
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if local, found := debug.ReadBuildInfo(); found {
			info = local
		}
	}

	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		if resolvedVersion == "dev" || resolvedVersion == "(devel)" {
			for _, dep := range info.Deps {
				if dep.Path == modulePath && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}

// tokenDir returns the configured token directory or ~/.garminconnect.
func tokenDir() (string, error) {
	if appConfig.Tokens.Dir != "" {
		return appConfig.Tokens.Dir, nil
	}
	return tokens.DefaultPath()
}

func garminConfig() (garmin.Config, error) {
	dir, err := tokenDir()
	if err != nil {
		return garmin.Config{}, err
	}
	cfg := garmin.NewDefaultConfig()
	cfg.TokenDir = dir
	cfg.RequestsPerSecond = appConfig.Sync.RequestsPerSecond
	if appConfig.Sync.Burst > 0 {
		cfg.Burst = appConfig.Sync.Burst
	}
	cfg.UserAgent = "garmin-health-data/" + strings.TrimPrefix(version, "v")
	return cfg, nil
}

func openStore(ctx context.Context) (*db.BunStore, error) {
	store, err := db.NewStoreFromDSN(ctx, appConfig.Database.Type, appConfig.Database.Dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}
