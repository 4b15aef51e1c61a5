// Copyright (c) 2026 Garmin Health Data Team
// garmin-health-data - personal Garmin Connect data extractor
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads and persists the garmin-health-data configuration.
// Values are layered defaults, config file, GARMIN_* environment variables
// and finally command line flags.
package config // import "github.com/toeirei/garmin-health-data/internal/config"

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName    = "garmin-health-data"
	envPrefix  = "garmin"
	configName = "garmin-health-data"
)

type Database struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

type Tokens struct {
	// Dir defaults to ~/.garminconnect when empty.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type Sync struct {
	LookbackDays      int      `mapstructure:"lookback_days" yaml:"lookback_days"`
	Concurrency       int      `mapstructure:"concurrency" yaml:"concurrency"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int      `mapstructure:"burst" yaml:"burst"`
	DataTypes         []string `mapstructure:"data_types" yaml:"data_types"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type Config struct {
	Database Database `mapstructure:"database" yaml:"database"`
	Tokens   Tokens   `mapstructure:"tokens" yaml:"tokens"`
	Sync     Sync     `mapstructure:"sync" yaml:"sync"`
	Log      Log      `mapstructure:"log" yaml:"log"`
}

// Defaults returns the default value of every known key.
func Defaults() map[string]any {
	return map[string]any{
		"database.type":            "sqlite",
		"database.dsn":             "./garmin-health.db",
		"tokens.dir":               "",
		"sync.lookback_days":       30,
		"sync.concurrency":         4,
		"sync.requests_per_second": 2.0,
		"sync.burst":               4,
		"sync.data_types":          []string{},
		"log.level":                "info",
	}
}

// GetConfigPath returns the full path of the user configuration file.
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(configDir, appName, configName+".yaml"), nil
}

// LoadConfig resolves T from defaults, the config file, the environment and
// the flags of cmd. A missing config file is reported as
// viper.ConfigFileNotFoundError together with the otherwise complete value.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if configFile != nil && *configFile != "" {
		v.SetConfigFile(*configFile)
	}
	if userConfigPath, err := GetConfigPath(); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	v.AddConfigPath(".")

	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		notFound = err
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, notFound
}

// WriteConfigFile stores c at GetConfigPath with 0600 permissions.
func WriteConfigFile[T any](c *T) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return WriteConfigFileTo(c, path)
}

func WriteConfigFileTo[T any](c *T, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	return os.WriteFile(path, data, 0o600)
}
