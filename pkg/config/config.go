// Package config loads wksync settings from defaults, an optional YAML file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/japaniel/wksync/pkg/wanikani"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when no path is given.
var DefaultConfigPaths = []string{
	"wksync.yaml",
	"wksync.yml",
}

type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	WaniKani WaniKaniConfig `koanf:"wanikani"`
	Sync     SyncConfig     `koanf:"sync"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

type SnapshotConfig struct {
	Path string `koanf:"path"`
}

type WaniKaniConfig struct {
	BaseURL           string        `koanf:"base_url"`
	Token             string        `koanf:"token"`
	Levels            int           `koanf:"levels"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	FetchConcurrency  int           `koanf:"fetch_concurrency"`
	Timeout           time.Duration `koanf:"timeout"`
}

type SyncConfig struct {
	MaxInFlight int `koanf:"max_in_flight"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type MetricsConfig struct {
	// Addr enables the /metrics endpoint when set, e.g. ":9090".
	Addr string `koanf:"addr"`
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "wksync.db", MaxOpenConns: 1},
		Snapshot: SnapshotConfig{Path: "wanikani.json"},
		WaniKani: WaniKaniConfig{
			BaseURL:           wanikani.DefaultBaseURL,
			Levels:            wanikani.MaxLevel,
			RequestsPerMinute: 60,
			FetchConcurrency:  4,
			Timeout:           30 * time.Second,
		},
		Sync: SyncConfig{MaxInFlight: 300},
		Log:  LogConfig{Level: "info", Format: "console"},
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// CONFIG_PATH and then DefaultConfigPaths are tried, and a missing file is
// not an error. An explicit path that does not exist is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.WaniKani.Token = wanikani.BearerToken(cfg.WaniKani.Token)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variables onto config keys:
//   - WANIKANI_TOKEN -> wanikani.token
//   - WKSYNC_DATABASE_PATH -> database.path
//   - WKSYNC_SYNC_MAX_IN_FLIGHT -> sync.max_in_flight
//
// Anything else is skipped.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if key == "wanikani_token" {
		return "wanikani.token"
	}
	rest, ok := strings.CutPrefix(key, "wksync_")
	if !ok {
		return ""
	}
	section, name, ok := strings.Cut(rest, "_")
	if !ok || !knownSections[section] {
		return ""
	}
	return section + "." + name
}

var knownSections = map[string]bool{
	"database": true,
	"snapshot": true,
	"wanikani": true,
	"sync":     true,
	"log":      true,
	"metrics":  true,
}

// Validate checks that the values are usable. The API token is checked
// only by the commands that need it.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must be set"))
	}
	if c.Database.MaxOpenConns <= 0 {
		errs = append(errs, fmt.Errorf("database.max_open_conns must be positive, got %d", c.Database.MaxOpenConns))
	}
	if c.Snapshot.Path == "" {
		errs = append(errs, errors.New("snapshot.path must be set"))
	}
	if c.WaniKani.Levels <= 0 || c.WaniKani.Levels > wanikani.MaxLevel {
		errs = append(errs, fmt.Errorf("wanikani.levels must be between 1 and %d, got %d", wanikani.MaxLevel, c.WaniKani.Levels))
	}
	if c.WaniKani.RequestsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("wanikani.requests_per_minute must be positive, got %d", c.WaniKani.RequestsPerMinute))
	}
	if c.WaniKani.FetchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("wanikani.fetch_concurrency must be positive, got %d", c.WaniKani.FetchConcurrency))
	}
	if c.WaniKani.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("wanikani.timeout must be positive, got %s", c.WaniKani.Timeout))
	}
	if c.Sync.MaxInFlight <= 0 {
		errs = append(errs, fmt.Errorf("sync.max_in_flight must be positive, got %d", c.Sync.MaxInFlight))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ErrMissingToken is returned by RequireToken when no API token is set.
var ErrMissingToken = errors.New("WANIKANI_TOKEN is not set")

// RequireToken fails unless an API token is configured.
func (c *Config) RequireToken() error {
	if c.WaniKani.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// ClientConfig returns the settings for the API client.
func (c *Config) ClientConfig() wanikani.Config {
	return wanikani.Config{
		BaseURL:           c.WaniKani.BaseURL,
		Token:             c.WaniKani.Token,
		Levels:            c.WaniKani.Levels,
		RequestsPerMinute: c.WaniKani.RequestsPerMinute,
		FetchConcurrency:  c.WaniKani.FetchConcurrency,
		Timeout:           c.WaniKani.Timeout,
	}
}
