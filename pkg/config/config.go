// Package config loads the board configuration from an optional YAML file with BOARD_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

const envPrefix = "BOARD_"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the complete configuration.
type Config struct {
	Store  StoreConfig  `koanf:"store"`
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
}

// StoreConfig says where projects live. When URL is set the board talks to the HTTP API,
// otherwise it opens the sqlite file at Path directly.
type StoreConfig struct {
	Path    string        `koanf:"path"`
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	File  string `koanf:"file"`
	Level string `koanf:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Path:    "project-board.sqlite",
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{Addr: ":8080"},
		Log: LogConfig{
			File:  "project-board.log",
			Level: "info",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty) and then applies environment
// overrides. BOARD_STORE_API_KEY maps to store.api_key.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps BOARD_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))

	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}

	return parts[0] + "." + parts[1]
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Store.URL == "" && c.Store.Path == "" {
		return fmt.Errorf("%w: store.path or store.url is required", ErrInvalidConfig)
	}

	if c.Store.Timeout <= 0 {
		return fmt.Errorf("%w: store.timeout must be positive", ErrInvalidConfig)
	}

	if _, err := c.Log.ZerologLevel(); err != nil {
		return err
	}

	return nil
}

// ZerologLevel parses the configured log level.
func (l LogConfig) ZerologLevel() (zerolog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("%w: unknown log level '%s'", ErrInvalidConfig, l.Level)
	}
}
