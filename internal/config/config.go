// Package config loads runtime configuration for the cleanup Lambda from the
// environment and for the cleanupctl CLI from cleanupctl.yaml.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the Lambda runtime configuration.
type Config struct {
	// KeepAlive is how long, in minutes, a failed deployment's Auto Scaling
	// Group is kept before it is removed.
	KeepAlive     int    `env:"KEEP_ALIVE,required,notEmpty"`
	AlertTopicARN string `env:"ALERT_TOPIC_ARN"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName   string `env:"SERVICE_NAME" envDefault:"codedeploy-cleanup"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from the given variables instead of the
// process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.KeepAlive <= 0 {
		return fmt.Errorf("KEEP_ALIVE must be a positive number of minutes, got %d", cfg.KeepAlive)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ParseLevel converts a LOG_LEVEL value into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return lvl, nil
}
