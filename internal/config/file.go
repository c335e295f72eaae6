package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the CLI configuration file looked up in the working directory.
const FileName = "cleanupctl.yaml"

// CLIConfig holds defaults for the cleanupctl commands.
type CLIConfig struct {
	FunctionARN string `yaml:"functionArn"`
	Region      string `yaml:"region,omitempty"`
	Profile     string `yaml:"profile,omitempty"`
	KeepAlive   int    `yaml:"keepAlive,omitempty"`
	Parallelism int    `yaml:"parallelism,omitempty"`
}

// LoadFile reads cleanupctl.yaml from dir. A missing file yields defaults.
func LoadFile(dir string) (*CLIConfig, error) {
	cfg := &CLIConfig{KeepAlive: 60, Parallelism: 4}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.KeepAlive <= 0 {
		return nil, fmt.Errorf("validating config: keepAlive must be positive")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return cfg, nil
}
