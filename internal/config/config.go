// Package config loads settings for the fission tools from a TOML or YAML
// file and FISSION_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Stress  StressConfig  `toml:"stress" yaml:"stress"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

type StressConfig struct {
	Duration    time.Duration `toml:"duration" yaml:"duration" env:"FISSION_STRESS_DURATION"`
	Entities    int           `toml:"entities" yaml:"entities" env:"FISSION_STRESS_ENTITIES"`
	Churn       int           `toml:"churn" yaml:"churn" env:"FISSION_STRESS_CHURN"` // entities created per tick
	MaxLifetime float64       `toml:"max_lifetime" yaml:"max_lifetime" env:"FISSION_STRESS_MAX_LIFETIME"`
	Tick        time.Duration `toml:"tick" yaml:"tick" env:"FISSION_STRESS_TICK"` // 0 runs ticks back to back
	Verify      bool          `toml:"verify" yaml:"verify" env:"FISSION_STRESS_VERIFY"`
	Seed        uint64        `toml:"seed" yaml:"seed" env:"FISSION_STRESS_SEED"`
	Profile     string        `toml:"profile" yaml:"profile" env:"FISSION_STRESS_PROFILE"` // "", "cpu" or "mem"
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" env:"FISSION_LOG_LEVEL"`
	Format string `toml:"format" yaml:"format" env:"FISSION_LOG_FORMAT"` // "json" or "console"
}

// Load reads path on top of the defaults, choosing the decoder by file
// extension, then applies environment overrides. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

// Validate checks the values flags and files cannot constrain themselves.
func (c *Config) Validate() error {
	switch {
	case c.Stress.Entities < 0:
		return fmt.Errorf("stress.entities must not be negative, got %d", c.Stress.Entities)
	case c.Stress.Churn < 0:
		return fmt.Errorf("stress.churn must not be negative, got %d", c.Stress.Churn)
	case c.Stress.MaxLifetime <= 0:
		return fmt.Errorf("stress.max_lifetime must be positive, got %g", c.Stress.MaxLifetime)
	case c.Stress.Duration <= 0:
		return fmt.Errorf("stress.duration must be positive, got %s", c.Stress.Duration)
	}

	switch c.Stress.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("stress.profile must be cpu or mem, got %q", c.Stress.Profile)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Stress: StressConfig{
			Duration:    10 * time.Second,
			Entities:    10000,
			Churn:       100,
			MaxLifetime: 2.0,
			Seed:        1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
