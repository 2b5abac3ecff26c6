// Package config loads overlaydemo settings from a YAML file, then applies
// environment overrides. A missing path yields the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"overlaykit/internal/overlay"
)

// Environment overrides.
const (
	ReapIntervalEnv  = "OVERLAYKIT_REAP_INTERVAL"
	ReapThresholdEnv = "OVERLAYKIT_REAP_THRESHOLD"
	IDPrefixEnv      = "OVERLAYKIT_ID_PREFIX"
)

// Reaper configures the stale-entry sweep.
type Reaper struct {
	Interval  time.Duration `yaml:"interval"`
	Threshold time.Duration `yaml:"threshold"`
}

// Config is the full configuration.
type Config struct {
	Reaper Reaper `yaml:"reaper"`

	// IDPrefix switches id generation to a counter with this prefix.
	// Empty means random uuids.
	IDPrefix string `yaml:"id_prefix"`

	// Guards maps a name to a boolean expression, e.g. editor: "!dirty".
	Guards map[string]string `yaml:"guards"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Reaper: Reaper{
			Interval:  overlay.DefaultReapInterval,
			Threshold: overlay.DefaultReapThreshold,
		},
		Guards: map[string]string{
			"editor": "!dirty",
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies env overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config %q: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(ReapIntervalEnv); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", ReapIntervalEnv, err)
		}
		c.Reaper.Interval = d
	}
	if v := os.Getenv(ReapThresholdEnv); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", ReapThresholdEnv, err)
		}
		c.Reaper.Threshold = d
	}
	if v := os.Getenv(IDPrefixEnv); v != "" {
		c.IDPrefix = v
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Reaper.Interval <= 0 {
		errs = append(errs, fmt.Errorf("reaper.interval must be positive, got %s", c.Reaper.Interval))
	}
	if c.Reaper.Threshold < 0 {
		errs = append(errs, fmt.Errorf("reaper.threshold must not be negative, got %s", c.Reaper.Threshold))
	}
	return errors.Join(errs...)
}

// IDGenerator returns the generator selected by IDPrefix.
func (c *Config) IDGenerator() overlay.IDGenerator {
	if c.IDPrefix == "" {
		return overlay.UUIDGenerator{}
	}
	return overlay.NewCounterGenerator(c.IDPrefix)
}

// ReaperOptions returns the reaper options for this configuration.
func (c *Config) ReaperOptions() []overlay.ReaperOption {
	return []overlay.ReaperOption{
		overlay.WithInterval(c.Reaper.Interval),
		overlay.WithThreshold(c.Reaper.Threshold),
	}
}
