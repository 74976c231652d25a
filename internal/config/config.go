// Package config loads optional user preferences for clsum.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDirName = "clsum"
	configFile = "config.yaml"
)

// Config holds persistent user preferences. The zero value means "use the
// built-in defaults".
type Config struct {
	// VendorPriority breaks ties between devices with equal memory during
	// automatic selection: earlier vendor-name prefixes rank higher.
	VendorPriority []string `yaml:"vendor_priority,omitempty"`

	// HashTimeout bounds the blocking wait on one kernel launch, as a Go
	// duration string ("90s", "2m").
	HashTimeout string `yaml:"hash_timeout,omitempty"`
}

// Timeout parses HashTimeout, falling back to def when unset or malformed.
func (c *Config) Timeout(def time.Duration) time.Duration {
	if c.HashTimeout == "" {
		return def
	}
	d, err := time.ParseDuration(c.HashTimeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Load reads the config from disk. A missing or malformed file yields a
// zero-value Config; preferences are never required.
func Load() *Config {
	p, err := path()
	if err != nil {
		return &Config{}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}
		}
		return &Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &Config{}
	}
	return &cfg
}

// Save writes the config to disk, creating the directory if needed.
func Save(cfg *Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0600)
}

func path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, configFile), nil
}
