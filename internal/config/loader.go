package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration file: a set of named profiles.
type Config struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile bundles the client settings for one target environment.
type Profile struct {
	BaseURL      string            `yaml:"baseUrl"`
	Timeout      string            `yaml:"timeout,omitempty"`
	ProbeTimeout string            `yaml:"probeTimeout,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (*Profile, error) {
	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return &profile, nil
}

// TimeoutDuration returns the profile's request timeout, or fallback when
// the profile does not set one.
func (p *Profile) TimeoutDuration(fallback time.Duration) time.Duration {
	if p.Timeout == "" {
		return fallback
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return fallback
	}
	return d
}

// ProbeTimeoutDuration returns the profile's probe timeout, or fallback when
// the profile does not set one.
func (p *Profile) ProbeTimeoutDuration(fallback time.Duration) time.Duration {
	if p.ProbeTimeout == "" {
		return fallback
	}
	d, err := time.ParseDuration(p.ProbeTimeout)
	if err != nil {
		return fallback
	}
	return d
}
