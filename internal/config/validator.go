package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks every profile for a usable base URL and parseable
// durations. It reports the first problem found.
func (c *Config) Validate() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("config defines no profiles")
	}

	for name, profile := range c.Profiles {
		if err := profile.validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}

	return nil
}

func (p *Profile) validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("baseUrl is required")
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid baseUrl: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("baseUrl scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("baseUrl has no host")
	}

	if p.Timeout != "" {
		if _, err := time.ParseDuration(p.Timeout); err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
	}
	if p.ProbeTimeout != "" {
		if _, err := time.ParseDuration(p.ProbeTimeout); err != nil {
			return fmt.Errorf("invalid probeTimeout: %w", err)
		}
	}

	return nil
}
