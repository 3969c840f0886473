package pagevet

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pagevet/pagevet/internal/browser"
)

// RateLimitConfig throttles outgoing fetches.
type RateLimitConfig struct {
	// RequestsPerSecond <= 0 disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// CacheConfig controls the on-disk result cache. An empty Path disables
// caching.
type CacheConfig struct {
	Path string        `json:"path" yaml:"path"`
	TTL  time.Duration `json:"ttl" yaml:"ttl"`
}

// Config holds fetcher settings.
type Config struct {
	// Concurrency bounds simultaneous browser tabs, 1..20.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Timeout bounds a single navigation attempt.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Retries is how many times a fully failed navigation is retried.
	Retries int `json:"retries" yaml:"retries"`

	// RawContent disables main-content scoping during extraction.
	RawContent bool `json:"raw_content" yaml:"raw_content"`

	Headless          bool              `json:"headless" yaml:"headless"`
	IgnoreHTTPSErrors bool              `json:"ignore_https_errors" yaml:"ignore_https_errors"`
	UserAgent         string            `json:"user_agent" yaml:"user_agent"`
	ExtraHeaders      map[string]string `json:"extra_headers,omitempty" yaml:"extra_headers,omitempty"`

	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
}

// DefaultConfig returns settings suited to checking a handful of links.
func DefaultConfig() *Config {
	return &Config{
		Concurrency: 4,
		Timeout:     30 * time.Second,
		Retries:     1,
		Headless:    true,
		UserAgent:   browser.DefaultUserAgent,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 0,
			Burst:             1,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file, layered over
// the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Concurrency < 1 || c.Concurrency > browser.MaxLimit {
		return fmt.Errorf("concurrency must be between 1 and %d", browser.MaxLimit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	return nil
}
