// Package config loads storybit configuration from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Identity IdentityConfig `yaml:"identity"`
	Site     SiteConfig     `yaml:"site"`
	Client   ClientConfig   `yaml:"client"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the proxy route handlers.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	// UpstreamTimeout bounds each forwarded backend call.
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	// RateLimit is requests per second across /api; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// BackendConfig locates the external AI backend.
type BackendConfig struct {
	URL string `yaml:"url"`
}

// IdentityConfig locates the external identity provider.
type IdentityConfig struct {
	URL        string `yaml:"url"`
	AnonKey    string `yaml:"anon_key"`
	ProjectRef string `yaml:"project_ref"`
}

// SiteConfig holds public site metadata.
type SiteConfig struct {
	URL string `yaml:"url"`
}

// ClientConfig configures the topic resolver and script client.
type ClientConfig struct {
	ServerURL      string        `yaml:"server_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RetryBudget    time.Duration `yaml:"retry_budget"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
}

// CacheConfig configures both cache tiers.
type CacheConfig struct {
	DatabasePath string        `yaml:"database_path,omitempty"`
	TTL          time.Duration `yaml:"ttl"`
	MaxEntries   int           `yaml:"max_entries"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Path    string `yaml:"path,omitempty"`
	Console bool   `yaml:"console"`
}

// Load reads the config at path and applies environment overrides. A missing
// file yields the defaults.
func Load(afs afero.Fs, path string) (*Config, error) {
	config := DefaultConfig()

	data, err := afero.ReadFile(afs, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	config.ApplyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// LoadFromYAML loads config from YAML bytes without environment overrides - helper for tests
func LoadFromYAML(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from the environment. Both the storybit names and
// the public names used by the web deployment are honoured.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	first := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}

	if v, ok := first("API_URL", "STORYBIT_API_URL"); ok {
		c.Backend.URL = v
	}
	if v, ok := first("STORYBIT_ANON_KEY", "NEXT_PUBLIC_SUPABASE_ANON_KEY"); ok {
		c.Identity.AnonKey = v
	}
	if v, ok := first("STORYBIT_IDENTITY_URL", "NEXT_PUBLIC_SUPABASE_URL"); ok {
		c.Identity.URL = v
	}
	if v, ok := first("STORYBIT_SITE_URL", "NEXT_PUBLIC_SITE_URL"); ok {
		c.Site.URL = v
	}
	if v, ok := first("STORYBIT_SERVER_URL"); ok {
		c.Client.ServerURL = v
	}
	if v, ok := first("STORYBIT_LISTEN", "PORT"); ok {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		c.Server.Listen = v
	}
	if v, ok := first("STORYBIT_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
}

// Validate performs config validation
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"backend.url":       c.Backend.URL,
		"identity.url":      c.Identity.URL,
		"client.server_url": c.Client.ServerURL,
	} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Server.Listen == "" {
		return errors.New("server.listen is required")
	}
	if c.Server.UpstreamTimeout <= 0 {
		return errors.New("server.upstream_timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server.rate_limit cannot be negative")
	}
	if c.Client.RetryInterval <= 0 {
		return errors.New("client.retry_interval must be positive")
	}
	if c.Client.RetryBudget < c.Client.RetryInterval {
		return fmt.Errorf("client.retry_budget (%s) must be at least client.retry_interval (%s)",
			c.Client.RetryBudget, c.Client.RetryInterval)
	}
	if c.Client.RequestTimeout <= 0 {
		return errors.New("client.request_timeout must be positive")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if c.Cache.MaxEntries < 0 {
		return errors.New("cache.max_entries cannot be negative")
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: host is required", raw)
	}
	return nil
}

// ProjectRef returns the identity project ref, derived from the identity host
// (the first DNS label) when not configured.
func (c *Config) ProjectRef() string {
	if c.Identity.ProjectRef != "" {
		return c.Identity.ProjectRef
	}
	u, err := url.Parse(c.Identity.URL)
	if err != nil || u.Hostname() == "" {
		return "default"
	}
	label, _, _ := strings.Cut(u.Hostname(), ".")
	return label
}
