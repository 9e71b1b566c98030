package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultBackendURL is the hosted AI backend.
	DefaultBackendURL = "https://sb-u864.onrender.com"
	// DefaultIdentityURL is the hosted identity provider project.
	DefaultIdentityURL = "https://xncfghdikiqknuruurfh.supabase.co"
)

// DefaultConfig returns the default storybit configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":3000",
			UpstreamTimeout: 300 * time.Second,
			RateBurst:       20,
		},
		Backend: BackendConfig{
			URL: DefaultBackendURL,
		},
		Identity: IdentityConfig{
			URL: DefaultIdentityURL,
		},
		Site: SiteConfig{
			URL: "http://localhost:3000",
		},
		Client: ClientConfig{
			ServerURL:      "http://localhost:3000",
			RequestTimeout: 120 * time.Second,
			RetryBudget:    120 * time.Second,
			RetryInterval:  5 * time.Second,
		},
		Cache: CacheConfig{
			TTL:        24 * time.Hour,
			MaxEntries: 500,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultConfigYAML returns the default configuration as YAML bytes
func DefaultConfigYAML() ([]byte, error) {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config to YAML: %w", err)
	}
	return data, nil
}
