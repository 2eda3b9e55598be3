package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig is the configuration of the offline sync client
type ClientConfig struct {
	ServerURL      string              `yaml:"server_url"`
	RequestTimeout time.Duration       `yaml:"request_timeout"` // Default: 30s
	Storage        ClientStorageConfig `yaml:"storage"`
	Health         HealthConfig        `yaml:"health"`
	Link           LinkConfig          `yaml:"link"`
	Logging        LoggingConfig       `yaml:"logging"`
}

// ClientStorageConfig contains the offline queue location
type ClientStorageConfig struct {
	Path string `yaml:"path"`
}

// HealthConfig contains server availability probe settings
type HealthConfig struct {
	Interval time.Duration `yaml:"interval"` // Default: 30s
	Timeout  time.Duration `yaml:"timeout"`  // Default: 5s
}

// LinkConfig contains network interface watching settings
type LinkConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"` // Default: 5s
}

// LoadClient loads the client configuration from a YAML file.
// A missing file yields the defaults.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultClientPath returns the default client config location
func DefaultClientPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "fittrack-sync.yaml"
	}
	return filepath.Join(dir, "fittrack", "sync.yaml")
}

func (c *ClientConfig) setDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = "http://localhost:8080"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.Storage.Path == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			c.Storage.Path = filepath.Join(dir, "fittrack", "offline.db")
		} else {
			c.Storage.Path = "fittrack-offline.db"
		}
	}
	if c.Health.Interval == 0 {
		c.Health.Interval = 30 * time.Second
	}
	if c.Health.Timeout == 0 {
		c.Health.Timeout = 5 * time.Second
	}
	if c.Link.PollInterval == 0 {
		c.Link.PollInterval = 5 * time.Second
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	setLoggingDefaults(&c.Logging)
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server_url: scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server_url: host is required")
	}
	if c.Health.Interval < 0 || c.Health.Timeout < 0 {
		return fmt.Errorf("health intervals must be positive")
	}
	if c.Link.PollInterval < 0 {
		return fmt.Errorf("link.poll_interval must be positive")
	}
	return validateLogging(c.Logging)
}
