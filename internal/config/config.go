package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/foxzi/fittrack/internal/email"
)

// Config is the server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Notify   NotifyConfig   `yaml:"notify"`  // Admin e-mail notifications
	Metrics  MetricsConfig  `yaml:"metrics"` // Prometheus metrics configuration
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"` // Max HTTP header size (default: 1MB)
	ReadTimeout    time.Duration `yaml:"read_timeout"`     // HTTP read timeout (default: 30s)
	WriteTimeout   time.Duration `yaml:"write_timeout"`    // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration `yaml:"idle_timeout"`     // HTTP idle timeout (default: 60s)

	// AdminAllowedIPs restricts admin endpoints to these IPs/CIDRs (empty = any)
	AdminAllowedIPs []string `yaml:"admin_allowed_ips"`

	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains HTTPS settings of the API listener.
// Either a certificate pair or ACME may be configured, not both.
type TLSConfig struct {
	CertFile string     `yaml:"cert_file"`
	KeyFile  string     `yaml:"key_file"`
	ACME     ACMEConfig `yaml:"acme"`
}

// Enabled reports whether the API is served over HTTPS
func (t TLSConfig) Enabled() bool {
	return t.ACME.Enabled || t.CertFile != ""
}

// ACMEConfig contains Let's Encrypt settings
type ACMEConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Email         string   `yaml:"email"`
	Domains       []string `yaml:"domains"`
	CacheDir      string   `yaml:"cache_dir"`      // Default: /var/lib/fittrack/certs
	ChallengeAddr string   `yaml:"challenge_addr"` // HTTP-01 listener, default: :80
}

// DatabaseConfig contains SQLite settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains token settings
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	TokenTTL         time.Duration `yaml:"token_ttl"`          // Default: 24h
	LoginMaxFailures int           `yaml:"login_max_failures"` // Per IP and per username, default: 5, negative disables
	LoginWindow      time.Duration `yaml:"login_window"`       // Default: 15m
}

// MonitorConfig contains suspicious activity detection settings
type MonitorConfig struct {
	Enabled         *bool         `yaml:"enabled"`          // Default: true
	ActionThreshold int           `yaml:"action_threshold"` // Flag users with more actions than this
	Window          time.Duration `yaml:"window"`           // Trailing window for counting actions
	PollInterval    time.Duration `yaml:"poll_interval"`    // How often to scan the activity log
}

// IsEnabled reports whether the monitor should run
func (m MonitorConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// NotifyConfig contains settings of the admin e-mail notifier
type NotifyConfig struct {
	Enabled  bool     `yaml:"enabled"`
	SMTPAddr string   `yaml:"smtp_addr"` // host:port of the relay
	Username string   `yaml:"username"`  // PLAIN auth, optional
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`

	DKIM DKIMConfig `yaml:"dkim"`
}

// DKIMConfig contains signing settings of notification mail
type DKIMConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Domain   string `yaml:"domain"`   // Default: domain of notify.from
	Selector string `yaml:"selector"` // Default: fittrack
	KeyFile  string `yaml:"key_file"`
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled    bool     `yaml:"enabled"`
	ListenAddr string   `yaml:"listen_addr"` // Default: :9090
	Path       string   `yaml:"path"`        // Default: /metrics
	AllowedIPs []string `yaml:"allowed_ips"` // IP addresses/CIDRs allowed to access metrics
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.MaxHeaderBytes == 0 {
		c.Server.MaxHeaderBytes = 1 << 20 // 1 MB
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	if c.Server.TLS.ACME.Enabled {
		if c.Server.TLS.ACME.CacheDir == "" {
			c.Server.TLS.ACME.CacheDir = "/var/lib/fittrack/certs"
		}
		if c.Server.TLS.ACME.ChallengeAddr == "" {
			c.Server.TLS.ACME.ChallengeAddr = ":80"
		}
	}

	if c.Database.Path == "" {
		c.Database.Path = "/var/lib/fittrack/fittrack.db"
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.LoginMaxFailures == 0 {
		c.Auth.LoginMaxFailures = 5
	}
	if c.Auth.LoginWindow == 0 {
		c.Auth.LoginWindow = 15 * time.Minute
	}

	if c.Monitor.ActionThreshold == 0 {
		c.Monitor.ActionThreshold = 10
	}
	if c.Monitor.Window == 0 {
		c.Monitor.Window = time.Minute
	}
	if c.Monitor.PollInterval == 0 {
		c.Monitor.PollInterval = 30 * time.Second
	}

	if c.Notify.DKIM.Enabled {
		if c.Notify.DKIM.Selector == "" {
			c.Notify.DKIM.Selector = "fittrack"
		}
		if c.Notify.DKIM.Domain == "" {
			c.Notify.DKIM.Domain = email.Domain(c.Notify.From)
		}
	}

	setLoggingDefaults(&c.Logging)

	// Metrics defaults
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = ":9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "json"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must not be negative")
	}
	if c.Auth.LoginWindow < 0 {
		return fmt.Errorf("auth.login_window must not be negative")
	}

	if err := validateTLS(c.Server.TLS); err != nil {
		return err
	}
	for _, entry := range c.Server.AdminAllowedIPs {
		if net.ParseIP(entry) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err != nil {
			return fmt.Errorf("invalid server.admin_allowed_ips entry: %s", entry)
		}
	}

	if c.Monitor.ActionThreshold < 0 {
		return fmt.Errorf("monitor.action_threshold must not be negative")
	}
	if c.Monitor.Window < 0 {
		return fmt.Errorf("monitor.window must be positive")
	}
	if c.Monitor.PollInterval < 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}

	if c.Notify.Enabled {
		if c.Notify.SMTPAddr == "" {
			return fmt.Errorf("notify.smtp_addr is required when notifications are enabled")
		}
		if _, _, err := net.SplitHostPort(c.Notify.SMTPAddr); err != nil {
			return fmt.Errorf("invalid notify.smtp_addr: %w", err)
		}
		if c.Notify.From == "" {
			return fmt.Errorf("notify.from is required when notifications are enabled")
		}
		if len(c.Notify.To) == 0 {
			return fmt.Errorf("notify.to must not be empty when notifications are enabled")
		}
		for _, rcpt := range c.Notify.To {
			if _, err := email.Normalize(rcpt); err != nil {
				return fmt.Errorf("invalid notify.to entry: %s", rcpt)
			}
		}
		if c.Notify.DKIM.Enabled {
			if c.Notify.DKIM.KeyFile == "" {
				return fmt.Errorf("notify.dkim.key_file is required when DKIM is enabled")
			}
			if c.Notify.DKIM.Domain == "" {
				return fmt.Errorf("notify.dkim.domain is required when DKIM is enabled")
			}
		}
	}

	if c.Metrics.Enabled {
		for _, entry := range c.Metrics.AllowedIPs {
			if net.ParseIP(entry) != nil {
				continue
			}
			if _, _, err := net.ParseCIDR(entry); err != nil {
				return fmt.Errorf("invalid metrics.allowed_ips entry: %s", entry)
			}
		}
	}

	return validateLogging(c.Logging)
}

func validateTLS(t TLSConfig) error {
	if (t.CertFile == "") != (t.KeyFile == "") {
		return fmt.Errorf("server.tls.cert_file and server.tls.key_file must be set together")
	}
	if !t.ACME.Enabled {
		return nil
	}
	if t.CertFile != "" {
		return fmt.Errorf("server.tls.acme cannot be combined with cert_file/key_file")
	}
	if len(t.ACME.Domains) == 0 {
		return fmt.Errorf("server.tls.acme.domains must not be empty when ACME is enabled")
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[l.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", l.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[l.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", l.Format)
	}
	return nil
}
