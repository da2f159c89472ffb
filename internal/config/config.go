// Package config loads nexus settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultBaseURL      = "http://127.0.0.1:8000"
	DefaultMailSubject  = "Input"
	DefaultDisplayLimit = 2
	DefaultLogLevel     = "info"
)

// Config holds all nexus configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Mail    MailConfig    `yaml:"mail"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// APIConfig points the client at the backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// MailConfig configures the mail summarizer and extractor requests.
type MailConfig struct {
	// Subject is sent with every summarize and extract request.
	Subject string `yaml:"subject"`
	// DisplayLimit caps how many summaries a panel shows. 0 shows all.
	DisplayLimit int `yaml:"display_limit"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty disables logging
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API:     APIConfig{BaseURL: DefaultBaseURL},
		Mail:    MailConfig{Subject: DefaultMailSubject, DisplayLimit: DefaultDisplayLimit},
		Logging: LoggingConfig{Level: DefaultLogLevel},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/nexus/config.yaml (or the platform
// equivalent). Returns empty string if no config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nexus", "config.yaml")
}

// Load reads the config file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NEXUS_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("NEXUS_MAIL_SUBJECT"); v != "" {
		c.Mail.Subject = v
	}
	if v := os.Getenv("NEXUS_DISPLAY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Mail.DisplayLimit = n
		}
	}
	if v := os.Getenv("NEXUS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("NEXUS_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv("NEXUS_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.Mail.Subject = strings.TrimSpace(c.Mail.Subject)
	if c.Mail.Subject == "" {
		c.Mail.Subject = DefaultMailSubject
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	c.Metrics.Addr = strings.TrimSpace(c.Metrics.Addr)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url %q must use http or https", c.API.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url %q has no host", c.API.BaseURL)
	}
	if c.Mail.DisplayLimit < 0 {
		return fmt.Errorf("mail.display_limit must be >= 0, got %d", c.Mail.DisplayLimit)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q (must be: debug, info, warn, error)", c.Logging.Level)
	}
	return nil
}
