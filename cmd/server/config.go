// Package main provides the VitalWatch server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Rules      RulesConfig      `yaml:"rules"`
	Insights   InsightsConfig   `yaml:"insights"`
	Verbose    bool             `yaml:"-"` // set via CLI flag
}

// ServerConfig contains server settings.
type ServerConfig struct {
	HTTPAddress    string    `yaml:"http_address"`    // HTTP listen address (default: :8080)
	MetricsAddress string    `yaml:"metrics_address"` // Prometheus metrics address (default: :9090)
	QueryTimeout   string    `yaml:"query_timeout"`   // Timeout for storage-backed API calls
	RateLimitPerIP int       `yaml:"rate_limit_per_ip"`
	TLS            TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS settings for the HTTP server.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database path
}

// ClickHouseConfig contains the optional reading archive settings.
type ClickHouseConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Addresses     []string `yaml:"addresses"`
	Database      string   `yaml:"database"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	Compression   bool     `yaml:"compression"`
	RetentionDays int      `yaml:"retention_days"`
}

// RulesConfig contains the combination rules settings.
type RulesConfig struct {
	Path  string `yaml:"path"`  // YAML rules file (optional)
	Watch bool   `yaml:"watch"` // reload on file change
}

// InsightsConfig contains the optional insights service settings.
type InsightsConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Server.QueryTimeout == "" {
		c.Server.QueryTimeout = "10s"
	}
	if c.Server.RateLimitPerIP == 0 {
		c.Server.RateLimitPerIP = 120
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/vitalwatch.db"
	}
	if c.ClickHouse.Enabled {
		if len(c.ClickHouse.Addresses) == 0 {
			c.ClickHouse.Addresses = []string{"localhost:9000"}
		}
		if c.ClickHouse.Database == "" {
			c.ClickHouse.Database = "vitalwatch"
		}
	}
	if c.Insights.Timeout == "" {
		c.Insights.Timeout = "10s"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required")
	}
	if _, err := time.ParseDuration(c.Server.QueryTimeout); err != nil {
		return fmt.Errorf("invalid server.query_timeout: %w", err)
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls.key_file is required when TLS is enabled")
		}
	}
	if c.ClickHouse.Enabled && len(c.ClickHouse.Addresses) == 0 {
		return fmt.Errorf("clickhouse.addresses is required when clickhouse is enabled")
	}
	if c.Insights.Enabled {
		if c.Insights.BaseURL == "" {
			return fmt.Errorf("insights.base_url is required when insights is enabled")
		}
		if _, err := time.ParseDuration(c.Insights.Timeout); err != nil {
			return fmt.Errorf("invalid insights.timeout: %w", err)
		}
	}
	return nil
}

// QueryTimeout returns the parsed query timeout.
func (c *Config) QueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.QueryTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// InsightsTimeout returns the parsed insights timeout.
func (c *Config) InsightsTimeout() time.Duration {
	d, err := time.ParseDuration(c.Insights.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}
