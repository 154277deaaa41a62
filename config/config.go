// Package config provides configuration management for owslog.
// It handles loading and validating configuration from YAML/JSON files and
// environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/orchardws/owslog/schema"
)

// Config is the complete logger configuration. It is validated once by
// Setup and never mutated afterwards.
type Config struct {
	// Endpoint is the log-collection URL records are POSTed to.
	Endpoint string `koanf:"endpoint"`
	// Environment is the deployment environment name (dev, qa, prod).
	Environment string `koanf:"environment"`
	// LoggerName is stamped on every record as logger_name.
	LoggerName string `koanf:"logger_name"`
	// Level is the minimum severity name; records below it are dropped.
	Level string `koanf:"level"`
	// ServiceName and ServiceVersion identify the emitting service.
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
	// ExtraStaticFields are merged into every payload at the lowest
	// precedence (below adapter bindings and call extras).
	ExtraStaticFields map[string]any `koanf:"extra_static_fields"`
	// IncludeCaller adds a meta object with file/function/line to each
	// record.
	IncludeCaller bool           `koanf:"include_caller"`
	Delivery      DeliveryConfig `koanf:"delivery"`
}

// DeliveryConfig holds transport tuning.
type DeliveryConfig struct {
	// Mode is "async" (background send, default) or "sync".
	Mode string `koanf:"mode"`
	// Timeout bounds each delivery attempt.
	Timeout time.Duration `koanf:"timeout"`
	// MaxInFlight caps concurrent background sends. When the cap is
	// reached the send runs synchronously on the caller, still bounded
	// by Timeout.
	MaxInFlight int `koanf:"max_in_flight"`
	// RatePerSecond, when > 0, caps outbound records per second; records
	// over budget are dropped and counted.
	RatePerSecond float64 `koanf:"rate_per_second"`
	// RateBurst is the burst size for the rate cap.
	RateBurst int `koanf:"rate_burst"`
}

// ConfigError reports a missing or invalid configuration value. It is the
// only error owslog surfaces synchronously, and only from Setup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// Validate checks all required fields and the endpoint URL. It returns a
// *ConfigError describing the first problem found.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return &ConfigError{Field: "endpoint", Reason: "required"}
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return &ConfigError{Field: "endpoint", Reason: fmt.Sprintf("not a valid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "endpoint", Reason: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)}
	}
	if u.Host == "" {
		return &ConfigError{Field: "endpoint", Reason: "missing host"}
	}
	if c.Environment == "" {
		return &ConfigError{Field: "environment", Reason: "required"}
	}
	if c.LoggerName == "" {
		return &ConfigError{Field: "logger_name", Reason: "required"}
	}
	if c.ServiceName == "" {
		return &ConfigError{Field: "service_name", Reason: "required"}
	}
	if c.ServiceVersion == "" {
		return &ConfigError{Field: "service_version", Reason: "required"}
	}
	if c.Level == "" {
		return &ConfigError{Field: "level", Reason: "required"}
	}
	if _, err := schema.ParseLevel(c.Level); err != nil {
		return &ConfigError{Field: "level", Reason: err.Error()}
	}
	if c.Delivery.Mode != "" && c.Delivery.Mode != "async" && c.Delivery.Mode != "sync" {
		return &ConfigError{Field: "delivery.mode", Reason: fmt.Sprintf("must be async or sync, got %q", c.Delivery.Mode)}
	}
	if c.Delivery.Timeout < 0 {
		return &ConfigError{Field: "delivery.timeout", Reason: "must not be negative"}
	}
	if c.Delivery.MaxInFlight < 0 {
		return &ConfigError{Field: "delivery.max_in_flight", Reason: "must not be negative"}
	}
	return nil
}

// MinLevel returns the parsed minimum severity. Validate must have
// succeeded first.
func (c *Config) MinLevel() schema.Level {
	level, err := schema.ParseLevel(c.Level)
	if err != nil {
		return schema.LevelInfo
	}
	return level
}
