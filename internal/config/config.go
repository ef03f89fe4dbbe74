// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults.
//   - Load layers defaults, an optional .env file, an optional YAML file and
//     the environment, in that order.
//   - External errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// APIBaseURL is the origin of the external assessment/auth/chat API.
	APIBaseURL string `koanf:"api_base_url"`

	// HTTPTimeoutMS bounds each outbound API call.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// StoreDir keeps the signed-in user on disk. Empty keeps it in memory.
	StoreDir string `koanf:"store_dir"`

	// AutoCloseDelayMS is how long the auth overlay stays open after a
	// successful login or register.
	AutoCloseDelayMS int `koanf:"auto_close_delay_ms"`

	// EventBuffer is the per-subscriber broadcast buffer.
	EventBuffer int `koanf:"event_buffer"`

	// DedupeWindow is how many recent broadcast IDs are remembered.
	DedupeWindow int `koanf:"dedupe_window"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":8080",
		APIBaseURL:       "http://localhost:3000",
		HTTPTimeoutMS:    10_000,
		AutoCloseDelayMS: 1200,
		EventBuffer:      16,
		DedupeWindow:     1024,
	}
}

// HTTPTimeout returns HTTPTimeoutMS as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// AutoCloseDelay returns AutoCloseDelayMS as a duration.
func (c *Config) AutoCloseDelay() time.Duration {
	return time.Duration(c.AutoCloseDelayMS) * time.Millisecond
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.APIBaseURL == "":
		return fmt.Errorf("%w: api_base_url must not be empty", ErrInvalidConfig)
	case c.AutoCloseDelayMS < 0:
		return fmt.Errorf("%w: auto_close_delay_ms must not be negative", ErrInvalidConfig)
	case c.HTTPTimeoutMS < 0:
		return fmt.Errorf("%w: http_timeout_ms must not be negative", ErrInvalidConfig)
	case c.EventBuffer < 0 || c.DedupeWindow < 0:
		return fmt.Errorf("%w: event_buffer and dedupe_window must not be negative", ErrInvalidConfig)
	}
	return nil
}
