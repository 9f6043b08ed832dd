// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package config handles application-wide settings and environment parsing.
//
// It leverages caarlos0/env to map OS environment variables into a strongly
// typed Go struct, providing defaults for every field so the server can
// start with nothing more than a writable directory.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the keywardd server.
type Config struct {
	// Port is the raw port specification: a single number, a comma-separated
	// list of at least three candidates, or a "[min,max]" range. The CLI
	// bootstrapper hands this to the port selector unparsed.
	Port string `env:"AUTH_PORT" envDefault:"3000"`

	// DataDir is the root of the on-disk persistence layout (user shards,
	// global access rules, group files).
	DataDir string `env:"AUTH_DATA_DIR" envDefault:"./auth-data"`

	// RateLimitMaxAttempts is the RateLimiter's maxAttempts setting.
	RateLimitMaxAttempts int `env:"AUTH_RATE_MAX" envDefault:"10"`

	// RateLimitWindowMS is the RateLimiter's windowMs setting.
	RateLimitWindowMS int `env:"AUTH_RATE_WINDOW_MS" envDefault:"1000"`

	// ClearTokensOnReset toggles whether a successful password reset also
	// clears every other outstanding token and rotation chain link for the
	// affected user.
	ClearTokensOnReset bool `env:"AUTH_CLEAR_TOKENS_ON_RESET" envDefault:"true"`

	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
