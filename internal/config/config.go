// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// opschat.
//
// TOML configuration with sensible defaults and environment variable
// overrides. File location: ~/.opschat/config.toml, falling back to
// built-in defaults when absent.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete opschat configuration.
type Config struct {
	// ServerURL is the base URL of the chat backend.
	ServerURL string `toml:"server_url"`

	// RequestTimeoutSecs bounds non-streaming requests. Streaming
	// requests are context-controlled and have no fixed timeout.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	// Search configuration.
	Search SearchConfig `toml:"search"`

	// Export configuration.
	Export ExportConfig `toml:"export"`

	// Store configuration.
	Store StoreConfig `toml:"store"`
}

// SearchConfig contains search and cache settings.
type SearchConfig struct {
	// CacheTTLSecs is the search-cache entry lifetime (default: 300).
	CacheTTLSecs int `toml:"cache_ttl_secs"`

	// MaxResults caps result sets (default: 50).
	MaxResults int `toml:"max_results"`
}

// ExportConfig contains export settings.
type ExportConfig struct {
	// OutputDir is where exported files land (default: ".").
	OutputDir string `toml:"output_dir"`

	// IncludeMetadata includes metadata headers in exports.
	IncludeMetadata bool `toml:"include_metadata"`

	// IncludeTimestamps includes per-message timestamps in exports.
	IncludeTimestamps bool `toml:"include_timestamps"`
}

// StoreConfig contains local index settings.
type StoreConfig struct {
	// Path to the SQLite index (default: ~/.opschat/index.db).
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:          "http://localhost:8080",
		RequestTimeoutSecs: 60,
		Search: SearchConfig{
			CacheTTLSecs: 300,
			MaxResults:   50,
		},
		Export: ExportConfig{
			OutputDir:         ".",
			IncludeMetadata:   true,
			IncludeTimestamps: true,
		},
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
	}
}

// DefaultConfigPath returns ~/.opschat/config.toml.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(homeDir, ".opschat", "config.toml")
}

func defaultStorePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "index.db"
	}
	return filepath.Join(homeDir, ".opschat", "index.db")
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config at path, layering file values and environment
// overrides on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers environment variables over the file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPSCHAT_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("OPSCHAT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.ServerURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid server_url %q", c.ServerURL)
	}
	if c.RequestTimeoutSecs <= 0 {
		c.RequestTimeoutSecs = 60
	}
	if c.Search.CacheTTLSecs <= 0 {
		c.Search.CacheTTLSecs = 300
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 50
	}
	return nil
}

// RequestTimeout returns the request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// CacheTTL returns the search-cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Search.CacheTTLSecs) * time.Second
}
