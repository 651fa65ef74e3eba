// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.Search.CacheTTLSecs != 300 || cfg.Search.MaxResults != 50 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
	if !cfg.Export.IncludeMetadata || !cfg.Export.IncludeTimestamps {
		t.Errorf("export defaults = %+v", cfg.Export)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
server_url = "https://ops.example.com"
request_timeout_secs = 30

[search]
cache_ttl_secs = 120
max_results = 10

[export]
output_dir = "/tmp/exports"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerURL != "https://ops.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout() = %v", cfg.RequestTimeout())
	}
	if cfg.CacheTTL() != 2*time.Minute {
		t.Errorf("CacheTTL() = %v", cfg.CacheTTL())
	}
	if cfg.Search.MaxResults != 10 {
		t.Errorf("MaxResults = %d", cfg.Search.MaxResults)
	}
	if cfg.Export.OutputDir != "/tmp/exports" {
		t.Errorf("OutputDir = %q", cfg.Export.OutputDir)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("server_url = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed TOML should fail loudly")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPSCHAT_SERVER_URL", "https://env.example.com")
	t.Setenv("OPSCHAT_STORE_PATH", "/tmp/env-index.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerURL != "https://env.example.com" {
		t.Errorf("ServerURL = %q, env override lost", cfg.ServerURL)
	}
	if cfg.Store.Path != "/tmp/env-index.db" {
		t.Errorf("Store.Path = %q, env override lost", cfg.Store.Path)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServerURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("invalid server_url should fail validation")
	}

	cfg = DefaultConfig()
	cfg.RequestTimeoutSecs = -5
	cfg.Search.CacheTTLSecs = 0
	cfg.Search.MaxResults = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	// Out-of-range numerics fall back to defaults instead of failing.
	if cfg.RequestTimeoutSecs != 60 || cfg.Search.CacheTTLSecs != 300 || cfg.Search.MaxResults != 50 {
		t.Errorf("defaults not restored: %+v", cfg)
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`server_url = "http://one.example.com"`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, 10*time.Millisecond, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte(`server_url = "http://two.example.com"`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.ServerURL != "http://two.example.com" {
			t.Errorf("reloaded ServerURL = %q", cfg.ServerURL)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("reload callback never fired")
	}
}
