// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.TMDB.Retries != 3 {
		t.Errorf("expected default retries 3, got %d", cfg.TMDB.Retries)
	}
	if cfg.TMDB.RetryDelay != time.Second {
		t.Errorf("expected default retry delay 1s, got %v", cfg.TMDB.RetryDelay)
	}
	if cfg.PosterCache.Backend != "file" {
		t.Errorf("expected default backend file, got %q", cfg.PosterCache.Backend)
	}
	if cfg.Recommend.DefaultLimit != 5 {
		t.Errorf("expected default limit 5, got %d", cfg.Recommend.DefaultLimit)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "secret-key")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("POSTER_CACHE_BACKEND", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TMDB.APIKey != "secret-key" {
		t.Errorf("expected env api key override, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected env port override 9090, got %d", cfg.Server.Port)
	}
	if cfg.PosterCache.Backend != "memory" {
		t.Errorf("expected env backend override, got %q", cfg.PosterCache.Backend)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7171
tmdb:
  retries: 5
poster_cache:
  backend: badger
  badger_path: /tmp/posters.badger
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 7171 {
		t.Errorf("expected file port 7171, got %d", cfg.Server.Port)
	}
	if cfg.TMDB.Retries != 5 {
		t.Errorf("expected file retries 5, got %d", cfg.TMDB.Retries)
	}
	if cfg.PosterCache.Backend != "badger" {
		t.Errorf("expected file backend badger, got %q", cfg.PosterCache.Backend)
	}
	// Untouched fields keep defaults
	if cfg.TMDB.BaseURL == "" {
		t.Error("expected default base URL to survive partial file")
	}
}

func TestEnvFileLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7171\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "6262")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Env beats file
	if cfg.Server.Port != 6262 {
		t.Errorf("expected env to override file, got port %d", cfg.Server.Port)
	}
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("expected %d origins, got %v", len(want), cfg.Server.CORSOrigins)
	}
	for i, origin := range want {
		if cfg.Server.CORSOrigins[i] != origin {
			t.Errorf("origin[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], origin)
		}
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero retries", func(c *Config) { c.TMDB.Retries = 0 }},
		{"bad backend", func(c *Config) { c.PosterCache.Backend = "redis" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"default over max", func(c *Config) { c.Recommend.DefaultLimit = 100; c.Recommend.MaxLimit = 10 }},
		{"file backend without dir", func(c *Config) { c.PosterCache.Dir = "" }},
		{"missing movies path", func(c *Config) { c.Catalog.MoviesPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvTransformIgnoresUnknown(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("expected unknown env var to map to empty, got %q", got)
	}
	if got := envTransformFunc("tmdb_api_key"); got != "tmdb.api_key" {
		t.Errorf("expected case-insensitive mapping, got %q", got)
	}
}
