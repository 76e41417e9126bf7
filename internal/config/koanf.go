// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelpick/config.yaml",
	"/etc/reelpick/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Env vars arrive as strings; comma-split known slice fields.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// coming from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envKeyMap maps environment variable names to config paths. Variables not
// listed here are ignored so unrelated environment noise cannot leak into
// the configuration.
var envKeyMap = map[string]string{
	"HTTP_HOST":               "server.host",
	"HTTP_PORT":               "server.port",
	"HTTP_RATE_LIMIT":         "server.rate_limit",
	"CORS_ORIGINS":            "server.cors_origins",
	"LOG_LEVEL":               "logging.level",
	"LOG_FORMAT":              "logging.format",
	"LOG_CALLER":              "logging.caller",
	"CATALOG_MOVIES_PATH":     "catalog.movies_path",
	"CATALOG_SIMILARITY_PATH": "catalog.similarity_path",
	"TMDB_API_KEY":            "tmdb.api_key",
	"TMDB_BASE_URL":           "tmdb.base_url",
	"TMDB_IMAGE_BASE_URL":     "tmdb.image_base_url",
	"TMDB_TIMEOUT":            "tmdb.timeout",
	"TMDB_RETRIES":            "tmdb.retries",
	"TMDB_RETRY_DELAY":        "tmdb.retry_delay",
	"POSTER_CACHE_BACKEND":    "poster_cache.backend",
	"POSTER_CACHE_DIR":        "poster_cache.dir",
	"POSTER_CACHE_BADGER":     "poster_cache.badger_path",
	"RECOMMEND_DEFAULT_LIMIT": "recommend.default_limit",
	"RECOMMEND_MAX_LIMIT":     "recommend.max_limit",
}

// envTransformFunc maps environment variable names to koanf config paths.
//
//	TMDB_API_KEY -> tmdb.api_key
//	HTTP_PORT    -> server.port
func envTransformFunc(key string) string {
	return envKeyMap[strings.ToUpper(key)]
}
