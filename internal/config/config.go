// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

// Package config loads and validates the Reelpick service configuration.
//
// Configuration is layered with koanf: struct defaults first, then an
// optional YAML file, then environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the service.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	TMDB        TMDBConfig        `koanf:"tmdb"`
	PosterCache PosterCacheConfig `koanf:"poster_cache"`
	Recommend   RecommendConfig   `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed CORS origins. Empty means same-origin only.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the per-client request budget per minute.
	RateLimit int `koanf:"rate_limit" validate:"gte=1"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// CatalogConfig points at the immutable catalog snapshot files.
type CatalogConfig struct {
	// MoviesPath is the DuckDB database file holding the movies table.
	MoviesPath string `koanf:"movies_path" validate:"required"`

	// SimilarityPath is the binary similarity matrix snapshot.
	SimilarityPath string `koanf:"similarity_path" validate:"required"`
}

// TMDBConfig holds remote image-provider settings. An empty APIKey is a
// valid degraded mode: recommendations are served without posters and no
// remote calls are made.
type TMDBConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url" validate:"required,url"`
	ImageBaseURL string        `koanf:"image_base_url" validate:"required,url"`
	Timeout      time.Duration `koanf:"timeout"`

	// Retries is the number of attempts per poster fetch, including the
	// first. Transient failures beyond this budget are dropped silently.
	Retries int `koanf:"retries" validate:"gte=1"`

	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration `koanf:"retry_delay"`

	// RateLimit is the client-side request rate toward the provider in
	// requests per second. Burst allows short spikes above it.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`
	Burst     int     `koanf:"burst" validate:"gte=1"`
}

// PosterCacheConfig selects and configures the poster cache backing.
type PosterCacheConfig struct {
	// Backend is one of: file, badger, memory.
	Backend string `koanf:"backend" validate:"oneof=file badger memory"`

	// Dir is the cache directory for the file backend.
	Dir string `koanf:"dir"`

	// BadgerPath is the database directory for the badger backend.
	BadgerPath string `koanf:"badger_path"`

	// GCInterval is how often the badger value log is garbage collected.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// RecommendConfig holds ranking parameters.
type RecommendConfig struct {
	// DefaultLimit is the number of recommendations returned when the
	// caller does not specify one.
	DefaultLimit int `koanf:"default_limit" validate:"gte=1"`

	// MaxLimit caps the per-request limit.
	MaxLimit int `koanf:"max_limit" validate:"gte=1"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     nil,
			RateLimit:       120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Catalog: CatalogConfig{
			MoviesPath:     "data/movies.duckdb",
			SimilarityPath: "data/similarity.bin",
		},
		TMDB: TMDBConfig{
			APIKey:       "", // No key: poster fetching silently disabled
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			Timeout:      10 * time.Second,
			Retries:      3,
			RetryDelay:   time.Second,
			RateLimit:    20,
			Burst:        5,
		},
		PosterCache: PosterCacheConfig{
			Backend:    "file",
			Dir:        "data/poster_cache",
			BadgerPath: "data/poster_cache.badger",
			GCInterval: 10 * time.Minute,
		},
		Recommend: RecommendConfig{
			DefaultLimit: 5,
			MaxLimit:     50,
		},
	}
}

// Validate checks the configuration for consistency. Struct tags cover
// ranges and enums; cross-field rules are checked by hand.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit (%d) exceeds recommend.max_limit (%d)",
			c.Recommend.DefaultLimit, c.Recommend.MaxLimit)
	}

	switch c.PosterCache.Backend {
	case "file":
		if c.PosterCache.Dir == "" {
			return fmt.Errorf("poster_cache.dir is required for the file backend")
		}
	case "badger":
		if c.PosterCache.BadgerPath == "" {
			return fmt.Errorf("poster_cache.badger_path is required for the badger backend")
		}
	}

	return nil
}
