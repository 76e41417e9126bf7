// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

// Package tmdb is the HTTP client for the remote movie-metadata and image
// provider. It distinguishes authoritative "not found" answers (ErrNotFound)
// from transient transport and server failures, which the poster fetcher
// relies on to decide between permanent and retryable outcomes.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/reelpick/reelpick/internal/config"
)

// ErrNotFound means the provider authoritatively reported that the
// requested movie or image does not exist. Callers treat this as permanent.
var ErrNotFound = errors.New("tmdb: not found")

// StatusError is a non-404, non-2xx provider response. Treated as transient.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: unexpected status %d", e.Code)
}

// MovieDetails is the subset of the provider's movie record the service
// consumes. PosterPath is empty when the movie has no poster.
type MovieDetails struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
}

// Provider is the remote-call surface consumed by the poster fetcher.
// Client implements it directly; BreakerClient wraps it with a circuit
// breaker.
type Provider interface {
	// HasCredentials reports whether an API key is configured. Without
	// one, callers skip remote fetching entirely.
	HasCredentials() bool

	// MovieDetails fetches the metadata record for a movie id.
	MovieDetails(ctx context.Context, id int64) (*MovieDetails, error)

	// DownloadPoster fetches the raw image bytes for a poster path
	// taken from MovieDetails.
	DownloadPoster(ctx context.Context, posterPath string) ([]byte, error)
}

// Client talks to the provider's metadata and image endpoints with a fixed
// per-call timeout and client-side rate limiting. Safe for concurrent use.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpc        *http.Client
	limiter      *rate.Limiter
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.TMDBConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = cfg.Burst
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		httpc:        &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(limit, burst),
	}
}

// HasCredentials reports whether an API key is configured.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// MovieDetails fetches the metadata record for id. Returns ErrNotFound for
// an HTTP 404, a StatusError for other non-2xx responses, and transport
// errors unchanged.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")
	reqURL := fmt.Sprintf("%s/movie/%s?%s", c.baseURL, strconv.FormatInt(id, 10), params.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("movie %d: %w", id, err)
	}

	details := &MovieDetails{}
	if err := json.Unmarshal(body, details); err != nil {
		return nil, fmt.Errorf("movie %d: decode response: %w", id, err)
	}
	return details, nil
}

// DownloadPoster fetches the raw poster image for posterPath.
func (c *Client) DownloadPoster(ctx context.Context, posterPath string) ([]byte, error) {
	reqURL := c.imageBaseURL + "/" + strings.TrimLeft(posterPath, "/")

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("poster %s: %w", posterPath, err)
	}
	return body, nil
}

// get performs a rate-limited GET and maps the status code onto the
// package's error taxonomy.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
