// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package tmdb

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/reelpick/reelpick/internal/logging"
	"github.com/reelpick/reelpick/internal/metrics"
)

// BreakerClient wraps a Provider with a circuit breaker so a struggling
// provider stops receiving traffic instead of stalling every
// recommendation on timeouts.
//
// ErrNotFound does not count as a failure: it is an authoritative answer
// from a healthy provider. Breaker rejections surface as transient errors,
// so they never poison the negative cache.
type BreakerClient struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker[any]
}

// NewBreakerClient wraps provider with a circuit breaker.
//
// Configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 30 second timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewBreakerClient(provider Provider) *BreakerClient {
	metrics.BreakerState.Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		// Authoritative 404s come from a healthy provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("TMDB circuit breaker state transition")
			metrics.BreakerState.Set(stateToFloat(to))
		},
	})

	return &BreakerClient{provider: provider, cb: cb}
}

// HasCredentials reports whether the wrapped provider has an API key.
func (b *BreakerClient) HasCredentials() bool {
	return b.provider.HasCredentials()
}

// MovieDetails fetches metadata through the breaker.
func (b *BreakerClient) MovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	result, err := b.execute(func() (any, error) {
		return b.provider.MovieDetails(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*MovieDetails), nil
}

// DownloadPoster fetches image bytes through the breaker.
func (b *BreakerClient) DownloadPoster(ctx context.Context, posterPath string) ([]byte, error) {
	result, err := b.execute(func() (any, error) {
		return b.provider.DownloadPoster(ctx, posterPath)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (b *BreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case err == nil || errors.Is(err, ErrNotFound):
		metrics.BreakerRequests.WithLabelValues("success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.BreakerRequests.WithLabelValues("rejected").Inc()
	default:
		metrics.BreakerRequests.WithLabelValues("failure").Inc()
	}
	return result, err
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
