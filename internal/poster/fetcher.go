// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

// Package poster resolves movie identifiers to locally cached poster
// images, fetching through the remote provider on cache misses.
//
// The correctness core is the split between permanent and transient
// failures. Permanent outcomes (provider 404, metadata without a poster
// path, invalid identifier) are recorded in the asset store's negative
// cache and never retried. Transient outcomes (network errors, timeouts,
// non-404 statuses, breaker rejections) are retried up to a bound within
// one call and then dropped without any marking, so the identifier stays
// eligible once the provider recovers. Conflating the two would either
// hammer the provider for assets that will never exist, or permanently
// blacklist assets during an outage.
package poster

import (
	"context"
	"errors"
	"time"

	"github.com/reelpick/reelpick/internal/assetstore"
	"github.com/reelpick/reelpick/internal/logging"
	"github.com/reelpick/reelpick/internal/metrics"
	"github.com/reelpick/reelpick/internal/tmdb"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = time.Second
)

// Fetcher resolves poster images through the cache. Safe for concurrent
// use. Concurrent fetches for the same identifier are not deduplicated;
// both may hit the provider and both store the identical blob, which the
// store tolerates.
type Fetcher struct {
	store    assetstore.Store
	provider tmdb.Provider

	// retries is the total number of provider attempts per call,
	// including the first.
	retries int

	// retryDelay is the fixed wait between attempts.
	retryDelay time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRetries sets the per-call provider attempt budget.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 1 {
			f.retries = n
		}
	}
}

// WithRetryDelay sets the fixed wait between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.retryDelay = d
		}
	}
}

// NewFetcher builds a Fetcher over the given store and provider.
func NewFetcher(store assetstore.Store, provider tmdb.Provider, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:      store,
		provider:   provider,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns a local reference to the poster for id, or no reference
// when none can be produced. It never returns an error: every failure
// class degrades to an absent poster, and the class decides only whether
// the negative cache is written.
func (f *Fetcher) Fetch(ctx context.Context, id int64) (assetstore.Ref, bool) {
	// No credentials is an environmental condition, not a property of
	// the id. Writing a marker here would poison the cache for when a
	// key is configured later.
	if !f.provider.HasCredentials() {
		metrics.PosterFetchTotal.WithLabelValues("no_credentials").Inc()
		return nil, false
	}

	if id <= 0 {
		metrics.PosterFetchTotal.WithLabelValues("invalid_id").Inc()
		f.store.MarkPermanentlyUnavailable(id)
		return nil, false
	}

	if f.store.Has(id) {
		metrics.PosterFetchTotal.WithLabelValues("cache_hit").Inc()
		return f.store.Resolve(id)
	}

	if f.store.IsPermanentlyUnavailable(id) {
		metrics.PosterFetchTotal.WithLabelValues("negative_hit").Inc()
		return nil, false
	}

	return f.fetchRemote(ctx, id)
}

// fetchRemote performs the bounded-retry two-step provider fetch.
func (f *Fetcher) fetchRemote(ctx context.Context, id int64) (assetstore.Ref, bool) {
	start := time.Now()
	defer func() {
		metrics.PosterFetchDuration.Observe(time.Since(start).Seconds())
	}()

	for attempt := 1; attempt <= f.retries; attempt++ {
		ref, ok, retryable := f.attempt(ctx, id)
		if !retryable {
			metrics.PosterFetchAttempts.Observe(float64(attempt))
			return ref, ok
		}

		if attempt == f.retries {
			break
		}

		// Cancellable fixed backoff between attempts.
		select {
		case <-time.After(f.retryDelay):
		case <-ctx.Done():
			metrics.PosterFetchTotal.WithLabelValues("transient_failure").Inc()
			metrics.PosterFetchAttempts.Observe(float64(attempt))
			return nil, false
		}
	}

	// Budget exhausted on transient failures: no marker, the id stays
	// eligible for a future call.
	metrics.PosterFetchTotal.WithLabelValues("transient_failure").Inc()
	metrics.PosterFetchAttempts.Observe(float64(f.retries))
	logging.Debug().Int64("id", id).Int("attempts", f.retries).
		Msg("Poster fetch gave up after transient failures")
	return nil, false
}

// attempt runs one metadata+image round trip. The retryable result is true
// only for transient failures; every other outcome is final for this call.
func (f *Fetcher) attempt(ctx context.Context, id int64) (ref assetstore.Ref, ok, retryable bool) {
	details, err := f.provider.MovieDetails(ctx, id)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			f.markPermanent(id, "movie not found")
			return nil, false, false
		}
		return nil, false, true
	}

	// Known movie without a poster locator: permanently posterless.
	if details.PosterPath == "" {
		f.markPermanent(id, "no poster path")
		return nil, false, false
	}

	data, err := f.provider.DownloadPoster(ctx, details.PosterPath)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			f.markPermanent(id, "poster image not found")
			return nil, false, false
		}
		return nil, false, true
	}

	// A storage failure is a local condition: surface-and-stop, never
	// mark permanent, never retry the HTTP round trip.
	if err := f.store.Put(id, data); err != nil {
		metrics.PosterFetchTotal.WithLabelValues("storage_error").Inc()
		logging.Error().Err(err).Int64("id", id).Msg("Failed to store fetched poster")
		return nil, false, false
	}

	metrics.PosterFetchTotal.WithLabelValues("fetched").Inc()
	ref, ok = f.store.Resolve(id)
	return ref, ok, false
}

func (f *Fetcher) markPermanent(id int64, reason string) {
	metrics.PosterFetchTotal.WithLabelValues("permanent_failure").Inc()
	logging.Debug().Int64("id", id).Str("reason", reason).Msg("Poster permanently unavailable")
	f.store.MarkPermanentlyUnavailable(id)
}
