// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

// Package metrics exposes Prometheus instrumentation for Reelpick:
// poster fetch outcomes and latency, cache efficiency, circuit breaker
// state and HTTP endpoint performance.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poster fetch metrics

	// PosterFetchTotal counts poster fetch resolutions by outcome:
	// cache_hit, negative_hit, fetched, permanent_failure,
	// transient_failure, no_credentials, invalid_id, storage_error.
	PosterFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelpick_poster_fetch_total",
			Help: "Total poster fetch resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// PosterFetchDuration observes the wall time of poster fetches that
	// reached the remote provider.
	PosterFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelpick_poster_fetch_duration_seconds",
			Help:    "Duration of remote poster fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PosterFetchAttempts observes how many provider attempts a fetch
	// needed before succeeding or giving up.
	PosterFetchAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelpick_poster_fetch_attempts",
			Help:    "Provider attempts per poster fetch",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	// Provider circuit breaker metrics

	// BreakerState tracks the TMDB circuit breaker state
	// (0 = closed, 1 = half-open, 2 = open).
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelpick_tmdb_breaker_state",
			Help: "TMDB circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// BreakerRequests counts breaker-wrapped provider calls by result:
	// success, failure, rejected.
	BreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelpick_tmdb_breaker_requests_total",
			Help: "TMDB circuit breaker requests by result",
		},
		[]string{"result"},
	)

	// Recommendation metrics

	// RecommendationsTotal counts recommendation requests by result:
	// served, empty, error.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelpick_recommendations_total",
			Help: "Total recommendation requests by result",
		},
		[]string{"result"},
	)

	// RecommendationDuration observes end-to-end recommendation latency,
	// including poster resolution.
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelpick_recommendation_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// HTTP metrics

	// HTTPRequestDuration observes API endpoint latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelpick_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsInFlight tracks currently executing API requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelpick_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)
