// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package supervisor

import (
	"context"
	"time"

	"github.com/reelpick/reelpick/internal/logging"
)

// Collector runs one garbage collection pass. Implemented by
// assetstore.BadgerStore.
type Collector interface {
	RunGC() (bool, error)
}

// GCService periodically garbage-collects the poster cache's value log.
// Badger never reclaims value-log space on its own; a ticker-driven GC
// pass keeps disk use bounded on long-running servers.
type GCService struct {
	collector Collector
	interval  time.Duration
}

// NewGCService builds a GC service over collector. Intervals <= 0
// default to 10 minutes.
func NewGCService(collector Collector, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{
		collector: collector,
		interval:  interval,
	}
}

// Serve implements suture.Service. Each tick runs GC passes until one
// reports nothing left to rewrite.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.collect(ctx)
		}
	}
}

func (g *GCService) collect(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		rewritten, err := g.collector.RunGC()
		if err != nil {
			logging.Warn().Err(err).Msg("Poster cache GC pass failed")
			return
		}
		if !rewritten {
			return
		}
		logging.Debug().Msg("Poster cache GC rewrote a value log file")
	}
}

// String implements fmt.Stringer.
func (g *GCService) String() string {
	return "poster-cache-gc"
}
