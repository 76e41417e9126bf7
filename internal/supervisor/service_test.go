// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

// fakeServer implements HTTPServer with controllable behavior.
type fakeServer struct {
	listenErr  error
	closed     chan struct{}
	shutdownCt atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{closed: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.closed
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(_ context.Context) error {
	f.shutdownCt.Add(1)
	close(f.closed)
	return nil
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Let the server goroutine start before requesting shutdown.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if got := srv.shutdownCt.Load(); got != 1 {
		t.Errorf("Shutdown called %d times, want 1", got)
	}
}

func TestHTTPServerServiceStartupFailure(t *testing.T) {
	srv := newFakeServer()
	srv.listenErr = errors.New("address already in use")
	svc := NewHTTPServerService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("expected an error from a failed listen")
	}
	if !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve returned %v, want wrapped listen error", err)
	}
}

func TestHTTPServerServiceDefaultsTimeout(t *testing.T) {
	svc := NewHTTPServerService(newFakeServer(), 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v, want 10s", svc.shutdownTimeout)
	}
}

// fakeCollector implements Collector with a scripted sequence of results.
type fakeCollector struct {
	results []bool
	err     error
	calls   atomic.Int32
}

func (f *fakeCollector) RunGC() (bool, error) {
	n := int(f.calls.Add(1)) - 1
	if f.err != nil {
		return false, f.err
	}
	if n < len(f.results) {
		return f.results[n], nil
	}
	return false, nil
}

func TestGCServiceRunsUntilNoRewrite(t *testing.T) {
	// Two productive passes, then nothing left to rewrite.
	collector := &fakeCollector{results: []bool{true, true, false}}
	svc := NewGCService(collector, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want context.DeadlineExceeded", err)
	}
	if collector.calls.Load() < 3 {
		t.Errorf("RunGC called %d times, want at least 3", collector.calls.Load())
	}
}

func TestGCServiceSurvivesErrors(t *testing.T) {
	collector := &fakeCollector{err: errors.New("value log corrupted")}
	svc := NewGCService(collector, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	// A GC failure is logged, not fatal; Serve keeps ticking.
	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want context.DeadlineExceeded", err)
	}
	if collector.calls.Load() < 2 {
		t.Errorf("RunGC called %d times, want at least 2", collector.calls.Load())
	}
}

func TestGCServiceDefaultsInterval(t *testing.T) {
	svc := NewGCService(&fakeCollector{}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
}
