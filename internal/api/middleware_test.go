// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(requestIDHeader)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	RequestID(inner).ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected a request ID to be assigned")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("request ID %q is not a UUID: %v", seen, err)
	}
	if got := rec.Header().Get(requestIDHeader); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	const supplied = "client-supplied-id"

	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(requestIDHeader)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(requestIDHeader, supplied)
	RequestID(inner).ServeHTTP(rec, req)

	if seen != supplied {
		t.Errorf("handler saw %q, want %q", seen, supplied)
	}
	if got := rec.Header().Get(requestIDHeader); got != supplied {
		t.Errorf("response header = %q, want %q", got, supplied)
	}
}

func TestStatusRecorderCapturesStatus(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}
	inner.ServeHTTP(sr, httptest.NewRequest(http.MethodGet, "/", nil))

	if sr.status != http.StatusTeapot {
		t.Errorf("recorded status = %d, want %d", sr.status, http.StatusTeapot)
	}
}
