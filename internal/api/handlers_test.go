// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/reelpick/reelpick/internal/assetstore"
	"github.com/reelpick/reelpick/internal/config"
	"github.com/reelpick/reelpick/internal/recommend"
)

// stubCatalog implements CatalogView over a fixed title list.
type stubCatalog struct {
	titles []string
}

func (s *stubCatalog) Len() int { return len(s.titles) }

func (s *stubCatalog) Titles(query string, limit int) []string {
	var out []string
	q := strings.ToLower(query)
	for _, t := range s.titles {
		if q != "" && !strings.Contains(strings.ToLower(t), q) {
			continue
		}
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// stubRecommender implements RecommendService with canned results.
type stubRecommender struct {
	results   map[string][]recommend.Recommendation
	err       error
	lastLimit int
}

func (s *stubRecommender) Recommend(_ context.Context, title string, topN int) ([]recommend.Recommendation, error) {
	s.lastLimit = topN
	if s.err != nil {
		return nil, s.err
	}
	recs := s.results[title]
	if len(recs) > topN {
		recs = recs[:topN]
	}
	return recs, nil
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:      "127.0.0.1",
		Port:      8080,
		RateLimit: 1000,
	}
}

func newTestServer(t *testing.T, rec RecommendService, store assetstore.Store) *httptest.Server {
	t.Helper()

	index := &stubCatalog{titles: []string{
		"The Matrix",
		"The Matrix Reloaded",
		"Inception",
		"Alien",
	}}
	handler := NewHandler(index, rec, store, config.RecommendConfig{
		DefaultLimit: 5,
		MaxLimit:     10,
	})
	srv := httptest.NewServer(NewRouter(handler, testServerConfig()))
	t.Cleanup(srv.Close)
	return srv
}

func decodeResponse(t *testing.T, resp *http.Response, data interface{}) *APIResponse {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	envelope := &APIResponse{Data: data}
	if err := json.Unmarshal(body, envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, body)
	}
	return envelope
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubRecommender{}, assetstore.NewMemoryStore())

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var data healthData
	envelope := decodeResponse(t, resp, &data)
	if !envelope.Success {
		t.Error("expected success envelope")
	}
	if data.Status != "ok" {
		t.Errorf("status = %q, want ok", data.Status)
	}
	if data.Movies != 4 {
		t.Errorf("movies = %d, want 4", data.Movies)
	}
}

func TestTitlesEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubRecommender{}, assetstore.NewMemoryStore())

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantFirst string
	}{
		{name: "all titles", query: "", wantCount: 4, wantFirst: "The Matrix"},
		{name: "substring filter", query: "q=matrix", wantCount: 2, wantFirst: "The Matrix"},
		{name: "case insensitive", query: "q=ALIEN", wantCount: 1, wantFirst: "Alien"},
		{name: "limit applied", query: "limit=2", wantCount: 2, wantFirst: "The Matrix"},
		{name: "no match", query: "q=nonexistent", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := srv.URL + "/api/v1/movies"
			if tt.query != "" {
				url += "?" + tt.query
			}
			resp, err := http.Get(url)
			if err != nil {
				t.Fatalf("GET /movies: %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}

			var data titlesData
			decodeResponse(t, resp, &data)
			if data.Count != tt.wantCount {
				t.Errorf("count = %d, want %d", data.Count, tt.wantCount)
			}
			if tt.wantCount > 0 && data.Titles[0] != tt.wantFirst {
				t.Errorf("first title = %q, want %q", data.Titles[0], tt.wantFirst)
			}
		})
	}
}

func TestTitlesRejectsBadLimit(t *testing.T) {
	srv := newTestServer(t, &stubRecommender{}, assetstore.NewMemoryStore())

	for _, limit := range []string{"0", "-5", "abc"} {
		resp, err := http.Get(srv.URL + "/api/v1/movies?limit=" + limit)
		if err != nil {
			t.Fatalf("GET /movies: %v", err)
		}
		envelope := decodeResponse(t, resp, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, resp.StatusCode)
		}
		if envelope.Error == nil || envelope.Error.Code != ErrCodeBadRequest {
			t.Errorf("limit=%s: expected %s error code", limit, ErrCodeBadRequest)
		}
	}
}

func TestRecommendationsEndpoint(t *testing.T) {
	store := assetstore.NewMemoryStore()
	if err := store.Put(603, []byte("jpeg-bytes")); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	ref, ok := store.Resolve(603)
	if !ok {
		t.Fatal("expected seeded poster to resolve")
	}

	rec := &stubRecommender{results: map[string][]recommend.Recommendation{
		"Inception": {
			{Title: "The Matrix", TMDBID: 603, Score: 0.91, Overview: "scifi hacker simulation", Poster: ref},
			{Title: "Alien", TMDBID: 348, Score: 0.72, Overview: "scifi horror space"},
			{Title: "Obscure Short", Score: 0.40},
		},
	}}
	srv := newTestServer(t, rec, store)

	resp, err := http.Get(srv.URL + "/api/v1/recommendations?title=Inception")
	if err != nil {
		t.Fatalf("GET /recommendations: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var data recommendationsData
	decodeResponse(t, resp, &data)
	if data.Query != "Inception" {
		t.Errorf("query = %q, want Inception", data.Query)
	}
	if len(data.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(data.Results))
	}

	// The catalog tag blob is exposed as the overview.
	if got := data.Results[0].Overview; got != "scifi hacker simulation" {
		t.Errorf("overview = %q, want tag blob", got)
	}
	if data.Results[2].Overview != "" {
		t.Errorf("overview = %q, want empty for untagged movie", data.Results[2].Overview)
	}

	// Only the cached poster yields a poster URL.
	if got := data.Results[0].PosterURL; got != "/api/v1/posters/603" {
		t.Errorf("poster URL = %q, want /api/v1/posters/603", got)
	}
	if data.Results[1].PosterURL != "" {
		t.Errorf("uncached poster URL = %q, want empty", data.Results[1].PosterURL)
	}
	if data.Results[2].TMDBID != 0 {
		t.Errorf("tmdb_id = %d, want 0", data.Results[2].TMDBID)
	}
}

func TestRecommendationsUnknownTitle(t *testing.T) {
	srv := newTestServer(t, &stubRecommender{}, assetstore.NewMemoryStore())

	resp, err := http.Get(srv.URL + "/api/v1/recommendations?title=Nonexistent")
	if err != nil {
		t.Fatalf("GET /recommendations: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var data recommendationsData
	decodeResponse(t, resp, &data)
	if len(data.Results) != 0 {
		t.Errorf("results = %d, want 0", len(data.Results))
	}
}

func TestRecommendationsRequiresTitle(t *testing.T) {
	srv := newTestServer(t, &stubRecommender{}, assetstore.NewMemoryStore())

	resp, err := http.Get(srv.URL + "/api/v1/recommendations")
	if err != nil {
		t.Fatalf("GET /recommendations: %v", err)
	}
	envelope := decodeResponse(t, resp, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeBadRequest {
		t.Error("expected BAD_REQUEST error code")
	}
}

func TestRecommendationsLimits(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{name: "default applied", query: "", wantLimit: 5},
		{name: "explicit limit", query: "&limit=3", wantLimit: 3},
		{name: "capped at max", query: "&limit=500", wantLimit: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &stubRecommender{}
			srv := newTestServer(t, rec, assetstore.NewMemoryStore())

			resp, err := http.Get(srv.URL + "/api/v1/recommendations?title=Inception" + tt.query)
			if err != nil {
				t.Fatalf("GET /recommendations: %v", err)
			}
			resp.Body.Close()
			if rec.lastLimit != tt.wantLimit {
				t.Errorf("limit passed = %d, want %d", rec.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestRecommendationsRankingError(t *testing.T) {
	rec := &stubRecommender{err: fmt.Errorf("ranking movie: %w", errors.New("similarity row out of range"))}
	srv := newTestServer(t, rec, assetstore.NewMemoryStore())

	resp, err := http.Get(srv.URL + "/api/v1/recommendations?title=Inception")
	if err != nil {
		t.Fatalf("GET /recommendations: %v", err)
	}
	envelope := decodeResponse(t, resp, nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeDataUnavailable {
		t.Error("expected DATA_UNAVAILABLE error code")
	}
	// The underlying error detail must not leak to the client.
	if envelope.Error != nil && strings.Contains(envelope.Error.Message, "similarity") {
		t.Errorf("error message leaks internals: %q", envelope.Error.Message)
	}
}

func TestPosterEndpoint(t *testing.T) {
	store := assetstore.NewMemoryStore()
	blob := []byte("jpeg-bytes")
	if err := store.Put(603, blob); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	srv := newTestServer(t, &stubRecommender{}, store)

	resp, err := http.Get(srv.URL + "/api/v1/posters/603")
	if err != nil {
		t.Fatalf("GET /posters: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(body, blob) {
		t.Errorf("body = %q, want %q", body, blob)
	}
}

func TestPosterNotCached(t *testing.T) {
	srv := newTestServer(t, &stubRecommender{}, assetstore.NewMemoryStore())

	resp, err := http.Get(srv.URL + "/api/v1/posters/603")
	if err != nil {
		t.Fatalf("GET /posters: %v", err)
	}
	envelope := decodeResponse(t, resp, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeNotFound {
		t.Error("expected NOT_FOUND error code")
	}
}

func TestPosterRejectsBadID(t *testing.T) {
	srv := newTestServer(t, &stubRecommender{}, assetstore.NewMemoryStore())

	for _, id := range []string{"0", "-1", "abc"} {
		resp, err := http.Get(srv.URL + "/api/v1/posters/" + id)
		if err != nil {
			t.Fatalf("GET /posters/%s: %v", id, err)
		}
		envelope := decodeResponse(t, resp, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("id=%s: status = %d, want 400", id, resp.StatusCode)
		}
		if envelope.Error == nil || envelope.Error.Code != ErrCodeBadRequest {
			t.Errorf("id=%s: expected BAD_REQUEST error code", id)
		}
	}
}
