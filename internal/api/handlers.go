// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package api

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reelpick/reelpick/internal/assetstore"
	"github.com/reelpick/reelpick/internal/config"
	"github.com/reelpick/reelpick/internal/logging"
	"github.com/reelpick/reelpick/internal/recommend"
)

// RecommendService is the recommendation surface consumed by the handlers.
// Implemented by recommend.Recommender.
type RecommendService interface {
	Recommend(ctx context.Context, title string, topN int) ([]recommend.Recommendation, error)
}

// CatalogView is the read-only catalog surface consumed by the handlers.
// Implemented by catalog.Index.
type CatalogView interface {
	Len() int
	Titles(query string, limit int) []string
}

// Handler serves the API endpoints.
type Handler struct {
	index       CatalogView
	recommender RecommendService
	store       assetstore.Store
	limits      config.RecommendConfig
}

// NewHandler builds a Handler over its collaborators.
func NewHandler(index CatalogView, recommender RecommendService, store assetstore.Store, limits config.RecommendConfig) *Handler {
	return &Handler{
		index:       index,
		recommender: recommender,
		store:       store,
		limits:      limits,
	}
}

// healthData is the health endpoint payload.
type healthData struct {
	Status string `json:"status"`
	Movies int    `json:"movies"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &healthData{
		Status: "ok",
		Movies: h.index.Len(),
	})
}

// titlesData is the title search payload.
type titlesData struct {
	Titles []string `json:"titles"`
	Count  int      `json:"count"`
}

// Titles handles GET /api/v1/movies?q=&limit=.
// Returns catalog titles, optionally filtered by a case-insensitive
// substring query.
func (h *Handler) Titles(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	titles := h.index.Titles(r.URL.Query().Get("q"), limit)
	if titles == nil {
		titles = []string{}
	}
	respondJSON(w, http.StatusOK, &titlesData{Titles: titles, Count: len(titles)})
}

// recommendationItem is one entry of the recommendations payload.
type recommendationItem struct {
	Title     string  `json:"title"`
	TMDBID    int64   `json:"tmdb_id,omitempty"`
	Score     float64 `json:"score"`
	Overview  string  `json:"overview,omitempty"`
	PosterURL string  `json:"poster_url,omitempty"`
}

// recommendationsData is the recommendations payload.
type recommendationsData struct {
	Query   string               `json:"query"`
	Results []recommendationItem `json:"results"`
}

// Recommendations handles GET /api/v1/recommendations?title=&limit=.
// An unknown title yields an empty result list, not an error.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "title query parameter is required", nil)
		return
	}

	limit := h.limits.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}
	if limit > h.limits.MaxLimit {
		limit = h.limits.MaxLimit
	}

	recs, err := h.recommender.Recommend(r.Context(), title, limit)
	if err != nil {
		// Data-consistency problems surface as generic unavailability.
		respondError(w, http.StatusInternalServerError, ErrCodeDataUnavailable,
			"Recommendations are temporarily unavailable", err)
		return
	}

	results := make([]recommendationItem, 0, len(recs))
	for _, rec := range recs {
		item := recommendationItem{
			Title:    rec.Title,
			TMDBID:   rec.TMDBID,
			Score:    rec.Score,
			Overview: rec.Overview,
		}
		if rec.Poster != nil {
			item.PosterURL = "/api/v1/posters/" + strconv.FormatInt(rec.TMDBID, 10)
		}
		results = append(results, item)
	}

	respondJSON(w, http.StatusOK, &recommendationsData{Query: title, Results: results})
}

// Poster handles GET /api/v1/posters/{id}, serving cached blobs only. A
// miss is a plain 404; this endpoint never triggers a remote fetch.
func (h *Handler) Poster(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid poster id", nil)
		return
	}

	ref, ok := h.store.Resolve(id)
	if !ok {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "poster not cached", nil)
		return
	}

	rc, err := ref.Open()
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to read cached poster", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		logging.Warn().Err(err).Int64("id", id).Msg("Failed to stream poster to client")
	}
}
