// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

// Package recommend ranks catalog rows by precomputed similarity to a
// query title and resolves each candidate's poster through the cache.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/reelpick/reelpick/internal/assetstore"
	"github.com/reelpick/reelpick/internal/catalog"
	"github.com/reelpick/reelpick/internal/metrics"
)

// ErrRanking wraps data-consistency failures between the movie table and
// the similarity matrix. Per-call, not process-fatal.
var ErrRanking = errors.New("ranking failed")

// Recommendation is one ranked result. Poster is nil when no poster could
// be produced; callers degrade to a title-only card.
type Recommendation struct {
	Title  string
	TMDBID int64
	Score  float64

	// Overview is the candidate's tag blob, the only descriptive text
	// the catalog snapshot carries.
	Overview string

	Poster assetstore.Ref
}

// PosterSource resolves an external asset identifier to a cached local
// reference. Implemented by poster.Fetcher.
type PosterSource interface {
	Fetch(ctx context.Context, id int64) (assetstore.Ref, bool)
}

// Recommender serves similarity-ranked recommendations. Stateless apart
// from its injected collaborators; safe for concurrent use.
type Recommender struct {
	index   *catalog.Index
	posters PosterSource
}

// New builds a Recommender over a loaded catalog index and poster source.
func New(index *catalog.Index, posters PosterSource) *Recommender {
	return &Recommender{index: index, posters: posters}
}

// Recommend returns up to topN movies most similar to the given title, in
// descending score order. An unknown title is a normal empty result, not
// an error. Candidates that have no asset identifier or whose poster
// cannot be produced are still returned, without a poster.
func (r *Recommender) Recommend(ctx context.Context, title string, topN int) ([]Recommendation, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	queryRow, ok := r.index.FindByTitle(title)
	if !ok {
		metrics.RecommendationsTotal.WithLabelValues("empty").Inc()
		return nil, nil
	}

	scores, err := r.index.SimilarityRow(queryRow)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: title %q at row %d: %v", ErrRanking, title, queryRow, err)
	}

	candidates := rank(scores, queryRow, topN)

	recs := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		if c.row >= r.index.Len() {
			metrics.RecommendationsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%w: matrix column %d beyond movie table (%d rows)",
				ErrRanking, c.row, r.index.Len())
		}
		movie := r.index.MovieAt(c.row)

		rec := Recommendation{
			Title:    movie.Title,
			TMDBID:   movie.TMDBID,
			Score:    c.score,
			Overview: movie.Tags,
		}
		if movie.TMDBID != 0 {
			if ref, ok := r.posters.Fetch(ctx, movie.TMDBID); ok {
				rec.Poster = ref
			}
		}
		recs = append(recs, rec)
	}

	metrics.RecommendationsTotal.WithLabelValues("served").Inc()
	return recs, nil
}

// candidate pairs a catalog row with its similarity score.
type candidate struct {
	row   int
	score float64
}

// rank orders all rows by descending score, ties broken by ascending row
// index for reproducible output, excludes the query row itself, and takes
// the first topN.
func rank(scores []float32, queryRow, topN int) []candidate {
	if topN <= 0 {
		return nil
	}

	candidates := make([]candidate, 0, len(scores))
	for row, score := range scores {
		if row == queryRow {
			continue
		}
		candidates = append(candidates, candidate{row: row, score: float64(score)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].row < candidates[j].row
	})

	if topN < len(candidates) {
		candidates = candidates[:topN]
	}
	return candidates
}
