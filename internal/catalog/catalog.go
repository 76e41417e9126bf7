// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

// Package catalog loads the immutable movie table and similarity matrix
// snapshots once at startup and exposes read-only lookups over them.
//
// The movie table lives in a DuckDB database file produced by the offline
// data-preparation pipeline; the similarity matrix is a flat binary file
// aligned to the table's row order. Both are read fully into memory at
// Open time and never reloaded; a load failure is fatal to the index.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/reelpick/reelpick/internal/config"
	"github.com/reelpick/reelpick/internal/logging"
)

// ErrDataUnavailable wraps every catalog snapshot load failure. Callers
// seeing it can only report generic unavailability; there is no
// partial-catalog mode.
var ErrDataUnavailable = errors.New("catalog data unavailable")

// Movie is one row of the catalog. Identity is the row position.
type Movie struct {
	// Title is the display title. Not guaranteed unique.
	Title string

	// TMDBID is the external asset identifier; 0 means absent.
	TMDBID int64

	// Tags is a space-joined token blob used as a pseudo-description.
	Tags string
}

// Index is the process-wide read-only view of the catalog. Constructed
// once at startup and shared by reference; all methods are safe for
// concurrent use because nothing mutates after Open.
type Index struct {
	movies  []Movie
	byTitle map[string]int
	sim     *Matrix
}

// Open loads both snapshots and builds the index.
func Open(cfg config.CatalogConfig) (*Index, error) {
	db, err := sql.Open("duckdb", cfg.MoviesPath+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("%w: open movie snapshot %s: %v", ErrDataUnavailable, cfg.MoviesPath, err)
	}
	defer db.Close()

	movies, err := loadMovies(db)
	if err != nil {
		return nil, err
	}

	sim, err := LoadMatrix(cfg.SimilarityPath)
	if err != nil {
		return nil, err
	}

	idx := newIndex(movies, sim)

	logging.Info().
		Int("movies", len(movies)).
		Int("matrix_dim", sim.Dim()).
		Msg("Catalog loaded")

	return idx, nil
}

// newIndex wires loaded data into an Index and runs post-load checks.
func newIndex(movies []Movie, sim *Matrix) *Index {
	byTitle := make(map[string]int, len(movies))
	for i, m := range movies {
		// First occurrence wins for duplicate titles.
		if _, exists := byTitle[m.Title]; !exists {
			byTitle[m.Title] = i
		}
	}

	if sim.Dim() != len(movies) {
		// Not fatal: rows beyond the smaller bound surface as ranking
		// errors per call.
		logging.Warn().
			Int("movies", len(movies)).
			Int("matrix_dim", sim.Dim()).
			Msg("Movie table and similarity matrix dimensions disagree")
	}

	if violations := sim.DiagonalViolations(); violations > 0 {
		logging.Warn().
			Int("rows", violations).
			Msg("Similarity matrix rows where self-similarity is not maximal")
	}

	return &Index{movies: movies, byTitle: byTitle, sim: sim}
}

// loadMovies reads the movie table in row order.
func loadMovies(db *sql.DB) ([]Movie, error) {
	rows, err := db.Query(`SELECT title, COALESCE(tmdb_id, 0), COALESCE(tags, '') FROM movies ORDER BY idx`)
	if err != nil {
		return nil, fmt.Errorf("%w: query movie table: %v", ErrDataUnavailable, err)
	}
	defer rows.Close()

	var movies []Movie
	for rows.Next() {
		var m Movie
		if err := rows.Scan(&m.Title, &m.TMDBID, &m.Tags); err != nil {
			return nil, fmt.Errorf("%w: scan movie row: %v", ErrDataUnavailable, err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read movie table: %v", ErrDataUnavailable, err)
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: movie table is empty", ErrDataUnavailable)
	}

	return movies, nil
}

// FindByTitle returns the row index of the first movie with an exactly
// matching title.
func (idx *Index) FindByTitle(title string) (int, bool) {
	i, ok := idx.byTitle[title]
	return i, ok
}

// MovieAt returns the movie at row i. Panics on out-of-range rows the
// same way a slice would; callers obtain rows from this index.
func (idx *Index) MovieAt(i int) Movie {
	return idx.movies[i]
}

// Len returns the number of catalog rows.
func (idx *Index) Len() int {
	return len(idx.movies)
}

// SimilarityRow returns the similarity scores between row i and every
// catalog row.
func (idx *Index) SimilarityRow(i int) ([]float32, error) {
	return idx.sim.Row(i)
}

// Titles returns up to limit titles containing the query, case
// insensitively. An empty query matches everything. limit <= 0 means no
// limit.
func (idx *Index) Titles(query string, limit int) []string {
	q := strings.ToLower(query)

	var out []string
	for _, m := range idx.movies {
		if q != "" && !strings.Contains(strings.ToLower(m.Title), q) {
			continue
		}
		out = append(out, m.Title)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
