// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package catalog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

// Similarity matrix snapshot format: 4-byte magic "RPSM", one version
// byte, uint32 little-endian dimension n, then n*n float32 little-endian
// scores in row-major order.
const (
	matrixMagic   = "RPSM"
	matrixVersion = 1

	matrixHeaderLen = 4 + 1 + 4
)

// ErrRowOutOfRange means a requested similarity row does not exist in the
// loaded matrix, which signals a consistency problem between the movie
// table and the matrix.
var ErrRowOutOfRange = errors.New("similarity row out of range")

// Matrix is the square pairwise-similarity matrix, loaded once and never
// mutated. Scores have no fixed range; higher means more similar.
type Matrix struct {
	dim  int
	data []float32
}

// LoadMatrix reads a similarity snapshot from path.
func LoadMatrix(path string) (*Matrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read similarity snapshot %s: %v", ErrDataUnavailable, path, err)
	}

	if len(raw) < matrixHeaderLen {
		return nil, fmt.Errorf("%w: similarity snapshot %s: truncated header", ErrDataUnavailable, path)
	}
	if string(raw[:4]) != matrixMagic {
		return nil, fmt.Errorf("%w: similarity snapshot %s: bad magic", ErrDataUnavailable, path)
	}
	if raw[4] != matrixVersion {
		return nil, fmt.Errorf("%w: similarity snapshot %s: unsupported version %d", ErrDataUnavailable, path, raw[4])
	}

	dim := int(binary.LittleEndian.Uint32(raw[5:9]))
	body := raw[matrixHeaderLen:]
	want := dim * dim * 4
	if len(body) != want {
		return nil, fmt.Errorf("%w: similarity snapshot %s: body is %d bytes, want %d for dim %d",
			ErrDataUnavailable, path, len(body), want, dim)
	}

	data := make([]float32, dim*dim)
	for i := range data {
		bits := binary.LittleEndian.Uint32(body[i*4:])
		data[i] = math.Float32frombits(bits)
	}

	return &Matrix{dim: dim, data: data}, nil
}

// Dim returns the matrix dimension.
func (m *Matrix) Dim() int {
	return m.dim
}

// Row returns the similarity scores between row i and all rows. The
// returned slice aliases the loaded snapshot and must not be modified.
func (m *Matrix) Row(i int) ([]float32, error) {
	if i < 0 || i >= m.dim {
		return nil, fmt.Errorf("%w: row %d, dim %d", ErrRowOutOfRange, i, m.dim)
	}
	return m.data[i*m.dim : (i+1)*m.dim], nil
}

// DiagonalViolations counts rows whose self-similarity is not the row
// maximum. The ranked self-exclusion in the recommender does not depend
// on the diagonal, but a violating matrix usually means a broken
// data-preparation run and is worth a warning.
func (m *Matrix) DiagonalViolations() int {
	violations := 0
	for i := 0; i < m.dim; i++ {
		row := m.data[i*m.dim : (i+1)*m.dim]
		diag := row[i]
		for j, score := range row {
			if j != i && score > diag {
				violations++
				break
			}
		}
	}
	return violations
}
