// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

// Package assetstore persists fetched poster blobs together with negative
// cache entries for identifiers that permanently have no poster.
//
// Every identifier is in exactly one of three states: absent, cached, or
// permanently unavailable. Transitions are monotonic within a process:
// absent -> cached or absent -> permanently unavailable, both terminal.
// A cached blob and a fail marker never coexist for the same identifier.
//
// Three backings implement the Store interface: a flat directory of
// blob/sentinel file pairs, an embedded BadgerDB, and an in-memory map.
package assetstore

import "io"

// EntryState is the cache state of one asset identifier.
type EntryState int

const (
	// StateAbsent means the identifier has never been resolved; a fetch
	// may be attempted.
	StateAbsent EntryState = iota

	// StateCached means a blob is stored and readable.
	StateCached

	// StateUnavailable means the provider authoritatively has no asset
	// for this identifier; it is never fetched again.
	StateUnavailable
)

// String returns a readable state name.
func (s EntryState) String() string {
	switch s {
	case StateCached:
		return "cached"
	case StateUnavailable:
		return "unavailable"
	default:
		return "absent"
	}
}

// Ref is a resolvable local reference to a cached blob. For the file
// backing it names a file on disk; for the other backings it is a handle
// into the store.
type Ref interface {
	// String returns a stable identifier for the reference. Two resolves
	// of the same cached asset return equal strings.
	String() string

	// Open returns a reader over the blob. The caller closes it.
	Open() (io.ReadCloser, error)
}

// Store is the poster cache. Implementations are safe for concurrent use.
// Concurrent Put calls for the same identifier are allowed; the asset for
// an identifier is immutable upstream, so duplicate writes carry identical
// content and last-write-wins is correct.
type Store interface {
	// Has reports whether a cached blob exists for id. No side effects.
	Has(id int64) bool

	// IsPermanentlyUnavailable reports whether a fail marker exists for
	// id. No side effects.
	IsPermanentlyUnavailable(id int64) bool

	// State reports the entry state for id. A blob wins over a marker
	// should both somehow exist.
	State(id int64) EntryState

	// Put stores data as the cached blob for id. An I/O failure is
	// returned to the caller and must never be converted into a
	// permanent-unavailability marking.
	Put(id int64, data []byte) error

	// MarkPermanentlyUnavailable records that id has no asset.
	// Best-effort: a failure to persist the marker only costs a future
	// re-fetch, so it is logged and swallowed. No marker is written when
	// a cached blob already exists.
	MarkPermanentlyUnavailable(id int64)

	// Resolve returns a reference to the cached blob for id, if cached.
	Resolve(id int64) (Ref, bool)

	// Close releases backing resources.
	Close() error
}
