// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package assetstore

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// MemoryStore is a non-persistent Store backing. State is lost on restart,
// which is acceptable for tests and for deployments that treat the poster
// cache as disposable.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[int64][]byte
	markers map[int64]struct{}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[int64][]byte),
		markers: make(map[int64]struct{}),
	}
}

// Has reports whether a cached blob exists for id.
func (s *MemoryStore) Has(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[id]
	return ok
}

// IsPermanentlyUnavailable reports whether a fail marker exists for id.
func (s *MemoryStore) IsPermanentlyUnavailable(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.markers[id]
	return ok
}

// State reports the entry state for id.
func (s *MemoryStore) State(id int64) EntryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blobs[id]; ok {
		return StateCached
	}
	if _, ok := s.markers[id]; ok {
		return StateUnavailable
	}
	return StateAbsent
}

// Put stores data as the cached blob for id.
func (s *MemoryStore) Put(id int64, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = cp
	return nil
}

// MarkPermanentlyUnavailable records the fail marker for id.
func (s *MemoryStore) MarkPermanentlyUnavailable(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; ok {
		return
	}
	s.markers[id] = struct{}{}
}

// Resolve returns a reference to the cached blob for id.
func (s *MemoryStore) Resolve(id int64) (Ref, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blobs[id]; !ok {
		return nil, false
	}
	return &memoryRef{store: s, id: id}, true
}

// Close is a no-op for the memory backing.
func (s *MemoryStore) Close() error { return nil }

// memoryRef references a blob held by a MemoryStore.
type memoryRef struct {
	store *MemoryStore
	id    int64
}

func (r *memoryRef) String() string {
	return fmt.Sprintf("memory:%d", r.id)
}

func (r *memoryRef) Open() (io.ReadCloser, error) {
	r.store.mu.RLock()
	data, ok := r.store.blobs[r.id]
	r.store.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("blob for id %d no longer cached", r.id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
