// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package assetstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/reelpick/reelpick/internal/logging"
)

// Key prefixes for BadgerDB storage.
const (
	blobKeyPrefix   = "poster:"
	markerKeyPrefix = "fail:"
)

// BadgerStore implements Store on an embedded BadgerDB. Suitable when the
// poster cache should live inside a single database directory instead of a
// directory of loose files.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a BadgerDB at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for poster cache: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStoreFromDB wraps an already opened BadgerDB. The caller keeps
// ownership of the database lifecycle.
func NewBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func blobKey(id int64) []byte {
	return []byte(blobKeyPrefix + strconv.FormatInt(id, 10))
}

func markerKey(id int64) []byte {
	return []byte(markerKeyPrefix + strconv.FormatInt(id, 10))
}

func (s *BadgerStore) exists(key []byte) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	return err == nil
}

// Has reports whether a cached blob exists for id.
func (s *BadgerStore) Has(id int64) bool {
	return s.exists(blobKey(id))
}

// IsPermanentlyUnavailable reports whether a fail marker exists for id.
func (s *BadgerStore) IsPermanentlyUnavailable(id int64) bool {
	return s.exists(markerKey(id))
}

// State reports the entry state for id.
func (s *BadgerStore) State(id int64) EntryState {
	if s.Has(id) {
		return StateCached
	}
	if s.IsPermanentlyUnavailable(id) {
		return StateUnavailable
	}
	return StateAbsent
}

// Put stores data as the cached blob for id. Racing writers for the same
// id are harmless: the content is identical and last-write-wins.
func (s *BadgerStore) Put(id int64, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blobKey(id), data)
	})
	if err != nil {
		return fmt.Errorf("store blob for id %d: %w", id, err)
	}
	return nil
}

// MarkPermanentlyUnavailable records the fail marker for id. Errors are
// logged and swallowed; a lost marker only costs a future re-fetch.
func (s *BadgerStore) MarkPermanentlyUnavailable(id int64) {
	if s.Has(id) {
		return
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(markerKey(id), nil)
	})
	if err != nil {
		logging.Warn().Err(err).Int64("id", id).Msg("Failed to write poster fail marker")
	}
}

// Resolve returns a reference to the cached blob for id.
func (s *BadgerStore) Resolve(id int64) (Ref, bool) {
	if !s.Has(id) {
		return nil, false
	}
	return &badgerRef{db: s.db, id: id}, true
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// RunGC runs one value-log garbage collection pass. Returns true when a
// log file was rewritten and another pass may be worthwhile. badger's
// "nothing to rewrite" result is not an error.
func (s *BadgerStore) RunGC() (bool, error) {
	err := s.db.RunValueLogGC(0.5)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrNoRewrite) {
		return false, nil
	}
	return false, err
}

// badgerRef references a blob held in a BadgerStore.
type badgerRef struct {
	db *badger.DB
	id int64
}

func (r *badgerRef) String() string {
	return "badger:" + string(blobKey(r.id))
}

func (r *badgerRef) Open() (io.ReadCloser, error) {
	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(r.id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read blob for id %d: %w", r.id, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
