// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package assetstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/reelpick/reelpick/internal/logging"
)

const (
	blobExt   = ".jpg"
	markerExt = ".fail"
)

// FileStore keeps each cached poster as <id>.jpg and each permanent-failure
// sentinel as <id>.fail inside a single directory. The presence or absence
// of those two files is the entire persisted state; there is no index.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed and returns a store
// over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create poster cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) blobPath(id int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(id, 10)+blobExt)
}

func (s *FileStore) markerPath(id int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(id, 10)+markerExt)
}

// Has reports whether a cached blob exists for id.
func (s *FileStore) Has(id int64) bool {
	_, err := os.Stat(s.blobPath(id))
	return err == nil
}

// IsPermanentlyUnavailable reports whether a fail marker exists for id.
func (s *FileStore) IsPermanentlyUnavailable(id int64) bool {
	_, err := os.Stat(s.markerPath(id))
	return err == nil
}

// State reports the entry state for id.
func (s *FileStore) State(id int64) EntryState {
	if s.Has(id) {
		return StateCached
	}
	if s.IsPermanentlyUnavailable(id) {
		return StateUnavailable
	}
	return StateAbsent
}

// Put writes data to a unique temp file and renames it into place. The
// rename makes racing writers for the same id harmless: both produce the
// identical blob and the last rename wins atomically.
func (s *FileStore) Put(id int64, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, strconv.FormatInt(id, 10)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp blob for id %d: %w", id, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write blob for id %d: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close blob for id %d: %w", id, err)
	}

	if err := os.Rename(tmpName, s.blobPath(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish blob for id %d: %w", id, err)
	}
	return nil
}

// MarkPermanentlyUnavailable creates the sentinel file. Errors are logged
// and swallowed; a lost marker only costs a future re-fetch attempt.
func (s *FileStore) MarkPermanentlyUnavailable(id int64) {
	if s.Has(id) {
		return
	}
	f, err := os.OpenFile(s.markerPath(id), os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		logging.Warn().Err(err).Int64("id", id).Msg("Failed to write poster fail marker")
		return
	}
	f.Close()
}

// Resolve returns a file-path reference to the cached blob for id.
func (s *FileStore) Resolve(id int64) (Ref, bool) {
	if !s.Has(id) {
		return nil, false
	}
	return fileRef(s.blobPath(id)), true
}

// Close is a no-op for the file backing.
func (s *FileStore) Close() error { return nil }

// fileRef references a blob by its path on disk.
type fileRef string

func (r fileRef) String() string { return string(r) }

func (r fileRef) Open() (io.ReadCloser, error) {
	return os.Open(string(r))
}
