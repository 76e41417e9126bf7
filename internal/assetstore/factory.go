// Reelpick - Content-Based Movie Recommendation Service
// Copyright 2026 Reelpick Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelpick/reelpick

package assetstore

import (
	"fmt"

	"github.com/reelpick/reelpick/internal/config"
)

// Backend names accepted in configuration.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Open creates the Store selected by cfg.Backend.
func Open(cfg config.PosterCacheConfig) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Dir)
	case BackendBadger:
		return NewBadgerStore(cfg.BadgerPath)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown poster cache backend %q", cfg.Backend)
	}
}
