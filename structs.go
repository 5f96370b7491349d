// Package pagestore implements the AppendOnlyPageStore from §4.5: the
// component that orchestrates Page, PersistenceBackend, PageCache, and
// BackgroundPageWriter into the retrieve/create/write/commit contract
// higher layers (a graph/triple database, in the original system) consume.
//
// It has no single teacher file of its own — it's grounded on the wiring
// style of the teacher's storage_engine/structs.go and
// storage_engine/main.go (a struct holding references to its collaborators,
// built up by a constructor that validates inputs and wires subscriptions),
// applied to this spec's append-only, single-file-per-store semantics
// rather than the teacher's multi-file relational storage engine.
package pagestore

import (
	"sync"

	"pagestore/config"
	"pagestore/page"
	"pagestore/pagecache"
	"pagestore/pagelog"
	"pagestore/pagewriter"
	"pagestore/persistence"
)

// Store is an AppendOnlyPageStore bound to one file.
type Store struct {
	backend   persistence.Backend
	cache     *pagecache.Cache
	path      string
	partition string // absolute path; the cache partition key (glossary)
	cfg       pagestoreconfig.Config
	log       pagelog.Logger

	readStream persistence.Reader

	mu            sync.RWMutex
	nextPageID    uint64
	newPageOffset uint64
	newPages      []*page.Page
	writer        *pagewriter.Writer
	disposed      bool
}

// PageSize returns the store's fixed page size.
func (s *Store) PageSize() int { return s.cfg.PageSize }

// CanRead reports whether the store accepts Retrieve calls. True for the
// lifetime of the store until Dispose.
func (s *Store) CanRead() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.disposed
}

// CanWrite reports whether the store accepts Create/Write/Commit.
func (s *Store) CanWrite() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.cfg.Readonly && !s.disposed
}
