package pagestore

import (
	"path/filepath"

	"pagestore/config"
	"pagestore/page"
	"pagestore/pagecache"
	"pagestore/pageerr"
	"pagestore/pagelog"
	"pagestore/pagewriter"
	"pagestore/persistence"
)

// Open opens (creating if absent and writable) the page file at path and
// returns a Store bound to it, per §4.5's construction algorithm:
// validate page_size, create the file if missing and writable, measure
// its length to derive next_page_id, allocate the new-page buffer if
// writable, construct a BackgroundPageWriter unless disabled, and
// subscribe the store's before-evict handler with cache.
func Open(backend persistence.Backend, cache *pagecache.Cache, path string, cfg pagestoreconfig.Config, log pagelog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = pagelog.Nop{}
	}

	partition, err := filepath.Abs(path)
	if err != nil {
		return nil, pageerr.Configurationf("resolve absolute path for %s: %v", path, err)
	}

	exists, err := backend.FileExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		if cfg.Readonly {
			return nil, pageerr.Configurationf("file %s does not exist and store is readonly", path)
		}
		if err := backend.CreateFile(path); err != nil {
			return nil, err
		}
	}

	reader, err := backend.OpenForRead(path)
	if err != nil {
		return nil, err
	}
	size, err := reader.Size()
	if err != nil {
		reader.Close()
		return nil, err
	}
	if tail := size % int64(cfg.PageSize); tail != 0 {
		// A partial page at the tail (e.g. from a crash mid-commit) is
		// abandoned: next_page_id is derived from the rounded-down length.
		log.Tracef("file %s: ignoring %d trailing bytes past the last whole page", path, tail)
	}

	s := &Store{
		backend:    backend,
		cache:      cache,
		path:       path,
		partition:  partition,
		cfg:        cfg,
		log:        log,
		readStream: reader,
		nextPageID: uint64(size>>cfg.BitShift()) + 1,
	}

	s.newPageOffset = s.nextPageID
	if !cfg.Readonly {
		s.newPages = make([]*page.Page, 0)

		if !cfg.DisableBackgroundWrites {
			sink, err := backend.OpenForAppendOrOpen(path)
			if err != nil {
				reader.Close()
				return nil, err
			}
			s.writer = pagewriter.New(sink, cfg.WriterQueueCapacity, log)
		}
	}

	cache.Subscribe(partition, s.beforeEvict)

	return s, nil
}

// Close releases the store's resources: the read stream, and — if one
// exists — the background writer (shut down and disposed). It also
// unsubscribes from the shared cache so the cache holds no back-reference
// to a closed store (§9). Close is the sole reliable teardown path; after
// it returns, every operation on the store fails with a Disposed error.
// Dispose is an idempotent alias, present for API-surface symmetry with
// §6 ("close, dispose").
func (s *Store) Close() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	writer := s.writer
	s.writer = nil
	s.mu.Unlock()

	s.cache.Unsubscribe(s.partition)

	var firstErr error
	if writer != nil {
		if err := writer.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := writer.Dispose(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.readStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Dispose is an alias for Close; see Close's doc comment.
func (s *Store) Dispose() error { return s.Close() }
