package pagestore

import (
	"pagestore/page"
	"pagestore/pageerr"
	"pagestore/pagewriter"
)

// Retrieve returns the page for id, per §4.5's read path: the writable
// new-page buffer, then the shared cache, then a fresh load from disk
// (which is then cached for subsequent readers).
func (s *Store) Retrieve(id uint64) (*page.Page, error) {
	s.mu.RLock()
	disposed := s.disposed
	s.mu.RUnlock()
	if disposed {
		return nil, pageerr.Disposedf("store closed")
	}

	if pg, ok := s.retrieveFromBuffer(id); ok {
		return pg, nil
	}

	if pg, ok := s.cache.Lookup(s.partition, id); ok {
		return pg, nil
	}

	pg, err := page.NewLoaded(s.readStream, id, s.cfg.PageSize)
	if err != nil {
		return nil, err
	}
	s.cache.InsertOrUpdate(s.partition, pg)
	return pg, nil
}

// retrieveFromBuffer returns the in-memory new page for id, if the store
// is writable and id falls within the new-page buffer's range.
func (s *Store) retrieveFromBuffer(id uint64) (*page.Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg.Readonly || id < s.newPageOffset {
		return nil, false
	}
	idx := id - s.newPageOffset
	if idx >= uint64(len(s.newPages)) {
		return nil, false
	}
	return s.newPages[idx], true
}

// Create reserves the next page id, appends a fresh empty page to the
// new-page buffer, and returns it. txnID is accepted only for interface
// symmetry (§4.5, §9) — append-only creation neither stores nor reads it.
func (s *Store) Create(txnID uint64) (*page.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil, pageerr.Disposedf("store closed")
	}
	if s.cfg.Readonly {
		return nil, pageerr.InvalidOperationf("create on readonly store")
	}

	id := s.nextPageID
	pg := page.NewEmpty(id, s.cfg.PageSize)
	s.newPages = append(s.newPages, pg)
	s.nextPageID++
	return pg, nil
}

// Write mutates the bytes of the writable page pageID and, if background
// writing is enabled, queues it to the writer under txnID. Fails if
// pageID names a committed (fixed) page or one that was never reserved
// (§4.5).
func (s *Store) Write(txnID, pageID uint64, data []byte, srcOffset, pageOffset, length int) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return pageerr.Disposedf("store closed")
	}
	if s.cfg.Readonly {
		s.mu.Unlock()
		return pageerr.InvalidOperationf("write on readonly store")
	}
	if pageID < s.newPageOffset {
		s.mu.Unlock()
		return pageerr.InvalidOperationf("write to fixed page %d", pageID)
	}
	if pageID >= s.nextPageID {
		s.mu.Unlock()
		return pageerr.InvalidOperationf("write to unreserved page %d", pageID)
	}
	idx := pageID - s.newPageOffset
	pg := s.newPages[idx]
	writer := s.writer
	s.mu.Unlock()

	if err := pg.SetData(data, srcOffset, pageOffset, length); err != nil {
		return err
	}

	if writer != nil {
		if err := writer.QueueWrite(pg, txnID); err != nil {
			return err
		}
	}
	return nil
}

// Commit durably writes every page in the new-page buffer and advances
// new_page_offset to next_page_id, per §4.5's commit algorithm. On
// failure, new_pages is left untouched (and new_page_offset does not
// advance) so the caller may retry, per §7.
func (s *Store) Commit(txnID uint64) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return pageerr.Disposedf("store closed")
	}
	if s.cfg.Readonly {
		s.mu.Unlock()
		return pageerr.InvalidOperationf("commit on readonly store")
	}
	pending := s.newPages
	writer := s.writer
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	if writer != nil {
		if err := s.commitViaWriter(pending, txnID, writer); err != nil {
			return err
		}
	} else {
		if err := s.commitSynchronously(pending, txnID); err != nil {
			return err
		}
	}

	for _, pg := range pending {
		s.cache.InsertOrUpdate(s.partition, pg)
	}

	s.mu.Lock()
	s.newPages = make([]*page.Page, 0)
	s.newPageOffset = s.nextPageID
	s.mu.Unlock()

	return nil
}

func (s *Store) commitViaWriter(pending []*page.Page, txnID uint64, writer *pagewriter.Writer) error {
	for _, pg := range pending {
		if err := writer.QueueWrite(pg, txnID); err != nil {
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	// Restart the writer around the commit boundary (§4.4's Lifecycle):
	// bounds its in-memory retention to a single commit's worth of pages.
	if err := writer.Shutdown(); err != nil {
		return err
	}
	if err := writer.Dispose(); err != nil {
		return err
	}
	sink, err := s.backend.OpenForAppendOrOpen(s.path)
	if err != nil {
		return err
	}
	fresh := pagewriter.New(sink, s.cfg.WriterQueueCapacity, s.log)

	s.mu.Lock()
	s.writer = fresh
	s.mu.Unlock()

	return nil
}

func (s *Store) commitSynchronously(pending []*page.Page, txnID uint64) error {
	sink, err := s.backend.OpenForAppendOrOpen(s.path)
	if err != nil {
		return err
	}
	defer sink.Close()

	for _, pg := range pending {
		if err := pg.Write(sink, txnID); err != nil {
			return err
		}
	}
	return sink.Sync()
}

// IsWritable reports whether pg falls in the writable range: its id is at
// least new_page_offset.
func (s *Store) IsWritable(pg *page.Page) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pg.ID() >= s.newPageOffset
}

// GetWritablePage returns pg itself if it's already writable, or
// otherwise creates a fresh writable page and copies pg's bytes into it —
// the copy-on-write entry point a higher layer uses to mutate a committed
// page (§4.5).
func (s *Store) GetWritablePage(txnID uint64, pg *page.Page) (*page.Page, error) {
	if !s.CanRead() {
		return nil, pageerr.Disposedf("store closed")
	}
	if s.IsWritable(pg) {
		return pg, nil
	}

	fresh, err := s.Create(txnID)
	if err != nil {
		return nil, err
	}
	if err := fresh.SetData(pg.Data(), 0, 0, page.EndOfSource); err != nil {
		return nil, err
	}

	s.mu.RLock()
	writer := s.writer
	s.mu.RUnlock()
	if writer != nil {
		if err := writer.QueueWrite(fresh, txnID); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}
