package pagestore

import "pagestore/page"

// beforeEvict is the handler registered with the shared cache for this
// store's partition. It implements §4.5's before-evict policy, using ≥
// per §9's explicit mandate to close the off-by-one in the original
// implementation's "> new_page_offset" check.
func (s *Store) beforeEvict(pageID uint64) (cancel bool) {
	s.mu.RLock()
	offset := s.newPageOffset
	writer := s.writer
	var target *page.Page
	if idx := pageID - offset; pageID >= offset && idx < uint64(len(s.newPages)) {
		target = s.newPages[idx]
	}
	s.mu.RUnlock()

	if pageID < offset {
		// Committed/immutable: eviction proceeds, the page is reloadable
		// from disk.
		return false
	}

	// Writable, uncommitted.
	if writer == nil {
		// No background writer: the page's only home is memory. It can't
		// be safely dropped.
		return true
	}

	if target == nil {
		// Not actually in our buffer (shouldn't happen under the
		// single-writer-thread precondition); refuse to let it go
		// without a page to hand to the writer.
		return true
	}

	// Transaction id 0 is a sentinel: append-only writes never consult
	// the txn id a page was queued under (§4.5, §9).
	if err := writer.QueueWrite(target, 0); err != nil {
		s.log.Tracef("before-evict: queue_write for page %d failed: %v", pageID, err)
		return true
	}
	return false
}
