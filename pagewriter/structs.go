package pagewriter

import (
	"sync"

	"github.com/dustin/go-humanize"

	"pagestore/page"
)

// job is one queued (page, txn id) pair. The writer re-reads the page's
// current bytes at dequeue time rather than snapshotting them at enqueue
// time, per §4.4/§9: "the latest bytes at dequeue win".
type job struct {
	pg    *page.Page
	txnID uint64
}

// Stats is a point-in-time snapshot of writer activity.
type Stats struct {
	Queued  uint64
	Written uint64
	Flushes uint64
}

type stats struct {
	mu sync.Mutex
	s  Stats
}

func (s *stats) incQueued() {
	s.mu.Lock()
	s.s.Queued++
	s.mu.Unlock()
}

func (s *stats) incWritten() {
	s.mu.Lock()
	s.s.Written++
	s.mu.Unlock()
}

func (s *stats) incFlush() {
	s.mu.Lock()
	s.s.Flushes++
	s.mu.Unlock()
}

func (s *stats) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s
}

// String renders s in the teacher's human-readable trace style, matching
// pagecache.Stats.String.
func (s Stats) String() string {
	return "queued=" + humanize.Comma(int64(s.Queued)) +
		" written=" + humanize.Comma(int64(s.Written)) +
		" flushes=" + humanize.Comma(int64(s.Flushes))
}
