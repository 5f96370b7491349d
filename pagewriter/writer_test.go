package pagewriter

import (
	"sync"
	"testing"

	"pagestore/page"
)

// recordingSink is a persistence.Writer test double that records every
// WriteAt call's offset so tests can count the writes that reached it.
type recordingSink struct {
	mu        sync.Mutex
	writes    []int64
	syncCount int
	failNext  bool
	closed    bool
}

func (s *recordingSink) WriteAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return 0, errWriteFailed
	}
	s.writes = append(s.writes, off)
	return len(p), nil
}

func (s *recordingSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncCount++
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errWriteFailed = sentinelErr("simulated write failure")

func TestQueueWriteThenFlushPersists(t *testing.T) {
	sink := &recordingSink{}
	w := New(sink, 4, nil)

	pg := page.NewEmpty(1, 8)
	if err := w.QueueWrite(pg, 1); err != nil {
		t.Fatalf("QueueWrite: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if sink.writeCount() != 1 {
		t.Fatalf("expected 1 write, got %d", sink.writeCount())
	}
	stats := w.Stats()
	if stats.Queued != 1 || stats.Written != 1 || stats.Flushes != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestFlushIsBarrierForAllPriorWrites(t *testing.T) {
	sink := &recordingSink{}
	w := New(sink, 8, nil)

	for i := uint64(1); i <= 5; i++ {
		if err := w.QueueWrite(page.NewEmpty(i, 8), 1); err != nil {
			t.Fatalf("QueueWrite %d: %v", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sink.writeCount() != 5 {
		t.Fatalf("expected all 5 writes before flush returns, got %d", sink.writeCount())
	}
}

func TestLatchedWriteErrorSurfacedAtNextFlush(t *testing.T) {
	sink := &recordingSink{failNext: true}
	w := New(sink, 4, nil)

	if err := w.QueueWrite(page.NewEmpty(1, 8), 1); err != nil {
		t.Fatalf("QueueWrite: %v", err)
	}
	if err := w.Flush(); err == nil {
		t.Fatalf("expected latched write failure to surface at flush")
	}

	// The latch clears after being surfaced once.
	if err := w.QueueWrite(page.NewEmpty(2, 8), 1); err != nil {
		t.Fatalf("QueueWrite after failure: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("expected second flush to succeed, got: %v", err)
	}
}

func TestShutdownDrainsQueueAndStopsConsumer(t *testing.T) {
	sink := &recordingSink{}
	w := New(sink, 4, nil)

	if err := w.QueueWrite(page.NewEmpty(1, 8), 1); err != nil {
		t.Fatalf("QueueWrite: %v", err)
	}
	if err := w.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if sink.writeCount() != 1 {
		t.Fatalf("expected queued write drained before shutdown returns, got %d", sink.writeCount())
	}

	if err := w.QueueWrite(page.NewEmpty(2, 8), 1); err == nil {
		t.Fatalf("expected QueueWrite to fail after shutdown")
	}

	// Shutdown is idempotent.
	if err := w.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}

func TestDisposeClosesSinkAndIsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	w := New(sink, 4, nil)
	if err := w.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := w.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if !sink.closed {
		t.Fatalf("expected Dispose to close the sink")
	}
	if err := w.Dispose(); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}
	if err := w.Flush(); err == nil {
		t.Fatalf("expected Flush to fail after dispose")
	}
}
