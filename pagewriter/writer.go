// Package pagewriter implements BackgroundPageWriter (§4.4): a
// single-consumer, bounded-queue pipeline that writes queued pages to one
// output sink ahead of commit, with flush() acting as a durability
// barrier.
//
// It has no direct teacher counterpart — DaemonDB writes pages
// synchronously from FlushAllPages/evictLRU. It's grounded on two teacher
// patterns generalized together: storage_engine/wal_manager/wal_segment.go
// (one goroutine-free file handle, Append-then-Sync-is-durable discipline)
// and storage_engine/bufferpool's dirty-flush-on-evict logic, restructured
// as a standalone bounded-queue consumer per §4.4's algorithm.
package pagewriter

import (
	"sync"

	"pagestore/page"
	"pagestore/pageerr"
	"pagestore/pagelog"
	"pagestore/persistence"
)

// queueItem is either a (page, txnID) write job, or — when ack is non-nil
// — a flush barrier: the consumer answers it only after every job queued
// before it has been written and the sink synced.
type queueItem struct {
	job job
	ack chan error
}

// Writer is a BackgroundPageWriter bound to one sink.
type Writer struct {
	sink  persistence.Writer
	queue chan queueItem
	log   pagelog.Logger
	stats stats

	consumerDone chan struct{}

	mu         sync.Mutex
	shutdown   bool
	disposed   bool
	latchedErr error
}

// New starts a Writer's consumer goroutine against sink. queueCapacity
// bounds the FIFO before QueueWrite starts blocking (§4.4's high-water
// mark).
func New(sink persistence.Writer, queueCapacity int, log pagelog.Logger) *Writer {
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	if log == nil {
		log = pagelog.Nop{}
	}
	w := &Writer{
		sink:         sink,
		queue:        make(chan queueItem, queueCapacity),
		log:          log,
		consumerDone: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Writer) run() {
	defer close(w.consumerDone)
	for qi := range w.queue {
		if qi.ack != nil {
			syncErr := w.sink.Sync()
			w.stats.incFlush()
			qi.ack <- syncErr
			continue
		}
		if err := qi.job.pg.Write(w.sink, qi.job.txnID); err != nil {
			// Latched here; the next Flush reads and clears the latch
			// after its barrier is acknowledged.
			w.log.Tracef("write page %d failed: %v", qi.job.pg.ID(), err)
			w.latch(err)
			continue
		}
		w.stats.incWritten()
	}
}

// latch records the first unflushed write error so the next Flush can
// surface it, per §7's "I/O errors on background writes are latched and
// raised at the next flush".
func (w *Writer) latch(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latchedErr == nil {
		w.latchedErr = err
	}
}

// QueueWrite enqueues (pg, txnID). Blocks if the queue is at capacity;
// returns an error if the writer has already been shut down or disposed.
func (w *Writer) QueueWrite(pg *page.Page, txnID uint64) error {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return pageerr.Disposedf("writer disposed")
	}
	if w.shutdown {
		w.mu.Unlock()
		return pageerr.InvalidOperationf("writer already shut down")
	}
	w.mu.Unlock()

	w.stats.incQueued()
	w.queue <- queueItem{job: job{pg: pg, txnID: txnID}}
	return nil
}

// Flush blocks until every item queued before this call is written and
// the sink is synced to stable storage. It returns the first latched
// write error since the previous flush, if any, and clears the latch.
func (w *Writer) Flush() error {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return pageerr.Disposedf("writer disposed")
	}
	w.mu.Unlock()

	ack := make(chan error, 1)
	w.queue <- queueItem{ack: ack}
	syncErr := <-ack

	w.mu.Lock()
	err := w.latchedErr
	w.latchedErr = nil
	w.mu.Unlock()

	if err != nil {
		return pageerr.IOf(err, "flush: prior queued write failed")
	}
	if syncErr != nil {
		return pageerr.IOf(syncErr, "flush: sync failed")
	}
	return nil
}

// Shutdown signals end-of-input, drains the queue, and flushes — after it
// returns, the consumer goroutine has exited and no further QueueWrite
// calls are accepted.
func (w *Writer) Shutdown() error {
	w.mu.Lock()
	if w.shutdown {
		w.mu.Unlock()
		return nil
	}
	w.shutdown = true
	w.mu.Unlock()

	flushErr := w.Flush()
	close(w.queue)
	<-w.consumerDone
	return flushErr
}

// Dispose releases the sink handle. Shutdown should be called first;
// Dispose is safe to call more than once.
func (w *Writer) Dispose() error {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return nil
	}
	w.disposed = true
	w.mu.Unlock()
	return w.sink.Close()
}

// Stats returns a snapshot of cumulative writer activity.
func (w *Writer) Stats() Stats {
	return w.stats.snapshot()
}
