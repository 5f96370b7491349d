// Package page implements the fixed-size, positionally-addressed byte
// buffer that is the unit of storage for the page store, page cache, and
// background writer. It is adapted from the teacher's storage_engine/page
// package: same fixed-size-buffer-plus-dirty-flag shape, guarded by the
// same sync.RWMutex discipline, but loses PinCount/LSN (those belonged to
// the teacher's pin-based buffer pool and WAL replay, both out of scope
// here) and gains CommittedTransaction to track append-only commit
// identity per spec §3.
package page

import (
	"io"
	"sync"

	"pagestore/pageerr"
)

// Page is a page_size-byte buffer identified by a 1-based id. Its on-disk
// offset is always (id-1)*page_size.
type Page struct {
	id                   uint64
	data                 []byte
	dirty                bool
	committedTransaction uint64
	mu                   sync.RWMutex
}

// NewEmpty allocates a zero-filled, dirty page for id. Used by
// AppendOnlyPageStore.Create — a freshly reserved page is always dirty
// until it is first written to a sink.
func NewEmpty(id uint64, pageSize int) *Page {
	return &Page{id: id, data: make([]byte, pageSize), dirty: true}
}

// NewLoaded reads exactly pageSize bytes from source at offset
// (id-1)*pageSize and returns an immutable, clean page. Used when the
// store materializes a committed page from disk.
func NewLoaded(source io.ReaderAt, id uint64, pageSize int) (*Page, error) {
	buf := make([]byte, pageSize)
	offset := int64(id-1) * int64(pageSize)
	if _, err := io.ReadFull(io.NewSectionReader(source, offset, int64(pageSize)), buf); err != nil {
		return nil, pageerr.IOf(err, "read page %d at offset %d", id, offset)
	}
	return &Page{id: id, data: buf}, nil
}

// ID returns the page's 1-based identifier.
func (p *Page) ID() uint64 {
	return p.id
}

// Offset returns the page's byte offset within its file.
func (p *Page) Offset(pageSize int) int64 {
	return int64(p.id-1) * int64(pageSize)
}

// IsDirty reports whether the page has been mutated since its last write.
func (p *Page) IsDirty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dirty
}

// CommittedTransaction returns the transaction id this page was last
// written under, or 0 if it has never been committed.
func (p *Page) CommittedTransaction() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.committedTransaction
}

// Data returns a copy of the page's current bytes. A copy is returned
// rather than the live slice so callers can't mutate it without going
// through SetData and tripping the dirty flag.
func (p *Page) Data() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]byte, len(p.data))
	copy(out, p.data)
	return out
}

// Size returns the page's buffer length without copying it.
func (p *Page) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.data)
}

// EndOfSource is the sentinel length value meaning "copy from srcOffset to
// the end of src", matching §4.1's len == -1 edge case.
const EndOfSource = -1

// SetData copies length bytes from src[srcOffset:] into the page buffer
// starting at pageOffset, and marks the page dirty. length == EndOfSource
// copies through the end of src.
func (p *Page) SetData(src []byte, srcOffset, pageOffset, length int) error {
	if srcOffset < 0 || srcOffset > len(src) {
		return pageerr.InvalidOperationf("src offset %d out of range [0,%d]", srcOffset, len(src))
	}
	if length == EndOfSource {
		length = len(src) - srcOffset
	}
	if length < 0 {
		return pageerr.InvalidOperationf("negative copy length %d", length)
	}
	if srcOffset+length > len(src) {
		return pageerr.InvalidOperationf("src range [%d,%d) exceeds source length %d", srcOffset, srcOffset+length, len(src))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pageOffset < 0 || pageOffset+length > len(p.data) {
		return pageerr.InvalidOperationf("page range [%d,%d) exceeds page size %d", pageOffset, pageOffset+length, len(p.data))
	}
	copy(p.data[pageOffset:pageOffset+length], src[srcOffset:srcOffset+length])
	p.dirty = true
	return nil
}

// Write positionally writes the page's current bytes to sink at
// (id-1)*pageSize and records txnID as the committed transaction. Clears
// the dirty flag on success.
func (p *Page) Write(sink io.WriterAt, txnID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	offset := int64(p.id-1) * int64(len(p.data))
	if _, err := sink.WriteAt(p.data, offset); err != nil {
		return pageerr.IOf(err, "write page %d at offset %d", p.id, offset)
	}
	p.dirty = false
	p.committedTransaction = txnID
	return nil
}

// Clone returns a new, dirty page at newID whose data is a copy of p's
// current bytes.
func (p *Page) Clone(newID uint64) *Page {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data := make([]byte, len(p.data))
	copy(data, p.data)
	return &Page{id: newID, data: data, dirty: true}
}
