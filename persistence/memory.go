package persistence

import (
	"sync"

	"pagestore/pageerr"
)

// Memory is an in-memory Backend, grounded in §4.2's own stated rationale:
// "abstracting the filesystem lets the core be tested against an in-memory
// backend". Every path maps to a []byte buffer shared by all readers and
// writers opened against it, so the sequence open-write-close-reopen
// behaves like a real file without touching disk.
type Memory struct {
	mu    sync.Mutex
	files map[string]*memFile
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*memFile)}
}

type memFile struct {
	mu   sync.Mutex
	data []byte
}

func (m *Memory) get(path string) (*memFile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[path]
	return f, ok
}

func (m *Memory) FileExists(path string) (bool, error) {
	_, ok := m.get(path)
	return ok, nil
}

func (m *Memory) CreateFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; ok {
		return nil
	}
	m.files[path] = &memFile{}
	return nil
}

func (m *Memory) OpenForRead(path string) (Reader, error) {
	f, ok := m.get(path)
	if !ok {
		return nil, pageerr.IOf(nil, "open %s for read: no such file", path)
	}
	return &memReader{f: f}, nil
}

func (m *Memory) OpenForAppendOrOpen(path string) (Writer, error) {
	m.mu.Lock()
	f, ok := m.files[path]
	if !ok {
		f = &memFile{}
		m.files[path] = f
	}
	m.mu.Unlock()
	return &memWriter{f: f}, nil
}

type memReader struct{ f *memFile }

func (r *memReader) ReadAt(p []byte, off int64) (int, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if off >= int64(len(r.f.data)) {
		return 0, pageerr.IOf(nil, "EOF")
	}
	n := copy(p, r.f.data[off:])
	var err error
	if n < len(p) {
		err = pageerr.IOf(nil, "EOF")
	}
	return n, err
}

func (r *memReader) Close() error { return nil }

func (r *memReader) Size() (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return int64(len(r.f.data)), nil
}

type memWriter struct{ f *memFile }

func (w *memWriter) WriteAt(p []byte, off int64) (int, error) {
	w.f.mu.Lock()
	defer w.f.mu.Unlock()
	end := off + int64(len(p))
	if end > int64(len(w.f.data)) {
		grown := make([]byte, end)
		copy(grown, w.f.data)
		w.f.data = grown
	}
	copy(w.f.data[off:end], p)
	return len(p), nil
}

func (w *memWriter) Sync() error { return nil }
func (w *memWriter) Close() error { return nil }

// Size returns the current length of the file at path, or 0 if it doesn't
// exist. Convenience for tests asserting on file length.
func (m *Memory) Size(path string) int64 {
	f, ok := m.get(path)
	if !ok {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.data))
}
