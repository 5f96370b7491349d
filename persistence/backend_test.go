package persistence

import (
	"path/filepath"
	"testing"
)

func TestOSFileExistsAndCreateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.pages")

	backend := OS{}

	exists, err := backend.FileExists(path)
	if err != nil {
		t.Fatalf("FileExists: %v", err)
	}
	if exists {
		t.Fatalf("expected file to not exist yet")
	}

	if err := backend.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	// Idempotent: creating an already-existing file is not an error.
	if err := backend.CreateFile(path); err != nil {
		t.Fatalf("CreateFile (second call): %v", err)
	}

	exists, err = backend.FileExists(path)
	if err != nil {
		t.Fatalf("FileExists after create: %v", err)
	}
	if !exists {
		t.Fatalf("expected file to exist after CreateFile")
	}
}

func TestOSWriteThenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.pages")
	backend := OS{}

	if err := backend.CreateFile(path); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	w, err := backend.OpenForAppendOrOpen(path)
	if err != nil {
		t.Fatalf("OpenForAppendOrOpen: %v", err)
	}
	payload := []byte("0123456789abcdef")
	if _, err := w.WriteAt(payload, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close writer: %v", err)
	}

	r, err := backend.OpenForRead(path)
	if err != nil {
		t.Fatalf("OpenForRead: %v", err)
	}
	defer r.Close()

	size, err := r.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), size)
	}

	got := make([]byte, len(payload))
	if _, err := r.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestOSOpenForReadMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.pages")

	if _, err := (OS{}).OpenForRead(path); err == nil {
		t.Fatalf("expected error opening missing file for read")
	}
}

func TestMemoryFileExistsAndCreateFile(t *testing.T) {
	m := NewMemory()

	exists, err := m.FileExists("a")
	if err != nil {
		t.Fatalf("FileExists: %v", err)
	}
	if exists {
		t.Fatalf("expected file to not exist yet")
	}

	if err := m.CreateFile("a"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	exists, err = m.FileExists("a")
	if err != nil || !exists {
		t.Fatalf("expected file to exist after CreateFile, err=%v", err)
	}
}

func TestMemoryWriteThenReadRoundTrip(t *testing.T) {
	m := NewMemory()

	w, err := m.OpenForAppendOrOpen("a")
	if err != nil {
		t.Fatalf("OpenForAppendOrOpen: %v", err)
	}
	payload := []byte("hello world")
	if _, err := w.WriteAt(payload, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	r, err := m.OpenForRead("a")
	if err != nil {
		t.Fatalf("OpenForRead: %v", err)
	}
	size, err := r.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), size)
	}

	got := make([]byte, len(payload))
	if _, err := r.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}

	if m.Size("a") != int64(len(payload)) {
		t.Fatalf("Size helper mismatch: %d", m.Size("a"))
	}
}

func TestMemoryReadAtPastEndReturnsError(t *testing.T) {
	m := NewMemory()
	if err := m.CreateFile("a"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	r, err := m.OpenForRead("a")
	if err != nil {
		t.Fatalf("OpenForRead: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := r.ReadAt(buf, 0); err == nil {
		t.Fatalf("expected error reading past end of empty file")
	}
}

func TestMemoryOpenForReadMissingFileErrors(t *testing.T) {
	m := NewMemory()
	if _, err := m.OpenForRead("missing"); err == nil {
		t.Fatalf("expected error opening missing file for read")
	}
}
