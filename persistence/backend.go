// Package persistence abstracts the platform file I/O the page store needs:
// existence checks, file creation, a seekable reader for page loads, and a
// seekable, syncable writer for page writes. Adapted from the teacher's
// storage_engine/disk_manager, which owned *os.File handles directly and
// mixed in a multi-file globalPageID scheme this module doesn't need — a
// PageStore here owns exactly one file, so the capability set collapses to
// the four operations §4.2 names.
package persistence

import (
	"io"
	"os"

	"pagestore/pageerr"
)

// Reader is a seekable source for page loads. Size reports the current
// length of the underlying file, which the store needs on open to derive
// next_page_id (§3, §4.5) without a separate stat-style method on Backend.
type Reader interface {
	io.ReaderAt
	io.Closer
	Size() (int64, error)
}

// Writer is a seekable, syncable sink for page writes.
type Writer interface {
	io.WriterAt
	Sync() error
	io.Closer
}

// Backend is the capability set AppendOnlyPageStore needs from the
// filesystem.
type Backend interface {
	// FileExists reports whether path names an existing file.
	FileExists(path string) (bool, error)
	// CreateFile creates an empty file at path if one doesn't already exist.
	CreateFile(path string) error
	// OpenForRead opens path for positional reads.
	OpenForRead(path string) (Reader, error)
	// OpenForAppendOrOpen opens path for positional writes, creating it if
	// absent. The returned Writer is exclusive to this store's writer.
	OpenForAppendOrOpen(path string) (Writer, error)
}

// OS is the default Backend, backed by the local filesystem.
type OS struct{}

func (OS) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, pageerr.IOf(err, "stat %s", path)
}

func (OS) CreateFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return pageerr.IOf(err, "create %s", path)
	}
	return f.Close()
}

func (OS) OpenForRead(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pageerr.IOf(err, "open %s for read", path)
	}
	return &osReader{File: f}, nil
}

// osReader adds the Size method required by Reader on top of *os.File.
type osReader struct {
	*os.File
}

func (r *osReader) Size() (int64, error) {
	info, err := r.File.Stat()
	if err != nil {
		return 0, pageerr.IOf(err, "stat open file")
	}
	return info.Size(), nil
}

func (OS) OpenForAppendOrOpen(path string) (Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, pageerr.IOf(err, "open %s for write", path)
	}
	if err := flock(f); err != nil {
		f.Close()
		return nil, pageerr.IOf(err, "lock %s for write", path)
	}
	return &lockedFile{File: f}, nil
}

// lockedFile wraps *os.File so Close also releases the advisory lock taken
// out in OpenForAppendOrOpen.
type lockedFile struct {
	*os.File
}

func (lf *lockedFile) Close() error {
	_ = funlock(lf.File)
	return lf.File.Close()
}
