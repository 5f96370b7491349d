//go:build unix

package persistence

import (
	"os"

	"golang.org/x/sys/unix"
)

// flock takes an exclusive, non-blocking advisory lock on f's descriptor.
// It backs the single-writer-sink precondition §4.5/§5 describe: only one
// BackgroundPageWriter (or the store's synchronous commit path) may hold
// the append sink open for writing at a time.
func flock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

// funlock releases the lock taken by flock.
func funlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
