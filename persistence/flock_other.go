//go:build !unix

package persistence

import "os"

// flock/funlock degrade to no-ops on non-unix hosts; the store's
// single-writer-thread precondition (§5) still applies, just without an
// OS-level backstop.
func flock(f *os.File) error   { return nil }
func funlock(f *os.File) error { return nil }
