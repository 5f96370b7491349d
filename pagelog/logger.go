// Package pagelog gives the page store, page cache, and background writer a
// shared trace-logging surface. It mirrors the teacher's style of terse,
// component-tagged fmt.Printf trace lines rather than pulling in a
// structured-logging library no part of this domain's dependency pack uses.
package pagelog

import (
	"fmt"
	"os"
)

// Logger is the minimal surface every component needs: a single
// printf-style trace method.
type Logger interface {
	Tracef(format string, args ...any)
}

// Stderr writes "[tag] " prefixed lines to os.Stderr, one per call.
type Stderr struct {
	Tag string
}

func (l Stderr) Tracef(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", l.Tag, fmt.Sprintf(format, args...))
}

// Nop discards everything; used by tests and benchmarks that don't want
// trace noise.
type Nop struct{}

func (Nop) Tracef(string, ...any) {}

// Default returns the stderr logger tagged for component.
func Default(component string) Logger { return Stderr{Tag: component} }
