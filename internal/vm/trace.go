package vm

import (
	"fmt"
	"strings"
)

// Trace collects the human-readable lines produced by one controller call.
type Trace struct {
	lines []string
}

func (t *Trace) Add(line string) { t.lines = append(t.lines, line) }

func (t *Trace) Addf(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

// Lines returns the collected lines.
func (t *Trace) Lines() []string { return t.lines }

func (t *Trace) Reset() { t.lines = t.lines[:0] }

func (t *Trace) String() string { return strings.Join(t.lines, "\n") }
