package debugger

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"bytestep/internal/disasm"
)

// Breakpoints is the set of listing offsets at which a run pauses. An
// offset that matches no instruction is allowed and simply never triggers.
type Breakpoints struct {
	offsets map[int]struct{}
}

func NewBreakpoints() *Breakpoints {
	return &Breakpoints{offsets: make(map[int]struct{})}
}

func (b *Breakpoints) Add(offset int) { b.offsets[offset] = struct{}{} }

func (b *Breakpoints) Remove(offset int) { delete(b.offsets, offset) }

func (b *Breakpoints) Has(offset int) bool {
	_, ok := b.offsets[offset]
	return ok
}

// Toggle flips the breakpoint at offset and reports whether it is now set.
func (b *Breakpoints) Toggle(offset int) bool {
	if b.Has(offset) {
		b.Remove(offset)
		return false
	}
	b.Add(offset)
	return true
}

func (b *Breakpoints) Clear() { clear(b.offsets) }

func (b *Breakpoints) Len() int { return len(b.offsets) }

// Offsets returns the breakpoint offsets in ascending order.
func (b *Breakpoints) Offsets() []int {
	return slices.Sorted(maps.Keys(b.offsets))
}

// AddLine sets a breakpoint on every instruction annotated with source line
// and returns how many offsets that was.
func (b *Breakpoints) AddLine(line int, lines disasm.LineMap, stream disasm.Stream) int {
	offsets := lines.Offsets(line, stream)
	for _, off := range offsets {
		b.Add(off)
	}
	return len(offsets)
}

func (b *Breakpoints) String() string {
	offs := b.Offsets()
	if len(offs) == 0 {
		return "no breakpoints"
	}
	s := make([]string, len(offs))
	for i, off := range offs {
		s[i] = fmt.Sprint(off)
	}
	return "breakpoints at " + strings.Join(s, ", ")
}
