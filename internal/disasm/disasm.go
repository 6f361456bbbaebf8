// Package disasm defines the instruction representation recovered from a
// textual bytecode listing, and the parsers that build it.
package disasm

import (
	"fmt"
	"strings"
)

// Instruction is a single parsed listing row.
type Instruction struct {
	Offset   int    // offset as printed in the listing
	Opcode   string // mnemonic, as written
	Operands string // operand text without the trailing comment
	Comment  string // text after "//", if any
	Line     int    // source line, valid when HasLine is set
	HasLine  bool
}

// Text renders the instruction the way the listing shows it.
func (in Instruction) Text() string {
	if in.Operands == "" {
		return fmt.Sprintf("%d: %s", in.Offset, in.Opcode)
	}
	return fmt.Sprintf("%d: %s %s", in.Offset, in.Opcode, in.Operands)
}

// SourceLine returns the annotated source line, if there was one.
func (in Instruction) SourceLine() (int, bool) {
	return in.Line, in.HasLine
}

// References reports whether the operand or comment mentions s.
func (in Instruction) References(s string) bool {
	return strings.Contains(in.Operands, s) || strings.Contains(in.Comment, s)
}

// Stream is a linear sequence of instructions in listing order.
type Stream []Instruction

// IndexOf returns the stream index of the instruction at offset, or -1.
func (s Stream) IndexOf(offset int) int {
	for i, in := range s {
		if in.Offset == offset {
			return i
		}
	}
	return -1
}

// LineMap maps a source line to the stream indices annotated with it.
type LineMap map[int][]int

// BuildLineMap groups instruction indices by source line. Indices within a
// line are ascending.
func BuildLineMap(s Stream) LineMap {
	m := make(LineMap)
	for i, in := range s {
		if !in.HasLine {
			continue
		}
		m[in.Line] = append(m[in.Line], i)
	}
	return m
}

// Offsets returns the instruction offsets of a source line.
func (m LineMap) Offsets(line int, s Stream) []int {
	var out []int
	for _, idx := range m[line] {
		if idx >= 0 && idx < len(s) {
			out = append(out, s[idx].Offset)
		}
	}
	return out
}
