// Package snapshot captures the observable state of a debugger session so
// it can be written out as CBOR or JSON.
package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"bytestep/internal/debugger"
)

// canonical mode keeps snapshots of equal sessions byte-identical
var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Slot is a rendered stack value or variable.
type Slot struct {
	Name string `cbor:"name,omitempty" json:"name,omitempty"`
	Kind string `cbor:"kind" json:"kind"`
	Text string `cbor:"text" json:"text"`
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	State          string   `cbor:"state" json:"state"`
	PC             int      `cbor:"pc" json:"pc"`
	Instructions   int      `cbor:"instructions" json:"instructions"`
	Offset         *int     `cbor:"offset,omitempty" json:"offset,omitempty"`
	Line           *int     `cbor:"line,omitempty" json:"line,omitempty"`
	Stack          []Slot   `cbor:"stack" json:"stack"`
	Variables      []Slot   `cbor:"variables" json:"variables"`
	Output         []string `cbor:"output" json:"output"`
	Breakpoints    []int    `cbor:"breakpoints" json:"breakpoints"`
	LastBreakpoint *int     `cbor:"last_breakpoint,omitempty" json:"last_breakpoint,omitempty"`
}

// Capture copies the observable state of s.
func Capture(s *debugger.Session) *Snapshot {
	snap := &Snapshot{
		State:        s.State().String(),
		PC:           s.PC(),
		Instructions: len(s.Instructions()),
		Stack:        []Slot{},
		Variables:    []Slot{},
		Output:       s.Output(),
		Breakpoints:  s.Breakpoints().Offsets(),
	}

	if in, ok := s.CurrentInstruction(); ok {
		off := in.Offset
		snap.Offset = &off
	}
	if line, ok := s.CurrentLine(); ok {
		snap.Line = &line
	}
	if off, ok := s.LastBreakpoint(); ok {
		snap.LastBreakpoint = &off
	}

	for _, v := range s.Stack() {
		snap.Stack = append(snap.Stack, Slot{Kind: v.Kind().String(), Text: v.Text()})
	}
	for _, v := range s.Variables() {
		snap.Variables = append(snap.Variables, Slot{Name: v.Name, Kind: v.Value.Kind().String(), Text: v.Value.Text()})
	}
	return snap
}

// Marshal serializes a Snapshot to CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return encMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &s, nil
}
