// Package debugger drives the stack machine over a parsed listing: single
// stepping, breakpoint sweeps and reset, tracked by an explicit state
// machine.
//
// A Session is not safe for concurrent use. Callers serialise Step, Reset
// and the Run methods themselves.
package debugger

import (
	"io"

	"github.com/charmbracelet/log"

	"bytestep/internal/disasm"
	"bytestep/internal/vm"
)

const resetMessage = "Program reset. Ready to run."

// Option configures a Session.
type Option func(*options)

type options struct {
	seed   []vm.Variable
	logger *log.Logger
}

// WithVariables replaces the variables seeded on every reset.
func WithVariables(seed []vm.Variable) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithLogger routes session events to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Session owns one listing and its execution state.
type Session struct {
	stream  disasm.Stream
	lines   disasm.LineMap
	pool    *disasm.ConstantPool
	machine *vm.Machine

	state       State
	breakpoints *Breakpoints

	lastHit    int
	hasLastHit bool

	seed []vm.Variable
	log  *log.Logger
}

// New parses listing and returns a reset session.
func New(listing string, opts ...Option) *Session {
	o := options{seed: vm.DefaultVariables()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}

	stream := disasm.Parse(listing)
	pool := disasm.ParseConstantPool(listing)

	s := &Session{
		stream:      stream,
		lines:       disasm.BuildLineMap(stream),
		pool:        pool,
		machine:     vm.NewMachine(pool, o.seed),
		breakpoints: NewBreakpoints(),
		seed:        o.seed,
		log:         o.logger,
	}
	s.Reset()

	s.log.Debug("Listing loaded",
		"instructions", len(stream),
		"lines", len(s.lines),
		"constants", pool.Len())
	return s
}

// Reset clears the stack and output, rewinds to the first instruction and
// reseeds the variables. It always succeeds.
func (s *Session) Reset() string {
	s.machine.Reset(s.seed)
	s.hasLastHit = false
	s.lastHit = 0
	s.state = Stopped
	return resetMessage
}

// Step executes exactly one instruction. The step that consumes the last
// instruction leaves the session Stopped; past the end it only reports that.
func (s *Session) Step() (string, error) {
	tr := &vm.Trace{}
	f := s.machine.Frame

	if f.PC >= len(s.stream) {
		tr.Add("End of program reached.")
		s.state = Stopped
		return tr.String(), nil
	}

	s.state = Paused
	in := s.stream[f.PC]
	tr.Addf("Executing: %s", in.Text())
	if line, ok := in.SourceLine(); ok {
		tr.Addf("Source line: %d", line)
	}

	if err := s.machine.Simulate(in, tr); err != nil {
		s.log.Error("Simulation failed", "offset", in.Offset, "opcode", in.Opcode, "error", err)
		return tr.String(), err
	}
	f.PC++
	if f.PC >= len(s.stream) {
		s.state = Stopped
	}
	f.Dump(tr)
	return tr.String(), nil
}

// RunToNextBreakpoint executes until an instruction whose offset is a
// breakpoint, or until the stream is drained.
func (s *Session) RunToNextBreakpoint() (string, error) {
	return s.RunToNextBreakpointLimit(0)
}

// RunToNextBreakpointLimit is RunToNextBreakpoint that also pauses after
// limit simulated instructions. limit <= 0 means no limit.
//
// A sweep that starts on the breakpoint it last halted at steps over it
// once instead of halting again.
func (s *Session) RunToNextBreakpointLimit(limit int) (string, error) {
	tr := &vm.Trace{}
	f := s.machine.Frame
	s.state = Running

	skip, skipping := 0, false
	if f.PC < len(s.stream) && s.hasLastHit {
		if off := s.stream[f.PC].Offset; off == s.lastHit && s.breakpoints.Has(off) {
			skip, skipping = off, true
		}
	}

	executed := 0
	for f.PC < len(s.stream) {
		in := s.stream[f.PC]

		if s.breakpoints.Has(in.Offset) && !(skipping && in.Offset == skip) {
			s.lastHit, s.hasLastHit = in.Offset, true
			s.state = Paused
			s.log.Debug("Breakpoint hit", "offset", in.Offset, "pc", f.PC)
			tr.Addf("Breakpoint hit at offset %d", in.Offset)
			f.Dump(tr)
			return tr.String(), nil
		}
		skipping = false

		if limit > 0 && executed >= limit {
			s.state = Paused
			tr.Addf("Instruction limit reached (%d)", limit)
			f.Dump(tr)
			return tr.String(), nil
		}

		if err := s.machine.Simulate(in, tr); err != nil {
			s.state = Paused
			s.log.Error("Simulation failed", "offset", in.Offset, "opcode", in.Opcode, "error", err)
			return tr.String(), err
		}
		f.PC++
		executed++
	}

	s.state = Stopped
	f.Dump(tr)
	return tr.String(), nil
}

func (s *Session) State() State                { return s.state }
func (s *Session) PC() int                     { return s.machine.Frame.PC }
func (s *Session) Instructions() disasm.Stream { return s.stream }
func (s *Session) LineMap() disasm.LineMap     { return s.lines }
func (s *Session) Pool() *disasm.ConstantPool  { return s.pool }
func (s *Session) Breakpoints() *Breakpoints   { return s.breakpoints }
func (s *Session) Stack() []vm.Value           { return s.machine.Frame.Stack() }
func (s *Session) Variables() []vm.Variable    { return s.machine.Frame.Variables() }
func (s *Session) Output() []string            { return s.machine.Output() }
func (s *Session) OutputText() string          { return s.machine.OutputText() }
func (s *Session) Done() bool                  { return s.PC() >= len(s.stream) }
func (s *Session) LastBreakpoint() (int, bool) { return s.lastHit, s.hasLastHit }

func (s *Session) Variable(name string) (vm.Value, bool) { return s.machine.Frame.Get(name) }

// CurrentInstruction is the instruction the next step will execute.
func (s *Session) CurrentInstruction() (disasm.Instruction, bool) {
	pc := s.PC()
	if pc < 0 || pc >= len(s.stream) {
		return disasm.Instruction{}, false
	}
	return s.stream[pc], true
}

// CurrentLine is the source line of the current instruction, if annotated.
func (s *Session) CurrentLine() (int, bool) {
	in, ok := s.CurrentInstruction()
	if !ok {
		return 0, false
	}
	return in.SourceLine()
}
