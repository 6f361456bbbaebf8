package debugger

import (
	"errors"
	"strings"
	"testing"

	"bytestep/internal/vm"
)

// fourOps has offsets 0, 1, 3 and 4; the last is a println.
const fourOps = `line 3: 0
0: iconst_5
1: bipush 10
line 4: 3
3: iadd
4: invokevirtual #9 // Method java/io/PrintStream.println:(I)V
`

func TestResetIsIdempotent(t *testing.T) {
	s := New(fourOps)
	if s.State() != Stopped || s.PC() != 0 {
		t.Fatalf("new session state=%s pc=%d, want stopped at 0", s.State(), s.PC())
	}

	if _, err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if got := s.Reset(); got != "Program reset. Ready to run." {
		t.Errorf("Reset() = %q", got)
	}
	first := s.Stack()
	s.Reset()

	if s.State() != Stopped || s.PC() != 0 || len(s.Stack()) != 0 || len(first) != 0 {
		t.Errorf("after reset state=%s pc=%d stack=%v", s.State(), s.PC(), s.Stack())
	}
	if _, ok := s.LastBreakpoint(); ok {
		t.Error("reset kept the last breakpoint hit")
	}
	vars := s.Variables()
	if len(vars) != 2 || vars[0].Name != "a" || vars[1].Name != "b" {
		t.Errorf("variables = %v", vars)
	}
}

func TestStepToEnd(t *testing.T) {
	s := New(fourOps)
	n := len(s.Instructions())
	if n != 4 {
		t.Fatalf("parsed %d instructions, want 4", n)
	}

	for i := 0; i < n; i++ {
		trace, err := s.Step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !strings.Contains(trace, "Executing: ") || !strings.Contains(trace, "Current State:") {
			t.Errorf("step %d trace missing header or dump:\n%s", i, trace)
		}
		if i < n-1 && s.State() != Paused {
			t.Errorf("step %d state = %s, want paused", i, s.State())
		}
	}
	if s.State() != Stopped {
		t.Errorf("state after %d steps = %s, want stopped", n, s.State())
	}
	if got := s.OutputText(); got != "15\n" {
		t.Errorf("output = %q, want %q", got, "15\n")
	}

	for range 2 {
		trace, err := s.Step()
		if err != nil {
			t.Fatal(err)
		}
		if trace != "End of program reached." {
			t.Errorf("step past end = %q", trace)
		}
		if s.State() != Stopped || s.PC() != n {
			t.Errorf("step past end mutated state=%s pc=%d", s.State(), s.PC())
		}
	}
}

func TestStepTrace(t *testing.T) {
	s := New(fourOps)
	trace, err := s.Step()
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"Executing: 0: iconst_5",
		"Source line: 3",
		"Pushed constant 5 to stack",
		"",
		"Current State:",
		"PC: 1",
		"Stack: [5]",
		"Variables: a=5, b=10",
		"",
	}, "\n")
	if trace != want {
		t.Errorf("Step() trace =\n%q\nwant\n%q", trace, want)
	}
}

func TestRunWithoutBreakpointsDrains(t *testing.T) {
	s := New(fourOps)
	if _, err := s.RunToNextBreakpoint(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Stopped || !s.Done() {
		t.Errorf("state=%s done=%v, want stopped and done", s.State(), s.Done())
	}
	if got := s.OutputText(); got != "15\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRunToNextBreakpoint(t *testing.T) {
	s := New(fourOps)
	s.Breakpoints().Add(1)
	s.Breakpoints().Add(3)

	trace, err := s.RunToNextBreakpoint()
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != Paused || s.PC() != 1 {
		t.Fatalf("first run state=%s pc=%d, want paused at 1", s.State(), s.PC())
	}
	if !strings.Contains(trace, "Pushed constant 5 to stack\nBreakpoint hit at offset 1\n") {
		t.Errorf("trace = %q", trace)
	}
	if off, ok := s.LastBreakpoint(); !ok || off != 1 {
		t.Errorf("LastBreakpoint() = (%d, %v)", off, ok)
	}

	// resuming steps over the breakpoint it is parked on
	if _, err := s.RunToNextBreakpoint(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Paused || s.PC() != 2 {
		t.Fatalf("second run state=%s pc=%d, want paused at index 2", s.State(), s.PC())
	}
	if in, _ := s.CurrentInstruction(); in.Offset != 3 {
		t.Errorf("paused at offset %d, want 3", in.Offset)
	}

	if _, err := s.RunToNextBreakpoint(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Stopped {
		t.Errorf("third run state = %s, want stopped", s.State())
	}
}

func TestSkipCurrentOnlyForLastHit(t *testing.T) {
	s := New(fourOps)
	// step onto offset 1 without a sweep having halted there
	if _, err := s.Step(); err != nil {
		t.Fatal(err)
	}
	s.Breakpoints().Add(1)

	if _, err := s.RunToNextBreakpoint(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Paused || s.PC() != 1 {
		t.Errorf("state=%s pc=%d, want paused at 1", s.State(), s.PC())
	}
}

func TestBreakpointAtLastOffsetHaltsOnce(t *testing.T) {
	s := New("0: nop\n1: nop\n2: nop\n")
	s.Breakpoints().Add(2)

	if _, err := s.RunToNextBreakpoint(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Paused || s.PC() != 2 {
		t.Fatalf("state=%s pc=%d, want paused at 2", s.State(), s.PC())
	}
	if _, err := s.RunToNextBreakpoint(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Stopped || s.PC() != 3 {
		t.Errorf("state=%s pc=%d, want stopped at 3", s.State(), s.PC())
	}
}

func TestUnmatchedBreakpointNeverTriggers(t *testing.T) {
	s := New(fourOps)
	s.Breakpoints().Add(2)
	if _, err := s.RunToNextBreakpoint(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Stopped {
		t.Errorf("state = %s, want stopped", s.State())
	}
}

func TestRunLimit(t *testing.T) {
	s := New(fourOps)
	trace, err := s.RunToNextBreakpointLimit(2)
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != Paused || s.PC() != 2 {
		t.Errorf("state=%s pc=%d, want paused at 2", s.State(), s.PC())
	}
	if !strings.Contains(trace, "Instruction limit reached (2)") {
		t.Errorf("trace = %q", trace)
	}

	if _, err := s.RunToNextBreakpointLimit(2); err != nil {
		t.Fatal(err)
	}
	if s.State() != Stopped {
		t.Errorf("state = %s, want stopped", s.State())
	}
}

func TestDivideByZeroDoesNotAdvance(t *testing.T) {
	s := New("0: iconst_5\n1: bipush 0\n3: idiv\n4: nop\n")
	for range 2 {
		if _, err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}

	_, err := s.Step()
	if !errors.Is(err, vm.ErrDivideByZero) {
		t.Fatalf("error = %v, want ErrDivideByZero", err)
	}
	if s.PC() != 2 || s.State() != Paused {
		t.Errorf("after fault pc=%d state=%s, want 2 paused", s.PC(), s.State())
	}
	if st := s.Stack(); len(st) != 0 {
		t.Errorf("stack after fault = %v, want both operands popped", st)
	}

	s2 := New("0: iconst_5\n1: bipush 0\n3: idiv\n4: nop\n")
	if _, err := s2.RunToNextBreakpoint(); !errors.Is(err, vm.ErrDivideByZero) {
		t.Fatalf("run error = %v, want ErrDivideByZero", err)
	}
	if s2.PC() != 2 || s2.State() != Paused {
		t.Errorf("after run fault pc=%d state=%s, want 2 paused", s2.PC(), s2.State())
	}
}

func TestWithVariables(t *testing.T) {
	seed := []vm.Variable{{Name: "a", Value: vm.IntValue(1)}, {Name: "c", Value: vm.StringValue("x")}}
	s := New("0: nop\n", WithVariables(seed))

	if v, ok := s.Variable("c"); !ok || v.Text() != "x" {
		t.Errorf("c = (%v, %v)", v, ok)
	}
	if _, ok := s.Variable("b"); ok {
		t.Error("default variable b present with custom seed")
	}
}

func TestCurrentLine(t *testing.T) {
	s := New(fourOps)
	if line, ok := s.CurrentLine(); !ok || line != 3 {
		t.Errorf("CurrentLine() = (%d, %v), want (3, true)", line, ok)
	}
	s.RunToNextBreakpoint()
	if _, ok := s.CurrentLine(); ok {
		t.Error("CurrentLine() at end reported a line")
	}
}

func TestDebuggerWithoutProgram(t *testing.T) {
	d := NewDebugger()
	if d.Loaded() {
		t.Fatal("new debugger reports a program")
	}
	if _, err := d.Step(); !errors.Is(err, ErrNoProgram) {
		t.Errorf("Step() error = %v", err)
	}
	if got, err := d.Reset(); err != nil || got != "Program reset. Ready to run." {
		t.Errorf("Reset() without program = (%q, %v), want reset text and no error", got, err)
	}
	if _, err := d.RunToNextBreakpoint(); !errors.Is(err, ErrNoProgram) {
		t.Errorf("RunToNextBreakpoint() error = %v", err)
	}

	d.Load(fourOps)
	if _, err := d.Step(); err != nil {
		t.Errorf("Step() after Load: %v", err)
	}
	d.Unload()
	if _, err := d.Session(); !errors.Is(err, ErrNoProgram) {
		t.Errorf("Session() after Unload error = %v", err)
	}
}

func TestLoadReplacesSession(t *testing.T) {
	d := NewDebugger()
	first := d.Load(fourOps)
	first.Breakpoints().Add(3)

	second := d.Load("0: nop\n")
	if second == first || second.Breakpoints().Len() != 0 {
		t.Error("Load kept the previous session")
	}
}

func TestResumeFromOffsetTen(t *testing.T) {
	s := New("0: iconst_5\n5: nop\n10: bipush 10\n12: iadd\n")
	s.Breakpoints().Add(10)

	if _, err := s.RunToNextBreakpoint(); err != nil {
		t.Fatal(err)
	}
	if in, _ := s.CurrentInstruction(); s.State() != Paused || in.Offset != 10 {
		t.Fatalf("state=%s offset=%d, want paused at 10", s.State(), in.Offset)
	}

	trace, err := s.RunToNextBreakpoint()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(trace, "Breakpoint hit") || s.State() != Stopped {
		t.Errorf("resume re-halted or did not drain: state=%s\n%s", s.State(), trace)
	}
	if st := s.Stack(); len(st) != 1 || st[0].Text() != "15" {
		t.Errorf("stack = %v, want [15]", st)
	}
}
