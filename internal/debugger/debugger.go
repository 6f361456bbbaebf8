package debugger

import "errors"

// ErrNoProgram is returned when a Debugger is driven before a listing has
// been loaded.
var ErrNoProgram = errors.New("no program loaded")

// Debugger holds at most one Session. Loading a listing discards the
// previous session together with its breakpoints.
type Debugger struct {
	session *Session
	opts    []Option
}

// NewDebugger returns an empty Debugger whose sessions are built with opts.
func NewDebugger(opts ...Option) *Debugger {
	return &Debugger{opts: opts}
}

// Load parses listing into a fresh session.
func (d *Debugger) Load(listing string) *Session {
	d.session = New(listing, d.opts...)
	return d.session
}

// Unload drops the current session.
func (d *Debugger) Unload() { d.session = nil }

func (d *Debugger) Loaded() bool { return d.session != nil }

// Session returns the loaded session or ErrNoProgram.
func (d *Debugger) Session() (*Session, error) {
	if d.session == nil {
		return nil, ErrNoProgram
	}
	return d.session, nil
}

// Reset always succeeds; without a program there is nothing to rewind.
func (d *Debugger) Reset() (string, error) {
	if d.session == nil {
		return resetMessage, nil
	}
	return d.session.Reset(), nil
}

func (d *Debugger) Step() (string, error) {
	s, err := d.Session()
	if err != nil {
		return "", err
	}
	return s.Step()
}

func (d *Debugger) RunToNextBreakpoint() (string, error) {
	s, err := d.Session()
	if err != nil {
		return "", err
	}
	return s.RunToNextBreakpoint()
}
