package debugger

// State is the execution state of a Session.
type State int

// List of execution states.
//
// Stopped is both the initial state and the state reached when the stream
// is exhausted. Running is only observed while a breakpoint sweep is in
// progress.
const (
	Stopped State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	}
	return ""
}
