package styles

import "github.com/charmbracelet/lipgloss/v2"

// VS Code Dark colours used by the interactive debugger panes.
const (
	Foreground  = "#D4D4D4"
	Heading     = "#569CD6"
	Comment     = "#6A9955"
	Function    = "#DCDCAA"
	StringLit   = "#EACD53"
	Number      = "#B5CEA8"
	Selection   = "#264F78"
	LineNumber  = "#858585"
	Breakpoint  = "#FF5F87"
	StatusBg    = "235"
	StatusFg    = "252"
	BorderColor = "240"
)

var (
	// Pane frames the listing, trace and output views.
	Pane = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(BorderColor))

	PaneTitle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(Heading)).
		Bold(true)

	// CurrentRow marks the instruction the next step executes.
	CurrentRow = lipgloss.NewStyle().
		Background(lipgloss.Color(Selection)).
		Foreground(lipgloss.Color(Foreground))

	Cursor = lipgloss.NewStyle().
		Foreground(lipgloss.Color(Heading)).
		Bold(true)

	BreakpointMark = lipgloss.NewStyle().
		Foreground(lipgloss.Color(Breakpoint)).
		Bold(true)

	Gutter = lipgloss.NewStyle().
		Foreground(lipgloss.Color(LineNumber))

	Output = lipgloss.NewStyle().
		Foreground(lipgloss.Color(StringLit))

	Status = lipgloss.NewStyle().
		Background(lipgloss.Color(StatusBg)).
		Foreground(lipgloss.Color(StatusFg)).
		Padding(0, 1)

	ErrorText = lipgloss.NewStyle().
		Foreground(lipgloss.Color(Breakpoint))
)
