package cmd

import (
	"errors"
	"fmt"
	pathpkg "path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"bytestep/internal/bytestep/styles"
	"bytestep/internal/config"
	"bytestep/internal/debugger"
	"bytestep/internal/ui/colorize"
	"bytestep/internal/vm"
)

type keyMap struct {
	Step       key.Binding
	Continue   key.Binding
	Reset      key.Binding
	Toggle     key.Binding
	Up         key.Binding
	Down       key.Binding
	ClearBreak key.Binding
	Quit       key.Binding
}

// newKeyMap returns the default bindings with any overrides from the
// config's [keys] table applied.
func newKeyMap(overrides map[string]string) keyMap {
	bind := func(action string, def ...string) key.Binding {
		keys := def
		if k, ok := overrides[action]; ok && k != "" {
			keys = []string{k}
		}
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], action))
	}
	return keyMap{
		Step:       bind("step", "s", "n"),
		Continue:   bind("continue", "c", "f5"),
		Reset:      bind("reset", "r"),
		Toggle:     bind("break", "b"),
		Up:         bind("up", "up", "k"),
		Down:       bind("down", "down", "j"),
		ClearBreak: bind("clear", "B"),
		Quit:       bind("quit", "q", "ctrl+c"),
	}
}

func (k keyMap) help() string {
	var parts []string
	for _, b := range []key.Binding{k.Step, k.Continue, k.Reset, k.Up, k.Down, k.Toggle, k.ClearBreak, k.Quit} {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ToUpper(h.Key), h.Desc))
	}
	return " " + strings.Join(parts, " • ") + " "
}

type debugModel struct {
	name    string
	session *debugger.Session
	cfg     *config.Config
	keys    keyMap

	listing viewport.Model
	trace   viewport.Model
	output  viewport.Model

	lastTrace string
	err       error
	width     int
	height    int
	listingH  int

	// cursor is the listing row b toggles; it follows the PC after every
	// step, run or reset.
	cursor int
}

func newDebugModel(name string, s *debugger.Session, cfg *config.Config) debugModel {
	m := debugModel{
		name:      name,
		session:   s,
		cfg:       cfg,
		keys:      newKeyMap(cfg.Keys),
		listing:   viewport.New(),
		trace:     viewport.New(),
		output:    viewport.New(),
		lastTrace: s.Reset(),
		width:     80,
		height:    24,
	}
	m.resize()
	m.refresh()
	return m
}

func (m debugModel) Init() tea.Cmd {
	return nil
}

func (m debugModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.resize()
			m.refresh()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Step):
			m.lastTrace, m.err = m.session.Step()
			m.followPC()
		case key.Matches(msg, m.keys.Continue):
			m.lastTrace, m.err = m.session.RunToNextBreakpointLimit(m.cfg.InstructionLimit)
			m.followPC()
		case key.Matches(msg, m.keys.Reset):
			m.lastTrace, m.err = m.session.Reset(), nil
			m.followPC()
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-1)
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(1)
		case key.Matches(msg, m.keys.Toggle):
			m.toggleAtCursor()
		case key.Matches(msg, m.keys.ClearBreak):
			m.session.Breakpoints().Clear()
		default:
			var cmd tea.Cmd
			m.listing, cmd = m.listing.Update(msg)
			return m, cmd
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.listing, cmd = m.listing.Update(msg)
	return m, cmd
}

// moveCursor shifts the cursor by delta rows, clamped to the listing.
func (m *debugModel) moveCursor(delta int) {
	n := len(m.session.Instructions())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
}

func (m *debugModel) followPC() {
	m.cursor = 0
	m.moveCursor(m.session.PC())
}

// toggleAtCursor flips the breakpoint on the offset under the cursor.
func (m *debugModel) toggleAtCursor() {
	stream := m.session.Instructions()
	if m.cursor < 0 || m.cursor >= len(stream) {
		return
	}
	m.session.Breakpoints().Toggle(stream[m.cursor].Offset)
}

// resize splits the screen: listing on the left, trace above output on the
// right, one status row at the bottom. Pane borders take two cells.
func (m *debugModel) resize() {
	bodyH := max(m.height-1, 6)
	leftW := max(m.width*55/100, 20)
	rightW := max(m.width-leftW, 20)

	m.listingH = bodyH - 3
	m.listing.SetWidth(leftW - 2)
	m.listing.SetHeight(m.listingH)

	traceH := bodyH * 2 / 3
	m.trace.SetWidth(rightW - 2)
	m.trace.SetHeight(max(traceH-3, 1))
	m.output.SetWidth(rightW - 2)
	m.output.SetHeight(max(bodyH-traceH-3, 1))
}

// refresh re-renders all panes from the session.
func (m *debugModel) refresh() {
	m.listing.SetContent(m.renderListing())

	// keep the cursor row in view
	m.listing.SetYOffset(max(m.cursor-m.listingH/2, 0))

	trace := m.lastTrace
	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, vm.ErrDivideByZero) {
			msg = "arithmetic fault: " + msg
		}
		trace += "\n" + styles.ErrorText.Render(msg)
	}
	m.trace.SetContent(colorize.ColorizeTrace(trace))
	m.trace.GotoBottom()

	m.output.SetContent(styles.Output.Render(m.session.OutputText()))
	m.output.GotoBottom()
}

func (m debugModel) renderListing() string {
	stream := m.session.Instructions()
	if len(stream) == 0 {
		return styles.Gutter.Render("no instructions found in listing")
	}

	bps := m.session.Breakpoints()
	pc := m.session.PC()

	var b strings.Builder
	for i, in := range stream {
		mark := " "
		if bps.Has(in.Offset) {
			mark = styles.BreakpointMark.Render("●")
		}
		line := "    "
		if n, ok := in.SourceLine(); ok {
			line = fmt.Sprintf("%4d", n)
		}
		gutter := styles.Gutter.Render(line)

		cur := " "
		if i == m.cursor {
			cur = styles.Cursor.Render("›")
		}

		var row string
		if i == pc {
			row = styles.CurrentRow.Render("▶ " + in.Text())
		} else {
			row = "  " + colorize.ColorizeInstructionLine(in.Text(), m.cfg.Theme)
		}
		fmt.Fprintf(&b, "%s%s %s %s", cur, mark, gutter, row)
		if i < len(stream)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m debugModel) View() string {
	title := func(s string) string { return styles.PaneTitle.Render(s) }

	left := styles.Pane.Render(lipgloss.JoinVertical(lipgloss.Left,
		title(pathpkg.Base(m.name)),
		m.listing.View(),
	))
	right := lipgloss.JoinVertical(lipgloss.Left,
		styles.Pane.Render(lipgloss.JoinVertical(lipgloss.Left, title("Trace"), m.trace.View())),
		styles.Pane.Render(lipgloss.JoinVertical(lipgloss.Left, title("Output"), m.output.View())),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return body + "\n" + styles.Status.Width(m.width).Render(m.status())
}

func (m debugModel) status() string {
	s := m.session
	where := "end"
	if in, ok := s.CurrentInstruction(); ok {
		where = fmt.Sprintf("offset %d", in.Offset)
		if line, ok := s.CurrentLine(); ok {
			where += fmt.Sprintf(", line %d", line)
		}
	}
	return fmt.Sprintf("%s • pc %d/%d • %s • %s •%s",
		s.State(), s.PC(), len(s.Instructions()), where, s.Breakpoints(), m.keys.help())
}
