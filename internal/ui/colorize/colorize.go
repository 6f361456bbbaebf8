package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Disabled reports whether highlighting is switched off.
func Disabled() bool {
	return os.Getenv("BYTESTEP_NO_COLOR") != ""
}

// getListingLexer returns a lexer for bytecode listings with fallbacks. The
// java lexer handles "//" comments and numbers; assembly lexers are close
// enough otherwise.
func getListingLexer() chroma.Lexer {
	candidates := []string{"java", "nasm", "gas"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getStyle returns the named style, then our own, then fallbacks
func getStyle(theme string) *chroma.Style {
	candidates := []string{theme, "bytestep-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if name == "" {
			continue
		}
		if style := styles.Get(name); style != nil && style.Name == name {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

func highlight(code, theme string) (string, error) {
	lexer := getListingLexer()
	if lexer == nil {
		return code, nil
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getStyle(theme), iterator); err != nil {
		return code, err
	}
	return buf.String(), nil
}

// ColorizeInstructionLine colours one "offset: opcode operands" row, with
// the offset in gray and the rest through chroma. Rows that do not start
// with an offset are highlighted whole.
func ColorizeInstructionLine(line, theme string) string {
	if Disabled() {
		return line
	}

	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]

	colon := strings.IndexByte(trimmed, ':')
	if colon <= 0 || !isDecimal(trimmed[:colon]) {
		return colorizeFullLine(line, theme)
	}

	offset := trimmed[:colon+1]
	rest := trimmed[colon+1:]

	return fmt.Sprintf("%s\033[38;2;79;79;79m%s\033[0m%s", indent, offset, colorizeFullLine(rest, theme))
}

// ColorizeTraceLine highlights the lines of a step trace that carry the
// most information.
func ColorizeTraceLine(line string) string {
	if Disabled() {
		return line
	}
	switch {
	case strings.HasPrefix(line, "Executing:"):
		return fmt.Sprintf("\033[38;2;220;220;170m%s\033[0m", line)
	case strings.HasPrefix(line, "Program output:"):
		return fmt.Sprintf("\033[38;2;234;205;83m%s\033[0m", line)
	case strings.HasPrefix(line, "Breakpoint hit"):
		return fmt.Sprintf("\033[38;2;255;95;135m%s\033[0m", line)
	case strings.HasPrefix(line, "Current State:"),
		strings.HasPrefix(line, "PC:"),
		strings.HasPrefix(line, "Stack:"),
		strings.HasPrefix(line, "Variables:"):
		return fmt.Sprintf("\033[38;2;124;156;157m%s\033[0m", line)
	}
	return line
}

// ColorizeTrace highlights every line of a trace.
func ColorizeTrace(trace string) string {
	lines := strings.Split(trace, "\n")
	for i, l := range lines {
		lines[i] = ColorizeTraceLine(l)
	}
	return strings.Join(lines, "\n")
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// colorizeFullLine uses Chroma to colorize a listing line
func colorizeFullLine(line, theme string) string {
	out, err := highlight(line, theme)
	if err != nil {
		return line
	}
	// formatters may end with a reset and newline the input didn't have
	if !strings.HasSuffix(line, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}
