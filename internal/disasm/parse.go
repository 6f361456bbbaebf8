package disasm

import (
	"strconv"
	"strings"
)

// Parse converts a listing into an instruction stream. Lines that are
// neither line markers nor instruction rows are skipped.
func Parse(text string) Stream {
	var (
		out     Stream
		line    int
		hasLine bool
	)

	for _, row := range strings.Split(text, "\n") {
		row = strings.TrimRight(row, "\r")

		if n, ok := scanLineMarker(row); ok {
			line, hasLine = n, true
		}

		in, ok := scanInstruction(row)
		if !ok {
			continue
		}
		in.Line, in.HasLine = line, hasLine
		out = append(out, in)
	}
	return out
}

// scanLineMarker finds the first "line N:" in row.
func scanLineMarker(row string) (int, bool) {
	rest := row
	for {
		i := strings.Index(rest, "line")
		if i < 0 {
			return 0, false
		}
		rest = rest[i+len("line"):]

		j := 0
		for j < len(rest) && isBlank(rest[j]) {
			j++
		}
		if j == 0 {
			continue
		}
		k := j
		for k < len(rest) && isDigit(rest[k]) {
			k++
		}
		if k == j || k >= len(rest) || rest[k] != ':' {
			continue
		}
		n, err := strconv.Atoi(rest[j:k])
		if err != nil {
			continue
		}
		return n, true
	}
}

// scanInstruction tokenises "offset: opcode [operands] [// comment]".
func scanInstruction(row string) (Instruction, bool) {
	i := 0
	for i < len(row) && isBlank(row[i]) {
		i++
	}

	start := i
	for i < len(row) && isDigit(row[i]) {
		i++
	}
	if i == start || i >= len(row) || row[i] != ':' {
		return Instruction{}, false
	}
	offset, err := strconv.Atoi(row[start:i])
	if err != nil {
		return Instruction{}, false
	}
	i++ // ':'

	gap := i
	for i < len(row) && isBlank(row[i]) {
		i++
	}
	if i == gap || i >= len(row) || !isIdentStart(row[i]) {
		return Instruction{}, false
	}

	start = i
	for i < len(row) && isIdentPart(row[i]) {
		i++
	}
	opcode := row[start:i]

	// the mnemonic must end at a blank, a comment or end of line
	rest := row[i:]
	if rest != "" && !isBlank(rest[0]) && !strings.HasPrefix(rest, "//") {
		return Instruction{}, false
	}

	var comment string
	if c := strings.Index(rest, "//"); c >= 0 {
		comment = strings.TrimSpace(rest[c+2:])
		rest = rest[:c]
	}

	return Instruction{
		Offset:   offset,
		Opcode:   opcode,
		Operands: strings.TrimSpace(rest),
		Comment:  comment,
	}, true
}

func isBlank(c byte) bool      { return c == ' ' || c == '\t' }
func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
