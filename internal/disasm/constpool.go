package disasm

import (
	"regexp"
	"strconv"
	"strings"
)

// ConstantPoolHeading opens the constant pool region of a verbose listing.
const ConstantPoolHeading = "Constant pool:"

var (
	reStringEntry = regexp.MustCompile(`#(\d+)\s+=\s+String\s+#\d+\s+//\s+(.+)$`)
	reUtf8Entry   = regexp.MustCompile(`#(\d+)\s+=\s+Utf8\s+(.+)$`)
	reRefEntry    = regexp.MustCompile(`#(\d+)\s+=\s+(Methodref|InterfaceMethodref|Fieldref|Class|NameAndType)\s+\S+\s+//\s+(.+)$`)
	rePoolIndex   = regexp.MustCompile(`#(\d+)`)
)

// Ref is a symbolic constant pool entry, such as a method reference.
type Ref struct {
	Kind   string // Methodref, Fieldref, Class, ...
	Target string // the resolved name printed after "//"
}

// ConstantPool holds the literal values and symbolic references of a
// listing, keyed by pool index.
type ConstantPool struct {
	Strings map[int]string
	Refs    map[int]Ref
}

// String returns the string constant at idx.
func (p *ConstantPool) String(idx int) (string, bool) {
	if p == nil {
		return "", false
	}
	s, ok := p.Strings[idx]
	return s, ok
}

// Ref returns the symbolic reference at idx.
func (p *ConstantPool) Ref(idx int) (Ref, bool) {
	if p == nil {
		return Ref{}, false
	}
	r, ok := p.Refs[idx]
	return r, ok
}

// Len is the number of string constants.
func (p *ConstantPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Strings)
}

// PoolIndex extracts the first "#N" reference from operand text.
func PoolIndex(operands string) (int, bool) {
	m := rePoolIndex.FindStringSubmatch(operands)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseConstantPool extracts the constant pool region of a listing. A
// listing without one yields an empty pool.
func ParseConstantPool(text string) *ConstantPool {
	pool := &ConstantPool{
		Strings: make(map[int]string),
		Refs:    make(map[int]Ref),
	}

	inPool := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !inPool {
			if strings.Contains(line, ConstantPoolHeading) {
				inPool = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			break
		}

		if m := reStringEntry.FindStringSubmatch(line); m != nil {
			if idx, err := strconv.Atoi(m[1]); err == nil {
				pool.Strings[idx] = cleanValue(m[2])
			}
		}
		if m := reUtf8Entry.FindStringSubmatch(line); m != nil {
			if idx, err := strconv.Atoi(m[1]); err == nil {
				pool.Strings[idx] = cleanValue(m[2])
			}
		}
		if m := reRefEntry.FindStringSubmatch(line); m != nil {
			if idx, err := strconv.Atoi(m[1]); err == nil {
				pool.Refs[idx] = Ref{Kind: m[2], Target: strings.TrimSpace(m[3])}
			}
		}
	}
	return pool
}

func cleanValue(s string) string {
	s = strings.TrimRight(s, " \t")
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}
