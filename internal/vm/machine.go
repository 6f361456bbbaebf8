package vm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bytestep/internal/disasm"
)

// ErrDivideByZero is returned by Simulate for idiv or irem with a zero
// divisor. It ends the simulate call; there is no fallback value.
var ErrDivideByZero = errors.New("division by zero")

const (
	stringBuilderClass = "java/lang/StringBuilder"
	systemOut          = "java/lang/System.out"
	systemErr          = "java/lang/System.err"
)

// Machine replays instructions against a Frame. The constant pool is only
// read.
type Machine struct {
	Frame *Frame

	pool   *disasm.ConstantPool
	output []string
}

// NewMachine returns a machine over pool with a frame seeded with seed.
func NewMachine(pool *disasm.ConstantPool, seed []Variable) *Machine {
	return &Machine{
		Frame: NewFrame(seed),
		pool:  pool,
	}
}

// Output returns the program output log, one entry per println.
func (m *Machine) Output() []string {
	out := make([]string, len(m.output))
	copy(out, m.output)
	return out
}

// OutputText is the output log joined as the program would have printed it.
func (m *Machine) OutputText() string { return strings.Join(m.output, "") }

// Reset reseeds the frame and clears the output log.
func (m *Machine) Reset(seed []Variable) {
	m.Frame.Reset(seed)
	m.output = m.output[:0]
}

// Simulate executes one instruction. Unknown opcodes are no-ops and an
// operation that would underflow the stack is skipped.
func (m *Machine) Simulate(in disasm.Instruction, tr *Trace) error {
	f := m.Frame

	switch in.Opcode {
	case "ldc", "ldc_w", "ldc2_w":
		m.loadConstant(in, tr)

	case "getstatic":
		// System.out / System.err only give context to the following
		// invokevirtual; nothing is pushed.
		if m.refers(in, systemOut) || m.refers(in, systemErr) {
			tr.Add("Referenced output stream")
		}

	case "invokevirtual":
		m.invokeVirtual(in, tr)

	case "new":
		if m.refers(in, stringBuilderClass) {
			f.Push(StringValue(""))
			tr.Add("Created new StringBuilder")
		}

	case "istore_1":
		m.store(in, "a", tr)
	case "istore_2":
		m.store(in, "b", tr)

	case "iconst_5":
		f.Push(IntValue(5))
		tr.Add("Pushed constant 5 to stack")

	case "bipush":
		n, err := strconv.ParseInt(strings.TrimSpace(in.Operands), 10, 64)
		if err != nil {
			tr.Addf("Ignored bipush with operand %q", in.Operands)
			return nil
		}
		f.Push(IntValue(n))
		tr.Addf("Pushed constant %d to stack", n)

	case "iadd", "isub", "imul", "idiv", "irem":
		return m.arith(in, tr)
	}
	return nil
}

// refers reports whether in mentions s in its operands, its comment or the
// pool entry its operand points at.
func (m *Machine) refers(in disasm.Instruction, s string) bool {
	if in.References(s) {
		return true
	}
	if idx, ok := disasm.PoolIndex(in.Operands); ok {
		if ref, ok := m.pool.Ref(idx); ok {
			return strings.Contains(ref.Target, s)
		}
	}
	return false
}

func (m *Machine) loadConstant(in disasm.Instruction, tr *Trace) {
	f := m.Frame
	if idx, ok := disasm.PoolIndex(in.Operands); ok {
		if s, ok := m.pool.String(idx); ok {
			f.Push(StringValue(s))
			tr.Addf("Loaded string constant: %s", s)
			return
		}
	}

	raw := strings.TrimSpace(in.Operands)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		f.Push(IntValue(n))
		tr.Addf("Loaded constant: %d", n)
		return
	}
	if x, err := strconv.ParseFloat(raw, 64); err == nil {
		v := FloatValue(x)
		f.Push(v)
		tr.Addf("Loaded constant: %s", v.Text())
		return
	}
	f.Push(NullValue())
	tr.Addf("Unresolved constant %s, pushed null", raw)
}

func (m *Machine) invokeVirtual(in disasm.Instruction, tr *Trace) {
	f := m.Frame

	switch {
	case m.refers(in, "println"):
		v, ok := f.Pop()
		if !ok {
			return
		}
		text := v.Text()
		m.output = append(m.output, text+"\n")
		tr.Addf("Program output: %s", text)

	case m.refers(in, "append"):
		if f.Depth() < 2 {
			return
		}
		value, _ := f.Pop()
		builder, _ := f.Pop()
		f.Push(StringValue(builder.Text() + value.Text()))
		tr.Addf("Appended: %s to %s", value.Text(), builder.Text())

	case m.refers(in, "toString"):
		v, ok := f.Pop()
		if !ok {
			return
		}
		f.Push(StringValue(v.Text()))
		tr.Addf("Converted to string: %s", v.Text())
	}
}

func (m *Machine) store(in disasm.Instruction, name string, tr *Trace) {
	v, ok := m.Frame.Pop()
	if !ok {
		return
	}
	m.Frame.Set(name, v)
	tr.Addf("Set variable '%s' = %s", name, v.Text())
}

func (m *Machine) arith(in disasm.Instruction, tr *Trace) error {
	f := m.Frame
	if f.Depth() < 2 {
		return nil
	}
	b, _ := f.Pop()
	a, _ := f.Pop()

	if !a.IsNumber() || !b.IsNumber() {
		f.Push(NullValue())
		tr.Addf("%s on non-numeric operands %s and %s, pushed null", in.Opcode, a.Text(), b.Text())
		return nil
	}

	r, err := Apply(in.Opcode, a, b)
	if err != nil {
		tr.Addf("%s %s by %s failed: %v", in.Opcode, a.Text(), b.Text(), err)
		return fmt.Errorf("%s at offset %d: %w", in.Opcode, in.Offset, err)
	}
	f.Push(r)

	switch in.Opcode {
	case "iadd":
		tr.Addf("Added %s + %s = %s", a.Text(), b.Text(), r.Text())
	case "isub":
		tr.Addf("Subtracted %s - %s = %s", a.Text(), b.Text(), r.Text())
	case "imul":
		tr.Addf("Multiplied %s * %s = %s", a.Text(), b.Text(), r.Text())
	case "idiv":
		tr.Addf("Divided %s / %s = %s", a.Text(), b.Text(), r.Text())
	case "irem":
		tr.Addf("Remainder %s %% %s = %s", a.Text(), b.Text(), r.Text())
	}
	return nil
}

// Apply evaluates a binary integer opcode. Two ints give an int, anything
// else is computed in float64. Division floors toward negative infinity and
// the remainder takes the sign of the divisor.
func Apply(opcode string, a, b Value) (Value, error) {
	x, xok := a.Int()
	y, yok := b.Int()
	if xok && yok {
		switch opcode {
		case "iadd":
			return IntValue(x + y), nil
		case "isub":
			return IntValue(x - y), nil
		case "imul":
			return IntValue(x * y), nil
		case "idiv":
			if y == 0 {
				return Value{}, ErrDivideByZero
			}
			return IntValue(floorDiv(x, y)), nil
		case "irem":
			if y == 0 {
				return Value{}, ErrDivideByZero
			}
			return IntValue(floorMod(x, y)), nil
		}
		return Value{}, fmt.Errorf("unknown arithmetic opcode %q", opcode)
	}

	fx, xok := a.Float()
	fy, yok := b.Float()
	if !xok || !yok {
		return NullValue(), nil
	}
	switch opcode {
	case "iadd":
		return FloatValue(fx + fy), nil
	case "isub":
		return FloatValue(fx - fy), nil
	case "imul":
		return FloatValue(fx * fy), nil
	case "idiv":
		if fy == 0 {
			return Value{}, ErrDivideByZero
		}
		return FloatValue(math.Floor(fx / fy)), nil
	case "irem":
		if fy == 0 {
			return Value{}, ErrDivideByZero
		}
		r := math.Mod(fx, fy)
		if r != 0 && (r < 0) != (fy < 0) {
			r += fy
		}
		return FloatValue(r), nil
	}
	return Value{}, fmt.Errorf("unknown arithmetic opcode %q", opcode)
}

func floorDiv(x, y int64) int64 {
	q := x / y
	if x%y != 0 && (x < 0) != (y < 0) {
		q--
	}
	return q
}

func floorMod(x, y int64) int64 {
	r := x % y
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}
