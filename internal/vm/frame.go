package vm

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Variable is a named slot of the variable table.
type Variable struct {
	Name  string
	Value Value
}

// DefaultVariables seeds the variable table on reset.
func DefaultVariables() []Variable {
	return []Variable{
		{Name: "a", Value: IntValue(5)},
		{Name: "b", Value: IntValue(10)},
	}
}

// Frame is the mutable execution state: operand stack, variables and
// program counter. PC is a stream index, not a listing offset.
type Frame struct {
	PC int

	stack []Value
	vars  *orderedmap.OrderedMap[string, Value]
}

// NewFrame returns a frame seeded with seed.
func NewFrame(seed []Variable) *Frame {
	f := &Frame{}
	f.Reset(seed)
	return f
}

// Reset empties the stack, rewinds the PC and reseeds the variables.
func (f *Frame) Reset(seed []Variable) {
	f.PC = 0
	f.stack = f.stack[:0]
	f.vars = orderedmap.New[string, Value]()
	for _, v := range seed {
		f.vars.Set(v.Name, v.Value)
	}
}

func (f *Frame) Push(v Value) { f.stack = append(f.stack, v) }

// Pop removes the top of the stack. ok is false on underflow.
func (f *Frame) Pop() (v Value, ok bool) {
	if len(f.stack) == 0 {
		return Value{}, false
	}
	v = f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, true
}

// Depth is the number of values on the stack.
func (f *Frame) Depth() int { return len(f.stack) }

// Stack returns a copy of the stack, bottom first.
func (f *Frame) Stack() []Value {
	out := make([]Value, len(f.stack))
	copy(out, f.stack)
	return out
}

func (f *Frame) Set(name string, v Value) { f.vars.Set(name, v) }

func (f *Frame) Get(name string) (Value, bool) { return f.vars.Get(name) }

// Variables returns the variable table in insertion order.
func (f *Frame) Variables() []Variable {
	out := make([]Variable, 0, f.vars.Len())
	for pair := f.vars.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Variable{Name: pair.Key, Value: pair.Value})
	}
	return out
}

// Dump appends the state block shown after every step.
func (f *Frame) Dump(tr *Trace) {
	items := make([]string, len(f.stack))
	for i, v := range f.stack {
		items[i] = v.Text()
	}
	vars := make([]string, 0, f.vars.Len())
	for pair := f.vars.Oldest(); pair != nil; pair = pair.Next() {
		vars = append(vars, fmt.Sprintf("%s=%s", pair.Key, pair.Value.Text()))
	}

	tr.Add("")
	tr.Add("Current State:")
	tr.Addf("PC: %d", f.PC)
	tr.Addf("Stack: [%s]", strings.Join(items, ", "))
	tr.Addf("Variables: %s", strings.Join(vars, ", "))
	tr.Add("")
}
