package disasm

import (
	"slices"
	"strings"
	"testing"
)

const helloListing = `Classfile /tmp/Hello.class
  Compiled from "Hello.java"
public class Hello
  minor version: 0
  major version: 61
Constant pool:
   #1 = Methodref          #2.#3          // java/lang/Object."<init>":()V
   #2 = Class              #4             // java/lang/Object
   #7 = Fieldref           #8.#9          // java/lang/System.out:Ljava/io/PrintStream;
  #13 = String             #14            // Hello
  #14 = Utf8               Hello
  #15 = Methodref          #16.#17        // java/io/PrintStream.println:(Ljava/lang/String;)V

{
  public static void main(java.lang.String[]);
    Code:
      stack=2, locals=1, args_size=1
      line 3: 0
         0: getstatic     #7                  // Field java/lang/System.out:Ljava/io/PrintStream;
         3: ldc           #13                 // String Hello
         5: invokevirtual #15                 // Method java/io/PrintStream.println:(Ljava/lang/String;)V
      line 4: 8
         8: return
}
`

func TestParseHello(t *testing.T) {
	stream := Parse(helloListing)

	want := []Instruction{
		{Offset: 0, Opcode: "getstatic", Operands: "#7", Comment: "Field java/lang/System.out:Ljava/io/PrintStream;", Line: 3, HasLine: true},
		{Offset: 3, Opcode: "ldc", Operands: "#13", Comment: "String Hello", Line: 3, HasLine: true},
		{Offset: 5, Opcode: "invokevirtual", Operands: "#15", Comment: "Method java/io/PrintStream.println:(Ljava/lang/String;)V", Line: 3, HasLine: true},
		{Offset: 8, Opcode: "return", Line: 4, HasLine: true},
	}
	if len(stream) != len(want) {
		t.Fatalf("Parse() returned %d instructions, want %d: %+v", len(stream), len(want), stream)
	}
	for i := range want {
		if stream[i] != want[i] {
			t.Errorf("instruction %d:\n got  %+v\n want %+v", i, stream[i], want[i])
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Stream
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "no markers",
			input: "0: iconst_5\n1: bipush 10\n3: iadd\n",
			want: []Instruction{
				{Offset: 0, Opcode: "iconst_5"},
				{Offset: 1, Opcode: "bipush", Operands: "10"},
				{Offset: 3, Opcode: "iadd"},
			},
		},
		{
			name:  "nearest preceding marker",
			input: "line 7: 0\n0: iconst_5\nline 8: 1\n1: istore_1\n2: return\n",
			want: []Instruction{
				{Offset: 0, Opcode: "iconst_5", Line: 7, HasLine: true},
				{Offset: 1, Opcode: "istore_1", Line: 8, HasLine: true},
				{Offset: 2, Opcode: "return", Line: 8, HasLine: true},
			},
		},
		{
			name:  "instructions before the first marker have no line",
			input: "0: nop\nline 2: 1\n1: nop\n",
			want: []Instruction{
				{Offset: 0, Opcode: "nop"},
				{Offset: 1, Opcode: "nop", Line: 2, HasLine: true},
			},
		},
		{
			name:  "digits in mnemonic",
			input: "  12: istore_2\n  13: ldc2_w #4\n",
			want: []Instruction{
				{Offset: 12, Opcode: "istore_2"},
				{Offset: 13, Opcode: "ldc2_w", Operands: "#4"},
			},
		},
		{
			name:  "crlf",
			input: "line 1: 0\r\n0: iconst_5\r\n1: return\r\n",
			want: []Instruction{
				{Offset: 0, Opcode: "iconst_5", Line: 1, HasLine: true},
				{Offset: 1, Opcode: "return", Line: 1, HasLine: true},
			},
		},
		{
			name:  "tabs and comment without operands",
			input: "\t4:\treturn\t// done\n",
			want: []Instruction{
				{Offset: 4, Opcode: "return", Comment: "done"},
			},
		},
		{
			name:  "non instruction rows are skipped",
			input: "stack=2, locals=1\n0 iconst_5\n1:iconst_5\n2: 5x\nCode:\n3: nop\n",
			want: []Instruction{
				{Offset: 3, Opcode: "nop"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Parse() =\n %+v\nwant\n %+v", got, tt.want)
			}
		})
	}
}

func TestScanLineMarker(t *testing.T) {
	tests := []struct {
		row    string
		want   int
		wantOK bool
	}{
		{"line 5: 0", 5, true},
		{"        line 12: 8", 12, true},
		{"LineNumberTable:", 0, false},
		{"line5: 0", 0, false},
		{"line x: 0", 0, false},
		{"no marker here", 0, false},
		{"// newline 3 and line 9: 4", 9, true},
	}
	for _, tt := range tests {
		got, ok := scanLineMarker(tt.row)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("scanLineMarker(%q) = (%d, %v), want (%d, %v)", tt.row, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLineMap(t *testing.T) {
	stream := Parse("line 3: 0\n0: iconst_5\n1: istore_1\nline 4: 2\n2: return\n")
	lines := BuildLineMap(stream)

	if got := lines.Offsets(3, stream); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("Offsets(3) = %v, want [0 1]", got)
	}
	if got := lines.Offsets(4, stream); !slices.Equal(got, []int{2}) {
		t.Errorf("Offsets(4) = %v, want [2]", got)
	}
	if got := lines.Offsets(99, stream); got != nil {
		t.Errorf("Offsets(99) = %v, want nil", got)
	}
	if got := stream.IndexOf(2); got != 2 {
		t.Errorf("IndexOf(2) = %d, want 2", got)
	}
	if got := stream.IndexOf(7); got != -1 {
		t.Errorf("IndexOf(7) = %d, want -1", got)
	}
}

func TestInstructionText(t *testing.T) {
	in := Instruction{Offset: 5, Opcode: "invokevirtual", Operands: "#15", Comment: "Method println"}
	if got := in.Text(); got != "5: invokevirtual #15" {
		t.Errorf("Text() = %q", got)
	}
	if !in.References("println") {
		t.Error("References(println) = false, want true")
	}
	if got := (Instruction{Offset: 8, Opcode: "return"}).Text(); got != "8: return" {
		t.Errorf("Text() = %q", got)
	}
}

func TestParseLongLine(t *testing.T) {
	huge := "  #1 = Utf8 " + strings.Repeat("x", 2<<20)
	input := "0: iconst_5\n" + huge + "\n1: bipush 10\n3: iadd\n"

	got := Parse(input)
	want := Stream{
		{Offset: 0, Opcode: "iconst_5"},
		{Offset: 1, Opcode: "bipush", Operands: "10"},
		{Offset: 3, Opcode: "iadd"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Parse() after a %d byte line = %+v, want %+v", len(huge), got, want)
	}
}
