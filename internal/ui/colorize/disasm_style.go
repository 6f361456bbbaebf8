package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// BytestepDark is the default style for listings: white mnemonics, teal
// names, pink numbers, golden strings.
var BytestepDark = styles.Register(chroma.MustNewStyle("bytestep-dark", chroma.StyleEntries{
	chroma.Text:           "#FFFFFF",
	chroma.Background:     "bg:#1e1e1e",
	chroma.Comment:        "#6A9955", // "// Method java/io/PrintStream.println"
	chroma.CommentSingle:  "#6A9955",
	chroma.CommentPreproc: "#6A9955",

	chroma.Keyword:       "#FFFFFF",
	chroma.KeywordPseudo: "#FFFFFF",
	chroma.Name:          "#FFFFFF", // mnemonics lex as names
	chroma.NameBuiltin:   "#7C9C9D",
	chroma.NameVariable:  "#7C9C9D",
	chroma.NameClass:     "#7C9C9D",

	chroma.LiteralNumber:        "#FF5F87",
	chroma.LiteralNumberHex:     "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",
	chroma.LiteralNumberFloat:   "#FF5F87",

	chroma.NameLabel:    "#FFD700",
	chroma.NameFunction: "#DCDCAA",

	chroma.Operator:    "#858585", // '#' pool references and ':'
	chroma.Punctuation: "#858585",

	chroma.String: "#EACD53",
}))
