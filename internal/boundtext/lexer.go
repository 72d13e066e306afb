package boundtext

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var BoundLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},

		{"String", `"(\\.|[^"\\])*"`, nil},

		// Keywords and Identifiers (order matters)
		{"Ident", `[a-zA-Z_$][a-zA-Z0-9_$]*`, nil},

		{"Integer", `[0-9]+`, nil},

		{"Operator", `(\|\||&&|==|!=|<=|>=|[-+*/%<>=!])`, nil},

		// Punctuation (must come after operators)
		{"Punctuation", `[{}()\[\];:,#]`, nil},

		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
