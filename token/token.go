// Package token provides the source-range-carrying leaf type that every
// AST node keeps pointers to. The core never interprets a Token's text
// beyond comparing identifiers and parsing numeric/character literals; it
// otherwise only uses Tokens to format diagnostics.
package token

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Pos marks a single source location.
type Pos struct {
	Line int // 1-based line number.
	Col int // 1-based column number.
}

// Token is a single lexeme produced by the (out of scope) lexer/parser.
// The core treats Tokens as opaque except for Text and Ident.
type Token struct {
	File string // Source file name, for diagnostic formatting.
	Text string // Raw lexeme text, e.g. "123", "\"hi\"", "foo".
	Start Pos // First character of the lexeme.
	End Pos // One-past-last character of the lexeme.
	Ident string // Identifier the token denotes, if it is an identifier.
}

// ---------------------
// ----- functions -----
// ---------------------

// String renders the token the way a diagnostic printer would, so tests can
// assert formatted ranges without duplicating the format string.
func (t Token) String() string {
	return fmt.Sprintf("%s:%d:%d", t.File, t.Start.Line, t.Start.Col)
}

// Range formats the span between first and last:
// "<file>:<line>:<col>[-<line>:<col>]".
func Range(first, last Token) string {
	if first.File == "" {
		return ""
	}
	if first.Start == last.End || (first.Start.Line == last.End.Line && first.Start.Col == last.End.Col) {
		return fmt.Sprintf("%s:%d:%d", first.File, first.Start.Line, first.Start.Col)
	}
	if first.Start.Line == last.End.Line {
		return fmt.Sprintf("%s:%d:%d-%d", first.File, first.Start.Line, first.Start.Col, last.End.Col)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", first.File, first.Start.Line, first.Start.Col, last.End.Line, last.End.Col)
}
