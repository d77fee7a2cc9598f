package ast

import "cscore/token"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// TypeName is a standalone type reference: `sizeof(T)`, `(T)e` casts, and
// array/parameter element types.
type TypeName struct {
	First, Last token.Token
	Specs DeclSpecs
	Declarator *Declarator // abstract declarator chain (pointer/array/function wrapping), may be nil.
}

func (t *TypeName) Span() (token.Token, token.Token) { return t.First, t.Last }

// Ident is an identifier reference.
type Ident struct {
	Tok token.Token
	Name string
}

func (e *Ident) Span() (token.Token, token.Token) { return e.Tok, e.Tok }
func (*Ident) exprNode() {}

// IntLit is an integer literal; Text is the original notation so the
// expression code generator can parse radix/width/sign suffixes and
// compare the parsed magnitude against the notated type.
type IntLit struct {
	Tok token.Token
	Text string
}

func (e *IntLit) Span() (token.Token, token.Token) { return e.Tok, e.Tok }
func (*IntLit) exprNode() {}

// CharLit is a (possibly wide, `L'x'`) character literal.
type CharLit struct {
	Tok token.Token
	Text string
	Wide bool
}

func (e *CharLit) Span() (token.Token, token.Token) { return e.Tok, e.Tok }
func (*CharLit) exprNode() {}

// StringLit is a (possibly wide) string literal, used for array
// initializers.
type StringLit struct {
	Tok token.Token
	Text string
	Wide bool
}

func (e *StringLit) Span() (token.Token, token.Token) { return e.Tok, e.Tok }
func (*StringLit) exprNode() {}

// ParenExpr preserves outer parentheses for diagnostic ranges.
type ParenExpr struct {
	First, Last token.Token
	X Expr
}

func (e *ParenExpr) Span() (token.Token, token.Token) { return e.First, e.Last }
func (*ParenExpr) exprNode() {}

// UnaryExpr is a prefix `+ - ! ~ * &` application.
type UnaryExpr struct {
	OpTok token.Token
	Op UnaryOp
	X Expr
}

func (e *UnaryExpr) Span() (token.Token, token.Token) { _, last := e.X.Span(); return e.OpTok, last }
func (*UnaryExpr) exprNode() {}

// AdjustExpr is ++/-- in prefix or postfix position.
type AdjustExpr struct {
	OpTok token.Token
	Op AdjustOp
	Prefix bool
	X Expr
}

func (e *AdjustExpr) Span() (token.Token, token.Token) {
	first, last := e.X.Span()
	if e.Prefix {
		return e.OpTok, last
	}
	return first, e.OpTok
}
func (*AdjustExpr) exprNode() {}

// BinaryExpr covers every two-operand operator (arithmetic,
// bitwise, shift, relational, equality, logical, comma, and assignment —
// assignment's LHS/RHS are still X/Y, Op one of the Op*Assign kinds).
type BinaryExpr struct {
	OpTok token.Token
	Op OperatorKind
	X, Y Expr
}

func (e *BinaryExpr) Span() (token.Token, token.Token) {
	first, _ := e.X.Span()
	_, last := e.Y.Span()
	return first, last
}
func (*BinaryExpr) exprNode() {}

// IndexExpr is `a[b]`.
type IndexExpr struct {
	First, Last token.Token
	X, Index Expr
}

func (e *IndexExpr) Span() (token.Token, token.Token) { return e.First, e.Last }
func (*IndexExpr) exprNode() {}

// MemberExpr is `e.m` or `e->m`.
type MemberExpr struct {
	First, Last token.Token
	X Expr
	MemberTok token.Token
	Member string
	Arrow bool
}

func (e *MemberExpr) Span() (token.Token, token.Token) { return e.First, e.Last }
func (*MemberExpr) exprNode() {}

// SizeofExpr is `sizeof expr`.
type SizeofExpr struct {
	First, Last token.Token
	X Expr
}

func (e *SizeofExpr) Span() (token.Token, token.Token) { return e.First, e.Last }
func (*SizeofExpr) exprNode() {}

// SizeofTypeExpr is `sizeof(T)` once the parenthesized identifier has been
// disambiguated as a typename.
type SizeofTypeExpr struct {
	First, Last token.Token
	Type *TypeName
}

func (e *SizeofTypeExpr) Span() (token.Token, token.Token) { return e.First, e.Last }
func (*SizeofTypeExpr) exprNode() {}

// CastExpr is `(T)e`.
type CastExpr struct {
	First, Last token.Token
	Type *TypeName
	X Expr
}

func (e *CastExpr) Span() (token.Token, token.Token) { return e.First, e.Last }
func (*CastExpr) exprNode() {}

// CallExpr is a function call; the callee must be a plain
// identifier.
type CallExpr struct {
	First, Last token.Token
	Callee *Ident
	Args []Expr
}

func (e *CallExpr) Span() (token.Token, token.Token) { return e.First, e.Last }
func (*CallExpr) exprNode() {}
