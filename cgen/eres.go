package cgen

import (
	"cscore/ctypes"
	"cscore/irb"
	"cscore/token"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ValKind discriminates the lvalue/rvalue disciplines.
type ValKind int

const (
	Rvalue ValKind = iota
	Lvalue
)

// Result is the expression result aggregate, kept as a single
// sum-like struct to make the
// lvalue/rvalue/constant roles explicit fields rather than one opaque
// struct: VarName/ValKind carry the IR-value discipline, Type the C type,
// and ConstKnown/ConstInt/ConstSymbol the compile-time-constant tracking.
type Result struct {
	VarName *irb.Variable // address (lvalue) or value (rvalue); nil for a void result.
	ValKind ValKind
	Type ctypes.Type

	ValUsed bool // set for intrinsically side-effecting expressions.

	ConstKnown bool
	ConstInt int64
	ConstSymbol *irb.Variable // for pointer constants: &ConstSymbol + ConstInt.

	TFirst, TLast token.Token
}

// Void returns a sentinel result for an expression that yields no value.
func Void(first, last token.Token) Result {
	return Result{Type: ctypes.NewBasic(ctypes.Void), TFirst: first, TLast: last}
}

// IsVoid reports whether r carries no value.
func (r Result) IsVoid() bool { return r.Type.IsVoid() }

// ---------------------
// ----- functions -----
// ---------------------

// NewTemp allocates a fresh IR-level temporary of the given type in the
// current procedure.
func (c *Context) NewTemp(t *irb.TypeExpr) *irb.Variable {
	name := c.FreshLocalName("t")
	return c.Proc.CreateLocal(name, t)
}

// IRType lowers a C type to its IR-level type expression.
func (c *Context) IRType(t ctypes.Type) *irb.TypeExpr {
	switch t.Kind {
	case ctypes.KBasic:
		if t.Elem == ctypes.Void {
			return irb.NewIntType(0, false)
		}
		return irb.NewIntType(t.Elem.Width(), t.Elem.Signed())
	case ctypes.KPointer:
		return irb.NewPtrType(c.IRType(*t.Target))
	case ctypes.KArray:
		n := 0
		if t.SizeKnown {
			n = int(t.Size)
		}
		return irb.NewArrayType(c.IRType(*t.Target), n)
	case ctypes.KRecord:
		e := c.Registries.Records.Lookup(t.Record)
		return irb.NewIdentType(e.IRName)
	case ctypes.KEnum:
		return irb.NewIntType(16, true)
	case ctypes.KFunction:
		return irb.NewPtrType(irb.NewIntType(0, false))
	}
	return irb.NewIntType(16, true)
}
