package irb

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// TypeExprKind discriminates the four IR-level type expression shapes:
// int, ptr, ident, array.
type TypeExprKind int

const (
	TEInt TypeExprKind = iota
	TEPtr
	TEIdent
	TEArray
)

// TypeExpr is the type annotation attached to an IR variable, data entry
// or pointer-arithmetic/record-access instruction.
type TypeExpr struct {
	Kind TypeExprKind
	Width int // TEInt: bit width.
	Signed bool // TEInt: signedness.
	Inner *TypeExpr // TEPtr, TEArray: pointee/element type.
	Ident string // TEIdent: name of a Record declared in the owning Module.
	Length int // TEArray: element count.
}

// ---------------------
// ----- functions -----
// ---------------------

// NewIntType builds an integer type expression of the given width and
// signedness.
func NewIntType(width int, signed bool) *TypeExpr {
	return &TypeExpr{Kind: TEInt, Width: width, Signed: signed}
}

// NewPtrType builds a pointer-to-inner type expression.
func NewPtrType(inner *TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: TEPtr, Inner: inner}
}

// NewIdentType builds a type expression naming a record declared
// elsewhere in the module by name.
func NewIdentType(name string) *TypeExpr {
	return &TypeExpr{Kind: TEIdent, Ident: name}
}

// NewArrayType builds a fixed-length array-of-inner type expression.
func NewArrayType(inner *TypeExpr, length int) *TypeExpr {
	return &TypeExpr{Kind: TEArray, Inner: inner, Length: length}
}

func (t *TypeExpr) String() string {
	if t == nil {
		return "<none>"
	}
	switch t.Kind {
	case TEInt:
		sign := "u"
		if t.Signed {
			sign = "s"
		}
		return fmt.Sprintf("i%d%s", t.Width, sign)
	case TEPtr:
		return fmt.Sprintf("ptr(%s)", t.Inner.String())
	case TEIdent:
		return fmt.Sprintf("ident(%s)", t.Ident)
	case TEArray:
		return fmt.Sprintf("array(%s, %d)", t.Inner.String(), t.Length)
	}
	return "<invalid type expr>"
}
