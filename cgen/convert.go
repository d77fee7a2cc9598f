package cgen

import (
	"cscore/ctypes"
	"cscore/irb"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Explicitness discriminates the two conversion call sites
// distinguishes: a cast always suppresses the "may lose significant
// digits" class of warning, an implicit conversion does not.
type Explicitness int

const (
	Implicit Explicitness = iota
	Explicit
)

// ---------------------
// ----- functions -----
// ---------------------

// Convert implements the single type-conversion entry point of spec
// §4.8.2: (argument result, destination type, explicit|implicit).
func (c *Context) Convert(r Result, dst ctypes.Type, exp Explicitness) Result {
	if dst.IsVoid() {
		return Void(r.TFirst, r.TLast)
	}
	if r.Type.IsArray() {
		r = c.decayArray(r)
	}
	r = c.toRvalue(r)

	switch {
	case r.Type.IsBasic() && dst.IsBasic():
		return c.convertBasic(r, dst, exp)
	case r.Type.IsPointer() && dst.IsPointer():
		if exp == Implicit && !ctypes.PointerCompatible(*r.Type.Target, *dst.Target) {
			c.Warnf(r.TFirst, r.TLast, "comparison of incompatible pointer types")
		}
		r.Type = dst
		return r
	case r.Type.IsIntegral() && dst.IsPointer() && !r.Type.IsEnum():
		if exp == Implicit {
			c.Warnf(r.TFirst, r.TLast, "integer converted to pointer without a cast")
		}
		r.Type = dst
		return r
	case r.Type.IsRecord() && dst.IsRecord():
		if r.Type.Record != dst.Record {
			c.Errorf(r.TFirst, r.TLast, "incompatible record types in conversion")
		}
		r.Type = dst
		return r
	case r.Type.IsEnum() && dst.IsEnum():
		if r.Type.Enum != dst.Enum && exp == Implicit {
			c.Warnf(r.TFirst, r.TLast, "implicit conversion between distinct enum types")
		}
		r.Type = dst
		return r
	case r.Type.IsEnum() && !dst.IsEnum():
		r.Type = ctypes.NewInt(true, ctypes.NewBasic(ctypes.Int).Rank())
		return c.Convert(r, dst, exp)
	case !r.Type.IsEnum() && dst.IsEnum():
		if exp == Implicit {
			c.Warnf(r.TFirst, r.TLast, "implicit conversion of integer to enum type")
		}
		mid := c.convertBasic(r, ctypes.NewInt(true, ctypes.NewBasic(ctypes.Int).Rank()), exp)
		mid.Type = dst
		return mid
	case r.Type.IsLogic() && dst.IsIntegral():
		if exp == Implicit {
			c.Warnf(r.TFirst, r.TLast, "truth value used as an integer")
		}
		r.Type = dst
		return r
	}
	c.Errorf(r.TFirst, r.TLast, "cannot convert '%s' to '%s'", r.Type.String(), dst.String())
	r.Type = dst
	return r
}

// convertBasic handles integer<->integer truncation/widening and the
// passthrough/signedness-change case.
func (c *Context) convertBasic(r Result, dst ctypes.Type, exp Explicitness) Result {
	if r.Type.Elem == dst.Elem {
		return r
	}
	srcW, dstW := r.Type.Width(), dst.Width()
	switch {
	case srcW == dstW:
		if r.Type.Signed() != dst.Signed() && exp == Implicit {
			c.Warnf(r.TFirst, r.TLast, "sign changed in conversion")
		}
	case srcW > dstW:
		if exp == Implicit && !r.ConstKnown {
			c.Warnf(r.TFirst, r.TLast, "implicit conversion may lose significant digits")
		}
		dst2 := dst
		if r.ConstKnown {
			masked := maskTo(r.ConstInt, dstW, dst.Signed())
			if masked != r.ConstInt && exp == Implicit {
				c.Warnf(r.TFirst, r.TLast, "number changed in conversion")
			}
			r.ConstInt = masked
		}
		dst = dst2
		r.VarName = c.emitConv(irb.Trunc, r.VarName, dst)
	case srcW < dstW:
		kind := irb.ZrExt
		if r.Type.Signed() {
			kind = irb.SgnExt
		}
		r.VarName = c.emitConv(kind, r.VarName, dst)
	}
	r.Type = dst
	return r
}

func (c *Context) emitConv(kind irb.Kind, src *irb.Variable, dst ctypes.Type) *irb.Variable {
	if c.Proc == nil {
		return src // constant-expression mode: no IR emission.
	}
	t := c.IRType(dst)
	out := c.NewTemp(t)
	c.Emit(&irb.Instr{Kind: kind, Width: dst.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(src)}, Type: t})
	return out
}

// maskTo truncates v to width bits, sign-extending back if signed is set.
func maskTo(v int64, width int, signed bool) int64 {
	if width <= 0 || width >= 64 {
		return v
	}
	mask := int64(1)<<uint(width) - 1
	m := v & mask
	if signed && m&(int64(1)<<uint(width-1)) != 0 {
		m -= int64(1) << uint(width)
	}
	return m
}

// toRvalue performs lvalue->rvalue conversion, reading through a `read`
// instruction and clearing const_known except for the cases
// allows it to survive (here: never, since any local/global read is a
// true memory load in this simplified IR).
func (c *Context) toRvalue(r Result) Result {
	if r.ValKind == Rvalue {
		return r
	}
	if r.Type.IsRecord() || r.Type.IsArray() {
		// Spec §3: record/array results are always addresses, even when
		// notionally rvalue.
		r.ValKind = Rvalue
		return r
	}
	if c.Proc != nil {
		t := c.IRType(r.Type)
		out := c.NewTemp(t)
		c.Emit(&irb.Instr{Kind: irb.Read, Width: r.Type.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(r.VarName)}, Type: t})
		r.VarName = out
	}
	r.ValKind = Rvalue
	r.ConstKnown = false
	return r
}

// decayArray rewrites an array-typed result as the corresponding pointer
// type.
func (c *Context) decayArray(r Result) Result {
	r.Type = ctypes.NewPointer(*r.Type.Target)
	return r
}
