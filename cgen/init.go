package cgen

import (
	"cscore/ast"
	"cscore/ctypes"
	"cscore/irb"
	"cscore/token"
)

// ----------------------------
// ----- functions -----------
// ----------------------------

// inferArraySize walks a declarator's top-level initializer to size an
// array declared without an explicit bound, `int a[] = {1, 2, 3}` (spec
// §4.7: "array size inferred from initializer length when the
// declarator omits one").
func (c *Context) inferArraySize(t ctypes.Type, init ast.Initializer) ctypes.Type {
	if !t.IsArray() || t.SizeKnown || init == nil {
		return t
	}
	switch in := init.(type) {
	case *ast.ListInit:
		return ctypes.NewArray(*t.Target, true, uint64(len(in.Items)))
	case *ast.ExprInit:
		if s, ok := in.Expr.(*ast.StringLit); ok {
			sr := c.exprStringLit(s)
			return ctypes.NewArray(*t.Target, true, sr.Type.Size)
		}
	}
	return t
}

// processInitializer lowers one declarator's initializer into the IR
// stores needed to populate dst, an address of type t.
func (c *Context) processInitializer(dst *irb.Variable, t ctypes.Type, init ast.Initializer, name string) {
	switch in := init.(type) {
	case *ast.ExprInit:
		c.initScalarOrDecay(dst, t, in, name)
	case *ast.ListInit:
		c.initCompound(dst, t, in, name)
	}
}

// initScalarOrDecay implements `T x = expr;`, including the legal-but-
// warned brace-wrapped scalar form `T x = { expr };` and a string literal
// initializing a char array.
func (c *Context) initScalarOrDecay(dst *irb.Variable, t ctypes.Type, in *ast.ExprInit, name string) {
	if in.Braced {
		c.Warnf(in.First, in.Last, "braces around scalar initializer for '%s'", name)
	}
	if t.IsArray() {
		s, ok := in.Expr.(*ast.StringLit)
		if !ok {
			c.Errorf(in.First, in.Last, "array initializer must be a brace-enclosed list or string literal")
			return
		}
		sr := c.exprStringLit(s)
		c.copyArrayFrom(dst, t, sr, in.First, in.Last)
		return
	}
	v := c.Expr(in.Expr)
	cv := c.Convert(v, t, Implicit)
	c.storeAddr(dst, t, cv)
}

// initCompound implements brace-enclosed array/record initializers,
// including partial lists (remaining elements zero-filled) and excess-
// element diagnostics.
func (c *Context) initCompound(dst *irb.Variable, t ctypes.Type, in *ast.ListInit, name string) {
	if !in.Bracketed {
		c.Warnf(in.First, in.Last, "initializer for '%s' is not fully bracketed", name)
	}
	switch {
	case t.IsArray():
		elem := *t.Target
		n := len(in.Items)
		if t.SizeKnown && n > int(t.Size) {
			c.Errorf(in.First, in.Last, "excess elements in array initializer for '%s'", name)
			n = int(t.Size)
		}
		for i := 0; i < n; i++ {
			addr := c.elementAddr(dst, elem, i)
			c.processInitializer(addr, elem, in.Items[i], name)
		}
		if t.SizeKnown {
			for i := n; i < int(t.Size); i++ {
				addr := c.elementAddr(dst, elem, i)
				c.zeroFill(addr, elem)
			}
		}
	case t.IsRecord():
		entry := c.Registries.Records.Lookup(t.Record)
		n := len(in.Items)
		if n > len(entry.Members) {
			c.Errorf(in.First, in.Last, "excess elements in struct initializer for '%s'", name)
			n = len(entry.Members)
		}
		for i := 0; i < n; i++ {
			m := entry.Members[i]
			_, offset, _ := c.Registries.Records.Member(t.Record, m.Name)
			addr := c.memberAddr(dst, m.Type, offset)
			c.processInitializer(addr, m.Type, in.Items[i], name)
		}
		for i := n; i < len(entry.Members); i++ {
			m := entry.Members[i]
			_, offset, _ := c.Registries.Records.Member(t.Record, m.Name)
			addr := c.memberAddr(dst, m.Type, offset)
			c.zeroFill(addr, m.Type)
		}
	default:
		if len(in.Items) != 1 {
			c.Errorf(in.First, in.Last, "invalid initializer for scalar '%s'", name)
			return
		}
		c.processInitializer(dst, t, in.Items[0], name)
	}
}

// elementAddr computes the address of array element i, relative to base.
func (c *Context) elementAddr(base *irb.Variable, elem ctypes.Type, i int) *irb.Variable {
	if c.suppressEmit() {
		return base
	}
	et := c.IRType(elem)
	out := c.NewTemp(irb.NewPtrType(et))
	c.Emit(&irb.Instr{Kind: irb.PtrIdx, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(base), irb.ImmOperand(int64(i))}, Type: et})
	return out
}

// memberAddr computes the address of a record member at offset, relative
// to base.
func (c *Context) memberAddr(base *irb.Variable, memType ctypes.Type, offset int) *irb.Variable {
	if c.suppressEmit() {
		return base
	}
	t := c.IRType(memType)
	out := c.NewTemp(irb.NewPtrType(t))
	c.Emit(&irb.Instr{Kind: irb.RecMbr, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(base), irb.ImmOperand(int64(offset))}, Type: t})
	return out
}

// storeAddr writes value to the address addr of type t.
func (c *Context) storeAddr(addr *irb.Variable, t ctypes.Type, value Result) {
	if c.suppressEmit() {
		return
	}
	irt := c.IRType(t)
	c.Emit(&irb.Instr{Kind: irb.Write, Width: t.Width(), Src: [2]*irb.Operand{irb.VarOperand(addr), irb.VarOperand(value.VarName)}, Type: irt})
}

// zeroFill stores the zero value of t at addr. Records recurse member-by-member; everything
// else is a scalar zero write.
func (c *Context) zeroFill(addr *irb.Variable, t ctypes.Type) {
	if t.IsRecord() {
		entry := c.Registries.Records.Lookup(t.Record)
		for _, m := range entry.Members {
			_, offset, _ := c.Registries.Records.Member(t.Record, m.Name)
			c.zeroFill(c.memberAddr(addr, m.Type, offset), m.Type)
		}
		return
	}
	if t.IsArray() {
		for i := 0; t.SizeKnown && i < int(t.Size); i++ {
			c.zeroFill(c.elementAddr(addr, *t.Target, i), *t.Target)
		}
		return
	}
	if c.suppressEmit() {
		return
	}
	irt := c.IRType(t)
	zero := c.NewTemp(irt)
	c.Emit(&irb.Instr{Kind: irb.Imm, Width: t.Width(), Dst: irb.VarOperand(zero), Src: [2]*irb.Operand{irb.ImmOperand(0)}})
	c.Emit(&irb.Instr{Kind: irb.Write, Width: t.Width(), Src: [2]*irb.Operand{irb.VarOperand(addr), irb.VarOperand(zero)}, Type: irt})
}

// copyArrayFrom implements a char-array initialized from a string
// literal: copies the literal's backing data block into dst with a single
// reccopy instruction.
func (c *Context) copyArrayFrom(dst *irb.Variable, t ctypes.Type, src Result, first, last token.Token) {
	if t.SizeKnown && src.Type.SizeKnown && src.Type.Size > t.Size {
		c.Warnf(first, last, "initializer string too long for array")
	}
	if c.suppressEmit() {
		return
	}
	irt := c.IRType(t)
	c.Emit(&irb.Instr{Kind: irb.RecCopy, Width: 16, Src: [2]*irb.Operand{irb.VarOperand(dst), irb.VarOperand(src.VarName)}, Type: irt})
}
