package cgen

import (
	"fmt"
	"strconv"
	"strings"

	"cscore/ast"
	"cscore/ctypes"
	"cscore/irb"
	"cscore/scope"
	"cscore/token"
)

// ----------------------------
// ----- Constants -----------
// ----------------------------

// suppressEmit reports whether IR emission and side effects must be
// suppressed: in TypeOnly mode or when there is no open procedure (module-level constant
// folding for array sizes, enum values, global initializers).
func (c *Context) suppressEmit() bool {
	return c.Proc == nil || c.TypeOnly
}

// PushConstMode enters constant-expression mode.
func (c *Context) PushConstMode() func() {
	prev := c.ConstMode
	c.ConstMode = true
	return func() { c.ConstMode = prev }
}

// PushTypeOnly enters the type-only walk sizeof's operand uses (spec
// §4.1, §8 property 6): the expression is walked for its type alone, with
// no IR emitted and no side effect performed.
func (c *Context) PushTypeOnly() func() {
	prev := c.TypeOnly
	c.TypeOnly = true
	return func() { c.TypeOnly = prev }
}

// ---------------------
// ----- functions -----
// ---------------------

// Expr walks an expression AST node and produces its Result.
func (c *Context) Expr(e ast.Expr) Result {
	switch n := e.(type) {
	case *ast.Ident:
		return c.exprIdent(n)
	case *ast.IntLit:
		return c.exprIntLit(n)
	case *ast.CharLit:
		return c.exprCharLit(n)
	case *ast.StringLit:
		return c.exprStringLit(n)
	case *ast.ParenExpr:
		r := c.Expr(n.X)
		r.TFirst, r.TLast = n.First, n.Last
		return r
	case *ast.UnaryExpr:
		return c.exprUnary(n)
	case *ast.AdjustExpr:
		return c.exprAdjust(n)
	case *ast.BinaryExpr:
		return c.exprBinary(n)
	case *ast.IndexExpr:
		return c.exprIndex(n)
	case *ast.MemberExpr:
		return c.exprMember(n)
	case *ast.SizeofExpr:
		return c.exprSizeof(n)
	case *ast.SizeofTypeExpr:
		return c.exprSizeofType(n)
	case *ast.CastExpr:
		return c.exprCast(n)
	case *ast.CallExpr:
		return c.exprCall(n)
	}
	first, last := e.Span()
	c.Errorf(first, last, "internal: unhandled expression node")
	return Void(first, last)
}

// exprIdent dispatches on the four identifier bindings: variable, argument,
// enum constant, and function designator.
func (c *Context) exprIdent(n *ast.Ident) Result {
	m, _ := c.Scope.Lookup(n.Name)
	if m == nil {
		c.Errorf(n.Tok, n.Tok, "'%s' undeclared", n.Name)
		return Void(n.Tok, n.Tok)
	}
	base := Result{Type: m.Type.Clone(), TFirst: n.Tok, TLast: n.Tok}
	switch m.Kind {
	case scope.MemGlobalSymbol:
		sym, ok := c.Symbols.Lookup(n.Name)
		var v *irb.Variable
		if ok {
			v = &irb.Variable{Name: sym.IRName, Type: c.IRType(m.Type)}
		} else {
			v = &irb.Variable{Name: n.Name, Type: c.IRType(m.Type)}
		}
		if !c.suppressEmit() {
			out := c.NewTemp(irb.NewPtrType(c.IRType(m.Type)))
			c.Emit(&irb.Instr{Kind: irb.VarPtr, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(v)}})
			base.VarName = out
		} else {
			base.VarName = v
		}
		base.ValKind = Lvalue
		base.ConstKnown = true
		base.ConstInt = 0
		base.ConstSymbol = v
		return base
	case scope.MemArgument, scope.MemLocalVariable:
		v := &irb.Variable{Name: m.IRName}
		if m.Kind == scope.MemLocalVariable {
			if !c.suppressEmit() {
				out := c.NewTemp(irb.NewPtrType(c.IRType(m.Type)))
				c.Emit(&irb.Instr{Kind: irb.LVarPtr, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(v)}})
				base.VarName = out
			} else {
				base.VarName = v
			}
			base.ValKind = Lvalue
			return base
		}
		base.VarName = v
		base.ValKind = Rvalue
		return base
	case scope.MemEnumElement:
		el, _ := c.Registries.Enums.Member(m.Enum, n.Name)
		base.ValKind = Rvalue
		base.ConstKnown = true
		base.ConstInt = el.Value
		if !c.suppressEmit() {
			out := c.NewTemp(c.IRType(m.Type))
			c.Emit(&irb.Instr{Kind: irb.Imm, Width: m.Type.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.ImmOperand(el.Value)}})
			base.VarName = out
		}
		return base
	case scope.MemTypedef:
		c.Errorf(n.Tok, n.Tok, "'%s' is a typedef name, not a value", n.Name)
		return Void(n.Tok, n.Tok)
	}
	return Void(n.Tok, n.Tok)
}

func (c *Context) exprIntLit(n *ast.IntLit) Result {
	v, typ, overflow := parseIntLit(n.Text)
	if overflow {
		c.Warnf(n.Tok, n.Tok, "integer constant is too large for its type")
	}
	r := Result{Type: typ, ValKind: Rvalue, ConstKnown: true, ConstInt: v, TFirst: n.Tok, TLast: n.Tok}
	if !c.suppressEmit() {
		out := c.NewTemp(c.IRType(typ))
		c.Emit(&irb.Instr{Kind: irb.Imm, Width: typ.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.ImmOperand(v)}})
		r.VarName = out
	}
	return r
}

func (c *Context) exprCharLit(n *ast.CharLit) Result {
	v := parseCharLit(n.Text)
	typ := ctypes.NewBasic(ctypes.Char)
	if n.Wide {
		typ = ctypes.NewBasic(ctypes.Int)
	}
	r := Result{Type: typ, ValKind: Rvalue, ConstKnown: true, ConstInt: v, TFirst: n.Tok, TLast: n.Tok}
	if !c.suppressEmit() {
		out := c.NewTemp(c.IRType(typ))
		c.Emit(&irb.Instr{Kind: irb.Imm, Width: typ.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.ImmOperand(v)}})
		r.VarName = out
	}
	return r
}

// exprStringLit lowers a string literal to its backing data block and
// yields an array-typed result that decays like any other array (spec
// §4.7: "string-literal initializers").
func (c *Context) exprStringLit(n *ast.StringLit) Result {
	decoded, err := strconv.Unquote(n.Text)
	if err != nil {
		decoded = strings.Trim(n.Text, `"`)
	}
	elem := ctypes.Char
	if n.Wide {
		elem = ctypes.Int
	}
	arrType := ctypes.NewArray(ctypes.NewBasic(elem), true, uint64(len(decoded)+1))
	name := fmt.Sprintf(".str.%d", c.stringSeq)
	if !c.TypeOnly {
		c.stringSeq++
		db := c.Module.CreateDataBlock(name)
		db.AppendDataEntry(irb.DataEntry{Type: c.IRType(ctypes.NewBasic(elem)), Str: decoded, IsStr: true})
	}
	v := &irb.Variable{Name: name, Type: c.IRType(arrType)}
	return Result{
		VarName: v, Type: arrType, ValKind: Lvalue,
		ConstKnown: true, ConstSymbol: v,
		TFirst: n.Tok, TLast: n.Tok,
	}
}

func (c *Context) exprUnary(n *ast.UnaryExpr) Result {
	first, last := n.Span()
	switch n.Op {
	case ast.UnaryPlus, ast.UnaryMinus:
		x := c.toRvalue(c.Expr(n.X))
		if x.Type.IsEnum() {
			c.Warnf(first, last, "enum value loses strict-enum information when converted to int")
		}
		x = c.Convert(x, enum2int(x.Type), Implicit)
		if n.Op == ast.UnaryPlus {
			x.TFirst, x.TLast = first, last
			return x
		}
		res := Result{Type: x.Type, ValKind: Rvalue, TFirst: first, TLast: last}
		if x.ConstKnown {
			res.ConstKnown = true
			res.ConstInt = -x.ConstInt
			if overflowsSigned(res.ConstInt, x.Type.Width()) && x.Type.Signed() {
				c.Warnf(first, last, "integer overflow in constant expression")
			}
		}
		if !c.suppressEmit() {
			out := c.NewTemp(c.IRType(x.Type))
			c.Emit(&irb.Instr{Kind: irb.Neg, Width: x.Type.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(x.VarName)}})
			res.VarName = out
		}
		return res
	case ast.UnaryNot:
		x := c.toRvalue(c.Expr(n.X))
		res := Result{Type: ctypes.NewBasic(ctypes.Logic), ValKind: Rvalue, TFirst: first, TLast: last}
		if x.ConstKnown {
			res.ConstKnown = true
			if x.ConstInt == 0 {
				res.ConstInt = 1
			}
		}
		if !c.suppressEmit() {
			res.VarName = c.emitShortCircuitNot(x)
		}
		return res
	case ast.UnaryBNot:
		x := c.toRvalue(c.Expr(n.X))
		if !x.Type.IsIntegral() {
			c.Errorf(first, last, "'~' requires an integral operand")
		}
		if x.Type.Signed() {
			c.Warnf(first, last, "bitwise operation on signed operand")
		}
		res := Result{Type: x.Type, ValKind: Rvalue, TFirst: first, TLast: last}
		if x.ConstKnown {
			res.ConstKnown = true
			res.ConstInt = ^x.ConstInt
		}
		if !c.suppressEmit() {
			out := c.NewTemp(c.IRType(x.Type))
			c.Emit(&irb.Instr{Kind: irb.BNot, Width: x.Type.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(x.VarName)}})
			res.VarName = out
		}
		return res
	case ast.UnaryDeref:
		x := c.toRvalue(c.Expr(n.X))
		if !x.Type.IsPointer() {
			c.Errorf(first, last, "cannot dereference a non-pointer value")
			return Void(first, last)
		}
		return Result{VarName: x.VarName, ValKind: Lvalue, Type: *x.Type.Target, TFirst: first, TLast: last}
	case ast.UnaryAddr:
		x := c.Expr(n.X)
		if x.ValKind != Lvalue {
			c.Errorf(first, last, "lvalue required as unary '&' operand")
			return Void(first, last)
		}
		res := Result{VarName: x.VarName, ValKind: Rvalue, Type: ctypes.NewPointer(x.Type), TFirst: first, TLast: last}
		if x.ConstKnown {
			res.ConstKnown = true
			res.ConstInt = x.ConstInt
			res.ConstSymbol = x.ConstSymbol
		}
		return res
	}
	c.Errorf(first, last, "internal: unhandled unary operator")
	return Void(first, last)
}

func (c *Context) exprAdjust(n *ast.AdjustExpr) Result {
	first, last := n.Span()
	lv := c.Expr(n.X)
	if lv.ValKind != Lvalue {
		c.Errorf(first, last, "lvalue required for '++'/'--' operand")
		return Void(first, last)
	}
	old := c.toRvalue(lv)
	one := Result{Type: ctypes.NewInt(true, 2), ValKind: Rvalue, ConstKnown: true, ConstInt: 1, TFirst: first, TLast: last}
	if !c.suppressEmit() {
		t := c.IRType(one.Type)
		out := c.NewTemp(t)
		c.Emit(&irb.Instr{Kind: irb.Imm, Width: one.Type.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.ImmOperand(1)}})
		one.VarName = out
	}
	op := ast.OpAdd
	if n.Op == ast.Decrement {
		op = ast.OpSub
	}
	updated := c.binaryArith(op, old, one, first, last)
	c.store(lv, updated)
	if n.Prefix {
		updated.ValUsed = true
		return updated
	}
	old.ValUsed = true
	old.TFirst, old.TLast = first, last
	return old
}

func (c *Context) exprIndex(n *ast.IndexExpr) Result {
	// a[b] is equivalent to *(a + b).
	add := &ast.BinaryExpr{OpTok: n.First, Op: ast.OpAdd, X: n.X, Y: n.Index}
	sum := c.exprBinary(add)
	if !sum.Type.IsPointer() {
		return sum
	}
	return Result{VarName: sum.VarName, ValKind: Lvalue, Type: *sum.Type.Target, TFirst: n.First, TLast: n.Last}
}

func (c *Context) exprMember(n *ast.MemberExpr) Result {
	first, last := n.Span()
	base := c.Expr(n.X)
	recType := base.Type
	if n.Arrow {
		base = c.toRvalue(base)
		if !recType.IsPointer() {
			c.Errorf(first, last, "'->' requires a pointer to struct/union")
			return Void(first, last)
		}
		recType = *recType.Target
	}
	if !recType.IsRecord() {
		c.Errorf(first, last, "'.' requires a struct/union operand")
		return Void(first, last)
	}
	if !c.Registries.Records.Defined(recType.Record) {
		c.Errorf(first, last, "member access on incomplete struct/union type")
		return Void(first, last)
	}
	mem, offset, ok := c.Registries.Records.Member(recType.Record, n.Member)
	if !ok {
		c.Errorf(first, last, "no member named '%s'", n.Member)
		return Void(first, last)
	}
	res := Result{Type: mem.Type, ValKind: Lvalue, TFirst: first, TLast: last}
	if !c.suppressEmit() {
		t := c.IRType(mem.Type)
		out := c.NewTemp(irb.NewPtrType(t))
		c.Emit(&irb.Instr{Kind: irb.RecMbr, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(base.VarName), irb.ImmOperand(int64(offset))}, Type: t})
		res.VarName = out
	}
	if base.ConstKnown {
		res.ConstKnown = true
		res.ConstInt = base.ConstInt + int64(offset)
		res.ConstSymbol = base.ConstSymbol
	}
	return res
}

func (c *Context) exprSizeof(n *ast.SizeofExpr) Result {
	first, last := n.Span()
	pop := c.PushTypeOnly()
	inner := c.Expr(n.X)
	pop()
	return c.sizeofResult(inner.Type, first, last)
}

func (c *Context) exprSizeofType(n *ast.SizeofTypeExpr) Result {
	first, last := n.Span()
	t := c.ResolveTypeName(n.Type)
	return c.sizeofResult(t, first, last)
}

func (c *Context) sizeofResult(t ctypes.Type, first, last token.Token) Result {
	sz, ok := c.Sizeof(t, first, last)
	res := Result{Type: ctypes.NewInt(false, 2), ValKind: Rvalue, TFirst: first, TLast: last}
	if ok {
		res.ConstKnown = true
		res.ConstInt = int64(sz)
	}
	if !c.suppressEmit() && ok {
		out := c.NewTemp(c.IRType(res.Type))
		c.Emit(&irb.Instr{Kind: irb.Imm, Width: res.Type.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.ImmOperand(int64(sz))}})
		res.VarName = out
	}
	return res
}

func (c *Context) exprCast(n *ast.CastExpr) Result {
	t := c.ResolveTypeName(n.Type)
	x := c.Expr(n.X)
	r := c.Convert(x, t, Explicit)
	first, last := n.Span()
	r.TFirst, r.TLast = first, last
	return r
}

func (c *Context) exprCall(n *ast.CallExpr) Result {
	first, last := n.Span()
	sym, ok := c.Symbols.Lookup(n.Callee.Name)
	if !ok {
		c.Errorf(first, last, "'%s' undeclared", n.Callee.Name)
		return Void(first, last)
	}
	if !sym.Type.IsFunction() {
		c.Errorf(first, last, "'%s' is not a function", n.Callee.Name)
		return Void(first, last)
	}
	if len(n.Args) != len(sym.Type.Params) {
		if len(n.Args) > len(sym.Type.Params) {
			c.Errorf(first, last, "too many arguments to '%s'", n.Callee.Name)
		} else {
			c.Errorf(first, last, "too few arguments to '%s'", n.Callee.Name)
		}
	}
	args := make([]*irb.Operand, 0, len(n.Args))
	for i, a := range n.Args {
		ar := c.Expr(a)
		if i < len(sym.Type.Params) {
			ar = c.Convert(ar, sym.Type.Params[i], Implicit)
		} else {
			ar = c.toRvalue(ar)
		}
		if !c.suppressEmit() {
			args = append(args, irb.VarOperand(ar.VarName))
		}
	}
	ret := *sym.Type.Return
	res := Result{Type: ret, TFirst: first, TLast: last}
	if !c.suppressEmit() {
		callee := &irb.Variable{Name: sym.IRName}
		if ret.IsVoid() {
			res.ValUsed = true
			c.Emit(&irb.Instr{Kind: irb.Call, Src: [2]*irb.Operand{irb.VarOperand(callee), irb.ListOperand(args)}})
		} else {
			out := c.NewTemp(c.IRType(ret))
			res.VarName = out
			res.ValKind = Rvalue
			res.ValUsed = false
			c.Emit(&irb.Instr{Kind: irb.Call, Width: ret.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(callee), irb.ListOperand(args)}})
		}
	}
	return res
}

// CheckUnused implements the "unused computed value" rule.
func (c *Context) CheckUnused(r Result) {
	if r.IsVoid() {
		return
	}
	if !r.ValUsed {
		c.Warnf(r.TFirst, r.TLast, "Computed expression value is not used")
	}
}

// store emits the write needed to assign value into the storage addressed
// by lv.VarName.
func (c *Context) store(lv Result, value Result) {
	if c.suppressEmit() {
		return
	}
	t := c.IRType(lv.Type)
	c.Emit(&irb.Instr{Kind: irb.Write, Width: lv.Type.Width(), Src: [2]*irb.Operand{irb.VarOperand(lv.VarName), irb.VarOperand(value.VarName)}, Type: t})
}

func (c *Context) emitShortCircuitNot(x Result) *irb.Variable {
	// Reuses a single destination register across both branches.
	out := c.NewTemp(irb.NewIntType(16, true))
	falseLbl := c.freshLabel("false_not")
	endLbl := c.freshLabel("end_not")
	c.Emit(&irb.Instr{Kind: irb.Jz, Src: [2]*irb.Operand{irb.VarOperand(x.VarName), irb.ImmOperand(0)}, Dst: irb.VarOperand(&irb.Variable{Name: falseLbl})})
	c.Emit(&irb.Instr{Kind: irb.Imm, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.ImmOperand(0)}})
	c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: endLbl})})
	c.NewBlock(falseLbl)
	c.Emit(&irb.Instr{Kind: irb.Imm, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.ImmOperand(1)}})
	c.NewBlock(endLbl)
	return out
}

var labelSeq int

func (c *Context) freshLabel(prefix string) string {
	if c.Proc != nil {
		return c.Proc.CreateBlock("").Label + "_" + prefix
	}
	labelSeq++
	return prefix
}

// ResolveTypeName evaluates a standalone type reference (sizeof/cast
// operand) into a ctypes.Type; grounded on the same declarator
// composition machinery decl.go uses for ordinary declarations.
func (c *Context) ResolveTypeName(tn *ast.TypeName) ctypes.Type {
	base, _ := c.resolveSpecs(&tn.Specs, tn.First, tn.Last)
	if tn.Declarator == nil {
		return base
	}
	t, _ := c.composeDeclarator(tn.Declarator, base)
	return t
}
