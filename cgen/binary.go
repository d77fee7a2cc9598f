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

var arithKind = map[ast.OperatorKind]irb.Kind{
	ast.OpAdd: irb.Add, ast.OpSub: irb.Sub, ast.OpMul: irb.Mul,
	ast.OpShl: irb.Shl, ast.OpAnd: irb.And, ast.OpOr: irb.Or, ast.OpXor: irb.Xor,
}

// exprBinary dispatches every two-operand form: comma,
// logical short-circuit, assignment, relational/equality, and plain
// arithmetic/bitwise/shift.
func (c *Context) exprBinary(n *ast.BinaryExpr) Result {
	first, last := n.Span()
	switch n.Op {
	case ast.OpComma:
		l := c.toRvalue(c.Expr(n.X))
		c.CheckUnused(l)
		r := c.Expr(n.Y)
		r.TFirst, r.TLast = first, last
		return r
	case ast.OpLAnd, ast.OpLOr:
		return c.exprLogical(n)
	case ast.OpAssign:
		return c.exprAssign(n)
	case ast.OpAddAssign, ast.OpSubAssign, ast.OpMulAssign, ast.OpShlAssign,
		ast.OpShrAssign, ast.OpAndAssign, ast.OpXorAssign, ast.OpOrAssign:
		return c.exprCompoundAssign(n)
	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq, ast.OpEq, ast.OpNotEq:
		return c.exprRelational(n)
	case ast.OpDiv, ast.OpMod:
		c.Errorf(first, last, "division is not supported by this IR target")
		return Void(first, last)
	default:
		a := c.toRvalue(c.Expr(n.X))
		b := c.toRvalue(c.Expr(n.Y))
		return c.binaryArith(n.Op, a, b, first, last)
	}
}

// binaryArith implements `+ - * << >> & | ^`, including pointer/array
// arithmetic for `+`/`-`.
func (c *Context) binaryArith(op ast.OperatorKind, a, b Result, first, last token.Token) Result {
	if (a.Type.IsPointer() || a.Type.IsArray()) && b.Type.IsIntegral() {
		return c.pointerArith(op, a, b, first, last)
	}
	if a.Type.IsIntegral() && (b.Type.IsPointer() || b.Type.IsArray()) && op == ast.OpAdd {
		c.Warnf(first, last, "integer + pointer: operands reordered")
		return c.pointerArith(op, b, a, first, last)
	}
	if a.Type.IsPointer() && b.Type.IsPointer() && op == ast.OpSub {
		c.Errorf(first, last, "pointer subtraction is not implemented")
		return Void(first, last)
	}

	result, flags := UAC(a.Type, b.Type)
	if flags.TruthValue {
		c.Warnf(first, last, "truth value used in arithmetic")
	}
	if flags.EnumMix || flags.EnumInc {
		c.Warnf(first, last, "enum value mixed with incompatible operand in arithmetic")
	} else if flags.Enum && op == ast.OpAdd && a.Type.IsEnum() && c.Registries.Enums.Lookup(a.Type.Enum).Strict() {
		c.Warnf(first, last, "arithmetic on strict enum value")
	}
	ca := c.Convert(a, result, Implicit)
	cb := c.Convert(b, result, Implicit)

	kind := irb.Shl
	width := result.Width()
	switch op {
	case ast.OpShr:
		if result.Signed() {
			kind = irb.ShrA
		} else {
			kind = irb.ShrL
		}
		if cb.ConstKnown && (cb.ConstInt < 0 || cb.ConstInt >= int64(width)) {
			if cb.ConstInt < 0 {
				c.Warnf(first, last, "shift count is negative")
			} else {
				c.Warnf(first, last, "shift count exceeds operand width")
			}
		}
	case ast.OpShl:
		kind = irb.Shl
		if cb.ConstKnown && (cb.ConstInt < 0 || cb.ConstInt >= int64(width)) {
			if cb.ConstInt < 0 {
				c.Warnf(first, last, "shift count is negative")
			} else {
				c.Warnf(first, last, "shift count exceeds operand width")
			}
		}
	case ast.OpAnd, ast.OpOr, ast.OpXor:
		kind = arithKind[op]
		if result.Signed() {
			c.Warnf(first, last, "bitwise operation on signed operand")
		}
	default:
		kind = arithKind[op]
	}

	res := Result{Type: result, ValKind: Rvalue, TFirst: first, TLast: last}
	if ca.ConstKnown && cb.ConstKnown {
		res.ConstKnown = true
		res.ConstInt = foldArith(op, ca.ConstInt, cb.ConstInt)
		if op == ast.OpMul && result.Signed() && overflowsSigned(res.ConstInt, width) {
			c.Warnf(first, last, "integer overflow in constant expression")
		}
	}
	if flags.Enum && !flags.EnumMix && !flags.EnumInc && (op == ast.OpAnd || op == ast.OpOr || op == ast.OpXor || op == ast.OpAdd) {
		res.Type = a.Type // narrow back to the common strict enum.
	}
	if !c.suppressEmit() {
		out := c.NewTemp(c.IRType(result))
		res.VarName = out
		c.Emit(&irb.Instr{Kind: kind, Width: width, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(ca.VarName), irb.VarOperand(cb.VarName)}})
	}
	return res
}

func foldArith(op ast.OperatorKind, a, b int64) int64 {
	switch op {
	case ast.OpAdd:
		return a + b
	case ast.OpSub:
		return a - b
	case ast.OpMul:
		return a * b
	case ast.OpShl:
		return a << uint(b)
	case ast.OpShr:
		return a >> uint(b)
	case ast.OpAnd:
		return a & b
	case ast.OpOr:
		return a | b
	case ast.OpXor:
		return a ^ b
	}
	return 0
}

// pointerArith implements `ptr +/- int` via the IR `ptridx` instruction,
// and array-index bounds checking.
func (c *Context) pointerArith(op ast.OperatorKind, p, idx Result, first, last token.Token) Result {
	elem := *p.Type.Target
	idxConv := c.Convert(idx, ctypes.NewInt(true, 2), Implicit)
	if op == ast.OpSub {
		idxConv = c.negateResult(idxConv, first, last)
	}
	if p.Type.IsArray() && idxConv.ConstKnown {
		if idxConv.ConstInt < 0 {
			c.Warnf(first, last, "array index is negative")
		} else if p.Type.SizeKnown && idxConv.ConstInt >= int64(p.Type.Size) {
			c.Warnf(first, last, "Array index is out of bounds.")
		}
	}
	resType := ctypes.NewPointer(elem)
	res := Result{Type: resType, ValKind: Rvalue, TFirst: first, TLast: last}
	if p.ConstKnown && idxConv.ConstKnown {
		res.ConstKnown = true
		res.ConstSymbol = p.ConstSymbol
		res.ConstInt = p.ConstInt + idxConv.ConstInt
	}
	if !c.suppressEmit() {
		t := c.IRType(elem)
		out := c.NewTemp(irb.NewPtrType(t))
		res.VarName = out
		c.Emit(&irb.Instr{Kind: irb.PtrIdx, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(p.VarName), irb.VarOperand(idxConv.VarName)}, Type: t})
	}
	return res
}

func (c *Context) negateResult(r Result, first, last token.Token) Result {
	if r.ConstKnown {
		r.ConstInt = -r.ConstInt
	}
	if !c.suppressEmit() {
		out := c.NewTemp(c.IRType(r.Type))
		c.Emit(&irb.Instr{Kind: irb.Neg, Width: r.Type.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(r.VarName)}})
		r.VarName = out
	}
	return r
}

// exprLogical implements `&&`/`||` with short-circuit labels and the
// reused-destination-register idiom, an accepted SSA
// violation.
func (c *Context) exprLogical(n *ast.BinaryExpr) Result {
	first, last := n.Span()
	logic := ctypes.NewBasic(ctypes.Logic)
	a := c.toRvalue(c.Expr(n.X))
	if a.ConstKnown {
		decided := (n.Op == ast.OpLAnd && a.ConstInt == 0) || (n.Op == ast.OpLOr && a.ConstInt != 0)
		if decided {
			v := int64(0)
			if n.Op == ast.OpLOr {
				v = 1
			}
			return Result{Type: logic, ValKind: Rvalue, ConstKnown: true, ConstInt: v, TFirst: first, TLast: last}
		}
		b := c.toRvalue(c.Expr(n.Y))
		if b.ConstKnown {
			v := int64(0)
			if b.ConstInt != 0 {
				v = 1
			}
			return Result{Type: logic, ValKind: Rvalue, ConstKnown: true, ConstInt: v, TFirst: first, TLast: last}
		}
	}
	if c.suppressEmit() {
		b := c.toRvalue(c.Expr(n.Y))
		return Result{Type: logic, ValKind: Rvalue, TFirst: first, TLast: last, ConstKnown: a.ConstKnown && b.ConstKnown}
	}
	out := c.NewTemp(irb.NewIntType(16, true))
	shortLbl := c.freshLabel("sc_short")
	endLbl := c.freshLabel("sc_end")
	if n.Op == ast.OpLAnd {
		c.Emit(&irb.Instr{Kind: irb.Jz, Src: [2]*irb.Operand{irb.VarOperand(a.VarName), irb.ImmOperand(0)}, Dst: irb.VarOperand(&irb.Variable{Name: shortLbl})})
	} else {
		c.Emit(&irb.Instr{Kind: irb.Jnz, Src: [2]*irb.Operand{irb.VarOperand(a.VarName), irb.ImmOperand(0)}, Dst: irb.VarOperand(&irb.Variable{Name: shortLbl})})
	}
	b := c.toRvalue(c.Expr(n.Y))
	c.Emit(&irb.Instr{Kind: irb.Neq, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(b.VarName), irb.ImmOperand(0)}})
	c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: endLbl})})
	c.NewBlock(shortLbl)
	val := int64(0)
	if n.Op == ast.OpLOr {
		val = 1
	}
	c.Emit(&irb.Instr{Kind: irb.Imm, Width: 16, Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.ImmOperand(val)}})
	c.NewBlock(endLbl)
	return Result{Type: logic, ValKind: Rvalue, VarName: out, TFirst: first, TLast: last}
}

// exprRelational implements `< <= > >= == !=`: pointer/
// pointer and integral/integral arms, always producing `logic`.
func (c *Context) exprRelational(n *ast.BinaryExpr) Result {
	first, last := n.Span()
	a := c.toRvalue(c.Expr(n.X))
	b := c.toRvalue(c.Expr(n.Y))
	logic := ctypes.NewBasic(ctypes.Logic)

	if a.Type.IsPointer() && b.Type.IsPointer() {
		if !ctypes.PointerCompatible(*a.Type.Target, *b.Type.Target) {
			c.Warnf(first, last, "comparison of incompatible pointer types")
		}
		if c.ConstMode && !(a.ConstKnown && b.ConstKnown) {
			c.Errorf(first, last, "pointers being compared are not constant")
		}
		return c.emitCompare(relKind(n.Op, false), a, b, logic, first, last)
	}

	result, flags := UAC(a.Type, b.Type)
	if flags.MixedSignToUnsigned {
		c.Warnf(first, last, "Unsigned comparison of mixed-sign integers.")
	}
	if flags.TruthValue {
		c.Warnf(first, last, "truth value compared as integer")
	}
	if flags.EnumInc {
		c.Warnf(first, last, "comparison between different enum types")
	}
	if flags.EnumMix {
		c.Warnf(first, last, "enum value compared against non-enum operand")
	}
	if (a.ConstKnown && a.ConstInt < 0 && !result.Signed()) || (b.ConstKnown && b.ConstInt < 0 && !result.Signed()) {
		c.Warnf(first, last, "negative constant compared as unsigned")
	}
	ca := c.Convert(a, result, Implicit)
	cb := c.Convert(b, result, Implicit)
	return c.emitCompare(relKind(n.Op, !result.Signed()), ca, cb, logic, first, last)
}

func relKind(op ast.OperatorKind, unsigned bool) irb.Kind {
	switch op {
	case ast.OpLt:
		if unsigned {
			return irb.LtU
		}
		return irb.Lt
	case ast.OpLtEq:
		if unsigned {
			return irb.LtEqU
		}
		return irb.LtEq
	case ast.OpGt:
		if unsigned {
			return irb.GtU
		}
		return irb.Gt
	case ast.OpGtEq:
		if unsigned {
			return irb.GtEqU
		}
		return irb.GtEq
	case ast.OpEq:
		return irb.Eq
	case ast.OpNotEq:
		return irb.Neq
	}
	return irb.Eq
}

func (c *Context) emitCompare(kind irb.Kind, a, b Result, resType ctypes.Type, first, last token.Token) Result {
	res := Result{Type: resType, ValKind: Rvalue, TFirst: first, TLast: last}
	if a.ConstKnown && b.ConstKnown {
		res.ConstKnown = true
		res.ConstInt = foldCompare(kind, a.ConstInt, b.ConstInt)
	}
	if !c.suppressEmit() {
		out := c.NewTemp(irb.NewIntType(16, true))
		res.VarName = out
		c.Emit(&irb.Instr{Kind: kind, Width: a.Type.Width(), Dst: irb.VarOperand(out), Src: [2]*irb.Operand{irb.VarOperand(a.VarName), irb.VarOperand(b.VarName)}})
	}
	return res
}

func foldCompare(kind irb.Kind, a, b int64) int64 {
	var v bool
	switch kind {
	case irb.Lt, irb.LtU:
		v = a < b
	case irb.LtEq, irb.LtEqU:
		v = a <= b
	case irb.Gt, irb.GtU:
		v = a > b
	case irb.GtEq, irb.GtEqU:
		v = a >= b
	case irb.Eq:
		v = a == b
	case irb.Neq:
		v = a != b
	}
	if v {
		return 1
	}
	return 0
}

// exprAssign implements plain `=`.
func (c *Context) exprAssign(n *ast.BinaryExpr) Result {
	first, last := n.Span()
	lv := c.Expr(n.X)
	if lv.ValKind != Lvalue {
		c.Errorf(first, last, "lvalue required as left operand of assignment")
		return Void(first, last)
	}
	if lv.Type.IsArray() {
		c.Errorf(first, last, "assignment to array")
		return Void(first, last)
	}
	rv := c.Expr(n.Y)
	converted := c.Convert(rv, lv.Type, Implicit)
	c.store(lv, converted)
	converted.ValKind = Rvalue
	converted.ValUsed = true
	converted.TFirst, converted.TLast = first, last
	return converted
}

var compoundOp = map[ast.OperatorKind]ast.OperatorKind{
	ast.OpAddAssign: ast.OpAdd, ast.OpSubAssign: ast.OpSub, ast.OpMulAssign: ast.OpMul,
	ast.OpShlAssign: ast.OpShl, ast.OpShrAssign: ast.OpShr, ast.OpAndAssign: ast.OpAnd,
	ast.OpXorAssign: ast.OpXor, ast.OpOrAssign: ast.OpOr,
}

// exprCompoundAssign implements `+= -= *= <<= >>= &= ^= |=`.
func (c *Context) exprCompoundAssign(n *ast.BinaryExpr) Result {
	first, last := n.Span()
	lv := c.Expr(n.X)
	if lv.ValKind != Lvalue {
		c.Errorf(first, last, "lvalue required as left operand of assignment")
		return Void(first, last)
	}
	old := c.toRvalue(lv)
	rv := c.toRvalue(c.Expr(n.Y))
	op := compoundOp[n.Op]
	combined := c.binaryArith(op, old, rv, first, last)
	converted := c.Convert(combined, lv.Type, Implicit)
	c.store(lv, converted)
	converted.ValKind = Rvalue
	converted.ValUsed = true
	converted.TFirst, converted.TLast = first, last
	return converted
}
