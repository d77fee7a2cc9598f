package cgen

import (
	"cscore/ast"
	"cscore/ctypes"
	"cscore/irb"
	"cscore/scope"
)

// ----------------------------
// ----- functions -----------
// ----------------------------

// Stmt walks a statement AST node, owning the current IR labeled block.
func (c *Context) Stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Block:
		c.stmtBlock(n)
	case *ast.DeclStmt:
		c.stmtDecl(n)
	case *ast.ExprStmt:
		r := c.Expr(n.X)
		if r.ValKind == Lvalue {
			r = c.toRvalue(r)
		}
		c.CheckUnused(r)
	case *ast.NullStatement:
		if !c.suppressEmit() {
			c.Emit(&irb.Instr{Kind: irb.Nop})
		}
	case *ast.IfStmt:
		c.stmtIf(n)
	case *ast.WhileStmt:
		c.stmtWhile(n)
	case *ast.DoStmt:
		c.stmtDo(n)
	case *ast.ForStmt:
		c.stmtFor(n)
	case *ast.SwitchStmt:
		c.stmtSwitch(n)
	case *ast.CaseStmt:
		c.stmtCase(n)
	case *ast.DefaultStmt:
		c.stmtDefault(n)
	case *ast.BreakStmt:
		c.stmtBreak(n)
	case *ast.ContinueStmt:
		c.stmtContinue(n)
	case *ast.GotoStmt:
		c.stmtGoto(n)
	case *ast.LabeledStmt:
		c.stmtLabeled(n)
	case *ast.ReturnStmt:
		c.stmtReturn(n)
	default:
		first, last := s.Span()
		c.Errorf(first, last, "internal: unhandled statement node")
	}
}

// stmtBlock implements the block statement: new scope, walk statements in
// order, unused-identifier pass, pop scope.
func (c *Context) stmtBlock(n *ast.Block) {
	if n.Nested {
		c.Warnf(n.First, n.Last, "gratuitous nested block")
	}
	pop := c.PushScope()
	for _, item := range n.Items {
		c.Stmt(item)
	}
	c.unusedIdentifierPass(c.Scope)
	pop()
}

// unusedIdentifierPass warns on every declared-but-unused ordinary
// identifier in sc.
func (c *Context) unusedIdentifierPass(sc *scope.Scope) {
	for _, m := range sc.Members() {
		if !m.Used && m.Kind != scope.MemTypedef {
			c.Warnf(m.Tok, m.Tok, "'%s' is declared but never used", m.Name)
		}
	}
}

func (c *Context) stmtDecl(n *ast.DeclStmt) {
	c.declareLocal(n.Decl)
}

func (c *Context) stmtIf(n *ast.IfStmt) {
	cond := c.toRvalue(c.Expr(n.Cond))
	falseLbl := c.freshLabel("false_if")
	endLbl := c.freshLabel("end_if")
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jz, Src: [2]*irb.Operand{irb.VarOperand(cond.VarName), irb.ImmOperand(0)}, Dst: irb.VarOperand(&irb.Variable{Name: falseLbl})})
	}
	c.Stmt(n.Then)
	if n.Else != nil {
		if !c.suppressEmit() {
			c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: endLbl})})
			c.NewBlock(falseLbl)
		}
		c.Stmt(n.Else)
		if !c.suppressEmit() {
			c.NewBlock(endLbl)
		}
	} else if !c.suppressEmit() {
		c.NewBlock(falseLbl)
	}
}

func (c *Context) stmtWhile(n *ast.WhileStmt) {
	topLbl := c.freshLabel("while_top")
	endLbl := c.freshLabel("end_while")
	c.Tracking.PushLoop(&scope.LoopRecord{ContinueLabel: topLbl, BreakLabel: endLbl})
	if !c.suppressEmit() {
		c.NewBlock(topLbl)
	}
	cond := c.toRvalue(c.Expr(n.Cond))
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jz, Src: [2]*irb.Operand{irb.VarOperand(cond.VarName), irb.ImmOperand(0)}, Dst: irb.VarOperand(&irb.Variable{Name: endLbl})})
	}
	c.Stmt(n.Body)
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: topLbl})})
		c.NewBlock(endLbl)
	}
	c.Tracking.Pop()
}

func (c *Context) stmtDo(n *ast.DoStmt) {
	topLbl := c.freshLabel("do_top")
	contLbl := c.freshLabel("do_continue")
	endLbl := c.freshLabel("end_do")
	c.Tracking.PushLoop(&scope.LoopRecord{ContinueLabel: contLbl, BreakLabel: endLbl})
	if !c.suppressEmit() {
		c.NewBlock(topLbl)
	}
	c.Stmt(n.Body)
	if !c.suppressEmit() {
		c.NewBlock(contLbl)
	}
	cond := c.toRvalue(c.Expr(n.Cond))
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jnz, Src: [2]*irb.Operand{irb.VarOperand(cond.VarName), irb.ImmOperand(0)}, Dst: irb.VarOperand(&irb.Variable{Name: topLbl})})
		c.NewBlock(endLbl)
	}
	c.Tracking.Pop()
}

func (c *Context) stmtFor(n *ast.ForStmt) {
	pop := c.PushScope()
	defer pop()
	if n.Init != nil {
		c.Stmt(n.Init)
	}
	topLbl := c.freshLabel("for_top")
	contLbl := c.freshLabel("for_continue")
	endLbl := c.freshLabel("end_for")
	c.Tracking.PushLoop(&scope.LoopRecord{ContinueLabel: contLbl, BreakLabel: endLbl})
	if !c.suppressEmit() {
		c.NewBlock(topLbl)
	}
	if n.Cond != nil {
		cond := c.toRvalue(c.Expr(n.Cond))
		if !c.suppressEmit() {
			c.Emit(&irb.Instr{Kind: irb.Jz, Src: [2]*irb.Operand{irb.VarOperand(cond.VarName), irb.ImmOperand(0)}, Dst: irb.VarOperand(&irb.Variable{Name: endLbl})})
		}
	}
	c.Stmt(n.Body)
	if !c.suppressEmit() {
		c.NewBlock(contLbl)
	}
	if n.Step != nil {
		c.CheckUnused(c.Expr(n.Step))
	}
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: topLbl})})
		c.NewBlock(endLbl)
	}
	c.Tracking.Pop()
}

func (c *Context) stmtSwitch(n *ast.SwitchStmt) {
	tag := c.toRvalue(c.Expr(n.Tag))
	if !tag.Type.IsIntegral() {
		first, last := n.Span()
		c.Errorf(first, last, "switch controlling expression must be integer or enum")
		return
	}
	sw := &scope.SwitchRecord{
		BreakLabel: c.freshLabel("end_switch"),
		TagType: tag.Type,
		IsEnum: tag.Type.IsEnum(),
		Enum: tag.Type.Enum,
		Seen: make(map[int64]bool),
		SeenNames: make(map[string]bool),
	}
	c.Tracking.PushSwitch(sw)
	firstCompareLbl := c.freshLabel("case_cmp")
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: firstCompareLbl})})
		c.NewBlock(c.freshLabel("switch_body"))
	}
	c.switchTag = tag
	c.switchCompareLabel = firstCompareLbl
	c.Stmt(n.Body)
	if !c.suppressEmit() {
		c.NewBlock(c.switchCompareLabel)
		if sw.HasDefault {
			c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: sw.BreakLabel})})
		}
		c.NewBlock(sw.BreakLabel)
	}
	if sw.IsEnum && !sw.HasDefault {
		c.checkEnumExhaustiveness(sw, n)
	}
	c.Tracking.Pop()
}

// checkEnumExhaustiveness warns for every enum constant of a strict enum
// switch that no case covered.
func (c *Context) checkEnumExhaustiveness(sw *scope.SwitchRecord, n *ast.SwitchStmt) {
	e := c.Registries.Enums.Lookup(sw.Enum)
	if !e.Strict() {
		return
	}
	first, last := n.Span()
	for _, el := range e.Elements {
		if !sw.SeenNames[el.Name] {
			c.Warnf(first, last, "Enumeration value '%s' not handled in switch.", el.Name)
		}
	}
}

func (c *Context) stmtCase(n *ast.CaseStmt) {
	sw, ok := c.Tracking.CurrentSwitch()
	if !ok {
		first, last := n.Span()
		c.Errorf(first, last, "'case' outside a switch")
		c.Stmt(n.Body)
		return
	}
	bodyLbl := c.freshLabel("case_body")
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: bodyLbl})})
		c.NewBlock(c.switchCompareLabel)
	}
	pop := c.PushConstMode()
	val := c.Expr(n.Value)
	pop()
	first, last := n.Span()
	if !val.ConstKnown {
		c.Errorf(first, last, "case label does not reduce to a constant expression")
	} else {
		if sw.Seen[val.ConstInt] {
			c.Errorf(first, last, "duplicate case value")
		}
		sw.Seen[val.ConstInt] = true
		if sw.IsEnum {
			for _, el := range c.Registries.Enums.Lookup(sw.Enum).Elements {
				if el.Value == val.ConstInt {
					sw.SeenNames[el.Name] = true
				}
			}
		}
		if val.ConstInt < rangeMin(sw.TagType) || val.ConstInt > rangeMax(sw.TagType) {
			c.Warnf(first, last, "case value is out of range of the switch expression's type")
		}
	}
	nextCmp := c.freshLabel("case_cmp")
	if !c.suppressEmit() {
		cmp := c.NewTemp(irb.NewIntType(16, true))
		c.Emit(&irb.Instr{Kind: irb.Eq, Width: 16, Dst: irb.VarOperand(cmp), Src: [2]*irb.Operand{irb.VarOperand(c.switchTag.VarName), irb.ImmOperand(val.ConstInt)}})
		c.Emit(&irb.Instr{Kind: irb.Jz, Src: [2]*irb.Operand{irb.VarOperand(cmp), irb.ImmOperand(0)}, Dst: irb.VarOperand(&irb.Variable{Name: nextCmp})})
		c.NewBlock(bodyLbl)
	}
	c.switchCompareLabel = nextCmp
	c.Stmt(n.Body)
}

func (c *Context) stmtDefault(n *ast.DefaultStmt) {
	sw, ok := c.Tracking.CurrentSwitch()
	first, last := n.Span()
	if !ok {
		c.Errorf(first, last, "'default' outside a switch")
		c.Stmt(n.Body)
		return
	}
	if sw.HasDefault {
		c.Errorf(first, last, "multiple default labels in one switch")
	}
	sw.HasDefault = true
	if !c.suppressEmit() {
		c.NewBlock(c.freshLabel("default_body"))
	}
	c.Stmt(n.Body)
}

func rangeMin(t ctypes.Type) int64 {
	if !t.Signed() {
		return 0
	}
	return -(int64(1) << uint(t.Width()-1))
}

func rangeMax(t ctypes.Type) int64 {
	if !t.Signed() {
		return int64(1)<<uint(t.Width()) - 1
	}
	return int64(1)<<uint(t.Width()-1) - 1
}

func (c *Context) stmtBreak(n *ast.BreakStmt) {
	lbl, ok := c.Tracking.Breakable()
	if !ok {
		c.Errorf(n.Tok, n.Tok, "'break' outside a loop or switch")
		return
	}
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: lbl})})
	}
}

func (c *Context) stmtContinue(n *ast.ContinueStmt) {
	lbl, ok := c.Tracking.Continuable()
	if !ok {
		c.Errorf(n.Tok, n.Tok, "'continue' outside a loop")
		return
	}
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: lbl})})
	}
}

func (c *Context) stmtGoto(n *ast.GotoStmt) {
	lbl := c.Labels.Use(n.Label, n.LabelTok)
	irLabel := ".L_" + n.Label
	lbl.IRName = irLabel
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.Jmp, Dst: irb.VarOperand(&irb.Variable{Name: irLabel})})
	}
}

func (c *Context) stmtLabeled(n *ast.LabeledStmt) {
	irLabel := ".L_" + n.Label
	_, err := c.Labels.Define(n.Label, n.LabelTok, irLabel)
	if err != nil {
		c.Errorf(n.LabelTok, n.LabelTok, "duplicate goto label '%s'", n.Label)
	}
	if !c.suppressEmit() {
		c.NewBlock(irLabel)
	}
	c.Stmt(n.Body)
}

func (c *Context) stmtReturn(n *ast.ReturnStmt) {
	first, last := n.Span()
	ret := c.Proc.Ret
	retVoid := ret == nil
	if n.Value == nil {
		if !retVoid {
			c.Warnf(first, last, "return without a value in a non-void function")
		}
		if !c.suppressEmit() {
			c.Emit(&irb.Instr{Kind: irb.Ret})
		}
		return
	}
	if retVoid {
		c.Warnf(first, last, "return with a value in a void function")
		c.Expr(n.Value)
		if !c.suppressEmit() {
			c.Emit(&irb.Instr{Kind: irb.Ret})
		}
		return
	}
	v := c.Expr(n.Value)
	cv := c.Convert(v, c.procReturnType, Implicit)
	if !c.suppressEmit() {
		c.Emit(&irb.Instr{Kind: irb.RetV, Width: cv.Type.Width(), Src: [2]*irb.Operand{irb.VarOperand(cv.VarName)}})
	}
}
